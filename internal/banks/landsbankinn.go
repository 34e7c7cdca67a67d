package banks

import (
	"regexp"

	"github.com/rs/zerolog"

	"bankrates/internal/fetch"
	"bankrates/internal/parser"
	"bankrates/internal/ratetree"
	"bankrates/internal/scrape"
)

const landsbankinnListingURL = "https://www.landsbankinn.is/vextir-og-verdskra"

// Landsbankinn publishes its full rate table as a PDF linked from the
// pricing page. The listing shows the newest table first.
func Landsbankinn(client *fetch.Client, logger zerolog.Logger) *scrape.PDFScraper {
	return scrape.NewPDFScraper(scrape.PDFOptions{
		SourceID:    "landsbankinn",
		SourceName:  "Landsbankinn",
		ListingURL:  landsbankinnListingURL,
		LinkKeyword: "vaxta",
		Ruleset:     landsbankinnRuleset(),
	}, client, logger)
}

func landsbankinnSchema() ratetree.Tree {
	return ratetree.Tree{
		"deposits": ratetree.Branch(ratetree.Tree{
			"veltureikningar": ratetree.Branch(ratetree.Tree{
				"einkareikningar":      ratetree.NullLeaf(),
				"almennir_fyrirtaekja": ratetree.NullLeaf(),
			}),
			"sparireikningar": ratetree.Branch(ratetree.Tree{
				"kjorbok": ratetree.NullLeaf(),
				"fastvaxtareikningar": ratetree.Branch(ratetree.Tree{
					"3_months":  ratetree.NullLeaf(),
					"6_months":  ratetree.NullLeaf(),
					"12_months": ratetree.NullLeaf(),
					"24_months": ratetree.NullLeaf(),
				}),
				"orlofsreikningar": ratetree.NullLeaf(),
			}),
		}),
		"mortgages": ratetree.Branch(ratetree.Tree{
			"unindexed": ratetree.Branch(ratetree.Tree{
				"ltv_55": ratetree.Branch(ratetree.Tree{
					"1_year": ratetree.NullLeaf(),
					"3_year": ratetree.NullLeaf(),
					"5_year": ratetree.NullLeaf(),
				}),
				"ltv_75": ratetree.Branch(ratetree.Tree{
					"1_year": ratetree.NullLeaf(),
					"3_year": ratetree.NullLeaf(),
					"5_year": ratetree.NullLeaf(),
				}),
			}),
			"indexed": ratetree.Branch(ratetree.Tree{
				"fixed_up_to_75": ratetree.NullLeaf(),
				"fixed_up_to_85": ratetree.NullLeaf(),
			}),
		}),
		"vehicle_loans": ratetree.Branch(ratetree.Tree{
			"ltv_under_51": ratetree.NullLeaf(),
			"ltv_51_70":    ratetree.NullLeaf(),
			"ltv_70_80":    ratetree.NullLeaf(),
		}),
		"short_term": ratetree.Branch(ratetree.Tree{
			"overdraft_individuals": ratetree.NullLeaf(),
			"overdraft_companies":   ratetree.NullLeaf(),
		}),
		"penalty_interest": ratetree.NullLeaf(),
	}
}

func landsbankinnRuleset() parser.Ruleset {
	return parser.Ruleset{
		Schema: landsbankinnSchema(),
		Rules: []parser.Rule{
			{Path: "deposits.veltureikningar.einkareikningar",
				Pattern: regexp.MustCompile(`(?i)Einkareikningar\s+([\d,]+)\s*%`)},
			{Path: "deposits.veltureikningar.almennir_fyrirtaekja",
				Pattern: regexp.MustCompile(`(?i)Almennir veltureikningar fyrirtækja\s+([\d,]+)\s*%`)},
			{Path: "deposits.sparireikningar.kjorbok",
				Pattern: regexp.MustCompile(`(?is)Kjörbók.*?([\d,]+)\s*%`)},
			{Path: "deposits.sparireikningar.fastvaxtareikningar.3_months",
				Pattern: regexp.MustCompile(`(?i)Fastvaxtareikningur - 3ja mánaða binding\s+([\d,]+)\s*%`)},
			{Path: "deposits.sparireikningar.fastvaxtareikningar.6_months",
				Pattern: regexp.MustCompile(`(?i)Fastvaxtareikningur - 6 mánaða binding\s+([\d,]+)\s*%`)},
			{Path: "deposits.sparireikningar.fastvaxtareikningar.12_months",
				Pattern: regexp.MustCompile(`(?i)Fastvaxtareikningur - 12 mánaða binding\s+([\d,]+)\s*%`)},
			{Path: "deposits.sparireikningar.fastvaxtareikningar.24_months",
				Pattern: regexp.MustCompile(`(?i)Fastvaxtareikningur - 24 mánaða binding\s+([\d,]+)\s*%`)},
			{Path: "deposits.sparireikningar.orlofsreikningar",
				Pattern: regexp.MustCompile(`(?is)Orlofsreikningar.*?([\d,]+)\s*%`)},

			{Path: "mortgages.unindexed.ltv_55.1_year",
				Pattern: regexp.MustCompile(`(?i)Íbúðalán, allt að 55% veðsetning\s+([\d,]+)\s*%`)},
			{Path: "mortgages.unindexed.ltv_55.3_year",
				Pattern: regexp.MustCompile(`(?i)Íbúðalán, allt að 55% veðsetning\s+[\d,]+\s*%\s+([\d,]+)\s*%`)},
			{Path: "mortgages.unindexed.ltv_55.5_year",
				Pattern: regexp.MustCompile(`(?i)Íbúðalán, allt að 55% veðsetning\s+[\d,]+\s*%\s+[\d,]+\s*%\s+([\d,]+)\s*%`)},
			{Path: "mortgages.unindexed.ltv_75.1_year",
				Pattern: regexp.MustCompile(`(?i)Íbúðalán, allt að 75% veðsetning\s+([\d,]+)\s*%`)},
			{Path: "mortgages.unindexed.ltv_75.3_year",
				Pattern: regexp.MustCompile(`(?i)Íbúðalán, allt að 75% veðsetning\s+[\d,]+\s*%\s+([\d,]+)\s*%`)},
			{Path: "mortgages.unindexed.ltv_75.5_year",
				Pattern: regexp.MustCompile(`(?i)Íbúðalán, allt að 75% veðsetning\s+[\d,]+\s*%\s+[\d,]+\s*%\s+([\d,]+)\s*%`)},
			{Path: "mortgages.indexed.fixed_up_to_75",
				Pattern: regexp.MustCompile(`(?i)Verðtryggð íbúðalán, allt að 75% veðsetning\s+([\d,]+)\s*%`)},
			{Path: "mortgages.indexed.fixed_up_to_85",
				Pattern: regexp.MustCompile(`(?is)Verðtryggð íbúðalán, allt að 85% veðsetning.*?([\d,]+)\s*%`)},

			{Path: "vehicle_loans.ltv_under_51",
				Pattern: regexp.MustCompile(`(?i)Lánshlutfall <51%\s+([\d,]+)\s*%`)},
			{Path: "vehicle_loans.ltv_51_70",
				Pattern: regexp.MustCompile(`(?i)Lánshlutfall 51-69,9%\s+([\d,]+)\s*%`)},
			{Path: "vehicle_loans.ltv_70_80",
				Pattern: regexp.MustCompile(`(?i)Lánshlutfall 70-80%\s+([\d,]+)\s*%`)},

			{Path: "short_term.overdraft_individuals",
				Pattern: regexp.MustCompile(`(?is)Yfirdráttarlán einstaklinga.*?([\d,]+)\s*%`)},
			{Path: "short_term.overdraft_companies",
				Pattern: regexp.MustCompile(`(?i)Yfirdráttarlán og reikningslán fyrirtækja\s+([\d,]+)\s*%`)},

			{Path: "penalty_interest",
				Pattern: regexp.MustCompile(`(?is)Dráttarvextir.*?([\d,]+)\s*%`)},
		},
	}
}
