package banks

import (
	"regexp"

	"github.com/rs/zerolog"

	"bankrates/internal/fetch"
	"bankrates/internal/parser"
	"bankrates/internal/ratetree"
	"bankrates/internal/scrape"
)

const (
	arionbankiAPIURL     = "https://www.arionbanki.is/api/interest-rates"
	arionbankiListingURL = "https://www.arionbanki.is/bankinn/fleira/vextir-og-verdskra/"
)

// Arionbanki exposes a JSON endpoint for its rates; the published
// "Vaxtatafla einstaklinga" PDF serves as the fallback when the endpoint
// is down or returns something we cannot map onto the schema.
func Arionbanki(client *fetch.Client, logger zerolog.Logger) *scrape.APIScraper {
	fallback := scrape.NewPDFScraper(scrape.PDFOptions{
		SourceID:    "arionbanki",
		SourceName:  "Arion banki",
		ListingURL:  arionbankiListingURL,
		LinkKeyword: "vaxtatafla",
		Ruleset:     arionbankiRuleset(),
	}, client, logger)

	return scrape.NewAPIScraper(scrape.APIOptions{
		SourceID:   "arionbanki",
		SourceName: "Arion banki",
		APIURL:     arionbankiAPIURL,
		Schema:     arionbankiSchema(),
	}, client, fallback, logger)
}

func arionbankiSchema() ratetree.Tree {
	return ratetree.Tree{
		"deposits": ratetree.Branch(ratetree.Tree{
			"veltureikningar": ratetree.Branch(ratetree.Tree{
				"almennir": ratetree.NullLeaf(),
			}),
			"sparireikningar": ratetree.Branch(ratetree.Tree{
				"ibudasparnadur": ratetree.NullLeaf(),
				"voxtur_30": ratetree.Branch(ratetree.Tree{
					"tier_0_5m":  ratetree.NullLeaf(),
					"tier_5m_20m": ratetree.NullLeaf(),
				}),
			}),
		}),
		"mortgages": ratetree.Branch(ratetree.Tree{
			"indexed": ratetree.Branch(ratetree.Tree{
				"variable_ibudalan_i":  ratetree.NullLeaf(),
				"variable_ibudalan_ii": ratetree.NullLeaf(),
				"fixed_3yr_ibudalan_i": ratetree.NullLeaf(),
			}),
			"unindexed": ratetree.Branch(ratetree.Tree{
				"variable_ibudalan_i":  ratetree.NullLeaf(),
				"variable_ibudalan_ii": ratetree.NullLeaf(),
			}),
		}),
		"vehicle_loans": ratetree.Branch(ratetree.Tree{
			"electric_ltv_under_50": ratetree.NullLeaf(),
		}),
		"overdrafts": ratetree.Branch(ratetree.Tree{
			"individuals": ratetree.NullLeaf(),
		}),
		"credit_cards": ratetree.Branch(ratetree.Tree{
			"installments": ratetree.NullLeaf(),
		}),
		"penalty_interest": ratetree.NullLeaf(),
	}
}

func arionbankiRuleset() parser.Ruleset {
	return parser.Ruleset{
		Schema: arionbankiSchema(),
		Rules: []parser.Rule{
			{Path: "deposits.veltureikningar.almennir",
				Pattern: regexp.MustCompile(`(?is)Veltureikningur.*?(\d+[,\.]\d+)\s*%`)},
			{Path: "deposits.sparireikningar.ibudasparnadur",
				Pattern: regexp.MustCompile(`(?is)Íbúðasparnaður.*?(\d+[,\.]\d+)\s*%`)},
			{Path: "deposits.sparireikningar.voxtur_30.tier_0_5m",
				Pattern: regexp.MustCompile(`(?is)Vöxtur 30.*?0-5 millj.*?(\d+[,\.]\d+)\s*%`)},
			{Path: "deposits.sparireikningar.voxtur_30.tier_5m_20m",
				Pattern: regexp.MustCompile(`(?is)Vöxtur 30.*?5-20 millj.*?(\d+[,\.]\d+)\s*%`)},

			{Path: "mortgages.indexed.variable_ibudalan_i",
				Pattern: regexp.MustCompile(`(?is)Verðtryggð íbúðalán.*?Breytilegir vextir.*?Íbúðalán I.*?(\d+[,\.]\d+)\s*%`)},
			{Path: "mortgages.indexed.variable_ibudalan_ii",
				Pattern: regexp.MustCompile(`(?is)Íbúðalán II.*?(\d+[,\.]\d+)\s*%`)},
			{Path: "mortgages.indexed.fixed_3yr_ibudalan_i",
				Pattern: regexp.MustCompile(`(?is)Fastir vextir í 3 ár.*?Íbúðalán I.*?(\d+[,\.]\d+)\s*%`)},
			{Path: "mortgages.unindexed.variable_ibudalan_i",
				Pattern: regexp.MustCompile(`(?is)Óverðtryggð íbúðalán.*?Breytilegir vextir.*?Íbúðalán I.*?(\d+[,\.]\d+)\s*%`)},
			{Path: "mortgages.unindexed.variable_ibudalan_ii",
				Pattern: regexp.MustCompile(`(?is)Óverðtryggð.*?Íbúðalán II.*?(\d+[,\.]\d+)\s*%`)},

			{Path: "vehicle_loans.electric_ltv_under_50",
				Pattern: regexp.MustCompile(`(?is)Rafmagn.*?50%.*?(\d+[,\.]\d+)\s*%`)},
			{Path: "overdrafts.individuals",
				Pattern: regexp.MustCompile(`(?is)Yfirdráttarlán einstaklinga.*?(\d+[,\.]\d+)\s*%`)},
			{Path: "credit_cards.installments",
				Pattern: regexp.MustCompile(`(?is)Greiðsludreifing.*?kreditkorta.*?(\d+[,\.]\d+)\s*%`)},
			{Path: "penalty_interest",
				Pattern: regexp.MustCompile(`(?is)Dráttarvextir.*?(\d+[,\.]\d+)\s*%`)},
		},
	}
}
