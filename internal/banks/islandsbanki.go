package banks

import (
	"regexp"

	"github.com/rs/zerolog"

	"bankrates/internal/fetch"
	"bankrates/internal/ratetree"
	"bankrates/internal/scrape"
)

const islandsbankiPageURL = "https://www.islandsbanki.is/is/grein/vaxtatafla"

// Islandsbanki renders its rate table as plain HTML, one table per product
// group under a heading. Rules match the heading and the row label.
func Islandsbanki(client *fetch.Client, logger zerolog.Logger) *scrape.HTMLScraper {
	return scrape.NewHTMLScraper(scrape.HTMLOptions{
		SourceID:   "islandsbanki",
		SourceName: "Íslandsbanki",
		PageURL:    islandsbankiPageURL,
		Schema:     islandsbankiSchema(),
		Rules:      islandsbankiRules(),
	}, client, logger)
}

func islandsbankiSchema() ratetree.Tree {
	return ratetree.Tree{
		"deposits": ratetree.Branch(ratetree.Tree{
			"veltureikningar": ratetree.Branch(ratetree.Tree{
				"almennir": ratetree.NullLeaf(),
			}),
			"sparireikningar": ratetree.Branch(ratetree.Tree{
				"indexed": ratetree.Branch(ratetree.Tree{
					"sparnadur_36m": ratetree.NullLeaf(),
				}),
				"unindexed": ratetree.Branch(ratetree.Tree{
					"vaxtathrep":   ratetree.NullLeaf(),
					"sparnadur_3m": ratetree.NullLeaf(),
				}),
			}),
		}),
		"mortgages": ratetree.Branch(ratetree.Tree{
			"indexed": ratetree.Branch(ratetree.Tree{
				"variable":  ratetree.NullLeaf(),
				"fixed_5yr": ratetree.NullLeaf(),
			}),
			"unindexed": ratetree.Branch(ratetree.Tree{
				"variable":  ratetree.NullLeaf(),
				"fixed_3yr": ratetree.NullLeaf(),
			}),
		}),
		"overdrafts": ratetree.Branch(ratetree.Tree{
			"individuals": ratetree.NullLeaf(),
		}),
		"vehicle_loans": ratetree.Branch(ratetree.Tree{
			"green":    ratetree.NullLeaf(),
			"standard": ratetree.NullLeaf(),
		}),
		"penalty_interest": ratetree.NullLeaf(),
	}
}

func islandsbankiRules() []scrape.HTMLRule {
	return []scrape.HTMLRule{
		{Path: "deposits.veltureikningar.almennir",
			Section: regexp.MustCompile(`veltureik`),
			Row:     regexp.MustCompile(`almenn`), Column: 0},
		{Path: "deposits.sparireikningar.indexed.sparnadur_36m",
			Section: regexp.MustCompile(`sparireik.*verðtrygg|verðtrygg.*sparireik`),
			Row:     regexp.MustCompile(`sparnaður 36`), Column: 0},
		{Path: "deposits.sparireikningar.unindexed.vaxtathrep",
			Section: regexp.MustCompile(`sparireik`),
			Row:     regexp.MustCompile(`vaxtaþrep`), Column: 0},
		{Path: "deposits.sparireikningar.unindexed.sparnadur_3m",
			Section: regexp.MustCompile(`sparireik`),
			Row:     regexp.MustCompile(`sparnaður 3\b`), Column: 0},

		{Path: "mortgages.indexed.variable",
			Section: regexp.MustCompile(`íbúðalán.*verðtrygg|verðtrygg.*(íbúðalán|fasteignalán)`),
			Row:     regexp.MustCompile(`breytileg`), Column: 0},
		{Path: "mortgages.indexed.fixed_5yr",
			Section: regexp.MustCompile(`íbúðalán.*verðtrygg|verðtrygg.*(íbúðalán|fasteignalán)`),
			Row:     regexp.MustCompile(`fastir.*5 ár`), Column: 0},
		{Path: "mortgages.unindexed.variable",
			Section: regexp.MustCompile(`óverðtrygg.*(íbúðalán|fasteignalán)|íbúðalán.*óverðtrygg`),
			Row:     regexp.MustCompile(`breytileg`), Column: 0},
		{Path: "mortgages.unindexed.fixed_3yr",
			Section: regexp.MustCompile(`óverðtrygg.*(íbúðalán|fasteignalán)|íbúðalán.*óverðtrygg`),
			Row:     regexp.MustCompile(`fastir.*3 ár`), Column: 0},

		{Path: "overdrafts.individuals",
			Section: regexp.MustCompile(`yfirdrátt`),
			Row:     regexp.MustCompile(`einstaklinga`), Column: 0},
		{Path: "vehicle_loans.green",
			Section: regexp.MustCompile(`bíla|ökutæki|bifreið`),
			Row:     regexp.MustCompile(`græn|rafmagn`), Column: 0},
		{Path: "vehicle_loans.standard",
			Section: regexp.MustCompile(`bíla|ökutæki|bifreið`),
			Row:     regexp.MustCompile(`almenn`), Column: 0},
		{Path: "penalty_interest",
			Section: regexp.MustCompile(`dráttarvextir|vanskil`),
			Row:     regexp.MustCompile(`dráttarvextir`), Column: 0},
	}
}
