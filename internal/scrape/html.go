package scrape

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bankrates/internal/fetch"
	"bankrates/internal/parser"
	"bankrates/internal/ratetree"
)

// HTMLRule binds one schema leaf to a table row on the page: the rule
// matches a section heading, then a row label under it, and picks one of
// the row's rate columns.
type HTMLRule struct {
	Path    string
	Section *regexp.Regexp
	Row     *regexp.Regexp
	Column  int
}

// HTMLOptions parameterise a source that renders its rate table as HTML.
type HTMLOptions struct {
	SourceID   string
	SourceName string
	PageURL    string
	Schema     ratetree.Tree
	Rules      []HTMLRule
	Now        func() time.Time
}

// HTMLScraper fetches a page and maps its tables into the fixed schema.
// Missing rows produce null leaves and structurally absent sections leave
// their whole category null-filled, so the shape stays uniform across
// sources.
type HTMLScraper struct {
	opts   HTMLOptions
	client *fetch.Client
	now    func() time.Time
	logger zerolog.Logger
}

// NewHTMLScraper constructs an HTML scraper.
func NewHTMLScraper(opts HTMLOptions, client *fetch.Client, logger zerolog.Logger) *HTMLScraper {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &HTMLScraper{
		opts:   opts,
		client: client,
		now:    now,
		logger: logger.With().Str("component", "html_scraper").Str("source", opts.SourceID).Logger(),
	}
}

func (s *HTMLScraper) SourceID() string   { return s.opts.SourceID }
func (s *HTMLScraper) SourceName() string { return s.opts.SourceName }

type htmlSection struct {
	heading string
	rows    []htmlRow
}

type htmlRow struct {
	label string
	rates []*decimal.Decimal
}

// ScrapeRates fetches the page, groups its tables under the nearest
// preceding heading, and applies the row rules.
func (s *HTMLScraper) ScrapeRates(ctx context.Context) (Result, error) {
	body, err := s.client.Get(ctx, s.opts.PageURL)
	if err != nil {
		return Result{}, &FetchError{SourceID: s.opts.SourceID, URL: s.opts.PageURL, Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Result{}, &FetchError{SourceID: s.opts.SourceID, URL: s.opts.PageURL, Err: err}
	}

	sections := collectSections(doc)
	data := s.opts.Schema.Shape()

	for _, rule := range s.opts.Rules {
		if rate := applyRule(sections, rule); rate != nil {
			data.Set(rule.Path, rate)
		}
	}

	raw := normalizeWhitespace(doc.Text())
	effective := parser.EffectiveDate(raw, civil.DateOf(s.now().UTC()))

	s.logger.Info().
		Str("url", s.opts.PageURL).
		Int("sections", len(sections)).
		Int("null_leaves", data.NullLeaves()).
		Msg("scraped html rate table")

	return Result{Data: data, Raw: raw, SourceURL: s.opts.PageURL, EffectiveDate: effective}, nil
}

// collectSections walks headings and tables in document order, attaching
// each table to the most recent heading above it.
func collectSections(doc *goquery.Document) []htmlSection {
	var sections []htmlSection
	current := htmlSection{}

	doc.Find("h1, h2, h3, h4, table").Each(func(_ int, sel *goquery.Selection) {
		if goquery.NodeName(sel) != "table" {
			if len(current.rows) > 0 || current.heading != "" {
				sections = append(sections, current)
			}
			current = htmlSection{heading: strings.TrimSpace(sel.Text())}
			return
		}

		sel.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td, th")
			if cells.Length() < 2 {
				return
			}
			label := strings.TrimSpace(cells.First().Text())
			if label == "" {
				return
			}
			var rates []*decimal.Decimal
			cells.Slice(1, cells.Length()).Each(func(_ int, cell *goquery.Selection) {
				if rate := parser.ParsePercent(cell.Text()); rate != nil {
					rates = append(rates, rate)
				}
			})
			if len(rates) == 0 {
				return
			}
			current.rows = append(current.rows, htmlRow{label: label, rates: rates})
		})
	})

	if len(current.rows) > 0 || current.heading != "" {
		sections = append(sections, current)
	}
	return sections
}

func applyRule(sections []htmlSection, rule HTMLRule) *decimal.Decimal {
	for _, section := range sections {
		if !rule.Section.MatchString(strings.ToLower(section.heading)) {
			continue
		}
		for _, row := range section.rows {
			if !rule.Row.MatchString(strings.ToLower(row.label)) {
				continue
			}
			if rule.Column < len(row.rates) {
				return row.rates[rule.Column]
			}
		}
	}
	return nil
}

func normalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

var _ Scraper = (*HTMLScraper)(nil)
