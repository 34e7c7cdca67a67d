package scrape

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"bankrates/internal/fetch"
	"bankrates/internal/parser"
	"bankrates/internal/pdftext"
)

// PDFOptions parameterise a PDF-publishing source.
type PDFOptions struct {
	SourceID    string
	SourceName  string
	ListingURL  string
	LinkKeyword string // substring a candidate PDF href must contain, e.g. "vaxta"
	Ruleset     parser.Ruleset
	Extract     pdftext.Extractor // defaults to pdftext.Extract
	Now         func() time.Time  // defaults to time.Now
}

// PDFScraper handles sources that publish their rate table as a PDF linked
// from a listing page. The most recent document is taken to be the first
// matching link in document order.
type PDFScraper struct {
	opts    PDFOptions
	client  *fetch.Client
	extract pdftext.Extractor
	now     func() time.Time
	logger  zerolog.Logger
}

// NewPDFScraper constructs a PDF scraper.
func NewPDFScraper(opts PDFOptions, client *fetch.Client, logger zerolog.Logger) *PDFScraper {
	extract := opts.Extract
	if extract == nil {
		extract = pdftext.Extract
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &PDFScraper{
		opts:    opts,
		client:  client,
		extract: extract,
		now:     now,
		logger:  logger.With().Str("component", "pdf_scraper").Str("source", opts.SourceID).Logger(),
	}
}

func (s *PDFScraper) SourceID() string   { return s.opts.SourceID }
func (s *PDFScraper) SourceName() string { return s.opts.SourceName }

// ScrapeRates locates the newest rate table PDF, downloads it, and runs the
// structural parser over its text. A document without extractable text still
// produces a full-shaped, all-null result; only an unreachable source or a
// missing link is a FetchError.
func (s *PDFScraper) ScrapeRates(ctx context.Context) (Result, error) {
	listing, err := s.client.Get(ctx, s.opts.ListingURL)
	if err != nil {
		return Result{}, &FetchError{SourceID: s.opts.SourceID, URL: s.opts.ListingURL, Err: err}
	}

	pdfURL, err := s.findPDFLink(listing)
	if err != nil {
		return Result{}, &FetchError{SourceID: s.opts.SourceID, URL: s.opts.ListingURL, Err: err}
	}

	content, err := s.client.Get(ctx, pdfURL)
	if err != nil {
		return Result{}, &FetchError{SourceID: s.opts.SourceID, URL: pdfURL, Err: err}
	}

	text, err := s.extract(content)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", pdfURL).Msg("pdf text extraction failed; returning null-valued record")
		text = ""
	}

	data := s.opts.Ruleset.Parse(text)
	effective := parser.EffectiveDate(text, civil.DateOf(s.now().UTC()))

	s.logger.Info().
		Str("url", pdfURL).
		Int("null_leaves", data.NullLeaves()).
		Stringer("effective_date", effective).
		Msg("scraped pdf rate table")

	return Result{Data: data, Raw: text, SourceURL: pdfURL, EffectiveDate: effective}, nil
}

// findPDFLink returns the first matching PDF href in document order. The
// listing page orders tables newest first, so the first match is the most
// recent publication.
func (s *PDFScraper) findPDFLink(listing []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(listing))
	if err != nil {
		return "", err
	}

	keyword := strings.ToLower(s.opts.LinkKeyword)
	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		lowered := strings.ToLower(href)
		if !strings.HasSuffix(lowered, ".pdf") {
			return true
		}
		if keyword != "" && !strings.Contains(lowered, keyword) {
			return true
		}
		found = href
		return false
	})

	if found == "" {
		return "", errors.New("no rate table pdf link located")
	}
	return s.resolveURL(found)
}

func (s *PDFScraper) resolveURL(href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	if ref.IsAbs() {
		return href, nil
	}
	base, err := url.Parse(s.opts.ListingURL)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

var _ Scraper = (*PDFScraper)(nil)
