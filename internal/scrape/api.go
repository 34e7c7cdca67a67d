package scrape

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"bankrates/internal/fetch"
	"bankrates/internal/ratetree"
)

// APIOptions parameterise a source with a JSON rate endpoint.
type APIOptions struct {
	SourceID   string
	SourceName string
	APIURL     string
	Schema     ratetree.Tree
	Now        func() time.Time
}

// APIScraper tries a JSON API first and falls through once to an embedded
// PDF pipeline on HTTP error, timeout, or schema mismatch. This is a
// primary/secondary choice, not a retry loop: the first path that returns a
// structurally valid (even partially null) result wins.
type APIScraper struct {
	opts     APIOptions
	client   *fetch.Client
	fallback *PDFScraper
	now      func() time.Time
	logger   zerolog.Logger
}

// NewAPIScraper constructs an API scraper with a PDF fallback.
func NewAPIScraper(opts APIOptions, client *fetch.Client, fallback *PDFScraper, logger zerolog.Logger) *APIScraper {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &APIScraper{
		opts:     opts,
		client:   client,
		fallback: fallback,
		now:      now,
		logger:   logger.With().Str("component", "api_scraper").Str("source", opts.SourceID).Logger(),
	}
}

func (s *APIScraper) SourceID() string   { return s.opts.SourceID }
func (s *APIScraper) SourceName() string { return s.opts.SourceName }

type apiPayload struct {
	EffectiveDate string        `json:"effective_date"`
	Data          ratetree.Tree `json:"data"`
}

// ScrapeRates attempts the API, then the PDF fallback.
func (s *APIScraper) ScrapeRates(ctx context.Context) (Result, error) {
	result, err := s.tryAPI(ctx)
	if err == nil {
		return result, nil
	}

	s.logger.Info().Err(err).Msg("api unavailable, falling back to pdf pipeline")
	if s.fallback == nil {
		return Result{}, &FetchError{SourceID: s.opts.SourceID, URL: s.opts.APIURL, Err: err}
	}
	return s.fallback.ScrapeRates(ctx)
}

func (s *APIScraper) tryAPI(ctx context.Context) (Result, error) {
	var payload apiPayload
	body, err := s.client.GetJSON(ctx, s.opts.APIURL, &payload)
	if err != nil {
		return Result{}, err
	}

	data := payload.Data.Conform(s.opts.Schema)
	if data.NullLeaves() == s.opts.Schema.Leaves() {
		return Result{}, &schemaMismatchError{url: s.opts.APIURL}
	}

	effective := civil.DateOf(s.now().UTC())
	if payload.EffectiveDate != "" {
		if parsed, err := civil.ParseDate(payload.EffectiveDate); err == nil {
			effective = parsed
		}
	}

	s.logger.Info().
		Str("url", s.opts.APIURL).
		Int("null_leaves", data.NullLeaves()).
		Msg("scraped rates from api")

	return Result{Data: data, Raw: string(body), SourceURL: s.opts.APIURL, EffectiveDate: effective}, nil
}

type schemaMismatchError struct{ url string }

func (e *schemaMismatchError) Error() string {
	return "api response at " + e.url + " does not match the rate schema"
}

var _ Scraper = (*APIScraper)(nil)
