package scrape

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/civil"

	"bankrates/internal/ratetree"
)

// Result is one normalized scrape of a source. Data always has the source's
// full schema shape; Raw carries the text the structural parser saw so the
// AI fallback can re-read the same document.
type Result struct {
	Data          ratetree.Tree
	Raw           string
	SourceURL     string
	EffectiveDate civil.Date
}

// Scraper retrieves and parses the published rate table of one source.
type Scraper interface {
	SourceID() string
	SourceName() string
	ScrapeRates(ctx context.Context) (Result, error)
}

// FetchError marks a source as unreachable or without a locatable rate
// document. It is fatal for a single-source request and reported per source
// in an aggregate request. Absence of data inside a reachable document is
// not a FetchError; it yields null leaves instead.
type FetchError struct {
	SourceID string
	URL      string
	Err      error
}

func (e *FetchError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("fetch %s (%s): %v", e.SourceID, e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.SourceID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsFetchError reports whether err is a FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
