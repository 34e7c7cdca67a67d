package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"bankrates/internal/fetch"
	"bankrates/internal/parser"
	"bankrates/internal/ratetree"
)

func noopLogger() zerolog.Logger { return zerolog.Nop() }

func testClient() *fetch.Client {
	return fetch.NewClient(fetch.Options{Timeout: time.Second}, noopLogger())
}

func testRuleset() parser.Ruleset {
	return parser.Ruleset{
		Schema: ratetree.Tree{
			"deposits": ratetree.Branch(ratetree.Tree{
				"almennir": ratetree.NullLeaf(),
			}),
			"penalty_interest": ratetree.NullLeaf(),
		},
		Rules: []parser.Rule{
			{Path: "deposits.almennir", Pattern: regexp.MustCompile(`Almennir reikningar\s+([\d,]+)%`)},
			{Path: "penalty_interest", Pattern: regexp.MustCompile(`Dráttarvextir\s+([\d,]+)%`)},
		},
	}
}

func fixedNow() time.Time {
	return time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC)
}

func fixedDate() civil.Date {
	return civil.DateOf(fixedNow())
}

func TestPDFScraperPicksFirstLinkInDocumentOrder(t *testing.T) {
	var downloaded string
	mux := http.NewServeMux()
	mux.HandleFunc("/vextir", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<a href="/skrar/vaxtatafla-nyjasta.pdf">Vaxtatafla</a>
			<a href="/skrar/vaxtatafla-eldri.pdf">Eldri vaxtatafla</a>
			<a href="/skrar/verdskra.pdf">Verðskrá</a>
		</body></html>`))
	})
	mux.HandleFunc("/skrar/", func(w http.ResponseWriter, r *http.Request) {
		downloaded = r.URL.Path
		w.Write([]byte("%PDF-1.4 stub"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := NewPDFScraper(PDFOptions{
		SourceID:    "testbank",
		SourceName:  "Test Bank",
		ListingURL:  srv.URL + "/vextir",
		LinkKeyword: "vaxta",
		Ruleset:     testRuleset(),
		Extract: func([]byte) (string, error) {
			return "Gildir frá 24. október 2025\nAlmennir reikningar 0,10%\nDráttarvextir 15,25%", nil
		},
		Now: fixedNow,
	}, testClient(), noopLogger())

	res, err := s.ScrapeRates(context.Background())
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}

	if downloaded != "/skrar/vaxtatafla-nyjasta.pdf" {
		t.Fatalf("must download the first matching link in document order, got %s", downloaded)
	}
	if res.SourceURL != srv.URL+"/skrar/vaxtatafla-nyjasta.pdf" {
		t.Fatalf("unexpected source url %s", res.SourceURL)
	}
	if res.Data.NullLeaves() != 0 {
		t.Fatalf("both leaves should parse, got %d nulls", res.Data.NullLeaves())
	}
	if res.EffectiveDate.String() != "2025-10-24" {
		t.Fatalf("expected stated effective date, got %s", res.EffectiveDate)
	}
}

func TestPDFScraperNoLinkIsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><a href="/um-bankann">Um bankann</a></body></html>`))
	}))
	defer srv.Close()

	s := NewPDFScraper(PDFOptions{
		SourceID:    "testbank",
		ListingURL:  srv.URL,
		LinkKeyword: "vaxta",
		Ruleset:     testRuleset(),
		Now:         fixedNow,
	}, testClient(), noopLogger())

	_, err := s.ScrapeRates(context.Background())
	if err == nil {
		t.Fatal("missing pdf link must be a fetch error")
	}
	if !IsFetchError(err) {
		t.Fatalf("expected FetchError, got %T", err)
	}
}

func TestPDFScraperEmptyTextYieldsNullRecord(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/vextir", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<a href="/vaxtatafla.pdf">tafla</a>`))
	})
	mux.HandleFunc("/vaxtatafla.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.4 image only"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := NewPDFScraper(PDFOptions{
		SourceID:    "testbank",
		ListingURL:  srv.URL + "/vextir",
		LinkKeyword: "vaxta",
		Ruleset:     testRuleset(),
		Extract:     func([]byte) (string, error) { return "", nil },
		Now:         fixedNow,
	}, testClient(), noopLogger())

	res, err := s.ScrapeRates(context.Background())
	if err != nil {
		t.Fatalf("absence of text is not a fetch failure: %v", err)
	}
	if res.Data.NullLeaves() != res.Data.Leaves() {
		t.Fatal("record should be all-null")
	}
	if res.EffectiveDate != fixedDate() {
		t.Fatalf("effective date should fall back to the fetch date, got %s", res.EffectiveDate)
	}
}

func TestPDFScraperUnreachableListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewPDFScraper(PDFOptions{
		SourceID:   "testbank",
		ListingURL: srv.URL,
		Ruleset:    testRuleset(),
		Now:        fixedNow,
	}, testClient(), noopLogger())

	if _, err := s.ScrapeRates(context.Background()); !IsFetchError(err) {
		t.Fatalf("expected FetchError, got %v", err)
	}
}
