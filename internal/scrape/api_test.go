package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"bankrates/internal/ratetree"
)

func apiSchema() ratetree.Tree {
	return ratetree.Tree{
		"mortgages": ratetree.Branch(ratetree.Tree{
			"indexed":   ratetree.NullLeaf(),
			"unindexed": ratetree.NullLeaf(),
		}),
		"penalty_interest": ratetree.NullLeaf(),
	}
}

func fallbackScraper(listingURL string) *PDFScraper {
	return NewPDFScraper(PDFOptions{
		SourceID:    "testbank",
		SourceName:  "Test Bank",
		ListingURL:  listingURL,
		LinkKeyword: "vaxta",
		Ruleset:     testRuleset(),
		Extract: func([]byte) (string, error) {
			return "Almennir reikningar 0,10%\nDráttarvextir 15,25%", nil
		},
		Now: fixedNow,
	}, testClient(), noopLogger())
}

func newTestMux(pdfCalls *int) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/vextir", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<a href="/vaxtatafla.pdf">tafla</a>`))
	})
	mux.HandleFunc("/vaxtatafla.pdf", func(w http.ResponseWriter, r *http.Request) {
		if pdfCalls != nil {
			*pdfCalls++
		}
		w.Write([]byte("%PDF-1.4 stub"))
	})
	return mux
}

func TestAPIScraperPrefersAPI(t *testing.T) {
	pdfCalls := 0
	mux := newTestMux(&pdfCalls)
	mux.HandleFunc("/api/rates", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"effective_date": "2025-10-24",
			"data": {
				"mortgages": {"indexed": 8.6, "unindexed": null},
				"penalty_interest": 15.25
			}
		}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := NewAPIScraper(APIOptions{
		SourceID:   "testbank",
		SourceName: "Test Bank",
		APIURL:     srv.URL + "/api/rates",
		Schema:     apiSchema(),
		Now:        fixedNow,
	}, testClient(), fallbackScraper(srv.URL+"/vextir"), noopLogger())

	res, err := s.ScrapeRates(context.Background())
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	if res.SourceURL != srv.URL+"/api/rates" {
		t.Fatalf("api result must win, source url %s", res.SourceURL)
	}
	if got, _ := res.Data.Get("mortgages.indexed"); got == nil || !got.Equal(decimal.RequireFromString("8.6")) {
		t.Fatalf("expected 8.6, got %v", got)
	}
	if got, _ := res.Data.Get("mortgages.unindexed"); got != nil {
		t.Fatal("null leaf must stay null")
	}
	if res.EffectiveDate.String() != "2025-10-24" {
		t.Fatalf("expected api effective date, got %s", res.EffectiveDate)
	}
	if pdfCalls != 0 {
		t.Fatal("pdf fallback must not run when the api succeeds")
	}
}

func TestAPIScraperFallsThroughOnHTTPError(t *testing.T) {
	mux := newTestMux(nil)
	apiCalls := 0
	mux.HandleFunc("/api/rates", func(w http.ResponseWriter, r *http.Request) {
		apiCalls++
		w.WriteHeader(http.StatusBadGateway)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := NewAPIScraper(APIOptions{
		SourceID: "testbank",
		APIURL:   srv.URL + "/api/rates",
		Schema:   apiSchema(),
		Now:      fixedNow,
	}, testClient(), fallbackScraper(srv.URL+"/vextir"), noopLogger())

	res, err := s.ScrapeRates(context.Background())
	if err != nil {
		t.Fatalf("fallback should succeed: %v", err)
	}
	if apiCalls != 1 {
		t.Fatalf("api must be attempted exactly once, got %d", apiCalls)
	}
	if res.SourceURL != srv.URL+"/vaxtatafla.pdf" {
		t.Fatalf("expected pdf fallback result, got %s", res.SourceURL)
	}
}

func TestAPIScraperFallsThroughOnSchemaMismatch(t *testing.T) {
	mux := newTestMux(nil)
	mux.HandleFunc("/api/rates", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ok", "data": {"unrelated": {"shape": 1}}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := NewAPIScraper(APIOptions{
		SourceID: "testbank",
		APIURL:   srv.URL + "/api/rates",
		Schema:   apiSchema(),
		Now:      fixedNow,
	}, testClient(), fallbackScraper(srv.URL+"/vextir"), noopLogger())

	res, err := s.ScrapeRates(context.Background())
	if err != nil {
		t.Fatalf("fallback should succeed: %v", err)
	}
	if res.SourceURL != srv.URL+"/vaxtatafla.pdf" {
		t.Fatalf("schema mismatch must fall through to pdf, got %s", res.SourceURL)
	}
}

func TestAPIScraperBothPathsDown(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := NewAPIScraper(APIOptions{
		SourceID: "testbank",
		APIURL:   srv.URL + "/api/rates",
		Schema:   apiSchema(),
		Now:      fixedNow,
	}, testClient(), fallbackScraper(srv.URL+"/vextir"), noopLogger())

	if _, err := s.ScrapeRates(context.Background()); !IsFetchError(err) {
		t.Fatalf("expected FetchError when both paths fail, got %v", err)
	}
}
