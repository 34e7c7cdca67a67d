package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestClient() *Client {
	return NewClient(Options{Timeout: time.Second, UserAgent: "bankrates-test/1.0"}, zerolog.Nop())
}

func TestGetSendsUserAgent(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	body, err := newTestClient().Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(body) != "ok" {
		t.Fatalf("unexpected body %q", body)
	}
	if ua != "bankrates-test/1.0" {
		t.Fatalf("unexpected user agent %q", ua)
	}
}

func TestGetRejectsNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := newTestClient().Get(context.Background(), srv.URL); err == nil {
		t.Fatal("non-200 status must surface as an error")
	}
}

func TestGetJSONReturnsRawBody(t *testing.T) {
	const doc = `{"effective_date": "2025-10-24"}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(doc))
	}))
	defer srv.Close()

	var payload struct {
		EffectiveDate string `json:"effective_date"`
	}
	body, err := newTestClient().GetJSON(context.Background(), srv.URL, &payload)
	if err != nil {
		t.Fatalf("get json failed: %v", err)
	}
	if payload.EffectiveDate != "2025-10-24" {
		t.Fatalf("unexpected decode result %q", payload.EffectiveDate)
	}
	if string(body) != doc {
		t.Fatalf("raw body must be returned verbatim, got %q", body)
	}
}

func TestGetJSONRejectsMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	var out map[string]any
	_, err := newTestClient().GetJSON(context.Background(), srv.URL, &out)
	if err == nil {
		t.Fatal("malformed json must surface as an error")
	}
	if !strings.Contains(err.Error(), "decode json") {
		t.Fatalf("unexpected error %v", err)
	}
}
