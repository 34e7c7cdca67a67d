package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bankrates/internal/ratetree"
)

func TestShouldEscalateBoundary(t *testing.T) {
	cases := []struct {
		nulls    int
		expected bool
	}{
		{0, false},
		{4, false},
		{5, true},
		{6, true},
	}
	for _, tc := range cases {
		if got := ShouldEscalate(tc.nulls, 5); got != tc.expected {
			t.Errorf("ShouldEscalate(%d, 5) = %v, expected %v", tc.nulls, got, tc.expected)
		}
	}
}

func TestStripFences(t *testing.T) {
	cases := map[string]string{
		"{\"a\": 1}":                              "{\"a\": 1}",
		"```json\n{\"a\": 1}\n```":                "{\"a\": 1}",
		"```\n{\"a\": 1}\n```":                    "{\"a\": 1}",
		"Here you go:\n```json\n{\"a\": 1}\n```":  "{\"a\": 1}",
		"```json\n{\"a\": 1}\n```\ntrailing note": "{\"a\": 1}",
	}
	for input, expected := range cases {
		if got := StripFences(input); got != expected {
			t.Errorf("StripFences(%q) = %q, expected %q", input, got, expected)
		}
	}
}

func testSchema() ratetree.Tree {
	return ratetree.Tree{
		"deposits": ratetree.Branch(ratetree.Tree{
			"savings": ratetree.NullLeaf(),
			"current": ratetree.NullLeaf(),
		}),
		"penalty_interest": ratetree.NullLeaf(),
	}
}

func chatServer(t *testing.T, reply string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": reply}},
			},
		})
	}))
}

func newTestParser(baseURL string) *OpenRouterParser {
	return NewOpenRouterParser(Options{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "test-model",
	}, zerolog.Nop())
}

func TestParseFencedResponse(t *testing.T) {
	srv := chatServer(t, "```json\n{\"deposits\": {\"savings\": 3.75}, \"penalty_interest\": 15.25, \"extra\": 1}\n```", http.StatusOK)
	defer srv.Close()

	data, err := newTestParser(srv.URL).Parse(context.Background(), "raw text", testSchema())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if got, _ := data.Get("deposits.savings"); got == nil || !got.Equal(decimal.RequireFromString("3.75")) {
		t.Fatalf("expected 3.75, got %v", got)
	}
	if got, _ := data.Get("deposits.current"); got != nil {
		t.Fatal("leaf the model omitted must be null")
	}
	if _, ok := data.Get("extra"); ok {
		t.Fatal("keys outside the schema must be dropped")
	}
	if data.Leaves() != testSchema().Leaves() {
		t.Fatal("result must have the schema's exact shape")
	}
}

func TestParseMalformedResponseIsError(t *testing.T) {
	srv := chatServer(t, "the rates are quite high this quarter", http.StatusOK)
	defer srv.Close()

	if _, err := newTestParser(srv.URL).Parse(context.Background(), "raw", testSchema()); err == nil {
		t.Fatal("non-JSON response must surface as an error")
	}
}

func TestParseStalledEndpointTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	parser := NewOpenRouterParser(Options{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "test-model",
		Timeout: 50 * time.Millisecond,
	}, zerolog.Nop())

	start := time.Now()
	_, err := parser.Parse(context.Background(), "raw", testSchema())
	if err == nil {
		t.Fatal("a hung endpoint must surface as an error")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("call was not bounded by the configured timeout, took %v", elapsed)
	}
}

func TestParseTransportErrorIsError(t *testing.T) {
	srv := chatServer(t, "", http.StatusBadGateway)
	defer srv.Close()

	if _, err := newTestParser(srv.URL).Parse(context.Background(), "raw", testSchema()); err == nil {
		t.Fatal("transport failure must surface as an error")
	}
}
