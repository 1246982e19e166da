package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestContentExtractorJoinsParagraphs(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
			<nav><p>Menu</p></nav>
			<div class="entry-content"><p>First   paragraph.</p><p> </p><p>Second paragraph.</p></div>
			<article><p>Ignored once entry-content matched.</p></article>
		</body></html>`))
	}))
	defer server.Close()

	got, err := NewContentExtractor(server.Client(), nil).FetchContent(context.Background(), server.URL+"/story")
	if err != nil {
		t.Fatalf("FetchContent error: %v", err)
	}
	if got != "First paragraph.\n\nSecond paragraph." {
		t.Fatalf("unexpected content: %q", got)
	}
}

func TestContentExtractorPlaceholders(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/missing") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`<html><body><div>No paragraphs here</div></body></html>`))
	}))
	defer server.Close()

	ex := NewContentExtractor(server.Client(), nil)
	for _, path := range []string{"/missing", "/bare"} {
		got, err := ex.FetchContent(context.Background(), server.URL+path)
		if err != nil {
			t.Fatalf("%s: FetchContent error: %v", path, err)
		}
		if got != ExtractionFailed {
			t.Fatalf("%s: expected placeholder, got %q", path, got)
		}
	}
}

func TestContentExtractorSampleURLs(t *testing.T) {
	t.Parallel()

	got, err := NewContentExtractor(nil, nil).FetchContent(context.Background(), "https://example.com/robotics-revolution")
	if err != nil {
		t.Fatalf("FetchContent error: %v", err)
	}
	if !strings.Contains(got, "self-learning robots") {
		t.Fatalf("unexpected sample content: %q", got)
	}
}
