package dispatch

import (
	"strings"
	"testing"
)

func TestSummarizeBody(t *testing.T) {
	cases := []struct {
		name        string
		contentType string
		body        string
		want        string
	}{
		{"empty", "application/json", "", "empty body"},
		{"text", "text/plain", "  Too many requests \n", "Too many requests"},
		{"html by type", "text/html; charset=utf-8", "<title> Not Found </title>", `html page "Not Found"`},
		{"html by sniff", "", "<!DOCTYPE html><html><head><title>Index</title></head></html>", `html page "Index"`},
		{"html without title", "text/html", "<p>hi</p>", "<p>hi</p>"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := summarizeBody(tc.contentType, []byte(tc.body)); got != tc.want {
				t.Fatalf("want %q, got %q", tc.want, got)
			}
		})
	}
}

func TestSummarizeBodyTruncates(t *testing.T) {
	got := summarizeBody("text/plain", []byte(strings.Repeat("a", 1000)))
	if len(got) != maxSnippet {
		t.Fatalf("expected %d bytes, got %d", maxSnippet, len(got))
	}
}
