package dispatch

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxSnippet = 256

// summarizeBody renders an undecodable body for error messages. HTML pages
// are reduced to their title.
func summarizeBody(contentType string, body []byte) string {
	if len(body) == 0 {
		return "empty body"
	}
	if strings.Contains(strings.ToLower(contentType), "html") || looksLikeHTML(body) {
		if title := htmlTitle(body); title != "" {
			return "html page " + `"` + title + `"`
		}
	}
	return readBodySnippet(body)
}

func looksLikeHTML(body []byte) bool {
	head := bytes.ToLower(bytes.TrimSpace(body))
	if len(head) > 64 {
		head = head[:64]
	}
	return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html"))
}

func htmlTitle(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func readBodySnippet(body []byte) string {
	if len(body) > maxSnippet {
		body = body[:maxSnippet]
	}
	return strings.TrimSpace(string(body))
}
