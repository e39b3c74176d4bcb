package parsers

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var whitespaceRE = regexp.MustCompile(`[ \t\x{00a0}]+`)

// htmlToText flattens a filing document to plain text. Script and style
// bodies are dropped; block boundaries become newlines so sentence and
// section splitting still works downstream.
func htmlToText(data []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		// Not HTML at all: treat the raw bytes as text.
		return normalizeText(string(data))
	}
	doc.Find("script, style").Remove()
	return normalizeText(doc.Text())
}

func normalizeText(s string) string {
	s = whitespaceRE.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// sentences splits text on sentence-ending punctuation. Good enough for
// counting co-mentions; it does not try to handle abbreviations.
var sentenceRE = regexp.MustCompile(`[.!?]\s+`)

func sentences(text string) []string {
	parts := sentenceRE.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); len(p) > 10 {
			out = append(out, p)
		}
	}
	return out
}
