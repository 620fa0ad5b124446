package render

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Suppressed reports whether the visible text of a rendered card contains
// any of the NOT terms, ignoring case.
func Suppressed(cardHTML string, notTerms []string) bool {
	if len(notTerms) == 0 {
		return false
	}
	text := strings.ToLower(PlainText(cardHTML))
	for _, t := range notTerms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" && strings.Contains(text, t) {
			return true
		}
	}
	return false
}

// PlainText returns the visible text of an HTML fragment. Unparseable
// input comes back unchanged.
func PlainText(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return doc.Text()
}
