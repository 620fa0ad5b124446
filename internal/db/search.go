package db

import (
	"html"
	"regexp"
	"strings"

	"github.com/neogranadina/zasqua/internal/domain/search/filter"
)

// TextQuery is the input for a paginated full-text search.
// An empty Query matches every document; Limit 0 only counts.
type TextQuery struct {
	IndexName       string
	Query           string
	Filters         filter.Expression
	SortBy          string
	SortDesc        bool
	Offset          int
	Limit           int
	ReturnFields    []string
	HighlightFields []string
	// SummarizeField is reduced to a fragment around the matches.
	SummarizeField string
	Facets         []string
	FacetLimit     int
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
	Facets  map[string]map[string]int
}

// SearchEntry is a single document hit from a search.
// Highlights holds HTML fragments keyed by field, with <mark> emphasis.
type SearchEntry struct {
	Key        string
	Score      float64
	Fields     map[string]string
	Highlights map[string]string
}

// MarkOpen and MarkClose wrap highlighted terms in index fragments.
const (
	MarkOpen  = "<mark>"
	MarkClose = "</mark>"
)

var markSplitter = regexp.MustCompile(`</?mark>`)

// SafeMarked re-escapes a highlighted fragment so that <mark> and </mark>
// are its only markup. Backends may or may not escape the text around marks.
func SafeMarked(fragment string) string {
	var b strings.Builder
	last := 0
	for _, loc := range markSplitter.FindAllStringIndex(fragment, -1) {
		b.WriteString(html.EscapeString(html.UnescapeString(fragment[last:loc[0]])))
		b.WriteString(fragment[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(html.EscapeString(html.UnescapeString(fragment[last:])))
	return b.String()
}

// StripMarks removes highlight tags and unescapes the remaining text.
func StripMarks(fragment string) string {
	return html.UnescapeString(markSplitter.ReplaceAllString(fragment, ""))
}
