package redis

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/redis/rueidis"

	"github.com/neogranadina/zasqua/internal/db"
	"github.com/neogranadina/zasqua/internal/domain/search/filter"
)

const (
	defaultFacetLimit = 1000
	summarizeFrags    = 2
	summarizeLen      = 30
)

// Search runs FT.SEARCH and one FT.AGGREGATE per requested facet in a
// single DoMulti round-trip. Every command shares the same query string.
func (s *Store) Search(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Offset < 0 || q.Limit < 0 {
		return nil, fmt.Errorf("offset and limit must be non-negative")
	}

	queryStr := buildQuery(q.Query, q.Filters)

	cmds := make([]rueidis.Completed, 0, 1+len(q.Facets))
	cmds = append(cmds, s.b().Arbitrary("FT.SEARCH").Args(searchArgs(q, queryStr)...).Build())

	facetLimit := q.FacetLimit
	if facetLimit <= 0 {
		facetLimit = defaultFacetLimit
	}
	for _, f := range q.Facets {
		cmds = append(cmds, s.b().Arbitrary("FT.AGGREGATE").
			Args(aggregateArgs(q.IndexName, queryStr, f, facetLimit)...).Build())
	}

	results := s.client.DoMulti(ctx, cmds...)

	raw, err := results[0].ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	out, err := parseSearchResult(raw, markedFields(q))
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	if len(q.Facets) > 0 {
		out.Facets = make(map[string]map[string]int, len(q.Facets))
	}
	for i, f := range q.Facets {
		rows, err := results[i+1].ToArray()
		if err != nil {
			return nil, &db.Error{Op: db.OpAggregate, Err: fmt.Errorf("facet %s: %w", f, err)}
		}
		out.Facets[f] = parseAggregate(rows, f)
	}

	return out, nil
}

func searchArgs(q *db.TextQuery, queryStr string) []string {
	args := []string{q.IndexName, queryStr}

	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)))
		args = append(args, q.ReturnFields...)
	}

	if strings.TrimSpace(q.Query) != "" {
		if q.SummarizeField != "" {
			args = append(args,
				"SUMMARIZE", "FIELDS", "1", q.SummarizeField,
				"FRAGS", strconv.Itoa(summarizeFrags),
				"LEN", strconv.Itoa(summarizeLen),
			)
		}
		if hl := markedFields(q); len(hl) > 0 {
			args = append(args, "HIGHLIGHT", "FIELDS", strconv.Itoa(len(hl)))
			args = append(args, hl...)
			args = append(args, "TAGS", db.MarkOpen, db.MarkClose)
		}
	}

	if q.SortBy != "" {
		dir := "ASC"
		if q.SortDesc {
			dir = "DESC"
		}
		args = append(args, "SORTBY", q.SortBy, dir)
	}

	args = append(args,
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit),
		"DIALECT", "2",
	)
	return args
}

func aggregateArgs(index, queryStr, field string, limit int) []string {
	return []string{
		index, queryStr,
		"LOAD", "1", "@" + field,
		"GROUPBY", "1", "@" + field,
		"REDUCE", "COUNT", "0", "AS", "count",
		"SORTBY", "2", "@count", "DESC",
		"MAX", strconv.Itoa(limit),
		"DIALECT", "2",
	}
}

// markedFields lists fields whose values come back wrapped in highlight tags.
func markedFields(q *db.TextQuery) []string {
	if strings.TrimSpace(q.Query) == "" {
		return nil
	}
	out := make([]string, 0, len(q.HighlightFields)+1)
	out = append(out, q.HighlightFields...)
	if q.SummarizeField != "" && !slices.Contains(out, q.SummarizeField) {
		out = append(out, q.SummarizeField)
	}
	return out
}

// --- Result parsing ---

func parseSearchResult(raw []rueidis.RedisMessage, marked []string) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	entries := make([]db.SearchEntry, 0, (len(raw)-1)/2)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entry := db.SearchEntry{
			Key:    key,
			Fields: parseFieldPairs(fields),
		}
		splitHighlights(&entry, marked)
		entries = append(entries, entry)
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

// splitHighlights moves marked values into Highlights as escaped HTML and
// leaves plain text in Fields.
func splitHighlights(e *db.SearchEntry, marked []string) {
	for _, f := range marked {
		v, ok := e.Fields[f]
		if !ok || !strings.Contains(v, db.MarkOpen) {
			continue
		}
		if e.Highlights == nil {
			e.Highlights = make(map[string]string, len(marked))
		}
		e.Highlights[f] = db.SafeMarked(v)
		e.Fields[f] = db.StripMarks(v)
	}
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// parseAggregate reads GROUPBY rows: [groups, [field, value, count, n], ...].
func parseAggregate(rows []rueidis.RedisMessage, field string) map[string]int {
	out := make(map[string]int)
	for i := 1; i < len(rows); i++ {
		pairs, err := rows[i].ToArray()
		if err != nil {
			continue
		}
		m := parseFieldPairs(pairs)
		value, ok := m[field]
		if !ok || value == "" {
			continue
		}
		n, err := strconv.Atoi(m["count"])
		if err != nil {
			continue
		}
		out[value] += n
	}
	return out
}

// --- Query building ---

// buildQuery joins filter clauses and text terms; both intersect.
func buildQuery(text string, expr filter.Expression) string {
	parts := make([]string, 0, 2)
	if f := buildFilter(expr); f != "" {
		parts = append(parts, f)
	}
	if t := buildText(text); t != "" {
		parts = append(parts, t)
	}
	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " ")
}

// buildText splits on anything that is not a letter or digit, matching the
// way the index tokenizes. Terms are implicitly intersected.
func buildText(text string) string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(words, " ")
}

// buildFilter translates filter.Expression into an FT.SEARCH pre-filter query string.
func buildFilter(expr filter.Expression) string {
	if expr.IsEmpty() {
		return ""
	}

	parts := make([]string, 0, len(expr.Must()))
	for _, cond := range expr.Must() {
		if c := buildCondition(cond); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " ")
}

func buildCondition(cond filter.Condition) string {
	if cond.IsAnyOf() {
		return buildTagFilter(cond.Key(), cond.AnyOf())
	}
	if cond.IsRange() {
		return buildNumericFilter(cond.Key(), *cond.Range())
	}
	return ""
}

func buildTagFilter(key string, values []string) string {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = tagEscaper.Replace(v)
	}
	return fmt.Sprintf("@%s:{%s}", key, strings.Join(escaped, " | "))
}

func buildNumericFilter(key string, r filter.Range) string {
	minBound := "-inf"
	maxBound := "+inf"

	if r.GTE() != nil {
		minBound = strconv.FormatFloat(*r.GTE(), 'f', -1, 64)
	}
	if r.LTE() != nil {
		maxBound = strconv.FormatFloat(*r.LTE(), 'f', -1, 64)
	}

	return fmt.Sprintf("@%s:[%s %s]", key, minBound, maxBound)
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	"/", "\\/",
	" ", "\\ ",
)
