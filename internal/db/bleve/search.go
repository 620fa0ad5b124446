package bleve

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	blevesearch "github.com/blevesearch/bleve/v2/search"
	htmlhighlighter "github.com/blevesearch/bleve/v2/search/highlight/highlighter/html"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/neogranadina/zasqua/internal/db"
	"github.com/neogranadina/zasqua/internal/domain/search/filter"
)

const defaultFacetLimit = 1000

// Search runs one bleve request carrying the page, highlights and term facets.
func (s *Store) Search(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Offset < 0 || q.Limit < 0 {
		return nil, fmt.Errorf("offset and limit must be non-negative")
	}

	oi, err := s.open(ctx, q.IndexName)
	if err != nil {
		return nil, err
	}

	req := buildRequest(oi.def, q)
	res, err := oi.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return convertResult(res, q), nil
}

func buildRequest(def *db.IndexDefinition, q *db.TextQuery) *bleve.SearchRequest {
	req := bleve.NewSearchRequestOptions(buildQuery(q.Query, q.Filters), q.Limit, q.Offset, false)

	if len(q.ReturnFields) > 0 {
		req.Fields = q.ReturnFields
	} else {
		req.Fields = []string{"*"}
	}

	if marked := markedFields(q); len(marked) > 0 {
		req.Highlight = bleve.NewHighlightWithStyle(htmlhighlighter.Name)
		req.Highlight.Fields = marked
	}

	if q.SortBy != "" {
		field := sortField(def, q.SortBy)
		if q.SortDesc {
			field = "-" + field
		}
		req.SortBy([]string{field, "_id"})
	}

	limit := q.FacetLimit
	if limit <= 0 {
		limit = defaultFacetLimit
	}
	for _, f := range q.Facets {
		req.AddFacet(f, bleve.NewFacetRequest(f, limit))
	}
	return req
}

// buildQuery intersects the text match with every filter condition.
func buildQuery(text string, expr filter.Expression) query.Query {
	var parts []query.Query

	if strings.TrimSpace(text) != "" {
		mq := bleve.NewMatchQuery(text)
		mq.SetOperator(query.MatchQueryOperatorAnd)
		parts = append(parts, mq)
	}

	for _, cond := range expr.Must() {
		parts = append(parts, buildCondition(cond))
	}

	switch len(parts) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return parts[0]
	default:
		return bleve.NewConjunctionQuery(parts...)
	}
}

func buildCondition(cond filter.Condition) query.Query {
	if cond.IsRange() {
		r := cond.Range()
		inclusive := true
		rq := bleve.NewNumericRangeInclusiveQuery(r.GTE(), r.LTE(), &inclusive, &inclusive)
		rq.SetField(cond.Key())
		return rq
	}
	if cond.MatchesNothing() {
		return bleve.NewMatchNoneQuery()
	}

	terms := make([]query.Query, 0, len(cond.AnyOf()))
	for _, v := range cond.AnyOf() {
		tq := bleve.NewTermQuery(v)
		tq.SetField(cond.Key())
		terms = append(terms, tq)
	}
	if len(terms) == 1 {
		return terms[0]
	}
	return bleve.NewDisjunctionQuery(terms...)
}

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

// --- Result conversion ---

func convertResult(res *bleve.SearchResult, q *db.TextQuery) *db.SearchResult {
	out := &db.SearchResult{
		Total:   int(res.Total),
		Entries: make([]db.SearchEntry, 0, len(res.Hits)),
	}
	for _, hit := range res.Hits {
		out.Entries = append(out.Entries, convertHit(hit))
	}

	if len(q.Facets) > 0 {
		out.Facets = make(map[string]map[string]int, len(q.Facets))
		for _, f := range q.Facets {
			out.Facets[f] = convertFacet(res.Facets[f])
		}
	}
	return out
}

func convertHit(hit *blevesearch.DocumentMatch) db.SearchEntry {
	e := db.SearchEntry{
		Key:    hit.ID,
		Score:  hit.Score,
		Fields: make(map[string]string, len(hit.Fields)),
	}
	for k, v := range hit.Fields {
		e.Fields[k] = fieldString(v)
	}
	for field, frags := range hit.Fragments {
		if len(frags) == 0 || !strings.Contains(frags[0], db.MarkOpen) {
			continue
		}
		if e.Highlights == nil {
			e.Highlights = make(map[string]string, len(hit.Fragments))
		}
		e.Highlights[field] = db.SafeMarked(frags[0])
	}
	return e
}

func convertFacet(fr *blevesearch.FacetResult) map[string]int {
	out := make(map[string]int)
	if fr == nil || fr.Terms == nil {
		return out
	}
	for _, t := range fr.Terms.Terms() {
		out[t.Term] = t.Count
	}
	return out
}

// fieldString flattens stored values: arrays join with the tag separator.
func fieldString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(x))
		for _, p := range x {
			parts = append(parts, fieldString(p))
		}
		return strings.Join(parts, db.DefaultTagSeparator)
	default:
		return fmt.Sprint(x)
	}
}
