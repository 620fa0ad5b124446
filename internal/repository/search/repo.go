package search

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/neogranadina/zasqua/internal/db"
	"github.com/neogranadina/zasqua/internal/domain/search/facet"
	"github.com/neogranadina/zasqua/internal/domain/search/filter"
	"github.com/neogranadina/zasqua/internal/domain/search/request"
	"github.com/neogranadina/zasqua/internal/domain/search/result"
	"github.com/neogranadina/zasqua/internal/repository/document"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	Search(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	Ping(ctx context.Context) error
}

var returnFields = []string{
	document.FieldTitle,
	document.FieldReferenceCode,
	document.FieldDescriptionLevel,
	document.FieldDateExpression,
	document.FieldRepositoryName,
	document.FieldPathCache,
	document.FieldDigitalStatus,
	document.FieldScopeContent,
	document.FieldURL,
}

// Repo implements usecase/search.Index.
type Repo struct {
	store  store
	index  string
	prefix string
	vocab  Vocabulary
}

// New creates a search repository over one index.
func New(s store, index, prefix string, vocab Vocabulary) *Repo {
	return &Repo{store: s, index: index, prefix: prefix, vocab: vocab}
}

// Ping checks that the index backend responds.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", r.index, err)
	}
	return nil
}

// Search runs one request and returns the page of hits with scoped facet counts.
// A request whose filters cannot match anything never reaches the index.
func (r *Repo) Search(ctx context.Context, req request.Request) (result.Set, error) {
	if matchesNothing(req.Filters()) {
		return result.Set{Facets: emptySnapshot(req.Facets())}, nil
	}

	q, err := r.textQuery(&req)
	if err != nil {
		return result.Set{}, err
	}

	sr, err := r.store.Search(ctx, q)
	if err != nil {
		return result.Set{}, fmt.Errorf("search %s: %w", r.index, err)
	}

	set := result.Set{
		Total:  sr.Total,
		Hits:   make([]result.Hit, 0, len(sr.Entries)),
		Facets: r.snapshot(req.Facets(), sr.Facets),
	}
	for i := range sr.Entries {
		set.Hits = append(set.Hits, r.parseEntry(&sr.Entries[i]))
	}
	return set, nil
}

// GlobalFacets returns unscoped counts for every dimension.
func (r *Repo) GlobalFacets(ctx context.Context) (facet.Snapshot, error) {
	facets := make([]string, len(facet.All))
	for i, d := range facet.All {
		facets[i] = string(d)
	}
	q := &db.TextQuery{
		IndexName: r.index,
		Facets:    r.facetFields(facets),
	}
	sr, err := r.store.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("global facets %s: %w", r.index, err)
	}
	return r.snapshot(facets, sr.Facets), nil
}

func (r *Repo) textQuery(req *request.Request) (*db.TextQuery, error) {
	filters, err := r.translate(req.Filters())
	if err != nil {
		return nil, err
	}

	q := &db.TextQuery{
		IndexName:       r.index,
		Query:           req.Query(),
		Filters:         filters,
		Offset:          req.Offset(),
		Limit:           req.Limit(),
		ReturnFields:    returnFields,
		HighlightFields: []string{document.FieldTitle},
		SummarizeField:  document.FieldScopeContent,
		Facets:          r.facetFields(req.Facets()),
	}
	if s := req.Sort(); s != nil {
		field, ok := r.vocab.Sorts[s.Field]
		if !ok {
			return nil, fmt.Errorf("unknown sort field %q", s.Field)
		}
		q.SortBy = field
		q.SortDesc = s.Desc
	}
	return q, nil
}

// translate rewrites logical filter keys into index fields.
func (r *Repo) translate(expr filter.Expression) (filter.Expression, error) {
	conds := make([]filter.Condition, 0, len(expr.Must()))
	for _, c := range expr.Must() {
		field, ok := r.vocab.field(c.Key())
		if !ok {
			return filter.Expression{}, fmt.Errorf("unknown filter key %q", c.Key())
		}
		var (
			tc  filter.Condition
			err error
		)
		if c.IsRange() {
			tc, err = filter.NewRange(field, *c.Range())
		} else {
			tc, err = filter.NewAnyOf(field, c.AnyOf()...)
		}
		if err != nil {
			return filter.Expression{}, fmt.Errorf("filter %s: %w", c.Key(), err)
		}
		conds = append(conds, tc)
	}
	return filter.NewExpression(conds...)
}

func (r *Repo) facetFields(dims []string) []string {
	out := make([]string, 0, len(dims))
	for _, d := range dims {
		if f, ok := r.vocab.Facets[facet.Dimension(d)]; ok {
			out = append(out, f)
		}
	}
	return out
}

func (r *Repo) snapshot(dims []string, raw map[string]map[string]int) facet.Snapshot {
	snap := make(facet.Snapshot, len(dims))
	for _, d := range dims {
		dim := facet.Dimension(d)
		counts := facet.Counts{}
		for v, n := range raw[r.vocab.Facets[dim]] {
			counts[v] = n
		}
		snap[dim] = counts
	}
	return snap
}

// parseEntry converts an index entry into a hit. Title and excerpt are
// HTML: index highlights when present, escaped plain text otherwise.
func (r *Repo) parseEntry(e *db.SearchEntry) result.Hit {
	f := e.Fields
	title := e.Highlights[document.FieldTitle]
	if title == "" {
		title = html.EscapeString(f[document.FieldTitle])
	}
	excerpt := e.Highlights[document.FieldScopeContent]
	if excerpt == "" {
		excerpt = html.EscapeString(f[document.FieldScopeContent])
	}

	url := f[document.FieldURL]
	if url == "" && f[document.FieldReferenceCode] != "" {
		url = "/" + f[document.FieldReferenceCode] + "/"
	}

	return result.New(
		strings.TrimPrefix(e.Key, r.prefix),
		url,
		title,
		excerpt,
		result.Meta{
			Title:            f[document.FieldTitle],
			ReferenceCode:    f[document.FieldReferenceCode],
			DescriptionLevel: f[document.FieldDescriptionLevel],
			DateExpression:   f[document.FieldDateExpression],
			RepositoryName:   f[document.FieldRepositoryName],
			PathCache:        f[document.FieldPathCache],
			DigitalStatus:    f[document.FieldDigitalStatus],
		},
	)
}

func matchesNothing(expr filter.Expression) bool {
	for _, c := range expr.Must() {
		if c.MatchesNothing() {
			return true
		}
	}
	return false
}

func emptySnapshot(dims []string) facet.Snapshot {
	snap := make(facet.Snapshot, len(dims))
	for _, d := range dims {
		snap[facet.Dimension(d)] = facet.Counts{}
	}
	return snap
}
