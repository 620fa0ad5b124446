// Package request holds a validated index request. Filter keys, sort fields
// and facets use logical names; the repository maps them to index fields.
package request

import (
	"fmt"

	"github.com/neogranadina/zasqua/internal/domain/search/filter"
)

// Request limits.
const (
	// MaxQueryLength is the maximum allowed free-text query length.
	MaxQueryLength = 1024
	DefaultLimit   = 20
	MaxLimit       = 100
	// MaxOffset bounds deep pagination.
	MaxOffset = 10000
)

// Logical filter keys besides the facet dimensions.
const (
	// KeyParent restricts to descendants of a reference code.
	KeyParent = "parent"
	// KeyStartYear ranges over the first year of a description's dates.
	KeyStartYear = "start_year"
)

// Sort orders results by an index attribute.
type Sort struct {
	Field string
	Desc  bool
}

// Request is a validated index request: one page of hits plus facet counts.
type Request struct {
	query   string
	filters filter.Expression
	sort    *Sort
	offset  int
	limit   int
	facets  []string
}

// New validates and normalizes request parameters.
// An empty query matches every document; the limit defaults to 20.
func New(
	query string,
	filters filter.Expression,
	sort *Sort,
	offset, limit int,
	facets []string,
) (Request, error) {
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if offset < 0 {
		return Request{}, fmt.Errorf("offset must not be negative")
	}
	if offset > MaxOffset {
		return Request{}, fmt.Errorf("offset too large (max %d)", MaxOffset)
	}
	if sort != nil && sort.Field == "" {
		return Request{}, fmt.Errorf("sort field is required")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Request{
		query:   query,
		filters: filters,
		sort:    sort,
		offset:  offset,
		limit:   limit,
		facets:  facets,
	}, nil
}

// Query returns the free-text query, empty for a filter-only request.
func (r *Request) Query() string { return r.query }

// Filters returns the pre-filter expression.
func (r *Request) Filters() filter.Expression { return r.filters }

// Sort returns the explicit ordering, nil for relevance.
func (r *Request) Sort() *Sort { return r.sort }

// Offset returns the number of hits to skip.
func (r *Request) Offset() int { return r.offset }

// Limit returns the page size.
func (r *Request) Limit() int { return r.limit }

// Facets returns the index fields to count.
func (r *Request) Facets() []string { return r.facets }
