// Package result holds materialized search hits.
package result

import "github.com/neogranadina/zasqua/internal/domain/search/facet"

// Meta is the descriptive metadata of a hit, as plain text.
type Meta struct {
	Title            string
	ReferenceCode    string
	DescriptionLevel string
	DateExpression   string
	RepositoryName   string
	PathCache        string
	DigitalStatus    string
}

// Hit is a single search hit.
type Hit struct {
	id      string
	url     string
	title   string
	excerpt string
	meta    Meta
}

// New creates a hit. title and excerpt are HTML fragments that may carry
// <mark> emphasis from the index; either may be empty.
func New(id, url, title, excerpt string, meta Meta) Hit {
	return Hit{id: id, url: url, title: title, excerpt: excerpt, meta: meta}
}

// ID returns the document identifier.
func (h *Hit) ID() string { return h.id }

// URL returns the description page path.
func (h *Hit) URL() string { return h.url }

// TitleHTML returns the highlighted title fragment, empty when the index sent none.
func (h *Hit) TitleHTML() string { return h.title }

// Excerpt returns the highlighted excerpt fragment.
func (h *Hit) Excerpt() string { return h.excerpt }

// Meta returns the plain metadata.
func (h *Hit) Meta() Meta { return h.meta }

// Set is one page of hits with the facet counts of the whole result.
type Set struct {
	Hits   []Hit
	Total  int
	Facets facet.Snapshot
	// Estimated marks a total the index reports as approximate.
	Estimated bool
}
