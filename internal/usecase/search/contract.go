package search

import (
	"context"

	"github.com/neogranadina/zasqua/internal/domain/search/facet"
	"github.com/neogranadina/zasqua/internal/domain/search/request"
	"github.com/neogranadina/zasqua/internal/domain/search/result"
)

// Index defines the search index contract.
type Index interface {
	// Search returns the requested page of hits with facet counts scoped to the whole result.
	Search(ctx context.Context, req request.Request) (result.Set, error)
	// GlobalFacets returns unscoped counts for every dimension.
	GlobalFacets(ctx context.Context) (facet.Snapshot, error)
	Ping(ctx context.Context) error
}
