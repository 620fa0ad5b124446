package ingest

import (
	"context"

	domcat "github.com/neogranadina/zasqua/internal/domain/catalog"
	"github.com/neogranadina/zasqua/internal/repository/document"
)

// Source yields every catalog description.
type Source interface {
	Load(ctx context.Context) ([]domcat.Description, error)
}

// Repository writes descriptions to the search index.
type Repository interface {
	EnsureIndex(ctx context.Context) (bool, error)
	Recreate(ctx context.Context) error
	Upsert(ctx context.Context, entries []document.Entry) error
}

// LevelLabeler maps description level codes to display labels.
type LevelLabeler interface {
	Label(code string) string
}
