// Package catalog reads catalog description records from an export file or
// the paginated catalog API.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	domcat "github.com/neogranadina/zasqua/internal/domain/catalog"
)

// FileSource reads a descriptions.json export. The file holds either a bare
// array of records or one API page object.
type FileSource struct {
	path string
}

// NewFileSource creates a source over one export file.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Load reads every record of the file.
func (s *FileSource) Load(ctx context.Context) ([]domcat.Description, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	descs, err := decodeRecords(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return descs, nil
}

func decodeRecords(raw []byte) ([]domcat.Description, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var descs []domcat.Description
		if err := json.Unmarshal(trimmed, &descs); err != nil {
			return nil, err
		}
		return descs, nil
	}
	var page domcat.Page
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}
