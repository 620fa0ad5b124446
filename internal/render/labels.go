package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/neogranadina/zasqua/internal/domain"
	"github.com/neogranadina/zasqua/internal/domain/search/facet"
)

// Labels maps description level codes to display labels.
type Labels map[string]string

// DefaultLevelLabels are the catalog's Spanish level names.
var DefaultLevelLabels = Labels{
	"fonds":     "Fondo",
	"subfonds":  "Subfondo",
	"series":    "Serie",
	"subseries": "Subserie",
	"file":      "Expediente",
	"item":      "Unidad documental",
}

// ParseLevelLabels decodes a JSON object of level labels. Empty input yields no labels.
func ParseLevelLabels(raw string) (Labels, error) {
	if strings.TrimSpace(raw) == "" {
		return Labels{}, nil
	}
	var l Labels
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedLabelData, err)
	}
	return l, nil
}

// Label returns the display label of a level code, or the code itself.
func (l Labels) Label(code string) string {
	if v := l[code]; v != "" {
		return v
	}
	return code
}

// Priority lists the level labels from broadest to narrowest.
func (l Labels) Priority() []string {
	out := make([]string, 0, len(facet.LevelCodes))
	for _, code := range facet.LevelCodes {
		out = append(out, l.Label(code))
	}
	return out
}

// JSON encodes the labels for the page container.
func (l Labels) JSON() string {
	if l == nil {
		return "{}"
	}
	b, err := json.Marshal(l)
	if err != nil {
		return "{}"
	}
	return string(b)
}

var digitalLabels = map[string]string{
	facet.DigitalZasqua:   "Digitalizado en Zasqua",
	facet.DigitalExternal: "Digitalizado en otro sitio",
	facet.DigitalNone:     "Sin copia digital",
}

// DigitalLabel returns the display label of a digital status value.
func DigitalLabel(v string) string {
	if l, ok := digitalLabels[v]; ok {
		return l
	}
	return v
}
