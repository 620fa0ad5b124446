package search

import (
	"fmt"

	"github.com/neogranadina/zasqua/internal/db"
	"github.com/neogranadina/zasqua/internal/domain/search/facet"
	"github.com/neogranadina/zasqua/internal/domain/search/request"
	"github.com/neogranadina/zasqua/internal/domain/search/state"
	"github.com/neogranadina/zasqua/internal/repository/document"
)

// Vocabulary maps logical names used by requests to index fields.
type Vocabulary struct {
	Facets  map[facet.Dimension]string
	Filters map[string]string
	Sorts   map[string]string
}

// DefaultVocabulary matches document.Schema.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Facets: map[facet.Dimension]string{
			facet.Repository:    document.FieldRepositoryName,
			facet.Level:         document.FieldLevel,
			facet.DigitalStatus: document.FieldDigitalStatus,
			facet.Year:          document.FieldYear,
		},
		Filters: map[string]string{
			request.KeyParent:    document.FieldAncestors,
			request.KeyStartYear: document.FieldDateStartYear,
		},
		Sorts: map[string]string{
			state.SortDate:          document.FieldDateStartYear,
			state.SortTitle:         document.FieldTitle,
			state.SortReferenceCode: document.FieldReferenceCode,
		},
	}
}

// Validate checks every mapping against the index definition: facet and
// set filters need tag fields, the year range a numeric one, sorts sortable ones.
func (v Vocabulary) Validate(def *db.IndexDefinition) error {
	for _, d := range facet.All {
		field, ok := v.Facets[d]
		if !ok {
			return fmt.Errorf("facet %s: no index field", d)
		}
		if err := expectField(def, field, db.IndexFieldTag); err != nil {
			return fmt.Errorf("facet %s: %w", d, err)
		}
	}
	if err := expectField(def, v.Filters[request.KeyParent], db.IndexFieldTag); err != nil {
		return fmt.Errorf("filter %s: %w", request.KeyParent, err)
	}
	if err := expectField(def, v.Filters[request.KeyStartYear], db.IndexFieldNumeric); err != nil {
		return fmt.Errorf("filter %s: %w", request.KeyStartYear, err)
	}
	for _, s := range state.SortFields {
		field, ok := v.Sorts[s]
		if !ok {
			return fmt.Errorf("sort %s: no index field", s)
		}
		f, ok := def.Field(field)
		if !ok || !f.Sortable {
			return fmt.Errorf("sort %s: field %q is not sortable", s, field)
		}
	}
	return nil
}

func expectField(def *db.IndexDefinition, name string, typ db.IndexFieldType) error {
	f, ok := def.Field(name)
	if !ok {
		return fmt.Errorf("field %q not in index %s", name, def.Name)
	}
	if f.Type != typ {
		return fmt.Errorf("field %q has the wrong type", name)
	}
	return nil
}

// field resolves a logical filter key: a facet dimension or a named filter.
func (v Vocabulary) field(key string) (string, bool) {
	if f, ok := v.Facets[facet.Dimension(key)]; ok {
		return f, true
	}
	f, ok := v.Filters[key]
	return f, ok
}
