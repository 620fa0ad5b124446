package bleve

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/char/asciifolding"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/single"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/neogranadina/zasqua/internal/db"
)

const (
	// foldedAnalyzer tokenizes text, folds diacritics and lowercases.
	foldedAnalyzer = "zasqua_folded"
	// sortKeyAnalyzer keeps the whole value as one folded, lowercased term.
	sortKeyAnalyzer = "zasqua_sortkey"
	sortSuffix      = "_sort"
)

func buildMapping(def *db.IndexDefinition) (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()

	if err := im.AddCustomAnalyzer(foldedAnalyzer, map[string]any{
		"type":          custom.Name,
		"char_filters":  []string{asciifolding.Name},
		"tokenizer":     unicode.Name,
		"token_filters": []string{lowercase.Name},
	}); err != nil {
		return nil, fmt.Errorf("folded analyzer: %w", err)
	}
	if err := im.AddCustomAnalyzer(sortKeyAnalyzer, map[string]any{
		"type":          custom.Name,
		"char_filters":  []string{asciifolding.Name},
		"tokenizer":     single.Name,
		"token_filters": []string{lowercase.Name},
	}); err != nil {
		return nil, fmt.Errorf("sort key analyzer: %w", err)
	}
	im.DefaultAnalyzer = foldedAnalyzer

	dm := bleve.NewDocumentStaticMapping()
	for i := range def.Fields {
		f := &def.Fields[i]
		switch f.Type {
		case db.IndexFieldText:
			text := bleve.NewTextFieldMapping()
			text.Analyzer = foldedAnalyzer
			text.IncludeTermVectors = true
			text.IncludeInAll = true
			mappings := []*mapping.FieldMapping{text}
			if f.Sortable {
				key := bleve.NewTextFieldMapping()
				key.Name = f.Name + sortSuffix
				key.Analyzer = sortKeyAnalyzer
				key.Store = false
				key.IncludeInAll = false
				key.IncludeTermVectors = false
				mappings = append(mappings, key)
			}
			dm.AddFieldMappingsAt(f.Name, mappings...)

		case db.IndexFieldTag:
			kw := bleve.NewKeywordFieldMapping()
			kw.IncludeInAll = false
			dm.AddFieldMappingsAt(f.Name, kw)

		case db.IndexFieldNumeric:
			num := bleve.NewNumericFieldMapping()
			num.IncludeInAll = false
			dm.AddFieldMappingsAt(f.Name, num)

		default:
			return nil, fmt.Errorf("field %s: unknown type", f.Name)
		}
	}

	im.DefaultMapping = dm
	im.IndexDynamic = false
	im.StoreDynamic = false
	return im, nil
}

// sortField resolves the indexed field that orders by the given field.
func sortField(def *db.IndexDefinition, name string) string {
	if f, ok := def.Field(name); ok && f.Type == db.IndexFieldText && f.Sortable {
		return name + sortSuffix
	}
	return name
}
