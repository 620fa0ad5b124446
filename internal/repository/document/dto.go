package document

import (
	"strconv"

	"github.com/neogranadina/zasqua/internal/db"
	"github.com/neogranadina/zasqua/internal/domain/catalog"
)

// Entry is a description ready for indexing: the record plus the values
// derived from the rest of the catalog.
type Entry struct {
	Description *catalog.Description
	Ancestors   []string
	LevelLabel  string
}

// buildDocument flattens an entry into index fields.
func buildDocument(prefix string, e *Entry) db.Document {
	d := e.Description
	doc := db.Document{
		Key: docKey(prefix, d.ID),
		Text: map[string]string{
			FieldTitle:          d.Title,
			FieldReferenceCode:  d.ReferenceCode,
			FieldScopeContent:   d.ScopeContent,
			FieldDateExpression: d.DateExpression,
			FieldPathCache:      d.PathCache,
		},
		Tags:    make(map[string][]string, 8),
		Numbers: make(map[string]float64, 1),
	}

	setTag(doc.Tags, FieldDescriptionLevel, d.DescriptionLevel)
	setTag(doc.Tags, FieldLevel, e.LevelLabel)
	setTag(doc.Tags, FieldRepositoryCode, d.RepositoryCode)
	setTag(doc.Tags, FieldRepositoryName, d.RepositoryName)
	setTag(doc.Tags, FieldDigitalStatus, d.Digital())
	setTag(doc.Tags, FieldURL, d.URL())
	if len(e.Ancestors) > 0 {
		doc.Tags[FieldAncestors] = e.Ancestors
	}
	if y, ok := d.StartYear(); ok {
		doc.Tags[FieldYear] = []string{strconv.Itoa(y)}
		doc.Numbers[FieldDateStartYear] = float64(y)
	}
	return doc
}

func setTag(tags map[string][]string, field, value string) {
	if value != "" {
		tags[field] = []string{value}
	}
}

func docKey(prefix string, id int64) string {
	return prefix + strconv.FormatInt(id, 10)
}
