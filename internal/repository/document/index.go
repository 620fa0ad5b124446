package document

import "github.com/neogranadina/zasqua/internal/db"

// Index field names.
const (
	FieldTitle            = "title"
	FieldReferenceCode    = "reference_code"
	FieldScopeContent     = "scope_content"
	FieldDateExpression   = "date_expression"
	FieldPathCache        = "path_cache"
	FieldDescriptionLevel = "description_level"
	FieldLevel            = "level"
	FieldRepositoryCode   = "repository_code"
	FieldRepositoryName   = "repository_name"
	FieldDigitalStatus    = "digital_status"
	FieldYear             = "year"
	FieldAncestors        = "ancestors"
	FieldDateStartYear    = "date_start_year"
	FieldURL              = "url"
)

// Schema returns the index definition for catalog descriptions.
// Title and reference code outweigh the scope note in relevance.
func Schema(name, prefix string) *db.IndexDefinition {
	return db.NewIndex(name).
		Prefix(prefix).
		TextWeighted(FieldTitle, 5).Sortable().
		TextWeighted(FieldReferenceCode, 3).Sortable().
		Text(FieldScopeContent).
		Text(FieldDateExpression).
		Text(FieldPathCache).
		Tag(FieldDescriptionLevel).
		Tag(FieldLevel).
		Tag(FieldRepositoryCode).
		Tag(FieldRepositoryName).
		Tag(FieldDigitalStatus).
		Tag(FieldYear).
		Tag(FieldAncestors).
		Tag(FieldURL).
		Numeric(FieldDateStartYear).Sortable().
		MustBuild()
}
