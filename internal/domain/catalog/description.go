// Package catalog holds archival description records as published by the catalog.
package catalog

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/neogranadina/zasqua/internal/domain/search/facet"
)

// Description is one record of the catalog export (descriptions.json or the catalog API).
type Description struct {
	ID                  int64  `json:"id"`
	ReferenceCode       string `json:"reference_code"`
	Title               string `json:"title"`
	DescriptionLevel    string `json:"description_level"`
	DateExpression      string `json:"date_expression"`
	DateStart           string `json:"date_start"`
	ScopeContent        string `json:"scope_content"`
	PathCache           string `json:"path_cache"`
	ParentID            *int64 `json:"parent_id"`
	ParentReferenceCode string `json:"parent_reference_code"`
	RepositoryCode      string `json:"repository_code"`
	RepositoryName      string `json:"repository_name"`
	HasDigital          bool   `json:"has_digital"`
	DigitalStatus       string `json:"digital_status"`
	ExternalURL         string `json:"external_url"`
}

var yearPattern = regexp.MustCompile(`^\d{4}$`)

// StartYear extracts the year of DateStart ("YYYY-MM-DD" or "YYYY").
func (d *Description) StartYear() (int, bool) {
	if len(d.DateStart) < 4 {
		return 0, false
	}
	prefix := d.DateStart[:4]
	if !yearPattern.MatchString(prefix) {
		return 0, false
	}
	y, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, false
	}
	return y, true
}

// Digital derives the digital status facet value.
func (d *Description) Digital() string {
	switch strings.ToLower(strings.TrimSpace(d.DigitalStatus)) {
	case facet.DigitalZasqua:
		return facet.DigitalZasqua
	case facet.DigitalExternal:
		return facet.DigitalExternal
	case facet.DigitalNone:
		return facet.DigitalNone
	}
	if d.HasDigital {
		return facet.DigitalZasqua
	}
	if d.ExternalURL != "" {
		return facet.DigitalExternal
	}
	return facet.DigitalNone
}

// URL returns the description page path.
func (d *Description) URL() string {
	return "/" + d.ReferenceCode + "/"
}

// Ancestors walks parent_reference_code links and returns the reference codes
// of every ancestor, nearest first. Cycles and missing parents end the walk.
func Ancestors(d *Description, byRef map[string]*Description) []string {
	var out []string
	seen := map[string]bool{d.ReferenceCode: true}
	ref := d.ParentReferenceCode
	for ref != "" && !seen[ref] {
		seen[ref] = true
		out = append(out, ref)
		parent, ok := byRef[ref]
		if !ok {
			break
		}
		ref = parent.ParentReferenceCode
	}
	return out
}

// Page is one page of the catalog API listing.
type Page struct {
	Count   int           `json:"count"`
	Next    string        `json:"next"`
	Results []Description `json:"results"`
}
