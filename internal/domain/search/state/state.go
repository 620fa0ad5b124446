// Package state holds the query state of one search page and its URL codec.
package state

import (
	"slices"
	"strconv"
	"strings"

	"github.com/neogranadina/zasqua/internal/domain/search/facet"
)

// Op is the boolean role of a text filter.
type Op string

const (
	// OpAnd narrows the index query.
	OpAnd Op = "AND"
	// OpNot hides results containing the term.
	OpNot Op = "NOT"
)

// TextFilter is an extra free-text clause beside the main query.
type TextFilter struct {
	Term string
	Op   Op
}

// Granularity is the resolution of a date filter.
type Granularity string

const (
	// GranularityYear selects a single year.
	GranularityYear Granularity = "year"
	// GranularityDecade selects ten years starting at a multiple of ten.
	GranularityDecade Granularity = "decade"
	// GranularityCentury selects a century numbered from 1.
	GranularityCentury Granularity = "century"
)

// DateFilter is a drill-down date selection.
type DateFilter struct {
	Granularity Granularity
	Label       string
	// Base is the year, the decade start year or the century number.
	Base  int
	Years []string
}

// NewDateFilter expands a date selection into its literal years.
func NewDateFilter(g Granularity, base int) (*DateFilter, bool) {
	var first, span int
	switch g {
	case GranularityYear:
		first, span = base, 1
	case GranularityDecade:
		if base%10 != 0 {
			return nil, false
		}
		first, span = base, 10
	case GranularityCentury:
		if base < 1 {
			return nil, false
		}
		first, span = (base-1)*100, 100
	default:
		return nil, false
	}
	if first < 0 {
		return nil, false
	}
	years := make([]string, span)
	for i := range span {
		years[i] = strconv.Itoa(first + i)
	}
	return &DateFilter{Granularity: g, Label: DateLabel(g, base), Base: base, Years: years}, true
}

// DateLabel renders the display label of a date node.
func DateLabel(g Granularity, base int) string {
	switch g {
	case GranularityDecade:
		return strconv.Itoa(base) + "s"
	case GranularityCentury:
		return Roman(base)
	default:
		return strconv.Itoa(base)
	}
}

// CenturyOf returns the 1-based century of a year.
func CenturyOf(year int) int { return year/100 + 1 }

// DecadeOf returns the first year of the decade containing year.
func DecadeOf(year int) int { return year / 10 * 10 }

var romanNumerals = []string{
	"I", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX", "X", "XI",
	"XII", "XIII", "XIV", "XV", "XVI", "XVII", "XVIII", "XIX", "XX", "XXI", "XXII",
}

// Roman converts 1..22 to Roman numerals and anything else to Arabic digits.
func Roman(n int) string {
	if n >= 1 && n <= len(romanNumerals) {
		return romanNumerals[n-1]
	}
	return strconv.Itoa(n)
}

// Direction is a sort direction.
type Direction string

const (
	// Asc sorts ascending.
	Asc Direction = "asc"
	// Desc sorts descending.
	Desc Direction = "desc"
)

// Sort fields understood by the page.
const (
	SortDate          = "date_start_year"
	SortTitle         = "title"
	SortReferenceCode = "reference_code"
)

// SortFields lists the sortable fields.
var SortFields = []string{SortDate, SortTitle, SortReferenceCode}

// Sort is an explicit result ordering. A nil sort means relevance.
type Sort struct {
	Field     string
	Direction Direction
}

// String renders the URL form field:dir.
func (s Sort) String() string { return s.Field + ":" + string(s.Direction) }

// State is the full query state of one search page.
type State struct {
	MainQuery     string
	TextFilters   []TextFilter
	Repository    []string
	Level         []string
	DigitalStatus []string
	Date          *DateFilter
	DateFrom      *int
	DateTo        *int
	Parent        string
	Sort          *Sort
	Page          int
}

// New returns an empty state on page 1.
func New() State { return State{Page: 1} }

// Values returns the selected values of an exclusive dimension.
func (s *State) Values(d facet.Dimension) []string {
	switch d {
	case facet.Repository:
		return s.Repository
	case facet.Level:
		return s.Level
	case facet.DigitalStatus:
		return s.DigitalStatus
	}
	return nil
}

func (s *State) setValues(d facet.Dimension, v []string) {
	switch d {
	case facet.Repository:
		s.Repository = v
	case facet.Level:
		s.Level = v
	case facet.DigitalStatus:
		s.DigitalStatus = v
	}
}

// IsSelected reports whether value is active in d.
func (s *State) IsSelected(d facet.Dimension, value string) bool {
	return slices.Contains(s.Values(d), value)
}

// SetMainQuery replaces the main free-text query.
func (s *State) SetMainQuery(q string) {
	s.MainQuery = strings.TrimSpace(q)
}

// AddTextFilter appends a text clause. Empty and duplicate clauses are ignored.
// A leading '-' is stripped since the URL form reserves it for NOT.
func (s *State) AddTextFilter(term string, op Op) bool {
	term = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(term), "-"))
	if term == "" {
		return false
	}
	if op != OpNot {
		op = OpAnd
	}
	for _, f := range s.TextFilters {
		if f.Term == term && f.Op == op {
			return false
		}
	}
	s.TextFilters = append(s.TextFilters, TextFilter{Term: term, Op: op})
	return true
}

// RemoveTextFilter drops the clause at index i.
func (s *State) RemoveTextFilter(i int) bool {
	if i < 0 || i >= len(s.TextFilters) {
		return false
	}
	s.TextFilters = slices.Delete(slices.Clone(s.TextFilters), i, i+1)
	if len(s.TextFilters) == 0 {
		s.TextFilters = nil
	}
	return true
}

// Select checks or unchecks value in an exclusive dimension.
// Checking replaces any sibling selection.
func (s *State) Select(d facet.Dimension, value string, checked bool) bool {
	if value == "" {
		return false
	}
	switch d {
	case facet.Repository, facet.Level, facet.DigitalStatus:
	default:
		return false
	}
	if checked {
		s.setValues(d, []string{value})
		return true
	}
	cur := s.Values(d)
	if !slices.Contains(cur, value) {
		return false
	}
	next := slices.DeleteFunc(slices.Clone(cur), func(v string) bool { return v == value })
	if len(next) == 0 {
		next = nil
	}
	s.setValues(d, next)
	return true
}

// SelectDate activates a date node and clears any typed date range.
func (s *State) SelectDate(df *DateFilter) {
	s.Date = df
	if df != nil {
		s.DateFrom, s.DateTo = nil, nil
	}
}

// ClearDate drops the date filter.
func (s *State) ClearDate() { s.Date = nil }

// SetDateRange sets inclusive year bounds and clears the drill-down date filter.
func (s *State) SetDateRange(from, to *int) {
	s.DateFrom, s.DateTo = from, to
	if from != nil || to != nil {
		s.Date = nil
	}
}

// SetParent restricts results to descendants of a hierarchy node.
func (s *State) SetParent(ref string) { s.Parent = strings.TrimSpace(ref) }

// SetSort sets the ordering. Unknown fields reset to relevance.
func (s *State) SetSort(field string, dir Direction) {
	if !slices.Contains(SortFields, field) {
		s.Sort = nil
		return
	}
	if dir != Desc {
		dir = Asc
	}
	s.Sort = &Sort{Field: field, Direction: dir}
}

// SetPage moves to page n, clamped to 1.
func (s *State) SetPage(n int) {
	if n < 1 {
		n = 1
	}
	s.Page = n
}

// ClearFilters drops every text filter, facet selection and date bound.
// The main query, parent and sort are kept.
func (s *State) ClearFilters() {
	s.TextFilters = nil
	s.Repository, s.Level, s.DigitalStatus = nil, nil, nil
	s.Date, s.DateFrom, s.DateTo = nil, nil, nil
}

// CombinedQuery joins the main query and the AND clauses.
func (s *State) CombinedQuery() string {
	parts := make([]string, 0, 1+len(s.TextFilters))
	if s.MainQuery != "" {
		parts = append(parts, s.MainQuery)
	}
	for _, f := range s.TextFilters {
		if f.Op == OpAnd {
			parts = append(parts, f.Term)
		}
	}
	return strings.Join(parts, " ")
}

// NotTerms returns the NOT clauses.
func (s *State) NotTerms() []string {
	var terms []string
	for _, f := range s.TextFilters {
		if f.Op == OpNot {
			terms = append(terms, f.Term)
		}
	}
	return terms
}

// HasDateRange reports whether a typed date bound is set.
func (s *State) HasDateRange() bool { return s.DateFrom != nil || s.DateTo != nil }

// HasStructuredFilter reports whether any facet, date or parent filter is active.
func (s *State) HasStructuredFilter() bool {
	return len(s.Repository) > 0 || len(s.Level) > 0 || len(s.DigitalStatus) > 0 ||
		s.Date != nil || s.HasDateRange() || s.Parent != ""
}

// HasFilters reports whether anything beyond the main query narrows the results.
func (s *State) HasFilters() bool {
	return len(s.TextFilters) > 0 || s.HasStructuredFilter()
}

// IsLanding reports whether the state has neither text nor structured filters.
func (s *State) IsLanding() bool {
	return s.CombinedQuery() == "" && !s.HasStructuredFilter()
}

// Clone returns a deep copy.
func (s State) Clone() State {
	c := s
	c.TextFilters = slices.Clone(s.TextFilters)
	c.Repository = slices.Clone(s.Repository)
	c.Level = slices.Clone(s.Level)
	c.DigitalStatus = slices.Clone(s.DigitalStatus)
	if s.Date != nil {
		d := *s.Date
		d.Years = slices.Clone(s.Date.Years)
		c.Date = &d
	}
	if s.DateFrom != nil {
		v := *s.DateFrom
		c.DateFrom = &v
	}
	if s.DateTo != nil {
		v := *s.DateTo
		c.DateTo = &v
	}
	if s.Sort != nil {
		v := *s.Sort
		c.Sort = &v
	}
	return c
}

// Equal reports deep equality. Nil and empty slices compare equal.
func (s State) Equal(o State) bool {
	if s.MainQuery != o.MainQuery || s.Parent != o.Parent || s.Page != o.Page {
		return false
	}
	if !slices.Equal(s.TextFilters, o.TextFilters) ||
		!slices.Equal(s.Repository, o.Repository) ||
		!slices.Equal(s.Level, o.Level) ||
		!slices.Equal(s.DigitalStatus, o.DigitalStatus) {
		return false
	}
	if !equalPtr(s.DateFrom, o.DateFrom) || !equalPtr(s.DateTo, o.DateTo) || !equalPtr(s.Sort, o.Sort) {
		return false
	}
	if (s.Date == nil) != (o.Date == nil) {
		return false
	}
	if s.Date != nil {
		a, b := s.Date, o.Date
		if a.Granularity != b.Granularity || a.Base != b.Base || a.Label != b.Label || !slices.Equal(a.Years, b.Years) {
			return false
		}
	}
	return true
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
