// Package facet holds facet dimensions, count snapshots and option ordering.
package facet

import (
	"sort"
	"strconv"
)

// Dimension names a facet dimension as exposed on the URL and in the UI.
type Dimension string

const (
	// Repository is the holding repository (display name).
	Repository Dimension = "repository"
	// Level is the archival description level (display label).
	Level Dimension = "level"
	// DigitalStatus is the availability of a digital copy.
	DigitalStatus Dimension = "digital_status"
	// Year is the start year of a description.
	Year Dimension = "year"
)

// Exclusive lists the exclusive-choice dimensions in URL order.
var Exclusive = []Dimension{Repository, Level, DigitalStatus}

// All lists every dimension counted by a search.
var All = []Dimension{Repository, Level, DigitalStatus, Year}

// IsValid reports whether d is a known dimension.
func (d Dimension) IsValid() bool {
	switch d {
	case Repository, Level, DigitalStatus, Year:
		return true
	}
	return false
}

// Digital status values.
const (
	DigitalZasqua   = "zasqua"
	DigitalExternal = "external"
	DigitalNone     = "none"
)

// DigitalOrder is the display priority of digital status values.
var DigitalOrder = []string{DigitalZasqua, DigitalExternal, DigitalNone}

// LevelCodes is the description hierarchy from broadest to narrowest.
var LevelCodes = []string{"fonds", "subfonds", "series", "subseries", "file", "item"}

// Counts maps facet values to document counts.
type Counts map[string]int

// Snapshot is the facet counts of one search, keyed by dimension.
// A nil or empty snapshot means "no options".
type Snapshot map[Dimension]Counts

// Get returns the counts for d, never nil.
func (s Snapshot) Get(d Dimension) Counts {
	if c, ok := s[d]; ok && c != nil {
		return c
	}
	return Counts{}
}

// Has reports whether d carries any counts.
func (s Snapshot) Has(d Dimension) bool {
	return len(s[d]) > 0
}

// Sum adds the counts of the given values. Unknown values count as zero.
func (c Counts) Sum(values ...string) int {
	total := 0
	for _, v := range values {
		total += c[v]
	}
	return total
}

// Years returns the numeric year keys of the year dimension.
func (s Snapshot) Years() map[int]bool {
	years := make(map[int]bool, len(s[Year]))
	for k, n := range s[Year] {
		if n <= 0 {
			continue
		}
		if y, err := strconv.Atoi(k); err == nil {
			years[y] = true
		}
	}
	return years
}

// Option is one selectable facet value.
type Option struct {
	Value  string
	Label  string
	Count  int
	Active bool
}

// Order builds the display options of one dimension.
// Active values come first (and are kept even when their count is zero),
// then values follow priority when given, then count descending, ties by label.
func Order(counts Counts, active []string, priority []string, label func(string) string) []Option {
	if label == nil {
		label = func(v string) string { return v }
	}
	isActive := make(map[string]bool, len(active))
	for _, v := range active {
		isActive[v] = true
	}
	rank := make(map[string]int, len(priority))
	for i, v := range priority {
		rank[v] = i
	}

	opts := make([]Option, 0, len(counts)+len(active))
	seen := make(map[string]bool, len(counts))
	for v, n := range counts {
		if n <= 0 && !isActive[v] {
			continue
		}
		seen[v] = true
		opts = append(opts, Option{Value: v, Label: label(v), Count: n, Active: isActive[v]})
	}
	for _, v := range active {
		if !seen[v] {
			seen[v] = true
			opts = append(opts, Option{Value: v, Label: label(v), Active: true})
		}
	}

	sort.SliceStable(opts, func(i, j int) bool {
		a, b := opts[i], opts[j]
		if a.Active != b.Active {
			return a.Active
		}
		ra, okA := rank[a.Value]
		rb, okB := rank[b.Value]
		if okA && okB && ra != rb {
			return ra < rb
		}
		if okA != okB {
			return okA
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Label < b.Label
	})
	return opts
}
