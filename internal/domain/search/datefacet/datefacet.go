// Package datefacet reshapes flat per-year counts into a century/decade/year tree.
package datefacet

import (
	"sort"
	"strconv"

	"github.com/neogranadina/zasqua/internal/domain/search/state"
)

// Year is a leaf of the date tree.
type Year struct {
	Value  int
	Label  string
	Count  int
	Active bool
}

// Decade groups ten years.
type Decade struct {
	Base     int
	Label    string
	Count    int
	Years    []Year
	Active   bool
	Expanded bool
}

// Century groups a hundred years.
type Century struct {
	Number   int
	Label    string
	Count    int
	Decades  []Decade
	Active   bool
	Expanded bool
}

// Tree is the date facet hierarchy, centuries in ascending order.
type Tree struct {
	Centuries []Century
}

// Filter returns the date filter selecting this year.
func (y Year) Filter() *state.DateFilter {
	df, _ := state.NewDateFilter(state.GranularityYear, y.Value)
	return df
}

// Filter returns the date filter selecting this decade.
func (d Decade) Filter() *state.DateFilter {
	df, _ := state.NewDateFilter(state.GranularityDecade, d.Base)
	return df
}

// Filter returns the date filter selecting this century.
func (c Century) Filter() *state.DateFilter {
	df, _ := state.NewDateFilter(state.GranularityCentury, c.Number)
	return df
}

// Build aggregates year counts into the tree. Non-numeric keys and
// non-positive counts are skipped.
func Build(yearCounts map[string]int) Tree {
	centuries := map[int]map[int]map[int]int{}
	for key, n := range yearCounts {
		if n <= 0 {
			continue
		}
		y, err := strconv.Atoi(key)
		if err != nil || y < 0 {
			continue
		}
		c, d := state.CenturyOf(y), state.DecadeOf(y)
		if centuries[c] == nil {
			centuries[c] = map[int]map[int]int{}
		}
		if centuries[c][d] == nil {
			centuries[c][d] = map[int]int{}
		}
		centuries[c][d][y] += n
	}

	var tree Tree
	for _, c := range sortedKeys(centuries) {
		century := Century{Number: c, Label: state.DateLabel(state.GranularityCentury, c)}
		for _, d := range sortedKeys(centuries[c]) {
			decade := Decade{Base: d, Label: state.DateLabel(state.GranularityDecade, d)}
			for _, y := range sortedKeys(centuries[c][d]) {
				n := centuries[c][d][y]
				decade.Years = append(decade.Years, Year{Value: y, Label: strconv.Itoa(y), Count: n})
				decade.Count += n
			}
			century.Decades = append(century.Decades, decade)
			century.Count += decade.Count
		}
		tree.Centuries = append(tree.Centuries, century)
	}
	return tree
}

// Visible applies drill-down visibility for the active date filter.
// With no filter every century is listed collapsed. With a century active
// only that century is listed, expanded. With a decade active only its
// century and that decade are listed, both expanded. With a year active
// the whole path is expanded and sibling years are hidden. The active
// node is always present, with a zero count when the index has no data for it.
func Visible(tree Tree, active *state.DateFilter) Tree {
	if active == nil {
		out := Tree{Centuries: make([]Century, len(tree.Centuries))}
		for i, c := range tree.Centuries {
			c.Decades = cloneDecades(c.Decades)
			c.Expanded, c.Active = false, false
			out.Centuries[i] = c
		}
		return out
	}

	var year, decade, centuryNo int
	switch active.Granularity {
	case state.GranularityCentury:
		centuryNo = active.Base
	case state.GranularityDecade:
		decade = active.Base
		centuryNo = state.CenturyOf(decade)
	case state.GranularityYear:
		year = active.Base
		decade = state.DecadeOf(year)
		centuryNo = state.CenturyOf(year)
	default:
		return Visible(tree, nil)
	}

	century := findCentury(tree, centuryNo)
	century.Active, century.Expanded = true, true

	if active.Granularity == state.GranularityCentury {
		century.Decades = cloneDecades(century.Decades)
		return Tree{Centuries: []Century{century}}
	}

	d := findDecade(century, decade)
	d.Active, d.Expanded = true, true
	if active.Granularity == state.GranularityYear {
		y := Year{Value: year, Label: strconv.Itoa(year), Active: true}
		for _, cand := range d.Years {
			if cand.Value == year {
				y.Count = cand.Count
			}
		}
		d.Years = []Year{y}
	} else {
		d.Years = append([]Year(nil), d.Years...)
	}
	century.Decades = []Decade{d}
	return Tree{Centuries: []Century{century}}
}

func findCentury(tree Tree, n int) Century {
	for _, c := range tree.Centuries {
		if c.Number == n {
			return c
		}
	}
	return Century{Number: n, Label: state.DateLabel(state.GranularityCentury, n)}
}

func findDecade(c Century, base int) Decade {
	for _, d := range c.Decades {
		if d.Base == base {
			return d
		}
	}
	return Decade{Base: base, Label: state.DateLabel(state.GranularityDecade, base)}
}

func cloneDecades(in []Decade) []Decade {
	out := make([]Decade, len(in))
	for i, d := range in {
		d.Years = append([]Year(nil), d.Years...)
		out[i] = d
	}
	return out
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
