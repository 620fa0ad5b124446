package controller

import (
	"sort"

	"github.com/neogranadina/zasqua/internal/domain/search/facet"
	"github.com/neogranadina/zasqua/internal/domain/search/state"
)

// Kind names a user action.
type Kind string

// Action kinds.
const (
	SetQuery         Kind = "set_query"
	AddTextFilter    Kind = "add_text_filter"
	RemoveTextFilter Kind = "remove_text_filter"
	ToggleFacet      Kind = "toggle_facet"
	ToggleDate       Kind = "toggle_date"
	SetDateRange     Kind = "set_date_range"
	SetParent        Kind = "set_parent"
	SetSort          Kind = "set_sort"
	SetPage          Kind = "set_page"
	ClearFilters     Kind = "clear_filters"
)

// Action is one user intent against the query state.
type Action struct {
	Kind      Kind
	Dimension facet.Dimension
	// Value is the query text, text filter term, facet value or parent reference.
	Value   string
	Checked bool
	// Index is the position of the text filter to remove.
	Index int
	Page  int
	Date  *state.DateFilter
	From  *int
	To    *int
	// Sort nil means relevance.
	Sort *state.Sort
	Op   state.Op
}

// binding wires an action kind to the UI event that raises it, the URL
// parameters it touches and the state mutation it performs.
type binding struct {
	event      string
	params     []string
	resetsPage bool
	apply      func(s *state.State, a Action)
}

var bindings = map[Kind]binding{
	SetQuery: {
		event:      "submit",
		params:     []string{state.ParamQuery},
		resetsPage: true,
		apply:      func(s *state.State, a Action) { s.SetMainQuery(a.Value) },
	},
	AddTextFilter: {
		event:      "refine",
		params:     []string{state.ParamQuery},
		resetsPage: true,
		apply:      func(s *state.State, a Action) { s.AddTextFilter(a.Value, a.Op) },
	},
	RemoveTextFilter: {
		event:      "pill-remove",
		params:     []string{state.ParamQuery},
		resetsPage: true,
		apply:      func(s *state.State, a Action) { s.RemoveTextFilter(a.Index) },
	},
	ToggleFacet: {
		event:      "change",
		params:     []string{string(facet.Repository), string(facet.Level), string(facet.DigitalStatus)},
		resetsPage: true,
		apply:      func(s *state.State, a Action) { s.Select(a.Dimension, a.Value, a.Checked) },
	},
	ToggleDate: {
		event:      "change",
		params:     []string{state.ParamYear, state.ParamDecade, state.ParamCentury},
		resetsPage: true,
		apply: func(s *state.State, a Action) {
			if a.Checked && a.Date != nil {
				s.SelectDate(a.Date)
				return
			}
			s.ClearDate()
		},
	},
	SetDateRange: {
		event:      "input",
		params:     []string{state.ParamDateFrom, state.ParamDateTo},
		resetsPage: true,
		apply:      func(s *state.State, a Action) { s.SetDateRange(a.From, a.To) },
	},
	SetParent: {
		event:      "navigate",
		params:     []string{state.ParamParent},
		resetsPage: true,
		apply:      func(s *state.State, a Action) { s.SetParent(a.Value) },
	},
	SetSort: {
		event:      "click",
		params:     []string{state.ParamSort},
		resetsPage: true,
		apply: func(s *state.State, a Action) {
			if a.Sort == nil {
				s.Sort = nil
				return
			}
			s.SetSort(a.Sort.Field, a.Sort.Direction)
		},
	},
	SetPage: {
		event:  "click",
		params: []string{state.ParamPage},
		apply:  func(s *state.State, a Action) { s.SetPage(a.Page) },
	},
	ClearFilters: {
		event: "click",
		params: []string{
			state.ParamQuery, string(facet.Repository), string(facet.Level), string(facet.DigitalStatus),
			state.ParamYear, state.ParamDecade, state.ParamCentury, state.ParamDateFrom, state.ParamDateTo,
		},
		resetsPage: true,
		apply:      func(s *state.State, _ Action) { s.ClearFilters() },
	},
}

// Binding describes one action kind for help output.
type Binding struct {
	Kind       Kind
	Event      string
	Params     []string
	ResetsPage bool
}

// Bindings lists every action kind sorted by name.
func Bindings() []Binding {
	out := make([]Binding, 0, len(bindings))
	for k, b := range bindings {
		out = append(out, Binding{Kind: k, Event: b.event, Params: b.params, ResetsPage: b.resetsPage})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// mutate applies a to s the way Dispatch does. known is false for unknown
// kinds; changed reports whether the encoded address moved.
func mutate(s *state.State, a Action) (known, changed bool) {
	b, ok := bindings[a.Kind]
	if !ok {
		return false, false
	}
	before := state.Encode(*s)
	b.apply(s, a)
	if b.resetsPage {
		s.SetPage(1)
	}
	return true, state.Encode(*s) != before
}
