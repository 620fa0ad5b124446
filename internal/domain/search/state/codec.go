package state

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/neogranadina/zasqua/internal/domain/search/facet"
)

// URL parameter names.
const (
	ParamQuery    = "q"
	ParamYear     = "year"
	ParamDecade   = "decade"
	ParamCentury  = "century"
	ParamDateFrom = "date_from"
	ParamDateTo   = "date_to"
	ParamParent   = "parent"
	ParamSort     = "sort"
	ParamPage     = "page"
)

// Decode parses a query string (with or without the leading '?') into a State.
// It never fails: unparseable parts are skipped.
func Decode(rawQuery string) State {
	values, _ := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	return DecodeValues(values)
}

// DecodeValues builds a State from parsed URL values.
func DecodeValues(v url.Values) State {
	s := New()

	if qs := v[ParamQuery]; len(qs) > 0 {
		s.SetMainQuery(qs[0])
		for _, raw := range qs[1:] {
			if strings.HasPrefix(raw, "-") {
				s.AddTextFilter(raw[1:], OpNot)
			} else {
				s.AddTextFilter(raw, OpAnd)
			}
		}
	}

	for _, d := range facet.Exclusive {
		var vals []string
		for _, raw := range v[string(d)] {
			if raw == "" || slices.Contains(vals, raw) {
				continue
			}
			vals = append(vals, raw)
		}
		s.setValues(d, vals)
	}

	s.Date = decodeDate(v)
	if s.Date == nil {
		s.DateFrom = intParam(v, ParamDateFrom)
		s.DateTo = intParam(v, ParamDateTo)
	}

	s.SetParent(v.Get(ParamParent))

	if raw := v.Get(ParamSort); raw != "" {
		field, dir, _ := strings.Cut(raw, ":")
		s.SetSort(field, Direction(dir))
	}

	if p := intParam(v, ParamPage); p != nil {
		s.SetPage(*p)
	}
	return s
}

func decodeDate(v url.Values) *DateFilter {
	for _, g := range []struct {
		param string
		gran  Granularity
	}{
		{ParamYear, GranularityYear},
		{ParamDecade, GranularityDecade},
		{ParamCentury, GranularityCentury},
	} {
		n := intParam(v, g.param)
		if n == nil {
			continue
		}
		if df, ok := NewDateFilter(g.gran, *n); ok {
			return df
		}
	}
	return nil
}

func intParam(v url.Values, key string) *int {
	raw := strings.TrimSpace(v.Get(key))
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}

// URLValues renders s as URL values.
func (s *State) URLValues() url.Values {
	v := url.Values{}

	if s.MainQuery != "" || len(s.TextFilters) > 0 {
		v.Add(ParamQuery, s.MainQuery)
		for _, f := range s.TextFilters {
			if f.Op == OpNot {
				v.Add(ParamQuery, "-"+f.Term)
			} else {
				v.Add(ParamQuery, f.Term)
			}
		}
	}

	for _, d := range facet.Exclusive {
		for _, val := range s.Values(d) {
			v.Add(string(d), val)
		}
	}

	if s.Date != nil {
		var param string
		switch s.Date.Granularity {
		case GranularityYear:
			param = ParamYear
		case GranularityDecade:
			param = ParamDecade
		case GranularityCentury:
			param = ParamCentury
		}
		if param != "" {
			v.Set(param, strconv.Itoa(s.Date.Base))
		}
	} else {
		if s.DateFrom != nil {
			v.Set(ParamDateFrom, strconv.Itoa(*s.DateFrom))
		}
		if s.DateTo != nil {
			v.Set(ParamDateTo, strconv.Itoa(*s.DateTo))
		}
	}

	if s.Parent != "" {
		v.Set(ParamParent, s.Parent)
	}
	if s.Sort != nil {
		v.Set(ParamSort, s.Sort.String())
	}
	if s.Page > 1 {
		v.Set(ParamPage, strconv.Itoa(s.Page))
	}
	return v
}

// Encode renders s as a query string without the leading '?'.
// Decode(Encode(s)) equals s for every state built through the mutators.
func Encode(s State) string {
	return s.URLValues().Encode()
}
