// Package render projects search outcomes onto the page view-model shared by
// the HTML template and the JSON API.
package render

import (
	"errors"
	"html/template"
	"sort"
	"strconv"

	"github.com/neogranadina/zasqua/internal/domain"
	"github.com/neogranadina/zasqua/internal/domain/search/datefacet"
	"github.com/neogranadina/zasqua/internal/domain/search/facet"
	"github.com/neogranadina/zasqua/internal/domain/search/result"
	"github.com/neogranadina/zasqua/internal/domain/search/state"
	"github.com/neogranadina/zasqua/internal/usecase/controller"
	"github.com/neogranadina/zasqua/internal/usecase/search"
)

// DefaultExcerptLength is the number of excerpt characters shown on a card.
const DefaultExcerptLength = 200

// Page kinds besides the search outcome kinds.
const (
	KindLoading     = "loading"
	KindNoResults   = "no_results"
	KindError       = "error"
	KindUnavailable = "unavailable"
)

// Linker builds the address a user action leads to.
type Linker interface {
	Href(a controller.Action) string
}

// Options tune the projection.
type Options struct {
	Labels Labels
	// Linker is required.
	Linker Linker
	// ApproximateTotals reports large totals as lower bounds.
	ApproximateTotals bool
	// GroupOpen reports facet group visibility; nil means every group is open.
	GroupOpen     func(name string) bool
	ExcerptLength int
	// BasePath is the search form target.
	BasePath string
}

// Page is the search page view-model.
type Page struct {
	Kind        string      `json:"kind"`
	Query       string      `json:"query"`
	Action      string      `json:"-"`
	Hidden      []Param     `json:"-"`
	Total       int         `json:"total"`
	TotalText   string      `json:"total_text,omitempty"`
	Cards       []Card      `json:"cards"`
	Suppressed  int         `json:"suppressed"`
	Sorts       []SortLink  `json:"sorts,omitempty"`
	Pills       []Pill      `json:"pills,omitempty"`
	ClearHref   string      `json:"clear_href,omitempty"`
	ClearLabel  string      `json:"clear_label,omitempty"`
	Groups      []Group     `json:"groups,omitempty"`
	Dates       *DateGroup  `json:"dates,omitempty"`
	Range       DateRange   `json:"date_range"`
	Pagination  *Pagination `json:"pagination,omitempty"`
	Prompt      *Prompt     `json:"prompt,omitempty"`
	Message     string      `json:"message,omitempty"`
	Suggestion  string      `json:"suggestion,omitempty"`
	RetryHref   string      `json:"retry_href,omitempty"`
	LevelLabels string      `json:"-"`
}

// Param is one hidden form field.
type Param struct {
	Name  string
	Value string
}

// Card is one rendered hit.
type Card struct {
	ID            string        `json:"id"`
	URL           string        `json:"url"`
	Title         template.HTML `json:"title"`
	Level         string        `json:"level"`
	ReferenceCode string        `json:"reference_code"`
	Date          string        `json:"date"`
	Excerpt       template.HTML `json:"excerpt,omitempty"`
	Path          string        `json:"path,omitempty"`
	Repository    string        `json:"repository,omitempty"`
	HTML          template.HTML `json:"-"`
}

// SortLink is one sort button.
type SortLink struct {
	Label  string `json:"label"`
	Field  string `json:"field"`
	Arrow  string `json:"arrow,omitempty"`
	Active bool   `json:"active"`
	Href   string `json:"href"`
}

// Pill is one active filter with its removal link.
type Pill struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

// Group is one facet group.
type Group struct {
	Name    string   `json:"name"`
	Title   string   `json:"title"`
	Open    bool     `json:"open"`
	Options []Option `json:"options"`
}

// Option is one selectable facet value.
type Option struct {
	Value     string `json:"value"`
	Label     string `json:"label"`
	Count     int    `json:"count"`
	CountText string `json:"count_text"`
	Active    bool   `json:"active"`
	Href      string `json:"href"`
}

// DateGroup is the drill-down date tree.
type DateGroup struct {
	Title string     `json:"title"`
	Open  bool       `json:"open"`
	Nodes []DateNode `json:"nodes"`
}

// DateNode is a century, decade or year.
type DateNode struct {
	Label     string     `json:"label"`
	Count     int        `json:"count"`
	CountText string     `json:"count_text"`
	Checked   bool       `json:"checked"`
	Active    bool       `json:"active"`
	Expanded  bool       `json:"expanded"`
	Href      string     `json:"href"`
	Children  []DateNode `json:"children,omitempty"`
}

// DateRange is the typed year range.
type DateRange struct {
	Title  string  `json:"title"`
	Open   bool    `json:"open"`
	From   string  `json:"from"`
	To     string  `json:"to"`
	Hidden []Param `json:"-"`
}

// Prompt asks before a broad filter-only query.
type Prompt struct {
	Estimate     int    `json:"estimate"`
	EstimateText string `json:"estimate_text"`
	Text         string `json:"text"`
	Action       string `json:"action"`
}

// Pagination is the page navigation.
type Pagination struct {
	Prev  PageLink   `json:"prev"`
	Next  PageLink   `json:"next"`
	Pages []PageLink `json:"pages"`
}

// PageLink is one pagination entry.
type PageLink struct {
	Label    string `json:"label"`
	Number   int    `json:"number,omitempty"`
	Href     string `json:"href,omitempty"`
	Current  bool   `json:"current,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
	Gap      bool   `json:"gap,omitempty"`
}

// Build projects a cycle outcome onto the page view-model.
func Build(out search.Outcome, opts Options) Page {
	opts = withDefaults(opts)
	st := out.State
	p := shell(&st, opts)

	p.Kind = string(out.Kind)
	p.Groups = groups(out.Facets, &st, opts)
	p.Dates = dateGroup(out.Facets.Get(facet.Year), &st, opts)

	switch out.Kind {
	case search.KindLanding:
		p.Message = msgLanding
		return p
	case search.KindBrowsePrompt:
		p.Prompt = &Prompt{
			Estimate:     out.Estimate,
			EstimateText: FormatCount(out.Estimate),
			Text:         promptText(out.Estimate),
			Action:       p.RetryHref,
		}
		return p
	}

	terms := Terms(st.CombinedQuery())
	notTerms := st.NotTerms()
	p.Cards = make([]Card, 0, len(out.Hits))
	for i := range out.Hits {
		card := buildCard(&out.Hits[i], terms, opts)
		if Suppressed(string(card.HTML), notTerms) {
			p.Suppressed++
			continue
		}
		p.Cards = append(p.Cards, card)
	}

	p.Total = out.Total
	p.TotalText = resultsText(out.Total, opts.ApproximateTotals || out.Estimated)
	p.Sorts = sorts(&st, opts.Linker)
	p.Pagination = pagination(out.Page, out.TotalPages, opts.Linker)

	if out.Total == 0 {
		p.Kind = KindNoResults
		p.Message = msgNoResults
		if st.HasFilters() {
			p.Suggestion = msgSuggestion
		}
	}
	return p
}

// BuildError renders a failed cycle. An unreachable index takes the whole
// page; a failed request keeps the page shell.
func BuildError(err error, st state.State, opts Options) Page {
	opts = withDefaults(opts)
	p := shell(&st, opts)
	if errors.Is(err, domain.ErrIndexUnavailable) {
		p.Kind = KindUnavailable
		p.Message = msgUnavailable
		return p
	}
	p.Kind = KindError
	p.Message = msgError
	return p
}

// Loading renders the in-flight page.
func Loading(st state.State, opts Options) Page {
	opts = withDefaults(opts)
	p := shell(&st, opts)
	p.Kind = KindLoading
	p.Message = msgLoading
	return p
}

func withDefaults(opts Options) Options {
	if opts.Labels == nil {
		opts.Labels = DefaultLevelLabels
	}
	if opts.ExcerptLength <= 0 {
		opts.ExcerptLength = DefaultExcerptLength
	}
	if opts.BasePath == "" {
		opts.BasePath = controller.DefaultBasePath
	}
	if opts.GroupOpen == nil {
		opts.GroupOpen = func(string) bool { return true }
	}
	return opts
}

// shell fills the parts every page kind shares.
func shell(st *state.State, opts Options) Page {
	current := opts.Linker.Href(controller.Action{Kind: controller.SetPage, Page: st.Page})
	p := Page{
		Query:       st.MainQuery,
		Action:      opts.BasePath,
		Hidden:      hiddenParams(st, false, state.ParamPage),
		Cards:       []Card{},
		RetryHref:   current,
		LevelLabels: opts.Labels.JSON(),
		Range: DateRange{
			Title: titleDateRange,
			Open:  opts.GroupOpen("date_range"),
			From:  optionalInt(st.DateFrom),
			To:    optionalInt(st.DateTo),
			Hidden: hiddenParams(st, true, state.ParamPage, state.ParamDateFrom, state.ParamDateTo,
				state.ParamYear, state.ParamDecade, state.ParamCentury),
		},
	}
	p.Pills, p.ClearHref = pills(st, opts)
	if p.ClearHref != "" {
		p.ClearLabel = msgClearFilters
	}
	return p
}

// hiddenParams carries the state through a GET form. Without withMain the
// form's visible input supplies the main query and the text filters follow
// it, so positions survive.
func hiddenParams(st *state.State, withMain bool, drop ...string) []Param {
	v := st.URLValues()
	for _, k := range drop {
		v.Del(k)
	}
	var out []Param
	qs := v[state.ParamQuery]
	if !withMain && len(qs) > 0 {
		qs = qs[1:]
	}
	for _, q := range qs {
		out = append(out, Param{Name: state.ParamQuery, Value: q})
	}
	v.Del(state.ParamQuery)

	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, val := range v[k] {
			out = append(out, Param{Name: k, Value: val})
		}
	}
	return out
}

func buildCard(h *result.Hit, terms []string, opts Options) Card {
	meta := h.Meta()
	title := h.TitleHTML()
	if title == "" {
		title = template.HTMLEscapeString(meta.Title)
	}
	c := Card{
		ID:            h.ID(),
		URL:           h.URL(),
		Title:         template.HTML(Highlight(title, terms)), //nolint:gosec // sanitized index fragment
		Level:         opts.Labels.Label(meta.DescriptionLevel),
		ReferenceCode: meta.ReferenceCode,
		Date:          meta.DateExpression,
		Path:          meta.PathCache,
		Repository:    meta.RepositoryName,
	}
	if c.URL == "" && meta.ReferenceCode != "" {
		c.URL = "/" + meta.ReferenceCode + "/"
	}
	if ex := h.Excerpt(); ex != "" {
		c.Excerpt = template.HTML(Truncate(Highlight(ex, terms), opts.ExcerptLength)) //nolint:gosec // sanitized index fragment
	}
	c.HTML = renderCard(c)
	return c
}

func groups(snap facet.Snapshot, st *state.State, opts Options) []Group {
	specs := []struct {
		dim      facet.Dimension
		title    string
		priority []string
		label    func(string) string
	}{
		{facet.Repository, titleRepository, nil, nil},
		{facet.Level, titleLevel, opts.Labels.Priority(), nil},
		{facet.DigitalStatus, titleDigital, facet.DigitalOrder, DigitalLabel},
	}

	out := make([]Group, 0, len(specs))
	for _, s := range specs {
		active := st.Values(s.dim)
		ordered := facet.Order(snap.Get(s.dim), active, s.priority, s.label)
		if len(ordered) == 0 {
			continue
		}
		g := Group{
			Name:    string(s.dim),
			Title:   s.title,
			Open:    opts.GroupOpen(string(s.dim)),
			Options: make([]Option, 0, len(ordered)),
		}
		for _, o := range ordered {
			g.Options = append(g.Options, Option{
				Value:     o.Value,
				Label:     o.Label,
				Count:     o.Count,
				CountText: FormatCount(o.Count),
				Active:    o.Active,
				Href: opts.Linker.Href(controller.Action{
					Kind: controller.ToggleFacet, Dimension: s.dim, Value: o.Value, Checked: !o.Active,
				}),
			})
		}
		out = append(out, g)
	}
	return out
}

func dateGroup(years facet.Counts, st *state.State, opts Options) *DateGroup {
	tree := datefacet.Visible(datefacet.Build(years), st.Date)
	if len(tree.Centuries) == 0 {
		return nil
	}
	g := &DateGroup{Title: titleDates, Open: opts.GroupOpen(string(facet.Year))}
	for _, c := range tree.Centuries {
		cn := dateNode(st, c.Filter(), c.Label, c.Count, c.Active, c.Expanded, opts.Linker)
		for _, d := range c.Decades {
			dn := dateNode(st, d.Filter(), d.Label, d.Count, d.Active, d.Expanded, opts.Linker)
			for _, y := range d.Years {
				dn.Children = append(dn.Children, dateNode(st, y.Filter(), y.Label, y.Count, y.Active, false, opts.Linker))
			}
			cn.Children = append(cn.Children, dn)
		}
		g.Nodes = append(g.Nodes, cn)
	}
	return g
}

func dateNode(st *state.State, df *state.DateFilter, label string, count int, active, expanded bool, l Linker) DateNode {
	checked := st.Date != nil && df != nil &&
		st.Date.Granularity == df.Granularity && st.Date.Base == df.Base
	return DateNode{
		Label:     label,
		Count:     count,
		CountText: FormatCount(count),
		Checked:   checked,
		Active:    active,
		Expanded:  expanded,
		Href:      l.Href(controller.Action{Kind: controller.ToggleDate, Date: df, Checked: !checked}),
	}
}

var sortOptions = []struct{ field, label string }{
	{state.SortDate, "Fecha"},
	{state.SortTitle, "Título"},
	{state.SortReferenceCode, "Código"},
	{"", "Relevancia"},
}

func sorts(st *state.State, l Linker) []SortLink {
	out := make([]SortLink, 0, len(sortOptions))
	for _, o := range sortOptions {
		s := SortLink{Label: o.label, Field: o.field}
		if o.field == "" {
			s.Active = st.Sort == nil
			s.Href = l.Href(controller.Action{Kind: controller.SetSort})
			out = append(out, s)
			continue
		}

		next := state.Sort{Field: o.field, Direction: state.Asc}
		s.Arrow = "↑"
		if st.Sort != nil && st.Sort.Field == o.field {
			s.Active = true
			if st.Sort.Direction == state.Desc {
				s.Arrow = "↓"
			} else {
				next.Direction = state.Desc
			}
		}
		s.Href = l.Href(controller.Action{Kind: controller.SetSort, Sort: &next})
		out = append(out, s)
	}
	return out
}

func pills(st *state.State, opts Options) ([]Pill, string) {
	if !st.HasFilters() {
		return nil, ""
	}
	l := opts.Linker
	var out []Pill
	for i, f := range st.TextFilters {
		label := "“" + f.Term + "”"
		if f.Op == state.OpNot {
			label = "No: " + label
		}
		out = append(out, Pill{Label: label, Href: l.Href(controller.Action{Kind: controller.RemoveTextFilter, Index: i})})
	}
	for _, dim := range facet.Exclusive {
		for _, v := range st.Values(dim) {
			label := v
			if dim == facet.DigitalStatus {
				label = DigitalLabel(v)
			}
			out = append(out, Pill{
				Label: label,
				Href:  l.Href(controller.Action{Kind: controller.ToggleFacet, Dimension: dim, Value: v}),
			})
		}
	}
	if st.Date != nil {
		out = append(out, Pill{Label: st.Date.Label, Href: l.Href(controller.Action{Kind: controller.ToggleDate})})
	}
	if st.HasDateRange() {
		from, to := optionalInt(st.DateFrom), optionalInt(st.DateTo)
		if from == "" {
			from = ellipsis
		}
		if to == "" {
			to = ellipsis
		}
		out = append(out, Pill{Label: from + " – " + to, Href: l.Href(controller.Action{Kind: controller.SetDateRange})})
	}
	if st.Parent != "" {
		out = append(out, Pill{Label: "Dentro de " + st.Parent, Href: l.Href(controller.Action{Kind: controller.SetParent})})
	}
	return out, l.Href(controller.Action{Kind: controller.ClearFilters})
}

func pagination(current, total int, l Linker) *Pagination {
	if total <= 1 {
		return nil
	}
	p := &Pagination{
		Prev: PageLink{Label: "«", Disabled: current <= 1},
		Next: PageLink{Label: "»", Disabled: current >= total},
	}
	if !p.Prev.Disabled {
		p.Prev.Number = current - 1
		p.Prev.Href = l.Href(controller.Action{Kind: controller.SetPage, Page: current - 1})
	}
	if !p.Next.Disabled {
		p.Next.Number = current + 1
		p.Next.Href = l.Href(controller.Action{Kind: controller.SetPage, Page: current + 1})
	}
	for _, n := range PageRange(current, total) {
		if n == Ellipsis {
			p.Pages = append(p.Pages, PageLink{Label: ellipsis, Gap: true})
			continue
		}
		link := PageLink{Label: strconv.Itoa(n), Number: n, Current: n == current}
		if !link.Current {
			link.Href = l.Href(controller.Action{Kind: controller.SetPage, Page: n})
		}
		p.Pages = append(p.Pages, link)
	}
	return p
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
