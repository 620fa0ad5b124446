package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/neogranadina/zasqua/internal/config"
	"github.com/neogranadina/zasqua/internal/domain/search/facet"
	"github.com/neogranadina/zasqua/internal/domain/search/request"
	"github.com/neogranadina/zasqua/internal/domain/search/result"
	"github.com/neogranadina/zasqua/internal/domain/search/state"
	"github.com/neogranadina/zasqua/internal/render"
	searchuc "github.com/neogranadina/zasqua/internal/usecase/search"
)

type stubIndex struct {
	queries []string
}

func (s *stubIndex) Search(_ context.Context, req request.Request) (result.Set, error) {
	s.queries = append(s.queries, req.Query())
	return result.Set{
		Total: 1,
		Hits: []result.Hit{result.New("1", "/co-ahr-1/", "Censo de Tunja", "Padrón de vecinos.",
			result.Meta{Title: "Censo de Tunja", ReferenceCode: "co-ahr-1", DescriptionLevel: "file"})},
		Facets: facet.Snapshot{facet.Level: {"Expediente": 1}},
	}, nil
}

func (s *stubIndex) GlobalFacets(context.Context) (facet.Snapshot, error) {
	return facet.Snapshot{facet.Level: {"Expediente": 3}}, nil
}

func (s *stubIndex) Ping(context.Context) error { return nil }

func newTestBrowser(t *testing.T, idx *stubIndex, initial string) (*browser, *bytes.Buffer) {
	t.Helper()
	var cfg config.Config
	cfg.ApplyDefaults()
	d := &deps{cfg: cfg, logger: zap.NewNop(), labels: render.DefaultLevelLabels}
	svc, err := searchuc.New(idx, searchuc.Config{Guard: searchuc.NewGuard(true, 0)}, nil)
	if err != nil {
		t.Fatalf("search.New: %v", err)
	}

	var out bytes.Buffer
	return newBrowser(svc, d, initial, &out), &out
}

func TestBrowser_Session(t *testing.T) {
	idx := &stubIndex{}
	b, out := newTestBrowser(t, idx, "")

	input := strings.Join([]string{"q tunja", "f level Expediente", "bogus", "back", "quit"}, "\n")
	if err := b.run(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatalf("run: %v", err)
	}

	text := out.String()
	for _, want := range []string{"Escribe una consulta", "Censo de Tunja", "1 resultados", "unknown command"} {
		if !strings.Contains(text, want) {
			t.Errorf("output lacks %q", want)
		}
	}
	if len(idx.queries) != 3 {
		t.Errorf("searches = %d, want 3 (query, facet, back)", len(idx.queries))
	}
	if got := b.ctrl.State(); got.MainQuery != "tunja" || got.IsSelected(facet.Level, "Expediente") {
		t.Errorf("state after back = %+v", got)
	}
}

func TestBrowser_ExecToggles(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBrowser(t, &stubIndex{}, "q=censo")
	b.show(b.ctrl.Load(ctx, "q=censo"))

	steps := []struct {
		line  string
		check func(state.State) bool
	}{
		{"f level Expediente", func(s state.State) bool { return s.IsSelected(facet.Level, "Expediente") }},
		{"f level Expediente", func(s state.State) bool { return !s.IsSelected(facet.Level, "Expediente") }},
		{"d century 18", func(s state.State) bool { return s.Date != nil && s.Date.Base == 18 }},
		{"d century 18", func(s state.State) bool { return s.Date == nil }},
		{"- copia", func(s state.State) bool { return len(s.NotTerms()) == 1 && s.NotTerms()[0] == "copia" }},
		{"s title desc", func(s state.State) bool { return s.Sort != nil && s.Sort.Direction == state.Desc }},
		{"s relevance", func(s state.State) bool { return s.Sort == nil }},
		{"p 2", func(s state.State) bool { return s.Page == 2 }},
		{"clear", func(s state.State) bool { return !s.HasFilters() }},
	}
	for _, step := range steps {
		if err := b.exec(ctx, step.line); err != nil {
			t.Fatalf("exec(%q): %v", step.line, err)
		}
		if !step.check(b.ctrl.State()) {
			t.Errorf("after %q state = %+v", step.line, b.ctrl.State())
		}
	}
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		arg  string
		want *state.Sort
	}{
		{"", nil},
		{"relevance", nil},
		{"title", &state.Sort{Field: "title", Direction: state.Asc}},
		{"date_start_year desc", &state.Sort{Field: state.SortDate, Direction: state.Desc}},
	}
	for _, tc := range tests {
		got := parseSort(tc.arg)
		if (got == nil) != (tc.want == nil) || (got != nil && *got != *tc.want) {
			t.Errorf("parseSort(%q) = %+v, want %+v", tc.arg, got, tc.want)
		}
	}
}
