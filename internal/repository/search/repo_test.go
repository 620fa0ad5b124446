package search

import (
	"context"
	"errors"
	"testing"

	"github.com/neogranadina/zasqua/internal/db"
	"github.com/neogranadina/zasqua/internal/domain/search/facet"
	"github.com/neogranadina/zasqua/internal/domain/search/filter"
	"github.com/neogranadina/zasqua/internal/domain/search/request"
	"github.com/neogranadina/zasqua/internal/repository/document"
)

func TestSearch_TranslatesRequest(t *testing.T) {
	repo, ms := newTestRepo(t)

	lo := 1750.0
	rng, _ := filter.NewRangeFilter(&lo, nil)
	dates, _ := filter.NewRange(request.KeyStartYear, rng)
	expr := mustExpression(t,
		mustAnyOf(t, string(facet.Level), "Fondo"),
		mustAnyOf(t, request.KeyParent, "co-ahr"),
		dates,
	)
	req, err := request.New("bautismo", expr, &request.Sort{Field: "title", Desc: true}, 20, 20,
		[]string{"level", "year"})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	ms.searchFn = func(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
		if q.IndexName != testIndex || q.Query != "bautismo" {
			t.Errorf("index/query = %s/%s", q.IndexName, q.Query)
		}
		if q.Offset != 20 || q.Limit != 20 {
			t.Errorf("offset/limit = %d/%d", q.Offset, q.Limit)
		}
		if q.SortBy != document.FieldTitle || !q.SortDesc {
			t.Errorf("sort = %s desc=%v", q.SortBy, q.SortDesc)
		}
		keys := map[string]bool{}
		for _, c := range q.Filters.Must() {
			keys[c.Key()] = true
		}
		for _, want := range []string{document.FieldLevel, document.FieldAncestors, document.FieldDateStartYear} {
			if !keys[want] {
				t.Errorf("missing filter on %s (got %v)", want, keys)
			}
		}
		if len(q.Facets) != 2 || q.Facets[0] != document.FieldLevel || q.Facets[1] != document.FieldYear {
			t.Errorf("facets = %v", q.Facets)
		}
		return &db.SearchResult{
			Total: 41,
			Entries: []db.SearchEntry{{
				Key: "zasqua:desc:42",
				Fields: map[string]string{
					document.FieldTitle:            "Libro de bautismos",
					document.FieldReferenceCode:    "co-ahr-par-1",
					document.FieldDescriptionLevel: "file",
					document.FieldScopeContent:     "Partidas <1750>",
					document.FieldURL:              "/co-ahr-par-1/",
				},
				Highlights: map[string]string{
					document.FieldTitle: "Libro de <mark>bautismos</mark>",
				},
			}},
			Facets: map[string]map[string]int{
				document.FieldLevel: {"Fondo": 41},
				document.FieldYear:  {"1750": 3, "1751": 38},
			},
		}, nil
	}

	set, err := repo.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Total != 41 || len(set.Hits) != 1 {
		t.Fatalf("total = %d, hits = %d", set.Total, len(set.Hits))
	}
	hit := set.Hits[0]
	if hit.ID() != "42" || hit.URL() != "/co-ahr-par-1/" {
		t.Errorf("id/url = %s/%s", hit.ID(), hit.URL())
	}
	if hit.TitleHTML() != "Libro de <mark>bautismos</mark>" {
		t.Errorf("title = %q", hit.TitleHTML())
	}
	if hit.Excerpt() != "Partidas &lt;1750&gt;" {
		t.Errorf("excerpt = %q, want escaped plain text", hit.Excerpt())
	}
	if hit.Meta().DescriptionLevel != "file" {
		t.Errorf("meta = %+v", hit.Meta())
	}
	if set.Facets.Get(facet.Level)["Fondo"] != 41 || set.Facets.Get(facet.Year)["1751"] != 38 {
		t.Errorf("facets = %v", set.Facets)
	}
}

func TestSearch_MatchesNothingSkipsIndex(t *testing.T) {
	repo, ms := newTestRepo(t)

	expr := mustExpression(t, mustAnyOf(t, string(facet.Year)))
	req, _ := request.New("", expr, nil, 0, 20, []string{"level"})

	set, err := repo.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ms.calls != 0 {
		t.Errorf("index calls = %d, want 0", ms.calls)
	}
	if set.Total != 0 || len(set.Hits) != 0 {
		t.Errorf("set = %+v", set)
	}
	if _, ok := set.Facets[facet.Level]; !ok {
		t.Error("requested facets must be present and empty")
	}
}

func TestSearch_UnknownFilterKey(t *testing.T) {
	repo, _ := newTestRepo(t)
	req, _ := request.New("", mustExpression(t, mustAnyOf(t, "color", "red")), nil, 0, 20, nil)

	if _, err := repo.Search(context.Background(), req); err == nil {
		t.Fatal("expected error for unknown filter key")
	}
}

func TestSearch_UnknownSort(t *testing.T) {
	repo, _ := newTestRepo(t)
	req, _ := request.New("", filter.Expression{}, &request.Sort{Field: "popularity"}, 0, 20, nil)

	if _, err := repo.Search(context.Background(), req); err == nil {
		t.Fatal("expected error for unknown sort")
	}
}

func TestSearch_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	storeErr := errors.New("timeout")
	ms.searchFn = func(context.Context, *db.TextQuery) (*db.SearchResult, error) { return nil, storeErr }

	req, _ := request.New("x", filter.Expression{}, nil, 0, 20, nil)
	if _, err := repo.Search(context.Background(), req); !errors.Is(err, storeErr) {
		t.Errorf("expected wrapped store error, got %v", err)
	}
}

func TestSearch_URLFallsBackToReferenceCode(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchFn = func(context.Context, *db.TextQuery) (*db.SearchResult, error) {
		return &db.SearchResult{Total: 1, Entries: []db.SearchEntry{{
			Key:    "zasqua:desc:1",
			Fields: map[string]string{document.FieldReferenceCode: "co-agn"},
		}}}, nil
	}
	req, _ := request.New("", filter.Expression{}, nil, 0, 20, nil)
	set, err := repo.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Hits[0].URL() != "/co-agn/" {
		t.Errorf("url = %s", set.Hits[0].URL())
	}
}

func TestGlobalFacets(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchFn = func(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
		if q.Query != "" || q.Limit != 0 || !q.Filters.IsEmpty() {
			t.Errorf("global facets must be unscoped: %+v", q)
		}
		if len(q.Facets) != len(facet.All) {
			t.Errorf("facets = %v", q.Facets)
		}
		return &db.SearchResult{Facets: map[string]map[string]int{
			document.FieldRepositoryName: {"AHR": 100},
			document.FieldYear:           {"1750": 4},
		}}, nil
	}

	snap, err := repo.GlobalFacets(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Get(facet.Repository)["AHR"] != 100 || !snap.Years()[1750] {
		t.Errorf("snapshot = %v", snap)
	}
	if !snap.Has(facet.Year) || snap.Has(facet.Level) {
		t.Errorf("Has mismatch: %v", snap)
	}
}

func TestPing_Wraps(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.pingFn = func(context.Context) error { return db.ErrIndexClosed }
	if err := repo.Ping(context.Background()); !errors.Is(err, db.ErrIndexClosed) {
		t.Errorf("got %v", err)
	}
}

func TestVocabulary_ValidateAgainstSchema(t *testing.T) {
	def := document.Schema(testIndex, testPrefix)
	if err := DefaultVocabulary().Validate(def); err != nil {
		t.Fatalf("default vocabulary must match schema: %v", err)
	}

	broken := DefaultVocabulary()
	broken.Sorts["title"] = document.FieldScopeContent
	if err := broken.Validate(def); err == nil {
		t.Error("expected error for unsortable sort field")
	}

	broken = DefaultVocabulary()
	broken.Facets[facet.Level] = document.FieldTitle
	if err := broken.Validate(def); err == nil {
		t.Error("expected error for facet on text field")
	}

	broken = DefaultVocabulary()
	delete(broken.Facets, facet.Year)
	if err := broken.Validate(def); err == nil {
		t.Error("expected error for missing facet")
	}
}
