package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/neogranadina/zasqua/internal/domain"
	domcat "github.com/neogranadina/zasqua/internal/domain/catalog"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "descriptions.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestFileSource_Load(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "array",
			content: `[{"id":1,"reference_code":"co-ahr"},{"id":2,"reference_code":"co-ahr-1","parent_reference_code":"co-ahr"}]`,
			want:    []string{"co-ahr", "co-ahr-1"},
		},
		{
			name:    "page object",
			content: ` {"count":1,"next":null,"results":[{"id":3,"reference_code":"co-agn"}]}`,
			want:    []string{"co-agn"},
		},
		{
			name:    "empty array",
			content: `[]`,
			want:    nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			descs, err := NewFileSource(writeFile(t, tc.content)).Load(context.Background())
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(descs) != len(tc.want) {
				t.Fatalf("got %d records, want %d", len(descs), len(tc.want))
			}
			for i, ref := range tc.want {
				if descs[i].ReferenceCode != ref {
					t.Errorf("record %d = %q, want %q", i, descs[i].ReferenceCode, ref)
				}
			}
		})
	}
}

func TestFileSource_Errors(t *testing.T) {
	if _, err := NewFileSource(filepath.Join(t.TempDir(), "missing.json")).Load(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := NewFileSource(writeFile(t, `{"results": [`)).Load(context.Background()); err == nil {
		t.Error("expected error for truncated json")
	}
}

func newCatalogServer(t *testing.T, pages [][]domcat.Description) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Query().Get("page_size") == "" {
			http.Error(w, "page_size required", http.StatusBadRequest)
			return
		}
		n := 0
		if p := r.URL.Query().Get("page"); p != "" {
			n = int(p[0] - '0')
		}
		page := domcat.Page{Count: 3, Results: pages[n]}
		if n+1 < len(pages) {
			page.Next = srv.URL + "/api/v1/descriptions/?page_size=2&page=" + string(rune('0'+n+1))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(page)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestAPISource_FollowsNext(t *testing.T) {
	srv, hits := newCatalogServer(t, [][]domcat.Description{
		{{ID: 1, ReferenceCode: "co-ahr"}, {ID: 2, ReferenceCode: "co-ahr-1"}},
		{{ID: 3, ReferenceCode: "co-ahr-1-1"}},
	})

	src := NewAPISource(srv.URL+"/api/v1/descriptions/", WithRate(1000), WithPageSize(2))
	descs, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(descs) != 3 || descs[2].ReferenceCode != "co-ahr-1-1" {
		t.Errorf("records = %+v", descs)
	}
	if hits.Load() != 2 {
		t.Errorf("requests = %d, want 2", hits.Load())
	}
}

func TestAPISource_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewAPISource(srv.URL, WithRate(1000)).Load(context.Background())
	if err == nil || !strings.Contains(err.Error(), "HTTP 502") {
		t.Errorf("expected HTTP 502 error, got %v", err)
	}
}

func TestAPISource_SendsUserAgent(t *testing.T) {
	var agent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{"count":0,"next":null,"results":[]}`))
	}))
	defer srv.Close()

	if err := NewAPISource(srv.URL, WithRate(1000)).Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if !strings.HasPrefix(agent, "zasqua-indexer/") {
		t.Errorf("User-Agent = %q", agent)
	}
}

func TestAPISource_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewAPISource(srv.URL+"/api/v1/descriptions/", WithRate(1000)).Load(context.Background())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAPISource_ContextCanceled(t *testing.T) {
	srv, hits := newCatalogServer(t, [][]domcat.Description{{{ID: 1, ReferenceCode: "co-ahr"}}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewAPISource(srv.URL).Load(ctx); err == nil {
		t.Error("expected error on canceled context")
	}
	if hits.Load() != 0 {
		t.Errorf("requests = %d, want 0", hits.Load())
	}
}

func TestAPISource_InvalidURL(t *testing.T) {
	if err := NewAPISource("/relative/only").Ping(context.Background()); err == nil {
		t.Error("expected error for relative url")
	}
}

func TestAPISource_Ping(t *testing.T) {
	srv, _ := newCatalogServer(t, [][]domcat.Description{{{ID: 1, ReferenceCode: "co-ahr"}}})
	if err := NewAPISource(srv.URL, WithRate(1000)).Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
