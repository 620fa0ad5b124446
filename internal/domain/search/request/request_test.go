package request

import (
	"strings"
	"testing"

	"github.com/neogranadina/zasqua/internal/domain/search/filter"
)

func TestNew_Defaults(t *testing.T) {
	r, err := New("bautismo", filter.Expression{}, nil, 0, 0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Query() != "bautismo" {
		t.Errorf("Query() = %q", r.Query())
	}
	if r.Limit() != DefaultLimit {
		t.Errorf("Limit() = %d, want %d", r.Limit(), DefaultLimit)
	}
	if r.Sort() != nil || r.Offset() != 0 || !r.Filters().IsEmpty() {
		t.Errorf("unexpected request %+v", r)
	}
}

func TestNew_ExplicitValues(t *testing.T) {
	r, err := New("", filter.Expression{}, &Sort{Field: "date_start_year", Desc: true}, 40, 20,
		[]string{"level", "year"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Offset() != 40 || r.Limit() != 20 {
		t.Errorf("offset/limit = %d/%d", r.Offset(), r.Limit())
	}
	if r.Sort().Field != "date_start_year" || !r.Sort().Desc {
		t.Errorf("Sort() = %+v", r.Sort())
	}
	if len(r.Facets()) != 2 {
		t.Errorf("Facets() = %v", r.Facets())
	}
}

func TestNew_LimitClamped(t *testing.T) {
	r, err := New("x", filter.Expression{}, nil, 0, 5000, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Limit() != MaxLimit {
		t.Errorf("Limit() = %d, want %d", r.Limit(), MaxLimit)
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		sort    *Sort
		offset  int
		wantErr string
	}{
		{"query too long", strings.Repeat("a", MaxQueryLength+1), nil, 0, "too long"},
		{"negative offset", "x", nil, -1, "negative"},
		{"offset too large", "x", nil, MaxOffset + 1, "too large"},
		{"empty sort field", "x", &Sort{}, 0, "sort field"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.query, filter.Expression{}, tt.sort, tt.offset, 20, nil)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
