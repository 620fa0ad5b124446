package render

import (
	"slices"
	"testing"
)

func TestHighlight(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		terms []string
		want  string
	}{
		{"accent insensitive", "Juan García", []string{"Garcia"}, "Juan <mark>García</mark>"},
		{"case insensitive", "TESTAMENTO DE GARCÍA", []string{"garcia"}, "TESTAMENTO DE <mark>GARCÍA</mark>"},
		{"accented term on plain text", "Juan Garcia", []string{"García"}, "Juan <mark>Garcia</mark>"},
		{"existing marks untouched", "<mark>García</mark> y García", []string{"garcia"}, "<mark>García</mark> y <mark>García</mark>"},
		{"attributes untouched", `<a title="censo">censo</a>`, []string{"censo"}, `<a title="censo"><mark>censo</mark></a>`},
		{"entities preserved", "Pérez &amp; García", []string{"garcia"}, "Pérez &amp; <mark>García</mark>"},
		{"several terms", "Censo de Tunja", []string{"tunja", "censo"}, "<mark>Censo</mark> de <mark>Tunja</mark>"},
		{"regexp metacharacters", "a.b y axb", []string{"a.b"}, "<mark>a.b</mark> y axb"},
		{"no terms", "Juan García", nil, "Juan García"},
		{"no match", "Juan García", []string{"tunja"}, "Juan García"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Highlight(tt.in, tt.terms); got != tt.want {
				t.Errorf("Highlight(%q, %v) = %q, want %q", tt.in, tt.terms, got, tt.want)
			}
		})
	}
}

func TestFold(t *testing.T) {
	tests := map[string]string{
		"García":      "Garcia",
		"Bogotá, D.C": "Bogota, D.C",
		"ñandú":       "nandu",
		"plain":       "plain",
	}
	for in, want := range tests {
		if got := Fold(in); got != want {
			t.Errorf("Fold(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTerms(t *testing.T) {
	got := Terms("García garcia, Tunja  (1750)")
	want := []string{"García", "Tunja", "1750"}
	if !slices.Equal(got, want) {
		t.Errorf("Terms() = %v, want %v", got, want)
	}
	if len(Terms("  ,; ")) != 0 {
		t.Error("punctuation-only query yields terms")
	}
}
