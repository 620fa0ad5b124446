package render

import "testing"

func TestSuppressed(t *testing.T) {
	card := `<article><h3><a href="/co-ahr-1/">Censo de <mark>Tunja</mark></a></h3><p>Copia simple del padrón</p></article>`

	tests := []struct {
		name  string
		terms []string
		want  bool
	}{
		{"term in body", []string{"copia"}, true},
		{"case insensitive", []string{"COPIA"}, true},
		{"term split by markup", []string{"de tunja"}, true},
		{"absent term", []string{"bogotá"}, false},
		{"markup is not text", []string{"href"}, false},
		{"no terms", nil, false},
		{"blank term", []string{"  "}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Suppressed(card, tt.terms); got != tt.want {
				t.Errorf("Suppressed(%v) = %v, want %v", tt.terms, got, tt.want)
			}
		})
	}
}

func TestPlainText(t *testing.T) {
	got := PlainText(`Censo de <mark>Tunja</mark> &amp; Sogamoso`)
	if got != "Censo de Tunja & Sogamoso" {
		t.Errorf("PlainText = %q", got)
	}
}
