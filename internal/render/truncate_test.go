package render

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{"closes open mark before ellipsis", "<mark>abcdefg</mark>", 4, "<mark>abcd</mark>..."},
		{"visible runes only: a closed mark stays whole and the fourth rune follows it", "<mark>abc</mark>defg", 4, "<mark>abc</mark>d..."},
		{"cut exactly at a tag boundary", "<mark>abcd</mark>efg", 4, "<mark>abcd</mark>..."},
		{"short text unchanged", "<mark>abc</mark>", 4, "<mark>abc</mark>"},
		{"plain text", "abcdef", 3, "abc..."},
		{"nested elements", "<b>ab</b><i>cd</i>ef", 3, "<b>ab</b><i>c</i>..."},
		{"void elements stay open", "a<br>bcdef", 2, "a<br>b..."},
		{"counts runes", "ñandú grande", 5, "ñandú..."},
		{"entities count once", "&lt;x&gt;yz", 2, "&lt;x..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.in, tt.limit); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
			}
		})
	}
}

func TestTruncate_Balanced(t *testing.T) {
	in := "Testamento de <mark>Juan García</mark>, vecino de <mark>Tunja</mark> y dueño de tierras."
	for limit := 1; limit < 80; limit++ {
		got := Truncate(in, limit)
		opens, closes := countOf(got, "<mark>"), countOf(got, "</mark>")
		if opens != closes {
			t.Fatalf("Truncate(_, %d) = %q: %d opens, %d closes", limit, got, opens, closes)
		}
	}
}

func countOf(s, sub string) int {
	n := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			n++
		}
	}
	return n
}
