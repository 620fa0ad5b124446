package db

import "testing"

func TestSafeMarked(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"raw text", "a <mark>b</mark> & c", "a <mark>b</mark> &amp; c"},
		{"already escaped", "a &amp; <mark>b</mark>", "a &amp; <mark>b</mark>"},
		{"foreign tags", "<b>x</b> <mark>y</mark>", "&lt;b&gt;x&lt;/b&gt; <mark>y</mark>"},
		{"no marks", "plain", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeMarked(tt.in); got != tt.want {
				t.Errorf("SafeMarked(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStripMarks(t *testing.T) {
	if got := StripMarks("Juan <mark>García</mark> &amp; hijos"); got != "Juan García & hijos" {
		t.Errorf("StripMarks = %q", got)
	}
}
