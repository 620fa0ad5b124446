package render

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const markTag = "mark"

// Fold strips diacritics: "García" becomes "Garcia".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Terms splits a query into distinct words.
func Terms(query string) []string {
	words := strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool, len(words))
	out := words[:0]
	for _, w := range words {
		key := strings.ToLower(Fold(w))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, w)
	}
	return out
}

// Highlight wraps every accent- and case-insensitive occurrence of terms in
// <mark>. Tags and text already inside <mark> are left alone. Output is NFC.
func Highlight(fragment string, terms []string) string {
	re := termPattern(terms)
	if re == nil {
		return fragment
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	depth := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return norm.NFC.String(b.String())
		case html.TextToken:
			text := string(z.Text())
			if depth > 0 {
				b.WriteString(html.EscapeString(text))
				continue
			}
			markMatches(&b, re, norm.NFD.String(text))
		case html.StartTagToken:
			b.Write(z.Raw())
			if name, _ := z.TagName(); string(name) == markTag {
				depth++
			}
		case html.EndTagToken:
			b.Write(z.Raw())
			if name, _ := z.TagName(); string(name) == markTag && depth > 0 {
				depth--
			}
		default:
			b.Write(z.Raw())
		}
	}
}

func markMatches(b *strings.Builder, re *regexp.Regexp, text string) {
	last := 0
	for _, m := range re.FindAllStringIndex(text, -1) {
		if m[0] == m[1] {
			continue
		}
		b.WriteString(html.EscapeString(text[last:m[0]]))
		b.WriteString("<" + markTag + ">")
		b.WriteString(html.EscapeString(text[m[0]:m[1]]))
		b.WriteString("</" + markTag + ">")
		last = m[1]
	}
	b.WriteString(html.EscapeString(text[last:]))
}

// termPattern matches any folded term against NFD text: each rune may be
// followed by combining marks.
func termPattern(terms []string) *regexp.Regexp {
	alts := make([]string, 0, len(terms))
	for _, t := range terms {
		folded := Fold(strings.TrimSpace(t))
		if folded == "" {
			continue
		}
		var p strings.Builder
		for _, r := range folded {
			p.WriteString(regexp.QuoteMeta(string(r)))
			p.WriteString(`\p{Mn}*`)
		}
		alts = append(alts, p.String())
	}
	if len(alts) == 0 {
		return nil
	}
	sort.SliceStable(alts, func(i, j int) bool { return len(alts[i]) > len(alts[j]) })
	return regexp.MustCompile(`(?i)(?:` + strings.Join(alts, "|") + `)`)
}
