package render

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

const ellipsis = "..."

var voidElements = map[string]bool{
	"area": true, "br": true, "col": true, "embed": true, "hr": true, "img": true,
	"input": true, "link": true, "meta": true, "source": true, "track": true, "wbr": true,
}

// Truncate cuts an HTML fragment after limit characters of text. Tags are
// never split; elements left open are closed before the ellipsis.
// Fragments within the limit are returned unchanged.
func Truncate(fragment string, limit int) string {
	if limit < 0 || textLength(fragment) <= limit {
		return fragment
	}

	var (
		b     strings.Builder
		open  []string
		count int
	)
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			text := []rune(string(z.Text()))
			if count+len(text) <= limit {
				b.WriteString(html.EscapeString(string(text)))
				count += len(text)
				continue
			}
			b.WriteString(html.EscapeString(string(text[:limit-count])))
			for i := len(open) - 1; i >= 0; i-- {
				b.WriteString("</" + open[i] + ">")
			}
			b.WriteString(ellipsis)
			return b.String()
		case html.StartTagToken:
			b.Write(z.Raw())
			name, _ := z.TagName()
			if !voidElements[string(name)] {
				open = append(open, string(name))
			}
		case html.EndTagToken:
			b.Write(z.Raw())
			name, _ := z.TagName()
			for i := len(open) - 1; i >= 0; i-- {
				if open[i] == string(name) {
					open = append(open[:i], open[i+1:]...)
					break
				}
			}
		default:
			b.Write(z.Raw())
		}
	}
}

func textLength(fragment string) int {
	n := 0
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return n
		case html.TextToken:
			n += utf8.RuneCount(z.Text())
		}
	}
}
