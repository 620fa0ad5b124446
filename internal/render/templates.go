package render

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var templates = template.Must(template.New("zasqua").ParseFS(templateFS, "templates/*.html"))

// HTML writes the full search page.
func HTML(w io.Writer, p Page) error {
	return templates.ExecuteTemplate(w, "search.html", p)
}

// Static returns the embedded stylesheet and assets.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

func renderCard(c Card) template.HTML {
	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, "card", c); err != nil {
		return ""
	}
	return template.HTML(b.String()) //nolint:gosec // produced by html/template
}
