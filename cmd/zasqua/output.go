package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/neogranadina/zasqua/internal/render"
	"github.com/neogranadina/zasqua/internal/usecase/controller"
	searchuc "github.com/neogranadina/zasqua/internal/usecase/search"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	pillStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("32")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("32")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(0, 1)
)

// terminalView keeps the last result delivered by a controller.
type terminalView struct {
	mu   sync.Mutex
	out  searchuc.Outcome
	err  error
	done bool
}

func (v *terminalView) Loading() {}

func (v *terminalView) Render(out searchuc.Outcome) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.out, v.err, v.done = out, nil, true
}

func (v *terminalView) Error(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.err, v.done = err, true
}

// page projects the view's last result, or the error page for err.
func (v *terminalView) page(err error, opts render.Options, ctrl *controller.Controller) render.Page {
	v.mu.Lock()
	defer v.mu.Unlock()

	opts.Linker = ctrl
	opts.GroupOpen = ctrl.GroupOpen
	if err == nil && v.err != nil {
		err = v.err
	}
	switch {
	case err != nil:
		return render.BuildError(err, ctrl.State(), opts)
	case !v.done:
		return render.Loading(ctrl.State(), opts)
	}
	return render.Build(v.out, opts)
}

// printPage writes a page for the terminal.
func printPage(w io.Writer, p render.Page) {
	if len(p.Pills) > 0 {
		pills := make([]string, 0, len(p.Pills))
		for _, pl := range p.Pills {
			pills = append(pills, pillStyle.Render(pl.Label))
		}
		fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Center, pills...))
	}

	switch p.Kind {
	case render.KindError, render.KindUnavailable:
		fmt.Fprintln(w, errorStyle.Render(p.Message))
		return
	case string(searchuc.KindLanding):
		fmt.Fprintln(w, metaStyle.Render(p.Message))
		printGroups(w, p)
		return
	case string(searchuc.KindBrowsePrompt):
		fmt.Fprintln(w, noticeStyle.Render(p.Prompt.Text))
		printGroups(w, p)
		return
	case render.KindNoResults:
		fmt.Fprintln(w, headerStyle.Render(p.Message))
		if p.Suggestion != "" {
			fmt.Fprintln(w, metaStyle.Render(p.Suggestion))
		}
		printGroups(w, p)
		return
	}

	fmt.Fprintln(w, headerStyle.Render(p.TotalText))
	for i := range p.Cards {
		printCard(w, &p.Cards[i])
	}
	if p.Suppressed > 0 {
		fmt.Fprintln(w, metaStyle.Render(fmt.Sprintf("%d ocultos por exclusión", p.Suppressed)))
	}
	if pg := p.Pagination; pg != nil {
		fmt.Fprintln(w, metaStyle.Render(pageLine(pg)))
	}
	printGroups(w, p)
}

func printCard(w io.Writer, c *render.Card) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render(render.PlainText(string(c.Title))))

	meta := []string{c.Level}
	for _, s := range []string{c.ReferenceCode, c.Date, c.Repository} {
		if s != "" {
			meta = append(meta, s)
		}
	}
	fmt.Fprintln(w, metaStyle.Render(strings.Join(meta, " · ")))
	if c.Excerpt != "" {
		fmt.Fprintln(w, render.PlainText(string(c.Excerpt)))
	}
	if c.Path != "" {
		fmt.Fprintln(w, metaStyle.Render(c.Path))
	}
}

func printGroups(w io.Writer, p render.Page) {
	for _, g := range p.Groups {
		if !g.Open || len(g.Options) == 0 {
			continue
		}
		opts := make([]string, 0, len(g.Options))
		for _, o := range g.Options {
			label := fmt.Sprintf("%s (%s)", o.Label, o.CountText)
			if o.Active {
				label = "[x] " + label
			}
			opts = append(opts, label)
		}
		fmt.Fprintf(w, "\n%s %s\n", headerStyle.Render(g.Title+":"), strings.Join(opts, " · "))
	}
	if d := p.Dates; d != nil && d.Open && len(d.Nodes) > 0 {
		nodes := make([]string, 0, len(d.Nodes))
		for _, n := range d.Nodes {
			label := fmt.Sprintf("%s (%s)", n.Label, n.CountText)
			if n.Checked {
				label = "[x] " + label
			}
			nodes = append(nodes, label)
		}
		fmt.Fprintf(w, "\n%s %s\n", headerStyle.Render(d.Title+":"), strings.Join(nodes, " · "))
	}
}

func pageLine(pg *render.Pagination) string {
	current, last := 0, 0
	for _, l := range pg.Pages {
		if l.Current {
			current = l.Number
		}
		if l.Number > last {
			last = l.Number
		}
	}
	return fmt.Sprintf("Página %d de %d", current, last)
}
