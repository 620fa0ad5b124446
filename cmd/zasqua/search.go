package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/neogranadina/zasqua/internal/domain/search/facet"
	"github.com/neogranadina/zasqua/internal/domain/search/state"
	"github.com/neogranadina/zasqua/internal/render"
	"github.com/neogranadina/zasqua/internal/usecase/controller"
	searchuc "github.com/neogranadina/zasqua/internal/usecase/search"
)

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Run one search cycle for a page address",
		ArgsUsage: `"q=censo&level=Expediente"`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "view-all",
				Usage: "skip the broad query prompt",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print the page model as JSON",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			d, err := setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer d.Close()

			svc, err := d.searchService()
			if err != nil {
				return err
			}

			raw := strings.TrimPrefix(cmd.Args().First(), "?")
			view := &terminalView{}
			ctrl := controller.New(svc, view, nil,
				controller.WithBasePath(d.cfg.UI.BasePath),
				controller.WithLogger(d.logger),
				controller.WithInitialQuery(raw),
			)
			if cmd.Bool("view-all") {
				err = ctrl.ViewAll(ctx)
			} else {
				err = ctrl.Load(ctx, raw)
			}

			page := view.page(err, d.renderOptions(), ctrl)
			if cmd.Bool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(page); encErr != nil {
					return encErr
				}
			} else {
				printPage(os.Stdout, page)
			}
			return err
		},
	}
}

func browseCommand() *cli.Command {
	return &cli.Command{
		Name:      "browse",
		Usage:     "Explore the catalog interactively",
		ArgsUsage: "[address]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			d, err := setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer d.Close()

			svc, err := d.searchService()
			if err != nil {
				return err
			}
			if err := svc.Init(ctx); err != nil {
				fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
			}

			b := newBrowser(svc, d, strings.TrimPrefix(cmd.Args().First(), "?"), os.Stdout)
			return b.run(ctx, os.Stdin)
		},
	}
}

// browser is a line-driven search page.
type browser struct {
	ctrl    *controller.Controller
	view    *terminalView
	history *controller.MemoryHistory
	opts    render.Options
	out     io.Writer
}

func newBrowser(svc *searchuc.Service, d *deps, initial string, out io.Writer) *browser {
	view := &terminalView{}
	history := controller.NewMemoryHistory(initial)
	ctrl := controller.New(svc, view, history,
		controller.WithBasePath(d.cfg.UI.BasePath),
		controller.WithDebounce(d.cfg.UI.Debounce()),
		controller.WithLogger(d.logger),
	)
	return &browser{ctrl: ctrl, view: view, history: history, opts: d.renderOptions(), out: out}
}

func (b *browser) run(ctx context.Context, in io.Reader) error {
	b.show(b.ctrl.Load(ctx, b.history.Current()))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(b.out, "\n"+titleStyle.Render("zasqua")+" ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}
		err := b.exec(ctx, line)
		if errors.Is(err, errUsage) {
			fmt.Fprintln(b.out, errorStyle.Render(err.Error()))
			continue
		}
		b.show(err)
	}
}

var errUsage = errors.New("unknown command; type help")

// exec maps one command line onto the controller.
func (b *browser) exec(ctx context.Context, line string) error {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	st := b.ctrl.State()

	switch name {
	case "help":
		b.help()
		return errNoRender
	case "q":
		return b.ctrl.Dispatch(ctx, controller.Action{Kind: controller.SetQuery, Value: arg})
	case "+", "-":
		op := state.OpAnd
		if name == "-" {
			op = state.OpNot
		}
		return b.ctrl.Dispatch(ctx, controller.Action{Kind: controller.AddTextFilter, Value: arg, Op: op})
	case "rm":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return errUsage
		}
		return b.ctrl.Dispatch(ctx, controller.Action{Kind: controller.RemoveTextFilter, Index: n - 1})
	case "f":
		dim, value, ok := strings.Cut(arg, " ")
		if !ok {
			return errUsage
		}
		d := facet.Dimension(dim)
		return b.ctrl.Dispatch(ctx, controller.Action{
			Kind: controller.ToggleFacet, Dimension: d, Value: value, Checked: !st.IsSelected(d, value),
		})
	case "d":
		g, base, ok := strings.Cut(arg, " ")
		n, err := strconv.Atoi(base)
		if !ok || err != nil {
			return errUsage
		}
		df, valid := state.NewDateFilter(state.Granularity(g), n)
		if !valid {
			return errUsage
		}
		same := st.Date != nil && st.Date.Granularity == df.Granularity && st.Date.Base == df.Base
		return b.ctrl.Dispatch(ctx, controller.Action{Kind: controller.ToggleDate, Date: df, Checked: !same})
	case "r":
		from, to, _ := strings.Cut(arg, " ")
		b.ctrl.DebounceDateRange(ctx, from, to)
		fmt.Fprintln(b.out, metaStyle.Render("rango aplicado en breve; pulsa enter para ver"))
		return errNoRender
	case "in":
		return b.ctrl.Dispatch(ctx, controller.Action{Kind: controller.SetParent, Value: arg})
	case "s":
		return b.ctrl.Dispatch(ctx, controller.Action{Kind: controller.SetSort, Sort: parseSort(arg)})
	case "p":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return errUsage
		}
		return b.ctrl.Dispatch(ctx, controller.Action{Kind: controller.SetPage, Page: n})
	case "clear":
		return b.ctrl.Dispatch(ctx, controller.Action{Kind: controller.ClearFilters})
	case "all":
		return b.ctrl.ViewAll(ctx)
	case "retry", "show":
		return b.ctrl.Retry(ctx)
	case "back", "fwd":
		move := b.history.Back
		if name == "fwd" {
			move = b.history.Forward
		}
		addr, ok := move()
		if !ok {
			return errNoRender
		}
		return b.ctrl.PopState(ctx, addr)
	case "group":
		b.ctrl.ToggleGroup(arg)
		return nil
	}
	return errUsage
}

// errNoRender marks commands that leave the page as it is.
var errNoRender = errors.New("no render")

func (b *browser) show(err error) {
	if errors.Is(err, errNoRender) {
		return
	}
	fmt.Fprintln(b.out)
	printPage(b.out, b.view.page(err, b.opts, b.ctrl))
	fmt.Fprintln(b.out, metaStyle.Render(b.ctrl.Href(controller.Action{Kind: controller.SetPage, Page: b.ctrl.State().Page})))
}

func (b *browser) help() {
	fmt.Fprintln(b.out, headerStyle.Render("Comandos"))
	for _, l := range []string{
		"q <texto>            consulta principal",
		"+ <término>          refinar (Y)",
		"- <término>          excluir (NO)",
		"rm <n>               quitar el refinamiento n",
		"f <faceta> <valor>   alternar repository, level o digital_status",
		"d <escala> <base>    alternar year, decade o century",
		"r <desde> <hasta>    rango de años",
		"in <código>          limitar a un fondo",
		"s <campo> [asc|desc] ordenar; s relevance vuelve a relevancia",
		"p <n>                ir a la página n",
		"clear · all · retry · back · fwd · group <nombre> · quit",
	} {
		fmt.Fprintln(b.out, "  "+l)
	}
	fmt.Fprintln(b.out, headerStyle.Render("Acciones"))
	for _, bd := range controller.Bindings() {
		fmt.Fprintf(b.out, "  %-20s %-12s %s\n", bd.Kind, bd.Event, metaStyle.Render(strings.Join(bd.Params, ",")))
	}
}

func parseSort(arg string) *state.Sort {
	field, dir, _ := strings.Cut(arg, " ")
	if field == "" || field == "relevance" {
		return nil
	}
	d := state.Asc
	if dir == string(state.Desc) {
		d = state.Desc
	}
	return &state.Sort{Field: field, Direction: d}
}
