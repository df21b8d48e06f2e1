// Package cli implements the lsqlearn subcommands. The cobra wiring lives in
// cmd/lsqlearn/cmd; everything that touches data, models and output is here
// so it can be driven directly from tests.
package cli

import (
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/ezoic/lsqlearn/core/model"
	"github.com/ezoic/lsqlearn/internal/config"
	"github.com/ezoic/lsqlearn/pkg/log"
)

// App carries the resolved configuration and the output stream.
type App struct {
	Config *config.Config
	Out    io.Writer
	Logger log.Logger
}

// New returns an App writing to stdout. Config is filled in by the command's
// PreRunE.
func New() *App {
	return &App{Out: os.Stdout}
}

func (a *App) logger() log.Logger {
	if a.Logger == nil {
		a.Logger = log.GetLoggerWithName("cli")
	}
	return a.Logger
}

func (a *App) rng(stream uint64) *rand.Rand {
	seed := uint64(a.Config.Seed)
	return rand.New(rand.NewPCG(seed, seed^stream))
}

// printTable writes one line per row with the given columns. Missing values
// print as "-".
func (a *App) printTable(rows []model.Row, cols []string) error {
	w := tabwriter.NewWriter(a.Out, 1, 1, 2, ' ', 0)
	for i, c := range cols {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, c)
	}
	fmt.Fprintln(w)
	for _, r := range rows {
		for i, c := range cols {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, formatCell(r, c))
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

// printRow writes every entry of r as "key:\tvalue", sorted by key.
func (a *App) printRow(title string, r model.Row) error {
	fmt.Fprintln(a.Out, title)
	w := tabwriter.NewWriter(a.Out, 1, 1, 1, ' ', 0)
	for _, k := range r.Keys() {
		fmt.Fprintf(w, "  %s:\t%s\n", k, formatCell(r, k))
	}
	return w.Flush()
}

func formatCell(r model.Row, col string) string {
	v, ok := r[col]
	if !ok {
		return "-"
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'g', 5, 64)
}
