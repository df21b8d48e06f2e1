package sweep

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/ezoic/lsqlearn/core/model"
	lsqErrors "github.com/ezoic/lsqlearn/pkg/errors"
)

// Plot size used by PlotFits and PlotSeries.
const (
	plotWidth  = 4 * vg.Inch
	plotHeight = 3 * vg.Inch
)

// PlotFits draws the training and validation score of every model against
// param and saves the figure to path. The format follows the extension
// (.pdf, .png, .svg, ...). With logX the param axis is logarithmic and rows
// with a non-positive param are left out.
func (e *Explorer) PlotFits(param, path string, logX bool) error {
	const op = "Explorer.PlotFits"
	if len(e.summary) == 0 {
		return lsqErrors.NewModelError(op, "no model trained yet", lsqErrors.ErrEmptyData)
	}
	rows := make([]model.Row, 0, len(e.summary))
	for _, r := range e.summary {
		if _, ok := r[param]; !ok {
			return lsqErrors.NewValueError(op, fmt.Sprintf("summary has no column %q", param))
		}
		rows = append(rows, r)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i][param] < rows[j][param] })

	p := plot.New()
	p.X.Label.Text = param
	p.Y.Label.Text = e.scoreName
	return savePlot(p, rows, param, []string{e.validationScoreName, e.scoreName}, path, logX, false)
}

// PlotSeries draws the ys columns of rows against the x column, for example
// the SGD vitals over steps, and saves the figure to path. Rows missing a
// column are skipped for that curve.
func PlotSeries(rows []model.Row, x string, ys []string, path string, logX, logY bool) error {
	const op = "sweep.PlotSeries"
	if len(rows) == 0 {
		return lsqErrors.NewModelError(op, "no rows to plot", lsqErrors.ErrEmptyData)
	}
	if len(ys) == 0 {
		return lsqErrors.NewValueError(op, "no y columns given")
	}
	p := plot.New()
	p.X.Label.Text = x
	if len(ys) == 1 {
		p.Y.Label.Text = ys[0]
	}
	return savePlot(p, rows, x, ys, path, logX, logY)
}

func savePlot(p *plot.Plot, rows []model.Row, x string, ys []string, path string, logX, logY bool) error {
	if logX {
		p.X.Scale = plot.LogScale{}
		p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	}
	if logY {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}

	added := 0
	for i, y := range ys {
		pts := points(rows, x, y, logX, logY)
		if len(pts) == 0 {
			continue
		}
		line, scatter, err := plotter.NewLinePoints(pts)
		if err != nil {
			return lsqErrors.Wrapf(err, "plot %q", y)
		}
		line.Color = plotutil.Color(i)
		line.Dashes = plotutil.Dashes(1)
		scatter.Color = plotutil.Color(i)
		scatter.Shape = plotutil.Shape(0)
		p.Add(line, scatter)
		p.Legend.Add(y, line, scatter)
		added++
	}
	if added == 0 {
		return lsqErrors.NewValueError("sweep.savePlot", fmt.Sprintf("no plottable points for %v against %q", ys, x))
	}
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return lsqErrors.Wrapf(err, "save plot %s", path)
	}
	return nil
}

// points collects the finite (x, y) pairs of rows, dropping non-positive
// values on logarithmic axes.
func points(rows []model.Row, x, y string, logX, logY bool) plotter.XYs {
	pts := make(plotter.XYs, 0, len(rows))
	for _, r := range rows {
		xv, okx := r[x]
		yv, oky := r[y]
		if !okx || !oky || !finite(xv) || !finite(yv) {
			continue
		}
		if (logX && xv <= 0) || (logY && yv <= 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: xv, Y: yv})
	}
	return pts
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
