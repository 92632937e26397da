// Package chart renders benchmark series as PNG or SVG charts.
package chart

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/ethpandaops/benchviz/pkg/analysis"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("no data to chart")

const (
	strokeWidth = 2
	barWidth    = 40
)

// Size of rendered charts.
var (
	LineWidth  = 10 * vg.Inch
	LineHeight = 5 * vg.Inch
	BarWidth   = 6 * vg.Inch
	BarHeight  = 4 * vg.Inch
)

// Format is an image format supported by Save and Write.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ParseFormat validates an image format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatPNG, FormatSVG:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unsupported chart format %q", s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}

	return "image/png"
}

// Chart is a plot together with its intended output size.
type Chart struct {
	plot          *plot.Plot
	width, height vg.Length
}

// Line draws one line per series against version on the X axis. Series
// without points are left out of the chart.
func Line(title, yLabel string, series []analysis.Series) (*Chart, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Version"
	p.Y.Label.Text = yLabel
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	var drawn int

	for i, s := range series {
		if len(s.Points) == 0 {
			continue
		}

		pts := make(plotter.XYs, len(s.Points))
		for j, pt := range s.Points {
			pts[j].X = pt.X
			pts[j].Y = pt.Y
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("series %s: %w", s.Name, err)
		}

		line.Color = plotutil.Color(i)
		line.Width = vg.Points(strokeWidth)

		p.Add(line)
		p.Legend.Add(s.Name, line)

		drawn++
	}

	if drawn == 0 {
		return nil, ErrNoData
	}

	return &Chart{plot: p, width: LineWidth, height: LineHeight}, nil
}

// Bar draws one bar per name.
func Bar(title, yLabel string, names []string, values []float64) (*Chart, error) {
	if len(names) == 0 || len(names) != len(values) {
		return nil, ErrNoData
	}

	vals := make(plotter.Values, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}

		vals[i] = v
	}

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = yLabel
	p.Y.Min = 0

	bars, err := plotter.NewBarChart(vals, vg.Points(barWidth))
	if err != nil {
		return nil, fmt.Errorf("building bar chart: %w", err)
	}

	bars.Color = plotutil.Color(0)
	bars.LineStyle.Width = vg.Length(0)

	p.Add(bars)
	p.NominalX(names...)

	return &Chart{plot: p, width: BarWidth, height: BarHeight}, nil
}

// Save writes the chart to path. The image format is taken from the file
// extension.
func (c *Chart) Save(path string) error {
	if err := c.plot.Save(c.width, c.height, path); err != nil {
		return fmt.Errorf("saving chart %s: %w", path, err)
	}

	return nil
}

// Write renders the chart to w in the given format.
func (c *Chart) Write(w io.Writer, format Format) error {
	wt, err := c.plot.WriterTo(c.width, c.height, string(format))
	if err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}

	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("writing chart: %w", err)
	}

	return nil
}
