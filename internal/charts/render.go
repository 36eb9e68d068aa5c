package charts

import (
	"image/color"
	"io"
	"log/slog"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	apperrors "capflow/internal/errors"
	"capflow/internal/files"
	"capflow/pkg/contracts/domain"
)

// LineChart describes one multi-series line figure drawn from a panel.
type LineChart struct {
	File     string
	Title    string
	Subtitle string
	Panel    *domain.Panel
	// Columns selects and orders the series; nil draws every column.
	Columns []string
	// Exclude drops series by name.
	Exclude []string
	// Labels renames series in the legend.
	Labels map[string]string
	// Colors overrides the style's series colors for this figure.
	Colors map[string]color.Color
	Legend bool
}

// Renderer draws figures and writes them as PNG files through a files.Manager.
type Renderer struct {
	style  ChartStyle
	out    *files.Manager
	logger *slog.Logger
}

// NewRenderer creates a renderer writing below out's root.
func NewRenderer(style ChartStyle, out *files.Manager, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{style: style, out: out, logger: logger}
}

// RenderLine draws chart and returns the written path. Missing values are left
// out of their line; series with no values at all are skipped.
func (r *Renderer) RenderLine(chart LineChart) (string, error) {
	if chart.Panel == nil {
		return "", apperrors.NewRenderError("no panel to plot", nil).WithContext("file", chart.File)
	}

	p := plot.New()
	r.decorate(p, chart.Title, "Year", chart.Subtitle)
	p.Add(r.grid())

	panel := chart.Panel.Without(chart.Exclude...)
	columns := chart.Columns
	if columns == nil {
		columns = panel.Columns()
	}

	plotted := 0
	for i, name := range columns {
		values, ok := panel.Column(name)
		if !ok {
			if _, excluded := chart.Panel.Column(name); excluded {
				continue
			}
			return "", apperrors.NewRenderError("unknown series", nil).
				WithContext("file", chart.File).
				WithContext("series", name)
		}
		xys := points(panel.X, values)
		if len(xys) == 0 {
			r.logger.Debug("Skipping empty series",
				slog.String("file", chart.File),
				slog.String("series", name))
			continue
		}

		line, err := plotter.NewLine(xys)
		if err != nil {
			return "", apperrors.NewRenderError("failed to build line", err).WithContext("series", name)
		}
		line.LineStyle.Width = r.style.LineWidth
		line.LineStyle.Color = r.style.colorFor(name, i)
		if c, ok := chart.Colors[name]; ok {
			line.LineStyle.Color = c
		}
		p.Add(line)

		if chart.Legend {
			label := name
			if l, ok := chart.Labels[name]; ok {
				label = l
			}
			p.Legend.Add(label, line)
		}
		plotted++
	}
	if plotted == 0 {
		return "", apperrors.NewRenderError("no data to plot", nil).WithContext("file", chart.File)
	}

	return r.save(p, chart.File)
}

// RenderAllocation draws the allocation snapshot as horizontal bars, one row
// per country, with the categories stacked in column order.
func (r *Renderer) RenderAllocation(panel *domain.Panel, file, title string) (string, error) {
	if panel == nil || panel.Len() == 0 {
		return "", apperrors.NewRenderError("no allocation rows to plot", nil).WithContext("file", file)
	}

	p := plot.New()
	r.decorate(p, title, "", "")
	p.X.Min = 0

	barWidth := r.style.Height * 0.6 / vg.Length(panel.Len())
	var below *plotter.BarChart
	for i, name := range panel.Columns() {
		values, _ := panel.Column(name)
		for j, v := range values {
			if math.IsNaN(v) {
				values[j] = 0
			}
		}

		bars, err := plotter.NewBarChart(plotter.Values(values), barWidth)
		if err != nil {
			return "", apperrors.NewRenderError("failed to build bars", err).WithContext("series", name)
		}
		bars.Horizontal = true
		bars.Color = r.style.stackColor(i)
		bars.LineStyle.Color = color.Black
		bars.LineStyle.Width = vg.Points(0.5)
		if below != nil {
			bars.StackOn(below)
		}
		p.Add(bars)
		p.Legend.Add(name, bars)
		below = bars
	}
	p.NominalY(panel.Keys...)

	return r.save(p, file)
}

func (r *Renderer) decorate(p *plot.Plot, title, xLabel, yLabel string) {
	p.Title.Text = title
	p.Title.TextStyle.Font = r.style.font(r.style.TitleSize)
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	for _, axis := range []*plot.Axis{&p.X, &p.Y} {
		axis.Label.TextStyle.Font = r.style.font(r.style.LabelSize)
		axis.Tick.Label.Font = r.style.font(r.style.LabelSize)
	}
	p.Legend.TextStyle.Font = r.style.font(vg.Points(8))
	p.Legend.Top = true
	p.Legend.Left = true
}

func (r *Renderer) grid() *plotter.Grid {
	grid := plotter.NewGrid()
	grid.Vertical.Color = nil
	grid.Horizontal.Color = r.style.GridColor
	grid.Horizontal.Width = vg.Points(0.5)
	grid.Horizontal.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	return grid
}

func (r *Renderer) save(p *plot.Plot, file string) (string, error) {
	wt, err := p.WriterTo(r.style.Width, r.style.Height, "png")
	if err != nil {
		return "", apperrors.NewRenderError("failed to draw figure", err).WithContext("file", file)
	}
	path, err := r.out.Write(file, func(w io.Writer) error {
		_, err := wt.WriteTo(w)
		return err
	})
	if err != nil {
		return "", err
	}
	r.logger.Debug("Rendered figure", slog.String("path", path))
	return path, nil
}

// points pairs x with the non-missing values.
func points(x, values []float64) plotter.XYs {
	xys := make(plotter.XYs, 0, len(values))
	for i, v := range values {
		if i >= len(x) || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		xys = append(xys, plotter.XY{X: x[i], Y: v})
	}
	return xys
}
