// Package charts renders the presentation figures with gonum/plot. Every
// renderer takes its ChartStyle explicitly; no package-level plot defaults are
// modified.
package charts

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"capflow/internal/config"
	"capflow/internal/indicators"
)

// ChartStyle carries every visual setting of a figure.
type ChartStyle struct {
	Typeface font.Typeface
	// Variant selects the face within the typeface: "Sans", "Serif" or "Mono".
	Variant   font.Variant
	Width     vg.Length
	Height    vg.Length
	LineWidth vg.Length
	TitleSize vg.Length
	LabelSize vg.Length
	// Palette colors series without an entry in SeriesColors, in order.
	Palette []color.Color
	// SeriesColors pins the color of named series, e.g. countries.
	SeriesColors map[string]color.Color
	// StackColors fill the stacked allocation bars in column order.
	StackColors []color.Color
	GridColor   color.Color
}

// DefaultStyle returns the house style of the published figures.
func DefaultStyle() ChartStyle {
	return ChartStyle{
		Typeface:  "Liberation",
		Variant:   "Sans",
		Width:     8 * vg.Inch,
		Height:    5 * vg.Inch,
		LineWidth: vg.Points(3),
		TitleSize: vg.Points(14),
		LabelSize: vg.Points(10),
		Palette:   plotutil.SoftColors,
		SeriesColors: map[string]color.Color{
			indicators.Canada:        mustHex("#C91D42"),
			indicators.UnitedStates:  mustHex("#1DC9A4"),
			indicators.UnitedKingdom: mustHex("#1DC9A4"),
			indicators.Japan:         mustHex("#E1DFD0"),
			"Germany":                mustHex("#595959"),
			"France":                 mustHex("#1F2E7A"),
			"Italy":                  mustHex("#D0E1E1"),
		},
		StackColors: []color.Color{
			mustHex("#141F52"), mustHex("#D6DBF5"), mustHex("#475ED1"), mustHex("#D2F9F0"), mustHex("#1DC9A4"),
		},
		GridColor: color.Gray{Y: 128},
	}
}

// StyleFromConfig applies the configured typeface and dimensions to DefaultStyle.
func StyleFromConfig(cfg config.ChartsConfig) ChartStyle {
	style := DefaultStyle()
	if cfg.Typeface != "" {
		style.Typeface = font.Typeface(cfg.Typeface)
	}
	if cfg.WidthInches > 0 {
		style.Width = vg.Length(cfg.WidthInches) * vg.Inch
	}
	if cfg.HeightInches > 0 {
		style.Height = vg.Length(cfg.HeightInches) * vg.Inch
	}
	if cfg.LineWidth > 0 {
		style.LineWidth = vg.Points(cfg.LineWidth)
	}
	if cfg.TitleFontSize > 0 {
		style.TitleSize = vg.Points(cfg.TitleFontSize)
	}
	return style
}

// colorFor returns the pinned color of a series or the i-th palette color.
func (s ChartStyle) colorFor(series string, i int) color.Color {
	if c, ok := s.SeriesColors[series]; ok {
		return c
	}
	if len(s.Palette) == 0 {
		return plotutil.Color(i)
	}
	return s.Palette[i%len(s.Palette)]
}

func (s ChartStyle) stackColor(i int) color.Color {
	if len(s.StackColors) == 0 {
		return s.colorFor("", i)
	}
	return s.StackColors[i%len(s.StackColors)]
}

func (s ChartStyle) font(size vg.Length) font.Font {
	return font.Font{Typeface: s.Typeface, Variant: s.Variant, Size: size}
}

// ParseHexColor parses "#RRGGBB".
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q: want #RRGGBB", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

func mustHex(s string) color.RGBA {
	c, err := ParseHexColor(s)
	if err != nil {
		panic(err)
	}
	return c
}
