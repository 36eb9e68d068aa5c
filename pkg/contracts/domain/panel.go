package domain

import (
	"fmt"
	"math"
)

// Panel is a tidy frame: an ordered key axis and one float column per series.
// It is the shape shared by indicators, charts and exporters. Missing values are NaN.
type Panel struct {
	// Name identifies the dataset, e.g. "investment_in_china".
	Name string `json:"name"`
	// KeyName labels the key axis, e.g. "period", "year" or "month".
	KeyName string `json:"key_name"`
	// Keys are the row labels in order.
	Keys []string `json:"keys"`
	// X is the numeric position of each key, used as the chart x axis.
	X []float64 `json:"x"`

	columns []string
	values  map[string][]float64
}

// NewPanel creates an empty panel over the given keys.
func NewPanel(name, keyName string, keys []string, x []float64) *Panel {
	return &Panel{
		Name:    name,
		KeyName: keyName,
		Keys:    append([]string(nil), keys...),
		X:       append([]float64(nil), x...),
		values:  make(map[string][]float64),
	}
}

// AddColumn appends a series. Its length must match the key axis.
func (p *Panel) AddColumn(name string, values []float64) error {
	if len(values) != len(p.Keys) {
		return fmt.Errorf("panel %s: column %q has %d values, want %d", p.Name, name, len(values), len(p.Keys))
	}
	if _, exists := p.values[name]; exists {
		return fmt.Errorf("panel %s: duplicate column %q", p.Name, name)
	}
	p.columns = append(p.columns, name)
	p.values[name] = append([]float64(nil), values...)
	return nil
}

// Columns returns the series names in insertion order.
func (p *Panel) Columns() []string {
	return append([]string(nil), p.columns...)
}

// Column returns a copy of the named series.
func (p *Panel) Column(name string) ([]float64, bool) {
	values, ok := p.values[name]
	if !ok {
		return nil, false
	}
	return append([]float64(nil), values...), true
}

// Value returns the cell at (row, column), NaN when the column is unknown.
func (p *Panel) Value(row int, column string) float64 {
	values, ok := p.values[column]
	if !ok || row < 0 || row >= len(values) {
		return math.NaN()
	}
	return values[row]
}

// Without returns a copy of the panel without the named columns.
func (p *Panel) Without(names ...string) *Panel {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	out := NewPanel(p.Name, p.KeyName, p.Keys, p.X)
	for _, c := range p.columns {
		if drop[c] {
			continue
		}
		out.columns = append(out.columns, c)
		out.values[c] = append([]float64(nil), p.values[c]...)
	}
	return out
}

// Scaled returns a copy with every value multiplied by factor.
func (p *Panel) Scaled(factor float64) *Panel {
	out := NewPanel(p.Name, p.KeyName, p.Keys, p.X)
	for _, c := range p.columns {
		src := p.values[c]
		dst := make([]float64, len(src))
		for i, v := range src {
			dst[i] = v * factor
		}
		out.columns = append(out.columns, c)
		out.values[c] = dst
	}
	return out
}

// Len returns the number of rows.
func (p *Panel) Len() int {
	return len(p.Keys)
}
