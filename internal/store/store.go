// Package store persists derived panels as long-format observations.
package store

import (
	"context"
	"math"

	"capflow/pkg/contracts/domain"
)

// Observation is one non-missing panel cell.
type Observation struct {
	Dataset string
	Key     string
	Series  string
	Value   float64
}

// Store saves panels and reads them back.
type Store interface {
	SavePanels(ctx context.Context, panels []*domain.Panel) error
	Observations(ctx context.Context, dataset string) ([]Observation, error)
	Close() error
}

// Flatten turns panels into observations, row by row and series by series.
// Missing cells are not stored.
func Flatten(panels []*domain.Panel) []Observation {
	var out []Observation
	for _, p := range panels {
		columns := p.Columns()
		for row, key := range p.Keys {
			for _, c := range columns {
				v := p.Value(row, c)
				if math.IsNaN(v) || math.IsInf(v, 0) {
					continue
				}
				out = append(out, Observation{Dataset: p.Name, Key: key, Series: c, Value: v})
			}
		}
	}
	return out
}

// NopStore discards everything. The pipeline saves into it when no database
// path is configured.
type NopStore struct{}

func (s *NopStore) SavePanels(ctx context.Context, panels []*domain.Panel) error {
	_ = ctx
	_ = panels
	return nil
}

func (s *NopStore) Observations(ctx context.Context, dataset string) ([]Observation, error) {
	_ = ctx
	_ = dataset
	return nil, nil
}

func (s *NopStore) Close() error {
	return nil
}
