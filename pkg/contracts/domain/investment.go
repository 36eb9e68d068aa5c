package domain

import "math"

// WorldLabel is the destination row holding a source country's total foreign investment.
const WorldLabel = "World"

// InvestmentPoint is one half-year observation of a (source, destination) pair.
// Missing figures are NaN, never zero.
type InvestmentPoint struct {
	Period     Period  `json:"period"`
	Amount     float64 `json:"amount"`
	WorldTotal float64 `json:"world_total"`
	Share      float64 `json:"share"`
}

// InvestmentSeries is the ordered time series of investment from Source into Destination.
type InvestmentSeries struct {
	Source      string            `json:"source"`
	Destination string            `json:"destination"`
	Points      []InvestmentPoint `json:"points"`
}

// Periods returns the period of each point in order.
func (s InvestmentSeries) Periods() []Period {
	periods := make([]Period, len(s.Points))
	for i, p := range s.Points {
		periods[i] = p.Period
	}
	return periods
}

// InvestmentShare divides amount by the world total. The share is undefined (NaN)
// when either figure is missing or the world total is zero.
func InvestmentShare(amount, worldTotal float64) float64 {
	if math.IsNaN(amount) || math.IsNaN(worldTotal) || worldTotal == 0 {
		return math.NaN()
	}
	return amount / worldTotal
}
