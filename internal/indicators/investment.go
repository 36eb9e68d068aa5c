package indicators

import (
	apperrors "capflow/internal/errors"
	"capflow/pkg/contracts/domain"
)

// InvestmentSource yields bilateral time series.
type InvestmentSource interface {
	TimeSeries(source, destination string) (domain.InvestmentSeries, error)
}

// Unit conversions from the survey's millions of USD.
const (
	billions  = 1e-3
	trillions = 1e-6
	percent   = 100
)

// InvestmentPanels holds the three period-indexed panels built for one destination.
type InvestmentPanels struct {
	// InDestination is the investment into the destination, billions of USD.
	InDestination *domain.Panel
	// WorldTotal is each source's total foreign investment, trillions of USD.
	WorldTotal *domain.Panel
	// Share is the destination's share of each source's foreign investment, percent.
	Share *domain.Panel
}

// BuildInvestmentPanels assembles one column per source. Every source must cover
// the same periods.
func BuildInvestmentPanels(src InvestmentSource, destination string, sources []string, slug string) (InvestmentPanels, error) {
	if len(sources) == 0 {
		return InvestmentPanels{}, apperrors.NewConfigError("investment panels need at least one source country", nil)
	}
	var panels InvestmentPanels
	for _, source := range sources {
		series, err := src.TimeSeries(source, destination)
		if err != nil {
			return InvestmentPanels{}, err
		}
		if panels.InDestination == nil {
			keys := make([]string, len(series.Points))
			x := make([]float64, len(series.Points))
			for i, p := range series.Points {
				keys[i] = p.Period.String()
				x[i] = p.Period.Decimal()
			}
			panels.InDestination = domain.NewPanel("investment_in_"+slug, "period", keys, x)
			panels.WorldTotal = domain.NewPanel("total_foreign_investment", "period", keys, x)
			panels.Share = domain.NewPanel("share_of_foreign_investment_"+slug, "period", keys, x)
		}

		amount := make([]float64, len(series.Points))
		world := make([]float64, len(series.Points))
		share := make([]float64, len(series.Points))
		for i, p := range series.Points {
			amount[i] = p.Amount * billions
			world[i] = p.WorldTotal * trillions
			share[i] = p.Share * percent
		}
		if err := panels.InDestination.AddColumn(source, amount); err != nil {
			return InvestmentPanels{}, err
		}
		if err := panels.WorldTotal.AddColumn(source, world); err != nil {
			return InvestmentPanels{}, err
		}
		if err := panels.Share.AddColumn(source, share); err != nil {
			return InvestmentPanels{}, err
		}
	}
	return panels, nil
}
