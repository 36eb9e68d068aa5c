package dataprocessing

import (
	"fmt"
	"log/slog"
	"math"

	apperrors "capflow/internal/errors"
	"capflow/pkg/contracts/domain"
)

// InvestmentTable is a cleaned bilateral investment matrix for one period:
// destination rows by source columns, amounts in millions of USD. Missing
// figures are NaN. The table is immutable.
type InvestmentTable struct {
	period       domain.Period
	destinations []string
	sources      []string
	rowIndex     map[string]int
	colIndex     map[string]int
	amounts      [][]float64
}

// Period returns the survey date of the table.
func (t *InvestmentTable) Period() domain.Period {
	return t.period
}

// Destinations returns the destination-country labels in source order.
func (t *InvestmentTable) Destinations() []string {
	return append([]string(nil), t.destinations...)
}

// Sources returns the source-country labels in source order.
func (t *InvestmentTable) Sources() []string {
	return append([]string(nil), t.sources...)
}

// Amount returns the investment from source into destination. Labels match
// exactly. An absent label is a LOOKUP error; an unreported figure is NaN.
func (t *InvestmentTable) Amount(destination, source string) (float64, error) {
	row, ok := t.rowIndex[destination]
	if !ok {
		return math.NaN(), apperrors.NewLookupError("destination not in table").
			WithContext("destination", destination).
			WithContext("period", t.period.String())
	}
	col, ok := t.colIndex[source]
	if !ok {
		return math.NaN(), apperrors.NewLookupError("source not in table").
			WithContext("source", source).
			WithContext("period", t.period.String())
	}
	return t.amounts[row][col], nil
}

// CleanInvestment normalizes one raw bilateral matrix using the given layout.
func CleanInvestment(raw domain.RawTable, period domain.Period, layout BilateralLayout) (*InvestmentTable, error) {
	parseErr := func(msg string) *apperrors.AppError {
		return apperrors.NewParseError(msg, nil).
			WithContext("source", raw.Source).
			WithContext("period", period.String()).
			WithContext("vintage", layout.Vintage)
	}

	if raw.NumRows() <= layout.HeaderRow {
		return nil, parseErr(fmt.Sprintf("header row %d not present", layout.HeaderRow))
	}

	annotations := make(map[string]bool, len(layout.AnnotationColumns))
	for _, name := range layout.AnnotationColumns {
		annotations[name] = true
	}

	// Header: the destination column plus one column per source country.
	destCol := -1
	var sources []string
	var sourceCols []int
	colIndex := make(map[string]int)
	for col := layout.LeadingColumns; col < len(raw.Rows[layout.HeaderRow]); col++ {
		name := raw.Cell(layout.HeaderRow, col)
		switch {
		case name == "" || annotations[name]:
			continue
		case name == layout.DestinationLabel:
			if destCol >= 0 {
				return nil, parseErr(fmt.Sprintf("label %q appears twice in header", name))
			}
			destCol = col
		default:
			if _, dup := colIndex[name]; dup {
				return nil, parseErr(fmt.Sprintf("source %q appears twice in header", name))
			}
			colIndex[name] = len(sources)
			sources = append(sources, name)
			sourceCols = append(sourceCols, col)
		}
	}
	if destCol < 0 {
		return nil, parseErr(fmt.Sprintf("header row %d has no %q column", layout.HeaderRow, layout.DestinationLabel))
	}
	if len(sources) == 0 {
		return nil, parseErr("header row has no source columns")
	}

	end := layout.FirstDestinationRow + layout.DestinationRows
	if raw.NumRows() < end {
		return nil, parseErr(fmt.Sprintf("destination window rows %d-%d truncated at %d rows",
			layout.FirstDestinationRow, end-1, raw.NumRows()))
	}

	table := &InvestmentTable{
		period:   period,
		sources:  sources,
		rowIndex: make(map[string]int),
		colIndex: colIndex,
	}
	for row := layout.FirstDestinationRow; row < end; row++ {
		destination := raw.Cell(row, destCol)
		if destination == "" {
			continue
		}
		if _, dup := table.rowIndex[destination]; dup {
			return nil, parseErr(fmt.Sprintf("destination %q appears twice", destination))
		}
		amounts := make([]float64, len(sourceCols))
		for i, col := range sourceCols {
			amounts[i] = Coerce(raw.Cell(row, col))
		}
		table.rowIndex[destination] = len(table.destinations)
		table.destinations = append(table.destinations, destination)
		table.amounts = append(table.amounts, amounts)
	}
	if _, ok := table.rowIndex[domain.WorldLabel]; !ok {
		return nil, parseErr(fmt.Sprintf("no %q row inside destination window", domain.WorldLabel))
	}

	return table, nil
}

// InvestmentNormalizer cleans per-period bilateral tables on demand and assembles
// time series across periods.
type InvestmentNormalizer struct {
	raw    map[domain.Period]domain.RawTable
	layout BilateralLayout
	first  domain.Period
	last   domain.Period
	cache  *memo[domain.Period, *InvestmentTable]
	logger *slog.Logger
}

// InvestmentOption configures an InvestmentNormalizer.
type InvestmentOption func(*InvestmentNormalizer)

// WithPeriodRange restricts time series to [first, last].
func WithPeriodRange(first, last domain.Period) InvestmentOption {
	return func(n *InvestmentNormalizer) {
		n.first = first
		n.last = last
	}
}

// WithInvestmentCache memoizes up to size cleaned periods; 0 disables caching.
func WithInvestmentCache(size int) InvestmentOption {
	return func(n *InvestmentNormalizer) { n.cache = newMemo[domain.Period, *InvestmentTable](size) }
}

// WithInvestmentLogger sets the logger.
func WithInvestmentLogger(logger *slog.Logger) InvestmentOption {
	return func(n *InvestmentNormalizer) { n.logger = logger }
}

// Default survey range: December 2022 was not yet published.
var (
	DefaultFirstPeriod = domain.Period{Year: 2013, Half: domain.H1}
	DefaultLastPeriod  = domain.Period{Year: 2022, Half: domain.H1}
)

// NewInvestmentNormalizer creates a normalizer over raw tables keyed by period.
func NewInvestmentNormalizer(raw map[domain.Period]domain.RawTable, opts ...InvestmentOption) *InvestmentNormalizer {
	n := &InvestmentNormalizer{
		raw:    raw,
		layout: CPISAllInvestLayout,
		first:  DefaultFirstPeriod,
		last:   DefaultLastPeriod,
		cache:  newMemo[domain.Period, *InvestmentTable](32),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Periods returns every half-year of the configured range, whether or not a
// raw table was loaded for it.
func (n *InvestmentNormalizer) Periods() []domain.Period {
	return domain.PeriodRange(n.first, n.last)
}

// Clean returns the cleaned table for a period.
func (n *InvestmentNormalizer) Clean(period domain.Period) (*InvestmentTable, error) {
	return n.cache.get(period, func() (*InvestmentTable, error) {
		raw, ok := n.raw[period]
		if !ok {
			return nil, apperrors.NewLookupError("no bilateral table loaded for period").
				WithContext("period", period.String())
		}
		table, err := CleanInvestment(raw, period, n.layout)
		if err != nil {
			return nil, err
		}
		n.logger.Debug("bilateral table cleaned",
			slog.String("period", period.String()),
			slog.Int("destinations", len(table.Destinations())),
			slog.Int("sources", len(table.sources)))
		return table, nil
	})
}

// TimeSeries returns, for every period of the range, the investment from source
// into destination, the source's world total and their ratio. A period without a
// loaded table fails the whole series with a LOOKUP error.
func (n *InvestmentNormalizer) TimeSeries(source, destination string) (domain.InvestmentSeries, error) {
	series := domain.InvestmentSeries{Source: source, Destination: destination}
	for _, period := range n.Periods() {
		table, err := n.Clean(period)
		if err != nil {
			return domain.InvestmentSeries{}, err
		}
		amount, err := table.Amount(destination, source)
		if err != nil {
			return domain.InvestmentSeries{}, err
		}
		world, err := table.Amount(domain.WorldLabel, source)
		if err != nil {
			return domain.InvestmentSeries{}, err
		}
		series.Points = append(series.Points, domain.InvestmentPoint{
			Period:     period,
			Amount:     amount,
			WorldTotal: world,
			Share:      domain.InvestmentShare(amount, world),
		})
	}
	return series, nil
}

// CacheStats reports memoization hits and misses.
func (n *InvestmentNormalizer) CacheStats() CacheStats {
	return n.cache.snapshot()
}
