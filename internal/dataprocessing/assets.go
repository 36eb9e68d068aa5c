package dataprocessing

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	apperrors "capflow/internal/errors"
	"capflow/pkg/contracts/domain"
)

// AssetTable is one year's cleaned pension allocation, one row per country in
// source order. The table is immutable.
type AssetTable struct {
	year      int
	countries []string
	index     map[string]int
	rows      []domain.AssetAllocation
}

// Year returns the reporting year.
func (t *AssetTable) Year() int {
	return t.year
}

// Countries returns the country labels in source order.
func (t *AssetTable) Countries() []string {
	return append([]string(nil), t.countries...)
}

// Allocations returns a copy of every row.
func (t *AssetTable) Allocations() []domain.AssetAllocation {
	return append([]domain.AssetAllocation(nil), t.rows...)
}

// Allocation returns the cleaned row for a country, matched exactly.
func (t *AssetTable) Allocation(country string) (domain.AssetAllocation, error) {
	i, ok := t.index[country]
	if !ok {
		return domain.AssetAllocation{}, apperrors.NewLookupError("country not in asset table").
			WithContext("country", country).
			WithContext("year", fmt.Sprint(t.year))
	}
	return t.rows[i], nil
}

// assetRow holds the coerced cells of one body row keyed by canonical field.
type assetRow map[string]float64

func (r assetRow) surveyed() bool {
	for _, v := range r {
		if !IsMissing(v) {
			return true
		}
	}
	return false
}

// CleanAssets normalizes one raw asset-structure table. Mutual-fund holdings are
// folded into the five categories using the reported of-which shares; rows whose
// folded total stays below threshold are rescaled from their known holdings instead.
func CleanAssets(raw domain.RawTable, year int, layout AssetLayout, threshold float64) (*AssetTable, error) {
	parseErr := func(msg string) *apperrors.AppError {
		return apperrors.NewParseError(msg, nil).
			WithContext("source", raw.Source).
			WithContext("year", fmt.Sprint(year)).
			WithContext("vintage", layout.Vintage)
	}

	if raw.NumRows() <= layout.SubHeaderRow || raw.NumRows() <= layout.HeaderRow {
		return nil, parseErr(fmt.Sprintf("header rows %d/%d not present", layout.HeaderRow, layout.SubHeaderRow))
	}

	// Merge the of-which names into the primary header, then map to canonical fields.
	width := raw.Width()
	fieldCol := make(map[string]int, len(layout.Columns))
	for col := 0; col < width; col++ {
		name := raw.Cell(layout.HeaderRow, col)
		if col >= layout.SubHeaderFirstColumn && col <= layout.SubHeaderLastColumn {
			if sub := raw.Cell(layout.SubHeaderRow, col); sub != "" {
				name = sub
			}
		}
		if name == "" {
			continue
		}
		field, known := layout.Columns[name]
		if !known {
			continue
		}
		if _, dup := fieldCol[field]; dup {
			return nil, parseErr(fmt.Sprintf("column %q appears twice in header", name))
		}
		fieldCol[field] = col
	}
	var missing []string
	for name, field := range layout.Columns {
		if _, ok := fieldCol[field]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, parseErr(fmt.Sprintf("required columns absent: %q", missing))
	}

	end := raw.NumRows() - layout.TrailingAggregateRows
	table := &AssetTable{year: year, index: make(map[string]int)}
	for row := layout.FirstBodyRow; row < end; row++ {
		country := raw.Cell(row, fieldCol[fieldCountry])
		if country == "" {
			continue
		}
		if _, dup := table.index[country]; dup {
			return nil, parseErr(fmt.Sprintf("country %q appears twice", country))
		}
		values := make(assetRow, len(fieldCol)-1)
		for field, col := range fieldCol {
			if field == fieldCountry {
				continue
			}
			values[field] = Coerce(raw.Cell(row, col))
		}
		table.index[country] = len(table.countries)
		table.countries = append(table.countries, country)
		table.rows = append(table.rows, allocate(country, values, threshold))
	}

	return table, nil
}

// allocate applies the category folding to one coerced row.
func allocate(country string, r assetRow, threshold float64) domain.AssetAllocation {
	// An empty row has no breakdown to judge, so it is not flagged MutualFundUnknown.
	if !r.surveyed() {
		out := domain.AssetAllocation{Country: country}.Scaled(math.NaN())
		out.Residual = math.NaN()
		return out
	}
	for field, v := range r {
		if IsMissing(v) {
			r[field] = 0
		}
	}

	// Known holdings, before any mutual-fund contribution.
	known := domain.AssetAllocation{
		Country:    country,
		Cash:       r[fieldCash],
		Bonds:      r[fieldBonds] + r[fieldLoans],
		Equity:     r[fieldEquity],
		RealEstate: r[fieldRealEstate],
		Other:      r[fieldOther] + r[fieldStructured] + r[fieldInsurance],
		Residual:   r[fieldHedgeFunds] + r[fieldPrivateEquity],
		Surveyed:   true,
	}

	mf := r[fieldMutualFunds]
	folded := known
	folded.Cash += mf / 100 * r[fieldOfWhichCash]
	folded.Bonds += mf / 100 * r[fieldOfWhichBonds]
	folded.Equity += mf / 100 * r[fieldOfWhichEquity]
	folded.RealEstate += mf / 100 * r[fieldOfWhichRealEst]
	folded.Other += mf / 100 * r[fieldOfWhichOther]

	if folded.Sum() >= threshold {
		return folded
	}

	// Breakdown unreported: spread the fund holdings in the country's own proportions.
	known.MutualFundUnknown = true
	if mf == 100 {
		return known.Scaled(math.NaN())
	}
	return known.Scaled(100 / (100 - mf))
}

// AssetNormalizer cleans per-year asset tables on demand and assembles
// per-country class series.
type AssetNormalizer struct {
	raw       map[int]domain.RawTable
	layout    AssetLayout
	threshold float64
	firstYear int
	lastYear  int
	cache     *memo[int, *AssetTable]
	logger    *slog.Logger
}

// AssetOption configures an AssetNormalizer.
type AssetOption func(*AssetNormalizer)

// WithMutualFundUnknownThreshold sets the coverage below which the mutual-fund
// breakdown counts as unreported.
func WithMutualFundUnknownThreshold(threshold float64) AssetOption {
	return func(n *AssetNormalizer) { n.threshold = threshold }
}

// WithYearRange restricts time series to [first, last].
func WithYearRange(first, last int) AssetOption {
	return func(n *AssetNormalizer) {
		n.firstYear = first
		n.lastYear = last
	}
}

// WithAssetCache memoizes up to size cleaned years; 0 disables caching.
func WithAssetCache(size int) AssetOption {
	return func(n *AssetNormalizer) { n.cache = newMemo[int, *AssetTable](size) }
}

// WithAssetLogger sets the logger.
func WithAssetLogger(logger *slog.Logger) AssetOption {
	return func(n *AssetNormalizer) { n.logger = logger }
}

const (
	DefaultFirstAssetYear = 2006
	DefaultLastAssetYear  = 2021
)

// NewAssetNormalizer creates a normalizer over raw tables keyed by year.
func NewAssetNormalizer(raw map[int]domain.RawTable, opts ...AssetOption) *AssetNormalizer {
	n := &AssetNormalizer{
		raw:       raw,
		layout:    OECDAssetStructureLayout,
		threshold: DefaultMutualFundUnknownThreshold,
		firstYear: DefaultFirstAssetYear,
		lastYear:  DefaultLastAssetYear,
		cache:     newMemo[int, *AssetTable](32),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Years returns every year of the configured range, whether or not a raw table
// was loaded for it.
func (n *AssetNormalizer) Years() []int {
	if n.lastYear < n.firstYear {
		return nil
	}
	years := make([]int, 0, n.lastYear-n.firstYear+1)
	for y := n.firstYear; y <= n.lastYear; y++ {
		years = append(years, y)
	}
	return years
}

// Clean returns the cleaned table for a year.
func (n *AssetNormalizer) Clean(year int) (*AssetTable, error) {
	return n.cache.get(year, func() (*AssetTable, error) {
		raw, ok := n.raw[year]
		if !ok {
			return nil, apperrors.NewLookupError("no asset table loaded for year").
				WithContext("year", fmt.Sprint(year))
		}
		table, err := CleanAssets(raw, year, n.layout, n.threshold)
		if err != nil {
			return nil, err
		}
		unknown := 0
		for _, row := range table.rows {
			if row.MutualFundUnknown {
				unknown++
			}
		}
		n.logger.Debug("asset table cleaned",
			slog.Int("year", year),
			slog.Int("countries", len(table.Countries())),
			slog.Int("mtf_unknown", unknown))
		return table, nil
	})
}

// TimeSeries returns the yearly value of class for country. class accepts the
// canonical names ("real estate" or "real_estate").
func (n *AssetNormalizer) TimeSeries(country, class string) (domain.AssetClassSeries, error) {
	assetClass, ok := domain.ParseAssetClass(class)
	if !ok {
		return domain.AssetClassSeries{}, apperrors.NewLookupError("unknown asset class").
			WithContext("class", class)
	}
	series := domain.AssetClassSeries{Country: country, Class: assetClass}
	for _, year := range n.Years() {
		table, err := n.Clean(year)
		if err != nil {
			return domain.AssetClassSeries{}, err
		}
		row, err := table.Allocation(country)
		if err != nil {
			return domain.AssetClassSeries{}, err
		}
		value, _ := row.Value(assetClass)
		series.Points = append(series.Points, domain.AssetPoint{Year: year, Value: value})
	}
	return series, nil
}

// CacheStats reports memoization hits and misses.
func (n *AssetNormalizer) CacheStats() CacheStats {
	return n.cache.snapshot()
}
