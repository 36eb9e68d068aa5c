package indicators

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"capflow/internal/dataprocessing"
	apperrors "capflow/internal/errors"
	"capflow/pkg/contracts/domain"
)

// AssetSource yields cleaned asset tables and class series.
type AssetSource interface {
	Clean(year int) (*dataprocessing.AssetTable, error)
	TimeSeries(country, class string) (domain.AssetClassSeries, error)
}

// BuildAssetClassPanel returns a year-indexed panel of one class with a column per country.
func BuildAssetClassPanel(src AssetSource, class string, countries []string) (*domain.Panel, error) {
	if len(countries) == 0 {
		return nil, apperrors.NewConfigError("asset-class panel needs at least one country", nil)
	}
	assetClass, ok := domain.ParseAssetClass(class)
	if !ok {
		return nil, apperrors.NewLookupError("unknown asset class").WithContext("class", class)
	}

	var panel *domain.Panel
	for _, country := range countries {
		series, err := src.TimeSeries(country, string(assetClass))
		if err != nil {
			return nil, err
		}
		if panel == nil {
			keys := make([]string, len(series.Points))
			x := make([]float64, len(series.Points))
			for i, p := range series.Points {
				keys[i] = strconv.Itoa(p.Year)
				x[i] = float64(p.Year)
			}
			panel = domain.NewPanel(fmt.Sprintf("%s_holdings", slugify(string(assetClass))), "year", keys, x)
		}
		values := make([]float64, len(series.Points))
		for i, p := range series.Points {
			values[i] = p.Value
		}
		if err := panel.AddColumn(country, values); err != nil {
			return nil, err
		}
	}
	return panel, nil
}

// OverrideMarker prefixes the label of a country whose category total was pinned.
const OverrideMarker = "*"

// AllocationColumns is the category order of the allocation snapshot.
func AllocationColumns() []domain.AssetClass {
	return []domain.AssetClass{domain.AssetBonds, domain.AssetEquity, domain.AssetRealEstate, domain.AssetCash, domain.AssetOther}
}

// BuildAllocationSnapshot rescales each listed country's allocation for year so the
// five categories add to 100. Countries listed in overrides use the pinned total
// instead of the computed one and are labelled with OverrideMarker. Countries absent
// from the table are skipped. Rows are sorted by bonds ascending, missing last.
func BuildAllocationSnapshot(src AssetSource, year int, countries []string, overrides map[string]float64) (*domain.Panel, error) {
	table, err := src.Clean(year)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(countries))
	for _, c := range countries {
		wanted[c] = true
	}

	type labelled struct {
		label string
		alloc domain.AssetAllocation
	}
	var rows []labelled
	for _, alloc := range table.Allocations() {
		if !wanted[alloc.Country] {
			continue
		}
		label := alloc.Country
		total := alloc.Sum()
		if pinned, ok := overrides[alloc.Country]; ok {
			total = pinned
			label = OverrideMarker + label
		}
		factor := math.NaN()
		if total != 0 {
			factor = 100 / total
		}
		rows = append(rows, labelled{label: label, alloc: alloc.Scaled(factor)})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].alloc.Bonds, rows[j].alloc.Bonds
		if math.IsNaN(a) {
			return false
		}
		if math.IsNaN(b) {
			return true
		}
		return a < b
	})

	keys := make([]string, len(rows))
	x := make([]float64, len(rows))
	for i, r := range rows {
		keys[i] = r.label
		x[i] = float64(i)
	}
	panel := domain.NewPanel(fmt.Sprintf("pension_asset_structure_%d", year), "country", keys, x)
	for _, class := range AllocationColumns() {
		values := make([]float64, len(rows))
		for i, r := range rows {
			values[i], _ = r.alloc.Value(class)
		}
		if err := panel.AddColumn(string(class), values); err != nil {
			return nil, err
		}
	}
	return panel, nil
}

func slugify(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "_")
}
