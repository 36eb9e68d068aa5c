package domain

import (
	"math"
	"strings"
)

// AssetClass is one of the five canonical pension asset categories.
type AssetClass string

const (
	AssetCash       AssetClass = "cash"
	AssetBonds      AssetClass = "bonds"
	AssetEquity     AssetClass = "equity"
	AssetRealEstate AssetClass = "real estate"
	AssetOther      AssetClass = "other"
)

// AssetClasses returns the canonical categories in reporting order.
func AssetClasses() []AssetClass {
	return []AssetClass{AssetCash, AssetBonds, AssetEquity, AssetRealEstate, AssetOther}
}

// ParseAssetClass resolves a category name, accepting "real_estate" and any case.
func ParseAssetClass(name string) (AssetClass, bool) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, "_", " ")
	for _, c := range AssetClasses() {
		if string(c) == normalized {
			return c, true
		}
	}
	return "", false
}

// AssetAllocation is one country's cleaned allocation in percent of total assets.
type AssetAllocation struct {
	Country    string  `json:"country"`
	Cash       float64 `json:"cash"`
	Bonds      float64 `json:"bonds"`
	Equity     float64 `json:"equity"`
	RealEstate float64 `json:"real_estate"`
	Other      float64 `json:"other"`

	// Residual holds hedge funds and private equity funds, which the
	// five-category taxonomy does not absorb.
	Residual float64 `json:"residual"`

	// MutualFundUnknown is set when the mutual-fund breakdown was not reported and
	// the categories were renormalized from the country's known holdings.
	MutualFundUnknown bool `json:"mtf_unknown"`

	// Surveyed is false when the country's row carried no data at all.
	Surveyed bool `json:"surveyed"`
}

// Value returns the percentage held in the given class.
func (a AssetAllocation) Value(class AssetClass) (float64, bool) {
	switch class {
	case AssetCash:
		return a.Cash, true
	case AssetBonds:
		return a.Bonds, true
	case AssetEquity:
		return a.Equity, true
	case AssetRealEstate:
		return a.RealEstate, true
	case AssetOther:
		return a.Other, true
	}
	return math.NaN(), false
}

// Sum adds the five canonical categories.
func (a AssetAllocation) Sum() float64 {
	return a.Cash + a.Bonds + a.Equity + a.RealEstate + a.Other
}

// Scaled returns a copy with every canonical category multiplied by factor.
func (a AssetAllocation) Scaled(factor float64) AssetAllocation {
	a.Cash *= factor
	a.Bonds *= factor
	a.Equity *= factor
	a.RealEstate *= factor
	a.Other *= factor
	return a
}

// AssetPoint is one yearly observation.
type AssetPoint struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// AssetClassSeries is the yearly series of one class for one country.
type AssetClassSeries struct {
	Country string       `json:"country"`
	Class   AssetClass   `json:"class"`
	Points  []AssetPoint `json:"points"`
}
