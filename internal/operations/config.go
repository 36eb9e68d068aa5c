package operations

import (
	"time"

	"capflow/internal/charts"
	"capflow/internal/config"
	"capflow/internal/dataprocessing"
	apperrors "capflow/internal/errors"
	"capflow/internal/indicators"
	"capflow/pkg/contracts/domain"
)

// Config selects what a run reads and derives.
type Config struct {
	// Survey coverage
	FirstPeriod    domain.Period
	LastPeriod     domain.Period
	FirstAssetYear int
	LastAssetYear  int

	// Investment panels
	Destination     string
	DestinationSlug string
	Sources         []string

	// Asset-class panels and the allocation snapshot
	AssetCountries             []string
	AllocationYear             int
	SumOverrides               map[string]float64
	MutualFundUnknownThreshold float64

	// Risk index
	GPRStart  time.Time
	GPRWindow int

	// Pension panels
	PensionCountries []string
	PensionExcluded  []string
	PensionAfterYear int

	Workers   int
	CacheSize int

	ChartsEnabled bool
	ChartStyle    charts.ChartStyle
}

// DefaultConfig returns the configuration of the published figures.
func DefaultConfig() Config {
	return Config{
		FirstPeriod:                dataprocessing.DefaultFirstPeriod,
		LastPeriod:                 dataprocessing.DefaultLastPeriod,
		FirstAssetYear:             dataprocessing.DefaultFirstAssetYear,
		LastAssetYear:              dataprocessing.DefaultLastAssetYear,
		Destination:                indicators.ChinaMainland,
		DestinationSlug:            "china",
		Sources:                    indicators.G7(),
		AssetCountries:             indicators.AllocationPeers(),
		AllocationYear:             dataprocessing.DefaultLastAssetYear,
		SumOverrides:               indicators.DefaultSumOverrides(),
		MutualFundUnknownThreshold: dataprocessing.DefaultMutualFundUnknownThreshold,
		GPRStart:                   indicators.DefaultGPRStart,
		GPRWindow:                  indicators.DefaultGPRWindow,
		PensionCountries:           indicators.G7(),
		PensionExcluded:            []string{indicators.Japan},
		PensionAfterYear:           2001,
		Workers:                    4,
		CacheSize:                  64,
		ChartsEnabled:              true,
		ChartStyle:                 charts.DefaultStyle(),
	}
}

// ConfigFrom applies the application configuration to DefaultConfig.
func ConfigFrom(cfg *config.Config) (Config, error) {
	c := DefaultConfig()
	if cfg.Normalize.FirstPeriod != "" || cfg.Normalize.LastPeriod != "" {
		first, err := domain.ParsePeriod(cfg.Normalize.FirstPeriod)
		if err != nil {
			return Config{}, apperrors.NewConfigError("invalid first_period", err).WithContext("value", cfg.Normalize.FirstPeriod)
		}
		last, err := domain.ParsePeriod(cfg.Normalize.LastPeriod)
		if err != nil {
			return Config{}, apperrors.NewConfigError("invalid last_period", err).WithContext("value", cfg.Normalize.LastPeriod)
		}
		if last.Before(first) {
			return Config{}, apperrors.NewConfigError("last_period precedes first_period", nil).
				WithContext("first_period", first.String()).
				WithContext("last_period", last.String())
		}
		c.FirstPeriod, c.LastPeriod = first, last
	}
	c.Workers = cfg.Loader.Workers
	c.CacheSize = cfg.Normalize.CacheSize
	c.MutualFundUnknownThreshold = cfg.Normalize.MutualFundUnknownThreshold
	c.AllocationYear = cfg.Normalize.AllocationYear
	c.SumOverrides = cfg.Normalize.SumOverrides
	c.GPRWindow = cfg.Normalize.GPRWindow
	if cfg.Normalize.GPRStart != "" {
		start, err := time.Parse("2006-01-02", cfg.Normalize.GPRStart)
		if err != nil {
			return Config{}, apperrors.NewConfigError("invalid gpr_start", err).WithContext("value", cfg.Normalize.GPRStart)
		}
		c.GPRStart = start
	}
	c.ChartsEnabled = cfg.Charts.Enabled
	c.ChartStyle = charts.StyleFromConfig(cfg.Charts)
	return c, nil
}

// Periods returns every survey period of the run in order.
func (c Config) Periods() []domain.Period {
	return domain.PeriodRange(c.FirstPeriod, c.LastPeriod)
}

// AssetYears returns every asset-structure year of the run in order.
func (c Config) AssetYears() []int {
	var years []int
	for y := c.FirstAssetYear; y <= c.LastAssetYear; y++ {
		years = append(years, y)
	}
	return years
}
