package domain

import "time"

// GPR index columns used by the risk charts.
const (
	GPRGlobal    = "GPR"
	GPRChina     = "GPRC_CHN"
	GPRTaiwan    = "GPRC_TWN"
	GPRHongKong  = "GPRC_HKG"
	GPRMonthName = "month"
)

// GPRSeries returns the index columns kept from the risk table, in order.
func GPRSeries() []string {
	return []string{GPRGlobal, GPRChina, GPRTaiwan, GPRHongKong}
}

// GPRObservation is one month of the Caldara–Iacoviello geopolitical risk index.
type GPRObservation struct {
	Month  time.Time          `json:"month"`
	Values map[string]float64 `json:"values"`
}

// ExchangeRate is the yearly average of national currency units per USD.
type ExchangeRate struct {
	Currency   string  `json:"currency"`
	Year       int     `json:"year"`
	UnitPerUSD float64 `json:"unit_per_usd"`
}

// PensionAssetRecord is a country's total pension investment for one year.
type PensionAssetRecord struct {
	Country     string  `json:"country"`
	Year        int     `json:"year"`
	Currency    string  `json:"currency"`
	TotalAssets float64 `json:"total_assets"`
	TotalUSD    float64 `json:"total_usd"`
}
