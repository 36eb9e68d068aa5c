package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "capflow/internal/errors"
	"capflow/pkg/contracts/domain"
)

func ratesTable() domain.RawTable {
	return domain.RawTable{Source: "exchange_rates_oecd.csv", Rows: [][]string{
		{"LOCATION", "INDICATOR", "SUBJECT", "MEASURE", "FREQUENCY", "TIME", "Value"},
		{"CAN", "EXCH", "TOT", "NATUSD", "A", "2020", "1.25"},
		{"CAN", "EXCH", "TOT", "NATUSD", "A", "2021", "1.25"},
		{"DEU", "EXCH", "TOT", "NATUSD", "A", "2021", "0.8"},
		{"USA", "EXCH", "TOT", "NATUSD", "A", "2021", "1"},
		{"GBR", "EXCH", "TOT", "NATUSD", "A", "2021", ""},
		{"CAN", "EXCH", "TOT", "NATUSD", "Q", "2021-Q1", "1.3"},
	}}
}

func TestParseExchangeRates(t *testing.T) {
	rates, err := ParseExchangeRates(ratesTable())
	require.NoError(t, err)
	require.Len(t, rates, 5)
	assert.Equal(t, domain.ExchangeRate{Currency: "EUR", Year: 2021, UnitPerUSD: 0.8}, rates[2])
	assert.True(t, math.IsNaN(rates[4].UnitPerUSD))

	_, err = ParseExchangeRates(domain.RawTable{Rows: [][]string{{"LOCATION", "Value"}}})
	assert.True(t, apperrors.IsParse(err))
}

func pensionTable() domain.RawTable {
	return domain.RawTable{Source: "total_pension_assets.csv", Rows: [][]string{
		{"Variable", "Country", "Year", "Unit", "Unit Code", "Value"},
		{"INVESTMENT", Canada, "2020", "Canadian Dollar", "CAD", "2500"},
		{"INVESTMENT", Canada, "2021", "Canadian Dollar", "CAD", "3000"},
		{"INVESTMENT", Canada, "2021", "Canadian Dollar", "CAD", "3500"},
		{"INVESTMENT", "Germany", "2021", "Euro", "EUR", "240"},
		{"INVESTMENT", UnitedKingdom, "2021", "Pound Sterling", "GBP", "3000"},
		{"INVESTMENT", "Peru", "2021", "Sol", "PEN", "100"},
		{"CONTRIB", Canada, "2021", "Canadian Dollar", "CAD", "99"},
	}}
}

func TestPensionAssetsUSD(t *testing.T) {
	rates, err := ParseExchangeRates(ratesTable())
	require.NoError(t, err)

	records, err := ParsePensionAssets(pensionTable(), rates)
	require.NoError(t, err)
	require.Len(t, records, 6)
	assert.Equal(t, "CAN", records[0].Currency)
	assert.InDelta(t, 2000.0, records[0].TotalUSD, 1e-9)
	assert.InDelta(t, 300.0, records[3].TotalUSD, 1e-9)
	assert.True(t, math.IsNaN(records[4].TotalUSD), "missing rate value")
	assert.True(t, math.IsNaN(records[5].TotalUSD), "no rate for currency")

	panel, err := BuildPensionAssetsUSD(records)
	require.NoError(t, err)
	assert.Equal(t, []string{"2020", "2021"}, panel.Keys)
	assert.Equal(t, []string{Canada, "Germany"}, panel.Columns())
	assert.InDelta(t, 2000.0, panel.Value(0, Canada), 1e-9)
	assert.InDelta(t, 2600.0, panel.Value(1, Canada), 1e-9) // mean of 2400 and 2800
	assert.True(t, math.IsNaN(panel.Value(0, "Germany")))
	assert.InDelta(t, 300.0, panel.Value(1, "Germany"), 1e-9)
}

func TestBuildPensionGDPPanel(t *testing.T) {
	raw := domain.RawTable{Source: "total_pension_assets_perc.csv", Rows: [][]string{
		{"country", "2000", "2001", "2002", "2003", "notes"},
		{Canada, "140", "142", "150.5", "..", "x"},
		{Japan, "20", "21", "22", "23", ""},
		{"Australia", "90", "91", "92", "93", ""},
		{UnitedStates, "120", "121", "122", "123", ""},
	}}

	panel, err := BuildPensionGDPPanel(raw, G7(), []string{Japan}, 2001)
	require.NoError(t, err)
	assert.Equal(t, []string{"2002", "2003"}, panel.Keys)
	assert.Equal(t, []string{Canada, UnitedStates}, panel.Columns())
	assert.Equal(t, 150.5, panel.Value(0, Canada))
	assert.True(t, math.IsNaN(panel.Value(1, Canada)))
	assert.Equal(t, 123.0, panel.Value(1, UnitedStates))

	_, err = BuildPensionGDPPanel(domain.RawTable{Rows: [][]string{{"Country"}}}, G7(), nil, 2001)
	assert.True(t, apperrors.IsParse(err))
}
