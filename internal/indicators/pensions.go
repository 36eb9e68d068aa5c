package indicators

import (
	"math"
	"sort"
	"strconv"

	"capflow/internal/dataprocessing"
	apperrors "capflow/internal/errors"
	"capflow/pkg/contracts/domain"
)

// PensionInvestmentVariable selects total investment rows from the pension totals table.
const PensionInvestmentVariable = "INVESTMENT"

// The exchange-rate table keys the euro area under Germany's code.
const (
	euroAreaLocation = "DEU"
	euroCurrency     = "EUR"
)

// CurrencyLocations maps the pension table's currency codes to the location codes
// the exchange-rate table uses. Codes not listed are used as-is (EUR stays EUR).
func CurrencyLocations() map[string]string {
	return map[string]string{
		"AUD": "AUS", "USD": "USA", "CAD": "CAN", "DKK": "DNK", "CZK": "CZE",
		"JPY": "JPN", "KRW": "KOR", "MXN": "MEX", "NZD": "NZL", "HUF": "HUN",
		"ISK": "ISL", "PLN": "POL", "SEK": "SWE", "CHF": "CHE", "TRY": "TUR",
		"GBP": "GBR", "CLP": "CHL", "COP": "COL", "CRC": "CRI", "ILS": "ISR",
	}
}

// columns resolves required header names on row 0.
func columns(raw domain.RawTable, names ...string) (map[string]int, error) {
	header := raw.HeaderIndex(0)
	out := make(map[string]int, len(names))
	for _, name := range names {
		col, ok := header[name]
		if !ok {
			return nil, apperrors.NewParseError("required column absent", nil).
				WithContext("source", raw.Source).
				WithContext("column", name)
		}
		out[name] = col
	}
	return out, nil
}

// ParseExchangeRates reads LOCATION, TIME and Value. Rows without a numeric year
// are ignored.
func ParseExchangeRates(raw domain.RawTable) ([]domain.ExchangeRate, error) {
	cols, err := columns(raw, "LOCATION", "TIME", "Value")
	if err != nil {
		return nil, err
	}
	var rates []domain.ExchangeRate
	for row := 1; row < raw.NumRows(); row++ {
		year, err := strconv.Atoi(raw.Cell(row, cols["TIME"]))
		if err != nil {
			continue
		}
		currency := raw.Cell(row, cols["LOCATION"])
		if currency == euroAreaLocation {
			currency = euroCurrency
		}
		rates = append(rates, domain.ExchangeRate{
			Currency:   currency,
			Year:       year,
			UnitPerUSD: dataprocessing.Coerce(raw.Cell(row, cols["Value"])),
		})
	}
	return rates, nil
}

// ParsePensionAssets reads total investment records and converts them to USD with
// the matching yearly rate. A missing rate leaves the USD figure missing.
func ParsePensionAssets(raw domain.RawTable, rates []domain.ExchangeRate) ([]domain.PensionAssetRecord, error) {
	cols, err := columns(raw, "Variable", "Country", "Year", "Unit Code", "Value")
	if err != nil {
		return nil, err
	}

	type rateKey struct {
		currency string
		year     int
	}
	index := make(map[rateKey]float64, len(rates))
	for _, r := range rates {
		k := rateKey{r.Currency, r.Year}
		if _, seen := index[k]; !seen {
			index[k] = r.UnitPerUSD
		}
	}
	locations := CurrencyLocations()

	var records []domain.PensionAssetRecord
	for row := 1; row < raw.NumRows(); row++ {
		if raw.Cell(row, cols["Variable"]) != PensionInvestmentVariable {
			continue
		}
		year, err := strconv.Atoi(raw.Cell(row, cols["Year"]))
		if err != nil {
			continue
		}
		currency := raw.Cell(row, cols["Unit Code"])
		if loc, ok := locations[currency]; ok {
			currency = loc
		}
		total := dataprocessing.Coerce(raw.Cell(row, cols["Value"]))
		usd := math.NaN()
		if rate, ok := index[rateKey{currency, year}]; ok && rate != 0 {
			usd = total / rate
		}
		records = append(records, domain.PensionAssetRecord{
			Country:     raw.Cell(row, cols["Country"]),
			Year:        year,
			Currency:    currency,
			TotalAssets: total,
			TotalUSD:    usd,
		})
	}
	return records, nil
}

// BuildPensionAssetsUSD pivots records into a year × country panel, averaging
// duplicate observations and ignoring missing ones. Years and countries are sorted.
func BuildPensionAssetsUSD(records []domain.PensionAssetRecord) (*domain.Panel, error) {
	type acc struct {
		sum float64
		n   int
	}
	cells := make(map[int]map[string]*acc)
	countrySet := make(map[string]bool)
	for _, r := range records {
		if math.IsNaN(r.TotalUSD) {
			continue
		}
		byCountry, ok := cells[r.Year]
		if !ok {
			byCountry = make(map[string]*acc)
			cells[r.Year] = byCountry
		}
		a, ok := byCountry[r.Country]
		if !ok {
			a = &acc{}
			byCountry[r.Country] = a
		}
		a.sum += r.TotalUSD
		a.n++
		countrySet[r.Country] = true
	}

	years := make([]int, 0, len(cells))
	for y := range cells {
		years = append(years, y)
	}
	sort.Ints(years)
	countries := make([]string, 0, len(countrySet))
	for c := range countrySet {
		countries = append(countries, c)
	}
	sort.Strings(countries)

	keys := make([]string, len(years))
	x := make([]float64, len(years))
	for i, y := range years {
		keys[i] = strconv.Itoa(y)
		x[i] = float64(y)
	}
	panel := domain.NewPanel("pension_assets_usd", "year", keys, x)
	for _, c := range countries {
		values := make([]float64, len(years))
		for i, y := range years {
			values[i] = math.NaN()
			if a, ok := cells[y][c]; ok {
				values[i] = a.sum / float64(a.n)
			}
		}
		if err := panel.AddColumn(c, values); err != nil {
			return nil, err
		}
	}
	return panel, nil
}

// BuildPensionGDPPanel turns the country × year %-of-GDP table into a year × country
// panel restricted to countries (in table order), minus excluded, for years after
// afterYear. Header cells that are not years are ignored.
func BuildPensionGDPPanel(raw domain.RawTable, countries, excluded []string, afterYear int) (*domain.Panel, error) {
	cols, err := columns(raw, "country")
	if err != nil {
		return nil, err
	}
	countryCol := cols["country"]

	var years []int
	var yearCols []int
	for col := range raw.Rows[0] {
		if col == countryCol {
			continue
		}
		year, err := strconv.Atoi(raw.Cell(0, col))
		if err != nil || year <= afterYear {
			continue
		}
		years = append(years, year)
		yearCols = append(yearCols, col)
	}

	keep := make(map[string]bool, len(countries))
	for _, c := range countries {
		keep[c] = true
	}
	for _, c := range excluded {
		delete(keep, c)
	}

	keys := make([]string, len(years))
	x := make([]float64, len(years))
	for i, y := range years {
		keys[i] = strconv.Itoa(y)
		x[i] = float64(y)
	}
	panel := domain.NewPanel("pension_assets_perc_gdp", "year", keys, x)
	for row := 1; row < raw.NumRows(); row++ {
		country := raw.Cell(row, countryCol)
		if !keep[country] {
			continue
		}
		values := make([]float64, len(yearCols))
		for i, col := range yearCols {
			values[i] = dataprocessing.Coerce(raw.Cell(row, col))
		}
		if err := panel.AddColumn(country, values); err != nil {
			return nil, apperrors.NewParseError("country repeated in %-of-GDP table", err).
				WithContext("source", raw.Source).
				WithContext("country", country)
		}
	}
	return panel, nil
}
