package indicators

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/stat"

	"capflow/internal/dataprocessing"
	apperrors "capflow/internal/errors"
	"capflow/pkg/contracts/domain"
)

// DefaultGPRStart is the first month kept for the risk charts.
var DefaultGPRStart = time.Date(1999, time.February, 1, 0, 0, 0, 0, time.UTC)

// DefaultGPRWindow is the trailing moving-average length in months.
const DefaultGPRWindow = 12

var monthLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"2006-01",
}

// ParseMonth reads a month cell written as an ISO date, a US date or an Excel
// serial number.
func ParseMonth(cell string) (time.Time, error) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return time.Time{}, apperrors.NewMissingValueError(cell)
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, apperrors.NewParseError("invalid Excel date serial", err).WithContext("cell", s)
		}
		return t, nil
	}
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperrors.NewParseError("unrecognized month format", nil).WithContext("cell", s)
}

// ParseGPR reads the risk index table: a header row naming "month" and the index
// columns, then one row per month. Rows with a blank month are ignored.
func ParseGPR(raw domain.RawTable) ([]domain.GPRObservation, error) {
	header := raw.HeaderIndex(0)
	monthCol, ok := header[domain.GPRMonthName]
	if !ok {
		return nil, apperrors.NewParseError("risk index has no month column", nil).WithContext("source", raw.Source)
	}
	cols := make(map[string]int, len(domain.GPRSeries()))
	for _, name := range domain.GPRSeries() {
		col, ok := header[name]
		if !ok {
			return nil, apperrors.NewParseError("risk index column absent", nil).
				WithContext("source", raw.Source).
				WithContext("column", name)
		}
		cols[name] = col
	}

	var observations []domain.GPRObservation
	for row := 1; row < raw.NumRows(); row++ {
		cell := raw.Cell(row, monthCol)
		if cell == "" {
			continue
		}
		month, err := ParseMonth(cell)
		if err != nil {
			return nil, apperrors.NewParseError("bad month cell", err).
				WithContext("source", raw.Source).
				WithContext("row", row)
		}
		values := make(map[string]float64, len(cols))
		for name, col := range cols {
			values[name] = dataprocessing.Coerce(raw.Cell(row, col))
		}
		observations = append(observations, domain.GPRObservation{Month: month, Values: values})
	}
	sort.SliceStable(observations, func(i, j int) bool {
		return observations[i].Month.Before(observations[j].Month)
	})
	return observations, nil
}

// BuildGPRMovingAverage keeps months from start onward that report the China index,
// then takes a trailing mean over window months for each index column. Months whose
// window is incomplete or contains a missing value in any column are dropped.
func BuildGPRMovingAverage(observations []domain.GPRObservation, start time.Time, window int) (*domain.Panel, error) {
	if window <= 0 {
		return nil, apperrors.NewConfigError(fmt.Sprintf("moving-average window %d must be positive", window), nil)
	}

	var kept []domain.GPRObservation
	for _, o := range observations {
		if o.Month.Before(start) || math.IsNaN(valueOf(o, domain.GPRChina)) {
			continue
		}
		kept = append(kept, o)
	}

	series := domain.GPRSeries()
	var keys []string
	var x []float64
	columns := make(map[string][]float64, len(series))
	buf := make([]float64, window)
	for end := window - 1; end < len(kept); end++ {
		means := make([]float64, len(series))
		complete := true
		for s, name := range series {
			for i := 0; i < window; i++ {
				buf[i] = valueOf(kept[end-window+1+i], name)
			}
			means[s] = stat.Mean(buf, nil)
			if math.IsNaN(means[s]) {
				complete = false
				break
			}
		}
		if !complete {
			continue
		}
		month := kept[end].Month
		keys = append(keys, month.Format("2006-01"))
		x = append(x, float64(month.Year())+float64(month.Month()-1)/12)
		for s, name := range series {
			columns[name] = append(columns[name], means[s])
		}
	}

	panel := domain.NewPanel("geopolitical_risk_moving_average", "month", keys, x)
	for _, name := range series {
		if err := panel.AddColumn(name, columns[name]); err != nil {
			return nil, err
		}
	}
	return panel, nil
}

func valueOf(o domain.GPRObservation, name string) float64 {
	v, ok := o.Values[name]
	if !ok {
		return math.NaN()
	}
	return v
}
