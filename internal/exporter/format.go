package exporter

import (
	"math"
	"strconv"
)

// floatPrecision is the number of decimals written for every value.
const floatPrecision = 4

// formatFloat formats a value with a fixed number of decimals. Missing values
// become an empty cell.
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', floatPrecision, 64)
}
