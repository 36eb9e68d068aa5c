package dataprocessing

import (
	"math"
	"strconv"
	"strings"

	apperrors "capflow/internal/errors"
)

// ParseNumber reads a cell as a float. Blank cells, vendor markers such as ".." or
// "n.a." and textual NaN/Inf all yield a MISSING_VALUE error.
func ParseNumber(cell string) (float64, error) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return math.NaN(), apperrors.NewMissingValueError(cell)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return math.NaN(), apperrors.NewMissingValueError(cell)
	}
	return v, nil
}

// Coerce reads a cell as a float and maps anything non-numeric to the missing
// marker NaN. It never returns zero for a cell that held no number.
func Coerce(cell string) float64 {
	v, err := ParseNumber(cell)
	if err != nil {
		return math.NaN()
	}
	return v
}

// IsMissing reports whether v is the missing marker.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}
