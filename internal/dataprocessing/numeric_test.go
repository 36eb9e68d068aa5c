package dataprocessing

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "capflow/internal/errors"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		cell    string
		want    float64
		missing bool
	}{
		{"12.5", 12.5, false},
		{" 7 ", 7, false},
		{"-0.25", -0.25, false},
		{"1e3", 1000, false},
		{"0", 0, false},
		{"", 0, true},
		{"   ", 0, true},
		{"..", 0, true},
		{"n.a.", 0, true},
		{"C", 0, true},
		{"NaN", 0, true},
		{"+Inf", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			got, err := ParseNumber(tt.cell)
			if tt.missing {
				assert.True(t, apperrors.IsMissingValue(err), "got %v", err)
				assert.True(t, math.IsNaN(got))
				assert.True(t, IsMissing(Coerce(tt.cell)))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, Coerce(tt.cell))
		})
	}
}

func TestMissingValueErrorCarriesCell(t *testing.T) {
	_, err := ParseNumber("n.a.")

	var appErr *apperrors.AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrTypeMissingValue, appErr.Type)
}
