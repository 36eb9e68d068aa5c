package indicators

import (
	"fmt"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "capflow/internal/errors"
	"capflow/pkg/contracts/domain"
)

func TestParseMonth(t *testing.T) {
	want := time.Date(2001, time.March, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		cell string
	}{
		{"iso", "2001-03-01"},
		{"iso with time", "2001-03-01 00:00:00"},
		{"us", "3/1/2001"},
		{"excel serial", "36951"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMonth(tt.cell)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %v", got)
		})
	}

	_, err := ParseMonth("March")
	assert.True(t, apperrors.IsParse(err))
	_, err = ParseMonth("")
	assert.True(t, apperrors.IsMissingValue(err))
}

// gprTable builds monthly rows from 1998-01 with the China index blank before 1999-01.
func gprTable(months int) domain.RawTable {
	rows := [][]string{{"month", "GPR", "GPRC_CHN", "GPRC_TWN", "GPRC_HKG", "GPRC_USA"}}
	start := time.Date(1998, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < months; i++ {
		m := start.AddDate(0, i, 0)
		chn := strconv.Itoa(i)
		if m.Year() < 1999 {
			chn = ""
		}
		rows = append(rows, []string{m.Format("2006-01-02"), "100", chn, "1", fmt.Sprint(i % 2), "9"})
	}
	return domain.RawTable{Source: "geo_risk_index.csv", Rows: rows}
}

func TestBuildGPRMovingAverage(t *testing.T) {
	observations, err := ParseGPR(gprTable(48))
	require.NoError(t, err)
	require.Len(t, observations, 48)

	panel, err := BuildGPRMovingAverage(observations, DefaultGPRStart, DefaultGPRWindow)
	require.NoError(t, err)

	// Kept months run 1999-02 .. 2001-12 (35); the first 11 have no full window.
	require.Equal(t, 24, panel.Len())
	assert.Equal(t, "2000-01", panel.Keys[0])
	assert.Equal(t, "2001-12", panel.Keys[23])
	assert.Equal(t, domain.GPRSeries(), panel.Columns())

	// China index i runs 13..24 over the first window.
	assert.InDelta(t, 18.5, panel.Value(0, domain.GPRChina), 1e-9)
	assert.InDelta(t, 100.0, panel.Value(0, domain.GPRGlobal), 1e-9)
	assert.InDelta(t, 0.5, panel.Value(0, domain.GPRHongKong), 1e-9)
	assert.InDelta(t, 2000.0, panel.X[0], 1e-9)
}

func TestBuildGPRMovingAverageDropsWindowsWithGaps(t *testing.T) {
	raw := gprTable(48)
	// Blank Taiwan in 2000-06: every window covering it is dropped.
	for _, row := range raw.Rows[1:] {
		if row[0] == "2000-06-01" {
			row[3] = ""
		}
	}
	observations, err := ParseGPR(raw)
	require.NoError(t, err)

	panel, err := BuildGPRMovingAverage(observations, DefaultGPRStart, DefaultGPRWindow)
	require.NoError(t, err)
	require.Equal(t, 12, panel.Len())
	assert.Equal(t, "2000-05", panel.Keys[4])
	assert.Equal(t, "2001-06", panel.Keys[5])
	for _, c := range panel.Columns() {
		values, _ := panel.Column(c)
		for _, v := range values {
			assert.False(t, math.IsNaN(v))
		}
	}
}

func TestParseGPRErrors(t *testing.T) {
	raw := gprTable(3)
	raw.Rows[0] = []string{"month", "GPR", "GPRC_CHN"}
	_, err := ParseGPR(raw)
	assert.True(t, apperrors.IsParse(err))

	raw = gprTable(3)
	raw.Rows[2][0] = "not a date"
	_, err = ParseGPR(raw)
	assert.True(t, apperrors.IsParse(err))

	_, err = BuildGPRMovingAverage(nil, DefaultGPRStart, 0)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}
