package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodRange(t *testing.T) {
	periods := PeriodRange(Period{Year: 2013, Half: H1}, Period{Year: 2022, Half: H1})
	require.Len(t, periods, 19)
	assert.Equal(t, "2013H1", periods[0].String())
	assert.Equal(t, "2013H2", periods[1].String())
	assert.Equal(t, "2022H1", periods[18].String())

	for i := 1; i < len(periods); i++ {
		assert.True(t, periods[i-1].Before(periods[i]))
	}

	assert.Empty(t, PeriodRange(Period{Year: 2020, Half: H2}, Period{Year: 2020, Half: H1}))
	assert.Len(t, PeriodRange(Period{Year: 2020, Half: H2}, Period{Year: 2020, Half: H2}), 1)
}

func TestPeriodNextAndDecimal(t *testing.T) {
	june := Period{Year: 2013, Half: H1}
	dec := june.Next()
	assert.Equal(t, Period{Year: 2013, Half: H2}, dec)
	assert.Equal(t, Period{Year: 2014, Half: H1}, dec.Next())

	assert.Equal(t, 6, june.Month())
	assert.Equal(t, 12, dec.Month())
	assert.InDelta(t, 2013+5.0/12, june.Decimal(), 1e-9)
	assert.InDelta(t, 2013+11.0/12, dec.Decimal(), 1e-9)
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		input   string
		want    Period
		wantErr bool
	}{
		{input: "2013H1", want: Period{Year: 2013, Half: H1}},
		{input: " 2022h2 ", want: Period{Year: 2022, Half: H2}},
		{input: "2013H3", wantErr: true},
		{input: "H1", wantErr: true},
		{input: "2013H", wantErr: true},
		{input: "20x3H1", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePeriod(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
