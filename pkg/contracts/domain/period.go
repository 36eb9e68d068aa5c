package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Half identifies one of the two semi-annual survey dates.
type Half int

const (
	// H1 is the end-June survey.
	H1 Half = 1
	// H2 is the end-December survey.
	H2 Half = 2
)

// Month returns the calendar month the survey refers to.
func (h Half) Month() int {
	if h == H2 {
		return 12
	}
	return 6
}

// String returns "H1" or "H2"
func (h Half) String() string {
	return fmt.Sprintf("H%d", int(h))
}

// Period is a (year, half) survey date.
type Period struct {
	Year int  `json:"year"`
	Half Half `json:"half"`
}

// String formats the period as e.g. "2013H1".
func (p Period) String() string {
	return fmt.Sprintf("%d%s", p.Year, p.Half)
}

// Month returns the calendar month of the survey date.
func (p Period) Month() int {
	return p.Half.Month()
}

// Before reports whether p is earlier than o.
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Half < o.Half
}

// Next returns the following half-year.
func (p Period) Next() Period {
	if p.Half == H1 {
		return Period{Year: p.Year, Half: H2}
	}
	return Period{Year: p.Year + 1, Half: H1}
}

// Decimal returns the period as a fractional year, used as a chart axis position.
func (p Period) Decimal() float64 {
	return float64(p.Year) + float64(p.Month()-1)/12
}

// PeriodRange returns every half-year from first to last inclusive.
func PeriodRange(first, last Period) []Period {
	var periods []Period
	for p := first; !last.Before(p); p = p.Next() {
		periods = append(periods, p)
	}
	return periods
}

// ParsePeriod parses "2013H1" style period strings.
func ParsePeriod(s string) (Period, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	idx := strings.Index(s, "H")
	if idx <= 0 || idx == len(s)-1 {
		return Period{}, fmt.Errorf("invalid period %q: expected YYYYH1 or YYYYH2", s)
	}
	year, err := strconv.Atoi(s[:idx])
	if err != nil {
		return Period{}, fmt.Errorf("invalid period year %q: %w", s[:idx], err)
	}
	half, err := strconv.Atoi(s[idx+1:])
	if err != nil || (half != 1 && half != 2) {
		return Period{}, fmt.Errorf("invalid period half %q", s[idx+1:])
	}
	return Period{Year: year, Half: Half(half)}, nil
}
