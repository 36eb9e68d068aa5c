package exporter

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "capflow/internal/errors"
	"capflow/internal/files"
	"capflow/pkg/contracts/domain"
)

func testManager(t *testing.T) (*files.Manager, string) {
	t.Helper()
	dir := t.TempDir()
	return files.NewManager(dir, slog.New(slog.NewTextHandler(io.Discard, nil))), dir
}

func samplePanel(t *testing.T, name string) *domain.Panel {
	t.Helper()
	p := domain.NewPanel(name, "period", []string{"2013H1", "2013H2", "2014H1"}, []float64{2013.5, 2014, 2014.5})
	require.NoError(t, p.AddColumn("Canada", []float64{1.23456, math.NaN(), 3}))
	require.NoError(t, p.AddColumn("United States", []float64{100, 200.5, -0.00004}))
	return p
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{name: "zero", input: 0, expected: "0.0000"},
		{name: "integer", input: 123, expected: "123.0000"},
		{name: "rounds to four decimals", input: 1.23456, expected: "1.2346"},
		{name: "negative", input: -789.1, expected: "-789.1000"},
		{name: "missing", input: math.NaN(), expected: ""},
		{name: "infinite", input: math.Inf(1), expected: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatFloat(tt.input))
		})
	}
}

func TestPanelRecords(t *testing.T) {
	headers, records := PanelRecords(samplePanel(t, "investment_in_china"))

	assert.Equal(t, []string{"period", "Canada", "United States"}, headers)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"2013H1", "1.2346", "100.0000"}, records[0])
	assert.Equal(t, []string{"2013H2", "", "200.5000"}, records[1])
	assert.Equal(t, []string{"2014H1", "3.0000", "-0.0000"}, records[2])
}

func TestCSVWriter_WritePanel(t *testing.T) {
	out, dir := testManager(t)
	w := NewCSVWriter(out, nil)

	path, err := w.WritePanel(samplePanel(t, "investment_in_china"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "investment_in_china.csv"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(content, utf8BOM), "missing BOM")

	records, err := csv.NewReader(bytes.NewReader(content[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"period", "Canada", "United States"}, records[0])
	assert.Equal(t, "", records[2][1])
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	out, _ := testManager(t)
	w := NewCSVWriter(out, nil)

	tests := []struct {
		name     string
		options  WriteOptions
		expected string
	}{
		{
			name:     "headers and records",
			options:  WriteOptions{Headers: []string{"a", "b"}, Records: [][]string{{"1", "2"}}},
			expected: "a,b\n1,2\n",
		},
		{
			name:     "quotes commas",
			options:  WriteOptions{Records: [][]string{{"China, P.R.: Mainland", "1"}}},
			expected: "\"China, P.R.: Mainland\",1\n",
		},
		{
			name:     "bom prefix",
			options:  WriteOptions{Headers: []string{"x"}, BOMPrefix: true},
			expected: "\xEF\xBB\xBFx\n",
		},
		{
			name:     "empty",
			options:  WriteOptions{},
			expected: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := w.WriteCSV(strings.ReplaceAll(tt.name, " ", "_")+".csv", tt.options)
			require.NoError(t, err)
			content, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(content))
		})
	}
}

func TestCSVWriter_WriteAll(t *testing.T) {
	out, dir := testManager(t)
	w := NewCSVWriter(out, nil)
	panels := []*domain.Panel{samplePanel(t, "a"), samplePanel(t, "b")}

	paths, err := w.WriteAll(context.Background(), panels)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.csv")}, paths)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	paths, err = w.WriteAll(ctx, panels)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, paths)
}

func TestWorkbookWriter_Write(t *testing.T) {
	out, dir := testManager(t)
	w := NewWorkbookWriter(out, nil)

	long := "share_of_foreign_investment_in_china_mainland"
	path, err := w.Write("capflow.xlsx", []*domain.Panel{samplePanel(t, "investment_in_china"), samplePanel(t, long)})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "capflow.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Len(t, sheets, 2)
	assert.Equal(t, "investment_in_china", sheets[0])
	assert.Equal(t, long[:maxSheetName], sheets[1])

	rows, err := f.GetRows(sheets[0])
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"period", "Canada", "United States"}, rows[0])
	assert.Equal(t, "2013H2", rows[2][0])
	assert.Equal(t, "", rows[2][1])
	assert.Equal(t, "200.5", rows[2][2])
}

func TestWorkbookWriter_NoPanels(t *testing.T) {
	out, _ := testManager(t)
	_, err := NewWorkbookWriter(out, nil).Write("capflow.xlsx", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeIO))
}

func TestSheetName(t *testing.T) {
	used := map[string]bool{}
	long := strings.Repeat("x", 40)

	assert.Equal(t, "bonds_holdings", SheetName("bonds_holdings", used))
	assert.Equal(t, "bonds_holdings_2", SheetName("Bonds_Holdings", used))
	assert.Equal(t, "a_b_c", SheetName("a/b?c", used))
	assert.Equal(t, "sheet", SheetName("  ", used))
	assert.Equal(t, strings.Repeat("x", maxSheetName), SheetName(long, used))

	second := SheetName(long, used)
	assert.Len(t, second, maxSheetName)
	assert.True(t, strings.HasSuffix(second, "_2"))
}
