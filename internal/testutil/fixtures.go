// Package testutil builds raw tables and workbooks shaped like the survey
// extracts for use in tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"capflow/pkg/contracts/domain"
)

// Bilateral grid geometry.
const (
	bilateralHeaderRow = 4
	bilateralFirstRow  = 5
	bilateralWindow    = 246
)

// BilateralTable returns a grid in the CPIS allinvest layout. amounts[i][j] is the
// cell for destinations[i] and sources[j]; "" leaves it blank. Rows after the
// listed destinations are padded to fill the window, followed by a footnote.
func BilateralTable(source string, destinations, sources []string, amounts [][]string) domain.RawTable {
	header := []string{"", "", "Investment in:", "SEFER + SSIO (**)"}
	header = append(header, sources...)

	rows := [][]string{
		{"Coordinated Portfolio Investment Survey"},
		{"Table: Geographic Breakdown of Total Portfolio Investment Assets"},
		{"", "", "", "Investment from:"},
		{"US Dollars, Millions"},
		header,
	}
	for i, dest := range destinations {
		row := []string{"", "", dest, ""}
		if i < len(amounts) {
			row = append(row, amounts[i]...)
		}
		rows = append(rows, row)
	}
	for len(rows) < bilateralFirstRow+bilateralWindow {
		rows = append(rows, []string{"", "", "", "n.a."})
	}
	rows = append(rows, []string{"(**) SEFER: Survey of Geographical Distribution of Securities Held as Foreign Exchange Reserves"})
	return domain.RawTable{Source: source, Rows: rows}
}

// AssetRow is one country's raw asset-structure cells, in percent. Blank strings
// stand for unreported cells.
type AssetRow struct {
	Country                                                              string
	Cash, Bonds, Loans, Equity, RealEstate, MutualFunds, HedgeFunds      string
	OfWhichCash, OfWhichBonds, OfWhichEquity, OfWhichRealEst, OfWhichOth string
	PrivateEquity, Other, Structured, Insurance                          string
}

func (r AssetRow) cells() []string {
	return []string{
		r.Country, r.Cash, r.Bonds, r.Loans, r.Equity, r.RealEstate, r.MutualFunds, r.HedgeFunds,
		r.OfWhichCash, r.OfWhichBonds, r.OfWhichEquity, r.OfWhichRealEst, r.OfWhichOth,
		r.PrivateEquity, r.Other, r.Structured, r.Insurance,
	}
}

// AssetHeader is the primary header row of the asset-structure layout.
func AssetHeader() []string {
	return []string{
		"Variable", "Cash and Deposits", "Bills and bonds issued by public and private sector",
		"Loans", "Equity", "Land and Buildings", "Mutual funds (CIS)", "Hedge funds",
		"", "", "", "", "",
		"Private equity funds", "Other investments", "Structured products", "Unallocated insurance contracts",
	}
}

// AssetSubHeader is the of-which row merged into columns 8 to 12.
func AssetSubHeader() []string {
	return []string{
		"", "", "", "", "", "", "", "",
		"Of which: Cash and deposits", "Of which: Bills and bonds", "Of which: Equity",
		"Of which: Land and buildings", "Of which: Other",
		"", "", "", "",
	}
}

// AssetTable returns a grid in the OECD asset-structure layout for the given rows,
// followed by an aggregate row.
func AssetTable(source string, countries ...AssetRow) domain.RawTable {
	rows := [][]string{
		{"Pension funds' asset allocation"},
		{"Dataset: Pension funds' asset allocation"},
		{"Indicator", "", "% of total investment"},
		{"Pension plan type", "", "All types of plans"},
		{"Type of pension fund", "", "Pension funds (autonomous)"},
		{"Year", "", "Latest"},
		{"Unit", "", "Percentage"},
		{"Reference", "", "Total investment"},
		AssetHeader(),
		AssetSubHeader(),
		{"Country", "", "", "", "", "", "", "", "", "", "", "", "", "", "", "", ""},
	}
	for _, c := range countries {
		rows = append(rows, c.cells())
	}
	rows = append(rows, []string{"OECD - Total", "5", "40", "", "30", "5", "15", "1"})
	return domain.RawTable{Source: source, Rows: rows}
}

// WriteWorkbook saves rows to the first sheet of a new xlsx file, creating parent
// directories as needed.
func WriteWorkbook(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, value := range row {
			if value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellStr(sheet, cell, value); err != nil {
				return fmt.Errorf("set %s: %w", cell, err)
			}
		}
	}
	return f.SaveAs(path)
}
