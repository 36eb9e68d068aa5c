package domain

import "strings"

// RawTable is one sheet as read from a source file: a grid of cell strings where
// row 0 is the first row of the sheet. Rows may have different lengths.
type RawTable struct {
	Source string     `json:"source"`
	Rows   [][]string `json:"rows"`
}

// NumRows returns the number of rows in the grid.
func (t RawTable) NumRows() int {
	return len(t.Rows)
}

// Width returns the length of the longest row.
func (t RawTable) Width() int {
	width := 0
	for _, row := range t.Rows {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// Cell returns the trimmed cell at (row, col), or "" outside the grid.
func (t RawTable) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][col])
}

// RowBlank reports whether every cell of the row is empty.
func (t RawTable) RowBlank(row int) bool {
	if row < 0 || row >= len(t.Rows) {
		return true
	}
	for _, cell := range t.Rows[row] {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// HeaderIndex maps the trimmed names of the given row to their column index.
// Blank names are skipped; the first occurrence of a repeated name wins.
func (t RawTable) HeaderIndex(row int) map[string]int {
	index := make(map[string]int)
	if row < 0 || row >= len(t.Rows) {
		return index
	}
	for col := range t.Rows[row] {
		name := t.Cell(row, col)
		if name == "" {
			continue
		}
		if _, seen := index[name]; !seen {
			index[name] = col
		}
	}
	return index
}
