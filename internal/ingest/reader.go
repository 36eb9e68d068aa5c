package ingest

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "capflow/internal/errors"
	"capflow/pkg/contracts/domain"
)

const utf8BOM = "\uFEFF"

// ReadTable reads the first sheet of an xlsx workbook, or a whole CSV file,
// into a raw grid. source labels the table in later errors.
func ReadTable(path, source string, skipBlankRows bool) (domain.RawTable, error) {
	var (
		rows [][]string
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		rows, err = readCSV(path)
	} else {
		rows, err = readWorkbook(path)
	}
	if err != nil {
		return domain.RawTable{}, err
	}

	table := domain.RawTable{Source: source, Rows: rows}
	if skipBlankRows {
		table = compact(table)
	}
	return table, nil
}

// readWorkbook returns the unformatted cell values of the first sheet, so
// dates arrive as Excel serial numbers and amounts without digit grouping.
func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewIOError("failed to open workbook", err).WithContext("path", path)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewParseError("workbook has no sheets", nil).WithContext("path", path)
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewIOError("failed to read sheet", err).
			WithContext("path", path).
			WithContext("sheet", sheets[0])
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewIOError("failed to open csv", err).WithContext("path", path)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewParseError("malformed csv", err).WithContext("path", path)
		}
		if len(rows) == 0 && len(record) > 0 {
			record[0] = strings.TrimPrefix(record[0], utf8BOM)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// compact drops rows whose cells are all blank.
func compact(t domain.RawTable) domain.RawTable {
	rows := make([][]string, 0, len(t.Rows))
	for i, row := range t.Rows {
		if !t.RowBlank(i) {
			rows = append(rows, row)
		}
	}
	return domain.RawTable{Source: t.Source, Rows: rows}
}
