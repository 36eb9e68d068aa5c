package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "capflow/internal/errors"
	"capflow/internal/files"
	"capflow/pkg/contracts/domain"
)

// maxSheetName is the longest sheet name Excel accepts.
const maxSheetName = 31

// WorkbookWriter collects panels into one xlsx workbook.
type WorkbookWriter struct {
	out    *files.Manager
	logger *slog.Logger
}

// NewWorkbookWriter creates a workbook writer below out's root.
func NewWorkbookWriter(out *files.Manager, logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{out: out, logger: logger}
}

// Write stores one sheet per panel in name and returns the workbook path.
// Missing values are left as empty cells.
func (w *WorkbookWriter) Write(name string, panels []*domain.Panel) (string, error) {
	if len(panels) == 0 {
		return "", apperrors.NewIOError("no panels to export", nil).WithContext("file", name)
	}

	f := excelize.NewFile()
	defer f.Close()

	first := f.GetSheetName(0)
	used := make(map[string]bool, len(panels))
	for i, p := range panels {
		sheet := SheetName(p.Name, used)
		if i == 0 {
			if err := f.SetSheetName(first, sheet); err != nil {
				return "", apperrors.NewIOError("failed to name sheet", err).WithContext("sheet", sheet)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return "", apperrors.NewIOError("failed to add sheet", err).WithContext("sheet", sheet)
		}
		if err := fillSheet(f, sheet, p); err != nil {
			return "", err
		}
	}

	path, err := w.out.Write(name, func(out io.Writer) error {
		if err := f.Write(out); err != nil {
			return apperrors.NewIOError("failed to write workbook", err).WithContext("file", name)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	w.logger.Info("Exported workbook",
		slog.String("path", path),
		slog.Int("sheets", len(panels)))
	return path, nil
}

func fillSheet(f *excelize.File, sheet string, p *domain.Panel) error {
	columns := p.Columns()

	header := make([]interface{}, 0, len(columns)+1)
	header = append(header, p.KeyName)
	for _, c := range columns {
		header = append(header, c)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return apperrors.NewIOError("failed to write header", err).WithContext("sheet", sheet)
	}

	for row, key := range p.Keys {
		cells := make([]interface{}, 0, len(columns)+1)
		cells = append(cells, key)
		for _, c := range columns {
			v := p.Value(row, c)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				cells = append(cells, nil)
				continue
			}
			cells = append(cells, v)
		}
		axis, err := excelize.CoordinatesToCellName(1, row+2)
		if err != nil {
			return apperrors.NewIOError("invalid cell", err).WithContext("sheet", sheet)
		}
		if err := f.SetSheetRow(sheet, axis, &cells); err != nil {
			return apperrors.NewIOError("failed to write row", err).
				WithContext("sheet", sheet).
				WithContext("key", key)
		}
	}
	return nil
}

// SheetName turns a panel name into a valid, unused sheet name and records it
// in used.
func SheetName(name string, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if clean == "" {
		clean = "sheet"
	}
	clean = truncate(clean, maxSheetName)

	candidate := clean
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf("_%d", n)
		candidate = truncate(clean, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
