package exporter

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"

	apperrors "capflow/internal/errors"
	"capflow/internal/files"
	"capflow/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	out    *files.Manager
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(out *files.Manager, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{out: out, logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes a CSV file below the manager's root and returns its path.
func (w *CSVWriter) WriteCSV(name string, options WriteOptions) (string, error) {
	w.logger.Debug("Writing CSV file",
		slog.String("file", name),
		slog.Int("record_count", len(options.Records)))

	return w.out.Write(name, func(out io.Writer) error {
		if options.BOMPrefix {
			if _, err := out.Write(utf8BOM); err != nil {
				return apperrors.NewIOError("failed to write BOM", err).WithContext("file", name)
			}
		}

		writer := csv.NewWriter(out)
		if len(options.Headers) > 0 {
			if err := writer.Write(options.Headers); err != nil {
				return apperrors.NewIOError("failed to write headers", err).WithContext("file", name)
			}
		}
		for i, record := range options.Records {
			if err := writer.Write(record); err != nil {
				return apperrors.NewIOError("failed to write record", err).
					WithContext("file", name).
					WithContext("record", i)
			}
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return apperrors.NewIOError("failed to flush CSV", err).WithContext("file", name)
		}
		return nil
	})
}

// WritePanel writes p to "<name>.csv": the key column first, then one column
// per series.
func (w *CSVWriter) WritePanel(p *domain.Panel) (string, error) {
	headers, records := PanelRecords(p)
	return w.WriteCSV(p.Name+".csv", WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: true,
	})
}

// WriteAll writes every panel and returns the written paths in order.
func (w *CSVWriter) WriteAll(ctx context.Context, panels []*domain.Panel) ([]string, error) {
	paths := make([]string, 0, len(panels))
	for _, p := range panels {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		path, err := w.WritePanel(p)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	w.logger.InfoContext(ctx, "Exported CSV tables", slog.Int("count", len(paths)))
	return paths, nil
}

// PanelRecords flattens p into a header row and one formatted record per key.
func PanelRecords(p *domain.Panel) ([]string, [][]string) {
	columns := p.Columns()
	headers := append([]string{p.KeyName}, columns...)

	records := make([][]string, p.Len())
	for row, key := range p.Keys {
		record := make([]string, 0, len(headers))
		record = append(record, key)
		for _, c := range columns {
			record = append(record, formatFloat(p.Value(row, c)))
		}
		records[row] = record
	}
	return headers, records
}
