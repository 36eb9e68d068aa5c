// Package exporter writes derived panels as tables.
//
// CSVWriter emits one CSV file per panel with a UTF-8 BOM so spreadsheet tools
// detect the encoding. WorkbookWriter collects every panel into a single xlsx
// workbook with one sheet per panel. Both write through files.Manager, so a
// failed export never leaves a partial file behind.
//
// Example usage:
//
//	out := files.NewManager(paths.TablesDir, logger)
//	csvPaths, err := exporter.NewCSVWriter(out, logger).WriteAll(ctx, panels)
//
//	workbook, err := exporter.NewWorkbookWriter(out, logger).Write("capflow.xlsx", panels)
package exporter
