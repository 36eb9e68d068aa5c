package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"capflow/internal/validation"
)

// Paths contains all the application paths
// This is the single source of truth for ALL file paths in the application
type Paths struct {
	DataDir    string
	OutputDir  string
	TablesDir  string
	FiguresDir string
	LogsDir    string

	// Well-known outputs
	WorkbookFile string
	SQLiteFile   string
}

// GetPaths derives the directory layout from the configuration:
//
//	<data>/               raw survey extracts (imf/, oecd/, gpr/)
//	<output>/tables/      derived CSV tables and capflow.xlsx
//	<output>/figures/     rendered charts
//	<logs>/               log, trace and metrics files
func (c *Config) GetPaths() *Paths {
	tables := filepath.Join(c.Paths.OutputDir, "tables")
	return &Paths{
		DataDir:      c.Paths.DataDir,
		OutputDir:    c.Paths.OutputDir,
		TablesDir:    tables,
		FiguresDir:   filepath.Join(c.Paths.OutputDir, "figures"),
		LogsDir:      c.Paths.LogsDir,
		WorkbookFile: filepath.Join(tables, "capflow.xlsx"),
		SQLiteFile:   c.Store.SQLitePath,
	}
}

// EnsureDirectories creates all output directories if they don't exist and
// checks that they are writable. The data directory is input only and is never
// created.
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.OutputDir,
		p.TablesDir,
		p.FiguresDir,
		p.LogsDir,
	}

	v := validation.NewFileValidator(slog.Default())
	for _, dir := range directories {
		if err := v.ValidateOutputDirectory(dir); err != nil {
			return err
		}
	}

	return nil
}

// GetTablePath returns the path for a derived table file
func (p *Paths) GetTablePath(filename string) string {
	return filepath.Join(p.TablesDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs the resolved layout for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("data", p.DataDir),
			slog.String("output", p.OutputDir),
			slog.String("tables", p.TablesDir),
			slog.String("figures", p.FiguresDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("files",
			slog.String("workbook", p.WorkbookFile),
			slog.String("sqlite", p.SQLiteFile),
		))
}
