package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "capflow/internal/errors"
)

// FileValidator checks input files and output directories before the
// pipeline touches them. Failures are IO errors carrying the offending path.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateInputDirectory validates that the input directory exists
func (v *FileValidator) ValidateInputDirectory(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Input directory does not exist",
			slog.String("directory", dir))
		return apperrors.NewIOError(fmt.Sprintf("input directory %s does not exist", dir), err).
			WithContext("path", dir)
	}
	if err != nil {
		return apperrors.NewIOError(fmt.Sprintf("failed to stat directory %s", dir), err).
			WithContext("path", dir)
	}
	if !info.IsDir() {
		v.logger.Error("Input path is not a directory",
			slog.String("path", dir))
		return apperrors.NewIOError(fmt.Sprintf("%s is not a directory", dir), nil).
			WithContext("path", dir)
	}
	return nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewIOError(fmt.Sprintf("failed to create output directory %s", dir), err).
			WithContext("path", dir)
	}

	// Verify it's writable by creating a test file
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewIOError(fmt.Sprintf("output directory %s is not writable", dir), err).
			WithContext("path", dir)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return apperrors.NewIOError(fmt.Sprintf("file %s does not exist", path), err).
			WithContext("path", path)
	}
	if err != nil {
		return apperrors.NewIOError(fmt.Sprintf("failed to stat file %s", path), err).
			WithContext("path", path)
	}
	if info.IsDir() {
		return apperrors.NewIOError(fmt.Sprintf("%s is a directory, not a file", path), nil).
			WithContext("path", path)
	}

	// Check if file is readable by opening it
	file, err := os.Open(path)
	if err != nil {
		return apperrors.NewIOError(fmt.Sprintf("file %s is not readable", path), err).
			WithContext("path", path)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateExcelFile checks that path is a readable .xlsx workbook. Legacy .xls
// files cannot be opened by the workbook reader and are rejected.
func (v *FileValidator) ValidateExcelFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" {
		return apperrors.NewIOError(fmt.Sprintf("file %s is not an xlsx workbook (extension: %s)", path, ext), nil).
			WithContext("path", path)
	}

	// Check it's not a temp file
	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Skipping temporary Excel file",
			slog.String("file", path))
		return apperrors.NewIOError(fmt.Sprintf("file %s is a temporary Excel file", path), nil).
			WithContext("path", path)
	}

	return nil
}

// ValidateCSVFile checks if a file is a readable CSV file
func (v *FileValidator) ValidateCSVFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" {
		return apperrors.NewIOError(fmt.Sprintf("file %s is not a CSV file (extension: %s)", path, ext), nil).
			WithContext("path", path)
	}

	return nil
}

// ValidateDataFile dispatches on the extension of path.
func (v *FileValidator) ValidateDataFile(path string) error {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return v.ValidateCSVFile(path)
	}
	return v.ValidateExcelFile(path)
}
