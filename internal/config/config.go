package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "capflow/internal/errors"
	"capflow/pkg/contracts/domain"
)

// EnvPrefix namespaces every environment variable, e.g. CAPFLOW_LOGGING_LEVEL.
const EnvPrefix = "CAPFLOW"

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Loader    LoaderConfig    `yaml:"loader" envconfig:"LOADER"`
	Normalize NormalizeConfig `yaml:"normalize" envconfig:"NORMALIZE"`
	Charts    ChartsConfig    `yaml:"charts" envconfig:"CHARTS"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Store     StoreConfig     `yaml:"store" envconfig:"STORE"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir   string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	LogsDir   string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
}

// LoaderConfig controls how the raw files are read.
type LoaderConfig struct {
	Workers int `yaml:"workers" envconfig:"WORKERS" validate:"min=1,max=64"`
}

// NormalizeConfig carries the tunable heuristics of the normalizers and indicators.
type NormalizeConfig struct {
	// FirstPeriod and LastPeriod bound the bilateral survey range, e.g. "2013H1".
	FirstPeriod string `yaml:"first_period" envconfig:"FIRST_PERIOD" validate:"required,period"`
	LastPeriod  string `yaml:"last_period" envconfig:"LAST_PERIOD" validate:"required,period"`

	// MutualFundUnknownThreshold is the five-category coverage, in percent, below
	// which a mutual-fund breakdown is treated as unreported.
	MutualFundUnknownThreshold float64 `yaml:"mtf_unknown_threshold" envconfig:"MTF_UNKNOWN_THRESHOLD" validate:"gt=0,lte=100"`
	CacheSize                  int     `yaml:"cache_size" envconfig:"CACHE_SIZE" validate:"min=0"`
	AllocationYear             int     `yaml:"allocation_year" envconfig:"ALLOCATION_YEAR" validate:"min=2006,max=2100"`
	// SumOverrides pins the category total of named countries in the allocation
	// snapshot. Env form: "United States:100.00132". A config file value replaces
	// the default map; "sum_overrides: {}" removes every override.
	SumOverrides map[string]float64 `yaml:"sum_overrides" envconfig:"SUM_OVERRIDES" validate:"dive,gt=0"`
	GPRWindow    int                `yaml:"gpr_window" envconfig:"GPR_WINDOW" validate:"min=1,max=120"`
	GPRStart     string             `yaml:"gpr_start" envconfig:"GPR_START" validate:"datetime=2006-01-02"`
}

// ChartsConfig is passed to the renderers; nothing is set process-wide.
type ChartsConfig struct {
	Enabled       bool    `yaml:"enabled" envconfig:"ENABLED"`
	Typeface      string  `yaml:"typeface" envconfig:"TYPEFACE" validate:"required"`
	WidthInches   float64 `yaml:"width_inches" envconfig:"WIDTH_INCHES" validate:"gt=0,lte=40"`
	HeightInches  float64 `yaml:"height_inches" envconfig:"HEIGHT_INCHES" validate:"gt=0,lte=40"`
	LineWidth     float64 `yaml:"line_width" envconfig:"LINE_WIDTH" validate:"gt=0"`
	TitleFontSize float64 `yaml:"title_font_size" envconfig:"TITLE_FONT_SIZE" validate:"gt=0"`
}

// TelemetryConfig controls tracing and metrics export.
type TelemetryConfig struct {
	TracingEnabled bool   `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED"`
	TraceFile      string `yaml:"trace_file" envconfig:"TRACE_FILE" validate:"required_if=TracingEnabled true"`
	// MetricsFile receives a Prometheus textfile-collector snapshot at the end of a run.
	MetricsFile string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// StoreConfig configures the optional SQLite export.
type StoreConfig struct {
	SQLitePath string `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
}

// Load builds the configuration: defaults, then the YAML file at path (or the
// first config.yaml found in the usual locations when path is empty), then
// CAPFLOW_* environment variables. Relative paths are resolved against the
// working directory.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config file", err).WithContext("path", path)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, apperrors.NewConfigError("failed to resolve paths", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg; keys absent from the file keep
// their current value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	// yaml.v2 merges mappings into an existing map, so a file could never drop
	// a default override.
	var keys struct {
		Normalize map[string]interface{} `yaml:"normalize"`
	}
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return err
	}
	if _, ok := keys.Normalize["sum_overrides"]; ok {
		cfg.Normalize.SumOverrides = map[string]float64{}
	}

	return yaml.UnmarshalStrict(data, cfg)
}

// resolvePaths makes every configured path absolute.
func (c *Config) resolvePaths() error {
	for _, p := range []*string{
		&c.Paths.DataDir,
		&c.Paths.OutputDir,
		&c.Paths.LogsDir,
		&c.Logging.FilePath,
		&c.Telemetry.TraceFile,
		&c.Telemetry.MetricsFile,
		&c.Store.SQLitePath,
	} {
		if *p == "" || filepath.IsAbs(*p) {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return err
		}
		*p = abs
	}
	return nil
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.RegisterValidation("period", validPeriod); err != nil {
		return apperrors.NewConfigError("failed to register period validation", err)
	}

	// Report yaml key names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	err := v.Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewConfigError("config validation failed", err)
	}
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, formatValidationError(fe))
	}
	return apperrors.NewConfigError("config validation failed: "+strings.Join(messages, "; "), err)
}

// validPeriod accepts half-year labels such as "2013H1".
func validPeriod(fl validator.FieldLevel) bool {
	_, err := domain.ParsePeriod(fl.Field().String())
	return err == nil
}

// formatValidationError formats validation error messages
func formatValidationError(err validator.FieldError) string {
	field := strings.TrimPrefix(err.Namespace(), "Config.")
	param := err.Param()

	switch err.Tag() {
	case "required", "required_if", "required_unless":
		return fmt.Sprintf("%s is required", field)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "period":
		return fmt.Sprintf("%s must be a half-year such as 2013H1", field)
	case "datetime":
		return fmt.Sprintf("%s must be a date formatted as %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"capflow.yaml",
		"config.yaml",
		"configs/capflow.yaml",
	}

	for _, location := range locations {
		if FileExists(location) {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/capflow.log",
		},
		Paths: PathsConfig{
			DataDir:   "data",
			OutputDir: "output",
			LogsDir:   "logs",
		},
		Loader: LoaderConfig{
			Workers: 4,
		},
		Normalize: NormalizeConfig{
			FirstPeriod:                "2013H1",
			LastPeriod:                 "2022H1",
			MutualFundUnknownThreshold: 90,
			CacheSize:                  64,
			AllocationYear:             2021,
			SumOverrides:               map[string]float64{"United States": 100.00132},
			GPRWindow:                  12,
			GPRStart:                   "1999-02-01",
		},
		Charts: ChartsConfig{
			Enabled:       true,
			Typeface:      "Liberation",
			WidthInches:   8,
			HeightInches:  5,
			LineWidth:     3,
			TitleFontSize: 14,
		},
		Telemetry: TelemetryConfig{
			TracingEnabled: false,
			TraceFile:      "logs/traces.jsonl",
			MetricsFile:    "logs/capflow.prom",
		},
	}
}
