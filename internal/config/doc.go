// Package config provides centralized configuration management for capflow.
// It handles loading configuration from multiple sources, validation, and the
// directory layout used by the pipeline.
//
// # Configuration Sources
//
// Configuration is assembled in the following order, later sources winning:
//
//	1. Default values (Default)
//	2. A YAML file (-config flag, or capflow.yaml / config.yaml in the working directory)
//	3. Environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern CAPFLOW_<SECTION>_<KEY>:
//
//	CAPFLOW_PATHS_DATA_DIR=/srv/capflow/data
//	CAPFLOW_LOGGING_LEVEL=debug
//	CAPFLOW_NORMALIZE_MTF_UNKNOWN_THRESHOLD=85
//	CAPFLOW_NORMALIZE_SUM_OVERRIDES="United States:100.00132"
//	CAPFLOW_STORE_SQLITE_PATH=output/capflow.db
//
// # Validation
//
// Load validates the result with go-playground/validator struct tags and
// returns a CONFIG error naming every offending yaml key.
//
// # Usage
//
//	cfg, err := config.Load(*configPath)
//	if err != nil {
//	    fmt.Fprintf(os.Stderr, "config: %v\n", err)
//	    os.Exit(1)
//	}
//	paths := cfg.GetPaths()
package config
