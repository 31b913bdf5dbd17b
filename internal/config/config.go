// =============================================================================
// Sales Analytics - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing the application
// configuration.
//
// CONFIGURATION SOURCES (later sources win):
//   1. Built-in defaults (applyMainConfigDefaults)
//   2. The YAML file given by --config (config.yaml by default)
//   3. A .env file in the working directory, if present
//   4. SALES_* environment variables
//   5. Command-line flags (applied by the cmd package)
//
// A missing config.yaml at the default location is not an error: the
// defaults describe a complete, runnable setup.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the config file used when --config is not given.
const DefaultConfigPath = "config.yaml"

// DefaultEncodings is the decoding order for input files.
var DefaultEncodings = []string{"utf-8", "latin-1", "cp1252"}

// DefaultCatalogURL is the public product catalog used for enrichment.
const DefaultCatalogURL = "https://dummyjson.com/products"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// INPUT SETTINGS
	// =========================================================================

	// InputFile is the pipe-delimited transaction log to process.
	// Default: "data/sales_data.txt"
	InputFile string `yaml:"input_file"`

	// InputPattern selects files when the input path is a directory.
	// Default: "*.txt"
	InputPattern string `yaml:"input_pattern"`

	// Input controls how the input file is read.
	Input InputSettings `yaml:"input"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputDir is the directory where the report and logs are written.
	// Default: "output"
	OutputDir string `yaml:"output_dir"`

	// ReportFile is the report file name inside OutputDir.
	// Placeholders:
	//   {uuid}      - The run id
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {date}      - Current date (YYYYMMDD)
	// Default: "sales_report.txt"
	ReportFile string `yaml:"report_file"`

	// EnrichedFile is the path of the enriched transaction export.
	// Default: "data/enriched_sales_data.txt"
	EnrichedFile string `yaml:"enriched_file"`

	// WorkbookFile is an optional XLSX file name inside OutputDir.
	// Empty disables the workbook export.
	WorkbookFile string `yaml:"workbook_file"`

	// XMLFile is an optional XML rendition of the report inside OutputDir.
	// Empty disables the XML export.
	XMLFile string `yaml:"xml_file"`

	// ArchiveDir receives a copy of each generated report.
	// Empty disables archival.
	ArchiveDir string `yaml:"archive_dir"`

	// ArchiveRetention removes archived files older than this after each run.
	// Zero keeps everything.
	ArchiveRetention time.Duration `yaml:"archive_retention"`

	// WriteRejectionLog writes one entry per rejected row to OutputDir.
	WriteRejectionLog bool `yaml:"write_rejection_log"`

	// WriteSummaryLog writes a processing summary covering every input file.
	WriteSummaryLog bool `yaml:"write_summary_log"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// Filters are the optional region/amount filters.
	Filters FilterSettings `yaml:"filters"`

	// Analytics controls ranking sizes and thresholds.
	Analytics AnalyticsSettings `yaml:"analytics"`

	// Catalog configures the product catalog used for enrichment.
	Catalog CatalogSettings `yaml:"catalog"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is an optional path that receives a copy of the log output.
	LogFile string `yaml:"log_file"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`
}

// InputSettings contains settings for reading the transaction log.
type InputSettings struct {
	// HeaderRows is the number of leading lines to skip. 0 reads every line.
	// Default: 1
	HeaderRows *int `yaml:"header_rows"`

	// Encodings is the decoding order tried for the input file.
	// Default: utf-8, latin-1, cp1252
	Encodings []string `yaml:"encodings"`

	// MaxRecords caps the number of data lines read. 0 means no cap.
	MaxRecords int `yaml:"max_records"`
}

// SkipRows returns the number of header lines to skip, 1 when unset.
func (s InputSettings) SkipRows() int {
	if s.HeaderRows == nil {
		return 1
	}
	return *s.HeaderRows
}

// FilterSettings holds the optional record filters.
// A nil amount bound or an empty region means "no filter".
type FilterSettings struct {
	Region    string   `yaml:"region"`
	MinAmount *float64 `yaml:"min_amount"`
	MaxAmount *float64 `yaml:"max_amount"`
}

// AnalyticsSettings holds ranking sizes and thresholds.
type AnalyticsSettings struct {
	// TopProducts is the size of the top-selling product ranking.
	// Default: 5
	TopProducts int `yaml:"top_products"`

	// TopCustomers is the number of customers shown in the report.
	// Default: 5
	TopCustomers int `yaml:"top_customers"`

	// LowPerformerThreshold is the quantity below which a product is
	// reported as a low performer.
	// Default: 10
	LowPerformerThreshold int `yaml:"low_performer_threshold"`
}

// CatalogSettings configures the product catalog client.
type CatalogSettings struct {
	// Disabled skips the catalog fetch entirely; every record is unmatched.
	Disabled bool `yaml:"disabled"`

	// URL is the catalog endpoint.
	// Default: DefaultCatalogURL
	URL string `yaml:"url"`

	// Limit is the number of products requested.
	// Default: 100
	Limit int `yaml:"limit"`

	// Timeout bounds the whole fetch.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// CacheFile is an optional on-disk cache of the catalog response.
	// Empty disables the disk cache.
	CacheFile string `yaml:"cache_file"`

	// CacheTTL is how long a cached catalog stays fresh.
	// Default: 1h
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// DefaultMainConfig returns a configuration with every default applied.
func DefaultMainConfig() *MainConfig {
	config := &MainConfig{}
	applyMainConfigDefaults(config)
	return config
}

// LoadMainConfig loads the main configuration from a YAML file, then applies
// defaults and environment overrides, then validates the result.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read or parsed, or if validation fails.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var config MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && configPath == DefaultConfigPath:
		// No config file at the default location; run on defaults.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyMainConfigDefaults(&config)

	loadDotEnv()
	if err := applyEnvOverrides(&config, os.LookupEnv); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputFile == "" {
		config.InputFile = "data/sales_data.txt"
	}
	if config.InputPattern == "" {
		config.InputPattern = "*.txt"
	}
	if config.Input.HeaderRows == nil {
		headerRows := 1
		config.Input.HeaderRows = &headerRows
	}
	if len(config.Input.Encodings) == 0 {
		config.Input.Encodings = append([]string(nil), DefaultEncodings...)
	}
	if config.OutputDir == "" {
		config.OutputDir = "output"
	}
	if config.ReportFile == "" {
		config.ReportFile = "sales_report.txt"
	}
	if config.EnrichedFile == "" {
		config.EnrichedFile = "data/enriched_sales_data.txt"
	}
	if config.Analytics.TopProducts == 0 {
		config.Analytics.TopProducts = 5
	}
	if config.Analytics.TopCustomers == 0 {
		config.Analytics.TopCustomers = 5
	}
	if config.Analytics.LowPerformerThreshold == 0 {
		config.Analytics.LowPerformerThreshold = 10
	}
	if config.Catalog.URL == "" {
		config.Catalog.URL = DefaultCatalogURL
	}
	if config.Catalog.Limit == 0 {
		config.Catalog.Limit = 100
	}
	if config.Catalog.Timeout == 0 {
		config.Catalog.Timeout = 10 * time.Second
	}
	if config.Catalog.CacheTTL == 0 {
		config.Catalog.CacheTTL = time.Hour
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error (got %q)", config.LogLevel)
	}

	if config.Input.SkipRows() < 0 {
		return fmt.Errorf("input.header_rows must not be negative")
	}
	if config.Input.MaxRecords < 0 {
		return fmt.Errorf("input.max_records must not be negative")
	}
	if config.Analytics.TopProducts < 0 || config.Analytics.TopCustomers < 0 {
		return fmt.Errorf("analytics rankings must not be negative")
	}
	if config.ArchiveRetention < 0 {
		return fmt.Errorf("archive_retention must not be negative")
	}
	if config.Catalog.Limit < 0 {
		return fmt.Errorf("catalog.limit must not be negative")
	}

	f := config.Filters
	if f.MinAmount != nil && f.MaxAmount != nil && *f.MinAmount > *f.MaxAmount {
		return fmt.Errorf("filters.min_amount (%g) is greater than filters.max_amount (%g)", *f.MinAmount, *f.MaxAmount)
	}

	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// loadDotEnv loads a .env file from the working directory if one exists.
// Variables already set in the environment are not overwritten.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	_ = godotenv.Load()
}

// applyEnvOverrides applies SALES_* variables on top of the file values.
//
// SUPPORTED VARIABLES:
//   - SALES_INPUT_FILE
//   - SALES_OUTPUT_DIR
//   - SALES_REGION
//   - SALES_CATALOG_URL
//   - SALES_CATALOG_DISABLED (true/false)
//   - SALES_LOG_LEVEL
//   - SALES_LOG_FILE
func applyEnvOverrides(config *MainConfig, lookup func(string) (string, bool)) error {
	if v, ok := lookup("SALES_INPUT_FILE"); ok && v != "" {
		config.InputFile = v
	}
	if v, ok := lookup("SALES_OUTPUT_DIR"); ok && v != "" {
		config.OutputDir = v
	}
	if v, ok := lookup("SALES_REGION"); ok {
		config.Filters.Region = strings.TrimSpace(v)
	}
	if v, ok := lookup("SALES_CATALOG_URL"); ok && v != "" {
		config.Catalog.URL = v
	}
	if v, ok := lookup("SALES_CATALOG_DISABLED"); ok && v != "" {
		disabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SALES_CATALOG_DISABLED: %w", err)
		}
		config.Catalog.Disabled = disabled
	}
	if v, ok := lookup("SALES_LOG_LEVEL"); ok && v != "" {
		config.LogLevel = v
	}
	if v, ok := lookup("SALES_LOG_FILE"); ok {
		config.LogFile = v
	}
	return nil
}
