// =============================================================================
// Sales Analytics - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (sales-report)
//   ├── processCmd (sales-report process)
//   ├── validateCmd (sales-report validate)
//   └── versionCmd (sales-report version)
//
// CONFIGURATION:
//   The root command owns the global flags (--config, --verbose) and the
//   shared setup every subcommand runs: loading the configuration and
//   initializing the logger.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/ginjaninja78/sales-analytics/internal/config"
	"github.com/ginjaninja78/sales-analytics/internal/logger"
	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "sales-report",
	Short: "Sales Analytics - Turn a raw sales transaction log into a report",

	Long: `Sales Analytics reads a pipe-delimited sales transaction log, cleans and
validates it, enriches it with product data from a public catalog, and writes
a formatted text report.

Key Features:
  - Tolerant parsing of messy input (thousands separators, mixed encodings)
  - Business-rule validation with optional region and amount filters
  - Revenue, region, product, customer and daily trend analytics
  - Product enrichment from the DummyJSON catalog, with graceful fallback
  - Optional XLSX workbook export and rejection log

Example Usage:
  sales-report process                          # Use config.yaml or defaults
  sales-report process --input data/sales.txt   # Analyze a specific file
  sales-report process --region North --dry-run # Print a filtered report
  sales-report validate --input data/           # Check every file in a directory`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	// --config flag: Path to the main configuration file.
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultConfigPath,
		"Path to the main configuration file",
	)

	// --verbose flag: Enables debug logging.
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// loadConfig loads the configuration and initializes the global logger.
//
// RETURNS:
//   - The loaded configuration.
//   - A closer for the log file; the caller must close it.
//   - An error if the configuration is invalid or the log file cannot be opened.
func loadConfig() (*config.MainConfig, io.Closer, error) {
	mainConfig, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if verbose {
		mainConfig.LogLevel = "debug"
	}

	closer, err := logger.InitLogger(mainConfig.LogLevel, mainConfig.LogFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return mainConfig, closer, nil
}
