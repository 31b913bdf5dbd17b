// =============================================================================
// Sales Analytics - Process Command
// =============================================================================
//
// This file defines the 'process' command, which is the main command for
// analyzing transaction logs. It runs the full pipeline for every input file.
//
// COMMAND USAGE:
//   sales-report process [flags]
//
// FLAGS:
//   --input       : A transaction log, or a directory of logs
//   --output-dir  : Directory for the report and logs
//   --region      : Keep only transactions from this region
//   --min-amount  : Keep only transactions of at least this amount
//   --max-amount  : Keep only transactions of at most this amount
//   --skip-api    : Do not fetch the product catalog
//   --xlsx        : Also export an XLSX workbook with this file name
//   --xml         : Also export the report as XML with this file name
//   --dry-run     : Print the report instead of writing any file
//
// PROCESSING PIPELINE:
//   1. Load configuration and apply flag overrides
//   2. Discover the input files
//   3. For each file, in order:
//      a. Read, parse and validate
//      b. Enrich from the catalog
//      c. Aggregate and write the report
//   4. Print the summary and optionally write the summary log
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ginjaninja78/sales-analytics/internal/catalog"
	"github.com/ginjaninja78/sales-analytics/internal/config"
	"github.com/ginjaninja78/sales-analytics/internal/logger"
	"github.com/ginjaninja78/sales-analytics/internal/pipeline"
	"github.com/ginjaninja78/sales-analytics/pkg/utils"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// inputPath overrides the configured input file or directory.
var inputPath string

// outputDir overrides the configured output directory.
var outputDir string

// region, minAmount and maxAmount override the configured filters.
var (
	region    string
	minAmount float64
	maxAmount float64
)

// skipAPI disables the catalog fetch.
var skipAPI bool

// workbookFile and xmlFile enable the XLSX and XML exports.
var (
	workbookFile string
	xmlFile      string
)

// dryRun prints the report without writing output files.
var dryRun bool

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Analyze sales transaction logs and write the report",
	Long: `The process command reads a pipe-delimited transaction log, validates and
filters the records, enriches them with product catalog data, and writes the
sales report together with the enriched transaction export.

When --input names a directory, every file matching input_pattern is processed
in name order. A failure in one file does not stop the others.

If the product catalog cannot be reached, processing continues and every
record is reported as not enriched.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd)
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(processCmd)

	addInputFlags(processCmd)

	processCmd.Flags().StringVar(
		&outputDir,
		"output-dir",
		"",
		"Directory for the report and logs (overrides output_dir)",
	)

	processCmd.Flags().BoolVar(
		&skipAPI,
		"skip-api",
		false,
		"Do not fetch the product catalog; every record is unmatched",
	)

	processCmd.Flags().StringVar(
		&workbookFile,
		"xlsx",
		"",
		"Also export an XLSX workbook with this file name",
	)

	processCmd.Flags().StringVar(
		&xmlFile,
		"xml",
		"",
		"Also export the report as XML with this file name",
	)

	processCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Print the report to stdout without writing output files",
	)
}

// addInputFlags registers the input and filter flags shared by the
// process and validate commands.
func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Transaction log file or directory (overrides input_file)")
	cmd.Flags().StringVar(&region, "region", "", "Keep only transactions from this region")
	cmd.Flags().Float64Var(&minAmount, "min-amount", 0, "Keep only transactions with at least this amount")
	cmd.Flags().Float64Var(&maxAmount, "max-amount", 0, "Keep only transactions with at most this amount")
}

// applyFlagOverrides copies explicitly set flags into the configuration.
func applyFlagOverrides(cmd *cobra.Command, mainConfig *config.MainConfig) error {
	flags := cmd.Flags()

	if flags.Changed("input") {
		mainConfig.InputFile = inputPath
	}
	if flags.Changed("region") {
		mainConfig.Filters.Region = region
	}
	if flags.Changed("min-amount") {
		v := minAmount
		mainConfig.Filters.MinAmount = &v
	}
	if flags.Changed("max-amount") {
		v := maxAmount
		mainConfig.Filters.MaxAmount = &v
	}
	if f := mainConfig.Filters; f.MinAmount != nil && f.MaxAmount != nil && *f.MinAmount > *f.MaxAmount {
		return fmt.Errorf("--min-amount (%g) is greater than --max-amount (%g)", *f.MinAmount, *f.MaxAmount)
	}

	if flags.Lookup("output-dir") != nil && flags.Changed("output-dir") {
		mainConfig.OutputDir = outputDir
	}
	if flags.Lookup("skip-api") != nil && flags.Changed("skip-api") {
		mainConfig.Catalog.Disabled = skipAPI
	}

	return nil
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess orchestrates the pipeline over every input file.
func runProcess(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	mainConfig, closer, err := loadConfig()
	if err != nil {
		return err
	}
	defer closer.Close()

	if err := applyFlagOverrides(cmd, mainConfig); err != nil {
		return err
	}

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	inputFiles, err := utils.DiscoverInputFiles(mainConfig.InputFile, mainConfig.InputPattern)
	if err != nil {
		return fmt.Errorf("failed to discover input files: %w", err)
	}

	logger.L.Info("Starting run", "files", len(inputFiles), "dry_run", dryRun)
	if !dryRun {
		fmt.Fprintln(out, "=== Sales Analytics ===")
		fmt.Fprintf(out, "Found %d file(s) to process\n", len(inputFiles))
	}

	// =========================================================================
	// STEP 3: PROCESS FILES
	// =========================================================================
	// Files run one after another. The catalog client is shared, so only the
	// first file pays for the fetch.

	client := catalog.NewClient(mainConfig.Catalog)
	opts := pipeline.Options{
		DryRun:        dryRun,
		WorkbookFile:  workbookFile,
		XMLFile:       xmlFile,
		Out:           out,
		PerInputNames: len(inputFiles) > 1,
	}

	summary := utils.ProcessingSummary{
		RunID:      uuid.New().String(),
		StartTime:  time.Now(),
		TotalFiles: len(inputFiles),
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	for _, file := range inputFiles {
		result := pipeline.New(file, mainConfig, client, opts).Run(ctx)
		recordResult(&summary, result)

		if dryRun {
			continue
		}
		if result.Success {
			fmt.Fprintf(out, "  ✓ %s -> %s\n", filepath.Base(result.FilePath), result.ReportFile)
		} else {
			fmt.Fprintf(out, "  ✗ %s: %v\n", filepath.Base(result.FilePath), result.Error)
		}
	}

	summary.EndTime = time.Now()

	// =========================================================================
	// STEP 4: PRINT SUMMARY
	// =========================================================================

	if !dryRun {
		fmt.Fprintln(out, "\n=== Processing Complete ===")
		fmt.Fprintf(out, "Total files:     %d\n", summary.TotalFiles)
		fmt.Fprintf(out, "Successful:      %d\n", summary.SuccessfulFiles)
		fmt.Fprintf(out, "Errors:          %d\n", summary.FailedFiles)
		fmt.Fprintf(out, "Records:         %s read, %s accepted\n",
			humanize.Comma(int64(summary.TotalRecords)), humanize.Comma(int64(summary.AcceptedRecords)))
		fmt.Fprintf(out, "Time elapsed:    %s\n", summary.EndTime.Sub(summary.StartTime).Round(time.Millisecond))

		if mainConfig.WriteSummaryLog {
			path, err := utils.WriteSummaryLog(summary, mainConfig.OutputDir)
			if err != nil {
				logger.L.Warn("Failed to write summary log", "error", err)
			} else {
				fmt.Fprintf(out, "Summary log:     %s\n", path)
			}
		}
	}

	if summary.FailedFiles > 0 {
		return fmt.Errorf("%d of %d file(s) failed", summary.FailedFiles, summary.TotalFiles)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// recordResult adds one file's outcome to the run summary.
func recordResult(summary *utils.ProcessingSummary, result pipeline.Result) {
	if !result.Success {
		summary.FailedFiles++
		summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
			InputFile:    result.FilePath,
			ErrorMessage: result.Error.Error(),
		})
		logger.L.Error("File failed", "file", result.FilePath, "error", result.Error)
		return
	}

	v := result.Stats.Validation
	summary.SuccessfulFiles++
	summary.TotalRecords += v.TotalInput
	summary.AcceptedRecords += v.FinalCount
	summary.RejectedRecords += v.TotalInput - v.FinalCount
	summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
		InputFile:    result.FilePath,
		ReportFile:   result.ReportFile,
		EnrichedFile: result.EnrichedFile,
		ArchivePath:  result.ArchivePath,
		Records:      v.TotalInput,
		Accepted:     v.FinalCount,
		ProcessTime:  result.Stats.ProcessingTime,
	})
}
