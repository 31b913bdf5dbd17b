// =============================================================================
// Sales Analytics - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which reads, parses and
// validates transaction logs without fetching the catalog or writing any
// output. It is useful for checking a new export before a full run.
//
// COMMAND USAGE:
//   sales-report validate [--input path] [--region R] [--min-amount N] [--max-amount N]
//
// OUTPUT:
//   Per file: the rejection tally, the regions present, and the transaction
//   amount range.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ginjaninja78/sales-analytics/internal/csvparser"
	"github.com/ginjaninja78/sales-analytics/internal/pipeline"
	"github.com/ginjaninja78/sales-analytics/internal/validation"
	"github.com/ginjaninja78/sales-analytics/pkg/utils"
	"github.com/spf13/cobra"
)

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Parse and validate transaction logs without writing a report",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	addInputFlags(validateCmd)
}

// runValidate prints the validation outcome of every input file.
func runValidate(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	mainConfig, closer, err := loadConfig()
	if err != nil {
		return err
	}
	defer closer.Close()

	if err := applyFlagOverrides(cmd, mainConfig); err != nil {
		return err
	}

	inputFiles, err := utils.DiscoverInputFiles(mainConfig.InputFile, mainConfig.InputPattern)
	if err != nil {
		return fmt.Errorf("failed to discover input files: %w", err)
	}

	filter := pipeline.FilterFromSettings(mainConfig.Filters)
	failed := 0

	for _, file := range inputFiles {
		raw, err := csvparser.ReadLines(file, mainConfig.Input)
		if err != nil {
			failed++
			fmt.Fprintf(out, "✗ %s: %v\n\n", filepath.Base(file), err)
			continue
		}

		result := validation.Process(raw.Lines, filter)
		printValidation(out, filepath.Base(file), raw.Encoding, result)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) could not be read", failed, len(inputFiles))
	}
	return nil
}

// printValidation writes the tally and diagnostics for one file.
func printValidation(out io.Writer, name, encoding string, result *validation.Result) {
	s := result.Summary
	d := result.Diagnostics

	fmt.Fprintf(out, "=== %s (%s) ===\n", name, encoding)
	fmt.Fprintf(out, "Total records:        %s\n", humanize.Comma(int64(s.TotalInput)))
	fmt.Fprintf(out, "Invalid:              %d (%d malformed, %d invalid format)\n", s.Invalid, s.Malformed, s.InvalidFormat())
	fmt.Fprintf(out, "Filtered by region:   %d\n", s.FilteredByRegion)
	fmt.Fprintf(out, "Filtered by amount:   %d\n", s.FilteredByAmount)
	fmt.Fprintf(out, "Accepted:             %s\n", humanize.Comma(int64(s.FinalCount)))

	regions := "None"
	if len(d.Regions) > 0 {
		regions = strings.Join(d.Regions, ", ")
	}
	fmt.Fprintf(out, "Regions:              %s\n", regions)
	if d.HasAmounts {
		fmt.Fprintf(out, "Amount range:         %s to %s\n", d.MinAmount.StringFixed(2), d.MaxAmount.StringFixed(2))
	}

	for _, o := range result.Rejections() {
		if o.Err != nil {
			fmt.Fprintf(out, "  line %d: %v\n", o.LineNumber, o.Err)
		}
	}
	fmt.Fprintln(out)
}
