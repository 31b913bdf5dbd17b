// =============================================================================
// Sales Analytics - Pipeline Module
// =============================================================================
//
// This module orchestrates one full run for a single input file, from raw
// lines to the written report.
//
// PROCESSING PIPELINE:
//   1. Read and decode the input file
//   2. Parse and validate every line, applying the optional filters
//   3. Load the product catalog (best-effort)
//   4. Enrich the accepted records
//   5. Aggregate the metrics
//   6. Write the report, the enriched export and the optional extras
//   7. Archive the report
//
// ERROR HANDLING:
//   Row problems never stop a run; they are counted. An unavailable catalog
//   never stops a run; every record is then unmatched. Only I/O failures on
//   the input or the outputs fail the run.
//
// =============================================================================

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ginjaninja78/sales-analytics/internal/analytics"
	"github.com/ginjaninja78/sales-analytics/internal/catalog"
	"github.com/ginjaninja78/sales-analytics/internal/config"
	"github.com/ginjaninja78/sales-analytics/internal/csvparser"
	"github.com/ginjaninja78/sales-analytics/internal/enrichment"
	"github.com/ginjaninja78/sales-analytics/internal/logger"
	"github.com/ginjaninja78/sales-analytics/internal/report"
	"github.com/ginjaninja78/sales-analytics/internal/types"
	"github.com/ginjaninja78/sales-analytics/internal/validation"
	"github.com/ginjaninja78/sales-analytics/pkg/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// RunID identifies this run in file names and logs.
	RunID string

	// FilePath is the path to the input file that was processed.
	FilePath string

	// ReportFile is the path to the generated report.
	// Empty for dry runs and failed runs.
	ReportFile string

	// EnrichedFile, WorkbookFile, XMLFile, RejectionLog and ArchivePath are
	// the optional outputs; empty when not written.
	EnrichedFile string
	WorkbookFile string
	XMLFile      string
	RejectionLog string
	ArchivePath  string

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed.
	Error error

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// Encoding is the encoding that decoded the input.
	Encoding string

	// Truncated is the number of lines dropped by the record cap.
	Truncated int

	// Validation is the rejection tally.
	Validation validation.Summary

	// Diagnostics are the region and amount observations before filtering.
	Diagnostics validation.Diagnostics

	// Enrichment summarizes the catalog join.
	Enrichment enrichment.Stats

	// CatalogStatus tells whether the catalog was loaded, unavailable or skipped.
	CatalogStatus report.CatalogStatus

	// TotalRevenue is the revenue of the accepted records.
	TotalRevenue decimal.Decimal

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// PIPELINE STRUCTURE
// =============================================================================

// CatalogLoader provides the product catalog. *catalog.Client implements it.
type CatalogLoader interface {
	Load(ctx context.Context) (types.Catalog, error)
}

// Options adjusts a run without touching the configuration.
type Options struct {
	// DryRun writes nothing to disk; the report goes to Out.
	DryRun bool

	// SkipCatalog runs without fetching the catalog.
	SkipCatalog bool

	// WorkbookFile and XMLFile override the configured export file names.
	WorkbookFile string
	XMLFile      string

	// PerInputNames prefixes output names with the input name unless they
	// already carry a placeholder. Set it when one run covers several files.
	PerInputNames bool

	// Out receives the report on dry runs. Defaults to os.Stdout.
	Out io.Writer

	// Now returns the report generation time. Defaults to time.Now.
	Now func() time.Time
}

// Pipeline runs the full process for a single input file.
type Pipeline struct {
	inputPath string
	cfg       *config.MainConfig
	catalog   CatalogLoader
	files     *utils.FileManager
	opts      Options
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a new Pipeline instance.
//
// PARAMETERS:
//   - inputPath: The path to the transaction log.
//   - cfg:       The main application configuration.
//   - loader:    The catalog source; nil behaves like SkipCatalog.
//   - opts:      Run options.
//
// RETURNS:
//   - A new Pipeline instance.
func New(inputPath string, cfg *config.MainConfig, loader CatalogLoader, opts Options) *Pipeline {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{
		inputPath: inputPath,
		cfg:       cfg,
		catalog:   loader,
		files:     utils.NewFileManager(cfg.OutputDir, cfg.ArchiveDir),
		opts:      opts,
	}
}

// FilterFromSettings converts the configured filters to a validation filter.
func FilterFromSettings(settings config.FilterSettings) validation.Filter {
	filter := validation.Filter{Region: strings.TrimSpace(settings.Region)}
	if settings.MinAmount != nil {
		filter.MinAmount = decimal.NewNullDecimal(decimal.NewFromFloat(*settings.MinAmount))
	}
	if settings.MaxAmount != nil {
		filter.MaxAmount = decimal.NewNullDecimal(decimal.NewFromFloat(*settings.MaxAmount))
	}
	return filter
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline for the file.
//
// RETURNS:
//   - A Result struct containing the outcome of the processing.
func (p *Pipeline) Run(ctx context.Context) Result {
	startTime := time.Now()
	result := Result{
		RunID:    uuid.New().String(),
		FilePath: p.inputPath,
	}
	log := logger.L.With("run", result.RunID, "file", filepath.Base(p.inputPath))

	// =========================================================================
	// STEP 1: READ INPUT
	// =========================================================================

	log.Info("Processing file", "path", p.inputPath)

	raw, err := csvparser.ReadLines(p.inputPath, p.cfg.Input)
	if err != nil {
		result.Error = fmt.Errorf("failed to read input: %w", err)
		return result
	}

	result.Stats.Encoding = raw.Encoding
	result.Stats.Truncated = raw.Truncated
	log.Debug("Read input", "lines", len(raw.Lines), "encoding", raw.Encoding)
	if raw.Truncated > 0 {
		log.Warn("Input truncated by max_records", "dropped", raw.Truncated, "max", p.cfg.Input.MaxRecords)
	}

	// =========================================================================
	// STEP 2: PARSE AND VALIDATE
	// =========================================================================
	// Rows are skipped and counted, never fatal.

	filter := FilterFromSettings(p.cfg.Filters)
	validated := validation.Process(raw.Lines, filter)
	result.Stats.Validation = validated.Summary
	result.Stats.Diagnostics = validated.Diagnostics

	logDiagnostics(log, validated.Diagnostics)
	for _, rejected := range validated.Rejections() {
		log.Debug("Row rejected", "line", rejected.LineNumber, "reason", rejected.Reason, "error", rejected.Err)
	}

	s := validated.Summary
	log.Info("Validation complete",
		"total", s.TotalInput,
		"invalid", s.Invalid,
		"malformed", s.Malformed,
		"filtered_by_region", s.FilteredByRegion,
		"filtered_by_amount", s.FilteredByAmount,
		"accepted", s.FinalCount,
	)

	// =========================================================================
	// STEP 3: LOAD CATALOG
	// =========================================================================

	productCatalog, status := p.loadCatalog(ctx, log)
	result.Stats.CatalogStatus = status

	// =========================================================================
	// STEP 4: ENRICH
	// =========================================================================

	enriched := enrichment.Join(validated.Accepted, productCatalog)
	result.Stats.Enrichment = enrichment.Summarize(enriched)
	log.Info("Enrichment complete",
		"matched", result.Stats.Enrichment.Matched,
		"total", result.Stats.Enrichment.Total,
		"success_rate", result.Stats.Enrichment.SuccessRate.StringFixed(2),
	)

	// =========================================================================
	// STEP 5: AGGREGATE
	// =========================================================================

	summary := analytics.Summarize(validated.Accepted, analytics.Options{
		TopProducts:           p.cfg.Analytics.TopProducts,
		LowPerformerThreshold: p.cfg.Analytics.LowPerformerThreshold,
	})
	result.Stats.TotalRevenue = summary.TotalRevenue

	data := report.Data{
		GeneratedAt:      p.opts.Now(),
		RecordsProcessed: s.TotalInput,
		Summary:          summary,
		Enrichment:       result.Stats.Enrichment,
		CatalogStatus:    status,
		TopCustomers:     p.cfg.Analytics.TopCustomers,
	}

	// =========================================================================
	// STEP 6: WRITE OUTPUTS
	// =========================================================================

	if p.opts.DryRun {
		if err := report.WriteText(p.opts.Out, data); err != nil {
			result.Error = fmt.Errorf("failed to render report: %w", err)
			return result
		}
		result.Success = true
		result.Stats.ProcessingTime = time.Since(startTime)
		log.Info("Dry run complete, no files written")
		return result
	}

	if err := p.writeOutputs(&result, data, enriched, validated); err != nil {
		result.Error = err
		return result
	}
	log.Info("Wrote report", "path", result.ReportFile)

	// =========================================================================
	// STEP 7: ARCHIVE
	// =========================================================================

	archived, err := p.files.ArchiveFile(result.ReportFile)
	if err != nil {
		// Log the error but don't fail the processing.
		log.Warn("Failed to archive report", "error", err)
	} else if archived != "" {
		result.ArchivePath = archived
		log.Debug("Archived report", "path", archived)
	}

	if p.cfg.ArchiveRetention > 0 {
		removed, err := p.files.CleanOldArchives(p.cfg.ArchiveRetention)
		if err != nil {
			log.Warn("Failed to clean old archives", "error", err)
		} else if removed > 0 {
			log.Info("Removed old archives", "count", removed)
		}
	}

	result.Success = true
	result.Stats.ProcessingTime = time.Since(startTime)

	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// loadCatalog fetches the catalog and degrades to an empty one on failure.
func (p *Pipeline) loadCatalog(ctx context.Context, log *slog.Logger) (types.Catalog, report.CatalogStatus) {
	if p.opts.SkipCatalog || p.cfg.Catalog.Disabled || p.catalog == nil {
		log.Info("Catalog enrichment skipped")
		return types.Catalog{}, report.CatalogSkipped
	}

	if p.cfg.Catalog.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Catalog.Timeout)
		defer cancel()
	}

	loaded, err := p.catalog.Load(ctx)
	if err != nil {
		if !errors.Is(err, catalog.ErrCatalogUnavailable) {
			err = fmt.Errorf("%w: %v", catalog.ErrCatalogUnavailable, err)
		}
		log.Warn("Continuing without enrichment", "error", err)
		return types.Catalog{}, report.CatalogUnavailable
	}

	log.Info("Catalog loaded", "products", len(loaded))
	return loaded, report.CatalogLoaded
}

// outputParams are the placeholder values for output file names.
func (p *Pipeline) outputParams(runID string) map[string]string {
	base := filepath.Base(p.inputPath)
	return map[string]string{
		"uuid":  runID,
		"input": strings.TrimSuffix(base, filepath.Ext(base)),
	}
}

// outputName applies the PerInputNames option to a configured name.
func (p *Pipeline) outputName(name string) string {
	if !p.opts.PerInputNames || name == "" {
		return name
	}
	dir, base := filepath.Split(name)
	if strings.Contains(base, "{") {
		return name
	}
	return dir + "{input}_" + base
}

// writeOutputs writes the report and the enriched export, then whichever
// of the workbook, XML report and rejection log are enabled.
func (p *Pipeline) writeOutputs(result *Result, data report.Data, enriched []types.EnrichedRecord, validated *validation.Result) error {
	params := p.outputParams(result.RunID)

	reportPath := filepath.Join(p.cfg.OutputDir, utils.GenerateOutputFileName(p.outputName(p.cfg.ReportFile), ".txt", params))
	enrichedPath := ""
	if p.cfg.EnrichedFile != "" {
		enrichedPath = utils.GenerateOutputFileName(p.outputName(p.cfg.EnrichedFile), ".txt", params)
	}
	workbookName := p.opts.WorkbookFile
	if workbookName == "" {
		workbookName = p.cfg.WorkbookFile
	}
	workbookPath := ""
	if workbookName != "" {
		workbookPath = filepath.Join(p.cfg.OutputDir, utils.GenerateOutputFileName(p.outputName(workbookName), ".xlsx", params))
	}

	xmlName := p.opts.XMLFile
	if xmlName == "" {
		xmlName = p.cfg.XMLFile
	}
	xmlPath := ""
	if xmlName != "" {
		xmlPath = filepath.Join(p.cfg.OutputDir, utils.GenerateOutputFileName(p.outputName(xmlName), ".xml", params))
	}

	if err := p.files.EnsureDirectories(reportPath, enrichedPath, workbookPath, xmlPath); err != nil {
		return fmt.Errorf("failed to prepare output directories: %w", err)
	}

	if err := writeFile(reportPath, func(w io.Writer) error { return report.WriteText(w, data) }); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	result.ReportFile = reportPath

	if enrichedPath != "" {
		if err := writeFile(enrichedPath, func(w io.Writer) error { return enrichment.Write(w, enriched) }); err != nil {
			return fmt.Errorf("failed to write enriched data: %w", err)
		}
		result.EnrichedFile = enrichedPath
	}

	if workbookPath != "" {
		if err := report.WriteWorkbook(workbookPath, data, enriched); err != nil {
			return fmt.Errorf("failed to write workbook: %w", err)
		}
		result.WorkbookFile = workbookPath
	}

	if xmlPath != "" {
		if err := writeFile(xmlPath, func(w io.Writer) error { return report.WriteXML(w, data) }); err != nil {
			return fmt.Errorf("failed to write XML report: %w", err)
		}
		result.XMLFile = xmlPath
	}

	if p.cfg.WriteRejectionLog {
		logPath, err := utils.WriteRejectionLog(rejectionEntries(p.inputPath, validated), p.cfg.OutputDir, result.RunID)
		if err != nil {
			return fmt.Errorf("failed to write rejection log: %w", err)
		}
		result.RejectionLog = logPath
	}

	return nil
}

// writeFile creates path and streams content into it.
func writeFile(path string, content func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := content(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// rejectionEntries converts rejected outcomes to rejection log entries.
func rejectionEntries(inputPath string, validated *validation.Result) []utils.RejectionLogEntry {
	fileName := filepath.Base(inputPath)
	var entries []utils.RejectionLogEntry

	for _, o := range validated.Rejections() {
		entry := utils.RejectionLogEntry{
			FileName:      fileName,
			Reason:        string(o.Reason),
			LineNumber:    o.LineNumber,
			TransactionID: o.Record.TransactionID,
		}

		var parseErr *csvparser.ParseError
		var ruleErr *validation.ValidationError
		switch {
		case errors.As(o.Err, &parseErr):
			entry.FieldName = parseErr.Field
			entry.FieldValue = parseErr.Value
			entry.Message = parseErr.Message
		case errors.As(o.Err, &ruleErr):
			entry.FieldName = ruleErr.Field
			entry.FieldValue = ruleErr.Value
			entry.Message = fmt.Sprintf("%s (%s)", ruleErr.Message, ruleErr.Rule)
		case o.Reason == validation.ReasonFilteredByRegion:
			entry.Message = fmt.Sprintf("region %q excluded by filter", o.Record.Region)
		case o.Reason == validation.ReasonFilteredByAmount:
			entry.Message = fmt.Sprintf("amount %s outside filter bounds", o.Record.Amount().StringFixed(2))
		}

		entries = append(entries, entry)
	}

	return entries
}

// logDiagnostics reports the observed regions and amount range.
func logDiagnostics(log *slog.Logger, d validation.Diagnostics) {
	log.Info("Available regions", "regions", strings.Join(d.Regions, ", "))
	if d.HasAmounts {
		log.Info("Transaction amount range",
			"min", d.MinAmount.StringFixed(2),
			"max", d.MaxAmount.StringFixed(2),
		)
	}
}
