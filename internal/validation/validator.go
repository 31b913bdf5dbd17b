// =============================================================================
// Sales Analytics - Validation Engine
// =============================================================================
//
// This module decides which parsed records are accepted for analysis.
// It applies, in this fixed order:
//   1. Business rules (id prefixes, positive quantity and price, non-empty
//      customer and region)
//   2. The optional region filter (exact, case-sensitive match)
//   3. The optional amount filter (inclusive bounds on quantity * unit price)
//
// ERROR HANDLING:
//   - Nothing here aborts a batch: every record gets exactly one Outcome
//   - Rule failures carry a *ValidationError wrapping
//     types.ErrInvalidBusinessRule
//   - Filter exclusions are not errors; they only carry a Reason
//
// DIAGNOSTICS:
//   The distinct regions and the observed amount range are reported next to
//   the result. They never influence which records are accepted.
//
// =============================================================================

package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ginjaninja78/sales-analytics/internal/csvparser"
	"github.com/ginjaninja78/sales-analytics/internal/types"
	"github.com/shopspring/decimal"
)

// =============================================================================
// OUTCOME REASONS
// =============================================================================

// Reason tags the outcome of a single row.
type Reason string

const (
	// ReasonAccepted marks a record that passed every check.
	ReasonAccepted Reason = "accepted"

	// ReasonMalformed marks a line the parser rejected.
	ReasonMalformed Reason = "malformed_row"

	// ReasonInvalidFormat marks a parsed record that broke a business rule.
	ReasonInvalidFormat Reason = "invalid_format"

	// ReasonFilteredByRegion marks a valid record outside the region filter.
	ReasonFilteredByRegion Reason = "filtered_by_region"

	// ReasonFilteredByAmount marks a valid record outside the amount bounds.
	ReasonFilteredByAmount Reason = "filtered_by_amount"
)

// Rule names used in ValidationError.Rule.
const (
	RuleTransactionPrefix = "transaction_id_prefix"
	RuleProductPrefix     = "product_id_prefix"
	RuleCustomerPrefix    = "customer_id_prefix"
	RuleCustomerRequired  = "customer_id_required"
	RuleRegionRequired    = "region_required"
	RulePositiveQuantity  = "positive_quantity"
	RulePositivePrice     = "positive_unit_price"
)

// =============================================================================
// VALIDATION ERROR
// =============================================================================

// ValidationError represents a single business-rule violation.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string

	// Value is the actual value that failed validation.
	Value string

	// Rule is the validation rule that was violated.
	Rule string

	// Message is a human-readable error message.
	Message string

	// TransactionID is the id of the offending record, as parsed.
	TransactionID string

	// RowNumber is the source line number (0 if unknown).
	RowNumber int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("line %d, transaction '%s', field '%s': %s (value: '%s')",
		e.RowNumber,
		e.TransactionID,
		e.Field,
		e.Message,
		e.Value,
	)
}

// Unwrap lets errors.Is match types.ErrInvalidBusinessRule.
func (e *ValidationError) Unwrap() error {
	return types.ErrInvalidBusinessRule
}

// =============================================================================
// FILTER AND RESULT TYPES
// =============================================================================

// Filter holds the optional filters. The zero Filter accepts every valid record.
type Filter struct {
	// Region, when non-empty, must equal the record region exactly.
	Region string

	// MinAmount, when valid, excludes records whose amount is below it.
	MinAmount decimal.NullDecimal

	// MaxAmount, when valid, excludes records whose amount is above it.
	MaxAmount decimal.NullDecimal
}

// Active reports whether any filter is set.
func (f Filter) Active() bool {
	return f.Region != "" || f.MinAmount.Valid || f.MaxAmount.Valid
}

// Outcome is the per-row result: the record (zero for malformed lines), its
// line number, the reason it was kept or dropped, and the error for
// malformed or invalid rows.
type Outcome struct {
	Record     types.TransactionRecord
	LineNumber int
	Reason     Reason
	Err        error
}

// Summary is the rejection tally.
// Invalid + FilteredByRegion + FilteredByAmount + FinalCount == TotalInput.
type Summary struct {
	TotalInput int

	// Invalid counts every row that failed parsing or a business rule.
	Invalid int

	// Malformed is the share of Invalid that failed parsing.
	Malformed int

	FilteredByRegion int
	FilteredByAmount int
	FinalCount       int
}

// InvalidFormat is the share of Invalid that parsed but broke a rule.
func (s Summary) InvalidFormat() int {
	return s.Invalid - s.Malformed
}

// Diagnostics describe the input before filtering.
type Diagnostics struct {
	// Regions is the sorted set of distinct non-empty regions.
	Regions []string

	// MinAmount and MaxAmount bound the amounts of records with positive
	// quantity and price. Only meaningful when HasAmounts is true.
	MinAmount decimal.Decimal
	MaxAmount decimal.Decimal

	HasAmounts bool
}

// Result contains the results of validation.
type Result struct {
	// Accepted holds the accepted records in input order.
	Accepted []types.TransactionRecord

	// Outcomes has one entry per input row, in input order.
	Outcomes []Outcome

	Summary     Summary
	Diagnostics Diagnostics
}

// Rejections returns the outcomes of every row that was not accepted.
func (r *Result) Rejections() []Outcome {
	var rejected []Outcome
	for _, o := range r.Outcomes {
		if o.Reason != ReasonAccepted {
			rejected = append(rejected, o)
		}
	}
	return rejected
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidateRecord checks the business rules for one record.
// It returns nil for a valid record and the first violation otherwise.
func ValidateRecord(record types.TransactionRecord) *ValidationError {
	fail := func(field, value, rule, message string) *ValidationError {
		return &ValidationError{
			Field:         field,
			Value:         value,
			Rule:          rule,
			Message:       message,
			TransactionID: record.TransactionID,
			RowNumber:     record.LineNumber,
		}
	}

	if !strings.HasPrefix(record.TransactionID, types.TransactionPrefix) {
		return fail("TransactionID", record.TransactionID, RuleTransactionPrefix,
			fmt.Sprintf("must start with '%s'", types.TransactionPrefix))
	}
	if !strings.HasPrefix(record.ProductID, types.ProductPrefix) {
		return fail("ProductID", record.ProductID, RuleProductPrefix,
			fmt.Sprintf("must start with '%s'", types.ProductPrefix))
	}

	customer := strings.TrimSpace(record.CustomerID)
	if customer == "" {
		return fail("CustomerID", record.CustomerID, RuleCustomerRequired, "must not be empty")
	}
	if !strings.HasPrefix(customer, types.CustomerPrefix) {
		return fail("CustomerID", record.CustomerID, RuleCustomerPrefix,
			fmt.Sprintf("must start with '%s'", types.CustomerPrefix))
	}

	if strings.TrimSpace(record.Region) == "" {
		return fail("Region", record.Region, RuleRegionRequired, "must not be empty")
	}
	if record.Quantity <= 0 {
		return fail("Quantity", fmt.Sprint(record.Quantity), RulePositiveQuantity, "must be greater than zero")
	}
	if !record.UnitPrice.IsPositive() {
		return fail("UnitPrice", record.UnitPrice.String(), RulePositivePrice, "must be greater than zero")
	}

	return nil
}

// ValidateAndFilter validates parsed records and applies the optional filters.
//
// PARAMETERS:
//   - records: The parsed records, in input order.
//   - filter:  The optional region/amount filters.
//
// RETURNS:
//   - A Result with one Outcome per record. The input slice is not modified.
func ValidateAndFilter(records []types.TransactionRecord, filter Filter) *Result {
	result := &Result{
		Accepted: make([]types.TransactionRecord, 0, len(records)),
		Outcomes: make([]Outcome, 0, len(records)),
	}

	result.Diagnostics = diagnose(records)

	for _, record := range records {
		result.addOutcome(classify(record, filter))
	}

	return result
}

// Process runs parsing and validation as one batch. Lines the parser rejects
// are counted as invalid, next to the records that break a business rule.
// Outcomes follow the order of lines, whatever their line numbers.
func Process(lines []csvparser.RawLine, filter Filter) *Result {
	result := &Result{
		Accepted: make([]types.TransactionRecord, 0, len(lines)),
		Outcomes: make([]Outcome, 0, len(lines)),
	}

	records := make([]types.TransactionRecord, 0, len(lines))
	for _, line := range lines {
		record, err := csvparser.ParseLineAt(line.Number, line.Text)
		if err != nil {
			// ParseLineAt only ever returns *ParseError.
			result.addMalformed(err.(*csvparser.ParseError))
			continue
		}
		records = append(records, record)
		result.addOutcome(classify(record, filter))
	}
	result.Diagnostics = diagnose(records)

	return result
}

// classify evaluates the checks in their fixed order.
func classify(record types.TransactionRecord, filter Filter) Outcome {
	outcome := Outcome{Record: record, LineNumber: record.LineNumber}

	if err := ValidateRecord(record); err != nil {
		outcome.Reason = ReasonInvalidFormat
		outcome.Err = err
		return outcome
	}

	if filter.Region != "" && record.Region != filter.Region {
		outcome.Reason = ReasonFilteredByRegion
		return outcome
	}

	amount := record.Amount()
	if filter.MinAmount.Valid && amount.LessThan(filter.MinAmount.Decimal) {
		outcome.Reason = ReasonFilteredByAmount
		return outcome
	}
	if filter.MaxAmount.Valid && amount.GreaterThan(filter.MaxAmount.Decimal) {
		outcome.Reason = ReasonFilteredByAmount
		return outcome
	}

	outcome.Reason = ReasonAccepted
	return outcome
}

func (r *Result) addOutcome(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	r.Summary.TotalInput++

	switch o.Reason {
	case ReasonAccepted:
		r.Accepted = append(r.Accepted, o.Record)
		r.Summary.FinalCount++
	case ReasonMalformed:
		r.Summary.Invalid++
		r.Summary.Malformed++
	case ReasonInvalidFormat:
		r.Summary.Invalid++
	case ReasonFilteredByRegion:
		r.Summary.FilteredByRegion++
	case ReasonFilteredByAmount:
		r.Summary.FilteredByAmount++
	}
}

func (r *Result) addMalformed(err *csvparser.ParseError) {
	r.addOutcome(Outcome{LineNumber: err.Line, Reason: ReasonMalformed, Err: err})
}

// diagnose collects the observational region and amount-range data.
func diagnose(records []types.TransactionRecord) Diagnostics {
	var d Diagnostics
	seen := make(map[string]bool)

	for _, record := range records {
		if record.Region != "" && !seen[record.Region] {
			seen[record.Region] = true
			d.Regions = append(d.Regions, record.Region)
		}

		if record.Quantity <= 0 || !record.UnitPrice.IsPositive() {
			continue
		}
		amount := record.Amount()
		if !d.HasAmounts {
			d.MinAmount, d.MaxAmount, d.HasAmounts = amount, amount, true
			continue
		}
		if amount.LessThan(d.MinAmount) {
			d.MinAmount = amount
		}
		if amount.GreaterThan(d.MaxAmount) {
			d.MaxAmount = amount
		}
	}

	sort.Strings(d.Regions)
	return d
}
