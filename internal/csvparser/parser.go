// =============================================================================
// Sales Analytics - Record Parser Module
// =============================================================================
//
// This module turns raw pipe-delimited lines from the transaction log into
// structured TransactionRecord values. It handles:
//   - Exactly 8 fields in fixed order
//   - Thousands separators inside quantity and unit price ("1,200")
//   - Commas inside product names (normalized to spaces)
//   - Surrounding whitespace on every field
//
// PARSING IS ALL-OR-NOTHING:
//   A line either yields a complete record or a *ParseError wrapping
//   types.ErrMalformedRow. No partial record is ever returned, and a bad line
//   never aborts the batch.
//
// FIELD ORDER:
//   TransactionID | Date | ProductID | ProductName | Quantity | UnitPrice | CustomerID | Region
//
// =============================================================================

package csvparser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/sales-analytics/internal/types"
	"github.com/shopspring/decimal"
)

// Delimiter separates fields in the transaction log.
const Delimiter = "|"

// FieldCount is the exact number of fields a line must have.
const FieldCount = 8

// Field positions within a line.
const (
	fieldTransactionID = iota
	fieldDate
	fieldProductID
	fieldProductName
	fieldQuantity
	fieldUnitPrice
	fieldCustomerID
	fieldRegion
)

// FieldNames lists the column names in file order. The header line of the
// input file normally carries these names.
var FieldNames = []string{
	"TransactionID", "Date", "ProductID", "ProductName",
	"Quantity", "UnitPrice", "CustomerID", "Region",
}

// =============================================================================
// PARSE ERROR
// =============================================================================

// ParseError describes why a single line could not be parsed.
type ParseError struct {
	// Line is the 1-based line number in the source file (0 if unknown).
	Line int

	// Field is the name of the offending field, empty for structural errors.
	Field string

	// Value is the raw value that failed conversion.
	Value string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("line %d, field '%s': %s (value: '%s')", e.Line, e.Field, e.Message, e.Value)
}

// Unwrap lets errors.Is match types.ErrMalformedRow.
func (e *ParseError) Unwrap() error {
	return types.ErrMalformedRow
}

// =============================================================================
// SINGLE LINE PARSING
// =============================================================================

// ParseLine parses one raw line that has no known line number.
func ParseLine(line string) (types.TransactionRecord, error) {
	return ParseLineAt(0, line)
}

// ParseLineAt parses one raw line and tags the record and any error with the
// given line number.
//
// PARAMETERS:
//   - number: The 1-based line number in the source (0 if unknown).
//   - line:   The raw text of the line.
//
// RETURNS:
//   - The parsed record, or the zero record on failure.
//   - A *ParseError wrapping types.ErrMalformedRow on failure.
func ParseLineAt(number int, line string) (types.TransactionRecord, error) {
	fields := strings.Split(line, Delimiter)
	if len(fields) != FieldCount {
		return types.TransactionRecord{}, &ParseError{
			Line:    number,
			Message: fmt.Sprintf("expected %d fields, got %d", FieldCount, len(fields)),
		}
	}

	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	date, err := time.Parse(types.DateLayout, fields[fieldDate])
	if err != nil {
		return types.TransactionRecord{}, &ParseError{
			Line:    number,
			Field:   FieldNames[fieldDate],
			Value:   fields[fieldDate],
			Message: fmt.Sprintf("date must use the %s format", types.DateLayout),
		}
	}

	quantityText := stripGrouping(fields[fieldQuantity])
	quantity, err := strconv.Atoi(quantityText)
	if err != nil {
		return types.TransactionRecord{}, &ParseError{
			Line:    number,
			Field:   FieldNames[fieldQuantity],
			Value:   fields[fieldQuantity],
			Message: "quantity is not an integer",
		}
	}

	priceText := stripGrouping(fields[fieldUnitPrice])
	if !plainDecimal.MatchString(priceText) {
		return types.TransactionRecord{}, &ParseError{
			Line:    number,
			Field:   FieldNames[fieldUnitPrice],
			Value:   fields[fieldUnitPrice],
			Message: "unit price must be plain digits with an optional decimal point",
		}
	}
	unitPrice, err := decimal.NewFromString(priceText)
	if err != nil {
		return types.TransactionRecord{}, &ParseError{
			Line:    number,
			Field:   FieldNames[fieldUnitPrice],
			Value:   fields[fieldUnitPrice],
			Message: "unit price is not a decimal number",
		}
	}

	return types.TransactionRecord{
		TransactionID: fields[fieldTransactionID],
		Date:          date,
		ProductID:     fields[fieldProductID],
		ProductName:   normalizeProductName(fields[fieldProductName]),
		Quantity:      quantity,
		UnitPrice:     unitPrice,
		CustomerID:    fields[fieldCustomerID],
		Region:        fields[fieldRegion],
		LineNumber:    number,
	}, nil
}

// plainDecimal matches a unit price after grouping is stripped. Exponent
// notation is rejected: a huge exponent makes every later rounding step
// build a power of ten with that many digits.
var plainDecimal = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// stripGrouping removes thousands separators from a numeric field.
func stripGrouping(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
}

// normalizeProductName replaces commas with spaces. The raw format reserves
// commas for numeric grouping only.
func normalizeProductName(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, ",", " "))
}

// =============================================================================
// BATCH PARSING
// =============================================================================

// ParseResult is the outcome of parsing a batch of lines.
type ParseResult struct {
	// Records holds the successfully parsed records, in input order.
	Records []types.TransactionRecord

	// Rejections holds one error per line that failed to parse, in input order.
	Rejections []*ParseError

	// Total is the number of lines given to ParseLines.
	Total int
}

// ParseLines parses every line and never stops on a bad one.
// len(Records) + len(Rejections) == Total always holds.
func ParseLines(lines []RawLine) *ParseResult {
	result := &ParseResult{
		Records: make([]types.TransactionRecord, 0, len(lines)),
		Total:   len(lines),
	}

	for _, line := range lines {
		record, err := ParseLineAt(line.Number, line.Text)
		if err != nil {
			// ParseLineAt only ever returns *ParseError.
			result.Rejections = append(result.Rejections, err.(*ParseError))
			continue
		}
		result.Records = append(result.Records, record)
	}

	return result
}
