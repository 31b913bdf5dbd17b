// =============================================================================
// Sales Analytics - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - csvparser   (produces TransactionRecord)
//   - validation  (filters TransactionRecord)
//   - analytics   (aggregates TransactionRecord)
//   - enrichment  (produces EnrichedRecord from a Catalog)
//   - report      (renders everything)
//
// =============================================================================

package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the textual date format used by the transaction log and
// every output that prints a calendar date.
const DateLayout = "2006-01-02"

// Reserved id prefixes.
const (
	TransactionPrefix = "T"
	ProductPrefix     = "P"
	CustomerPrefix    = "C"
)

// =============================================================================
// TRANSACTION TYPES
// =============================================================================

// TransactionRecord is one parsed line of the transaction log.
// Records are values: no stage mutates a record after the parser creates it.
type TransactionRecord struct {
	// TransactionID must start with TransactionPrefix to pass validation.
	TransactionID string

	// Date is the calendar date of the sale (UTC midnight).
	Date time.Time

	// ProductID must start with ProductPrefix to pass validation.
	ProductID string

	// ProductName is free text with commas normalized to spaces.
	ProductName string

	// Quantity must be strictly positive to pass validation.
	Quantity int

	// UnitPrice must be strictly positive to pass validation.
	UnitPrice decimal.Decimal

	// CustomerID must start with CustomerPrefix to pass validation.
	CustomerID string

	// Region must be non-empty to pass validation.
	Region string

	// LineNumber is the 1-based line in the source file, for error reporting.
	// Zero when the record did not come from a file.
	LineNumber int
}

// Amount returns Quantity * UnitPrice. It is never stored.
func (r TransactionRecord) Amount() decimal.Decimal {
	return r.UnitPrice.Mul(decimal.NewFromInt(int64(r.Quantity)))
}

// DateString formats Date with DateLayout.
func (r TransactionRecord) DateString() string {
	return r.Date.Format(DateLayout)
}

// EnrichedRecord is a TransactionRecord decorated with catalog data.
// Nil pointer fields represent "no value" (null).
type EnrichedRecord struct {
	TransactionRecord

	APICategory *string
	APIBrand    *string
	APIRating   *float64

	// APIMatch is true iff a catalog entry was found for the numeric part
	// of ProductID.
	APIMatch bool
}

// =============================================================================
// CATALOG TYPES
// =============================================================================

// CatalogEntry is the reference data kept for one catalog product.
type CatalogEntry struct {
	Title    *string
	Category *string
	Brand    *string
	Rating   *float64
}

// Catalog maps a numeric product id to its entry. It is read-only once built.
// A nil Catalog is valid and behaves as empty.
type Catalog map[int]CatalogEntry
