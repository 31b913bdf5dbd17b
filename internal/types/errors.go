package types

import "errors"

// Row-level error taxonomy. Row errors returned by the parser and the
// validator wrap one of these, so callers can classify with errors.Is.
var (
	// ErrMalformedRow marks a structural parse failure: wrong field count,
	// a non-numeric quantity or price, or an unparseable date.
	ErrMalformedRow = errors.New("malformed row")

	// ErrInvalidBusinessRule marks a row that parsed but failed a semantic
	// check (bad prefix, non-positive number, empty customer or region).
	ErrInvalidBusinessRule = errors.New("invalid business rule")
)
