package enrichment

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ginjaninja78/sales-analytics/internal/types"
)

// Header is the column list of the enriched export.
var Header = []string{
	"TransactionID", "Date", "ProductID", "ProductName",
	"Quantity", "UnitPrice", "CustomerID", "Region",
	"API_Category", "API_Brand", "API_Rating", "API_Match",
}

// Write emits the enriched records as a pipe-delimited file with a header.
// Nil catalog fields are written as empty strings.
func Write(w io.Writer, enriched []types.EnrichedRecord) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintln(bw, strings.Join(Header, "|")); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range enriched {
		row := []string{
			r.TransactionID,
			r.DateString(),
			r.ProductID,
			r.ProductName,
			strconv.Itoa(r.Quantity),
			r.UnitPrice.String(),
			r.CustomerID,
			r.Region,
			optionalString(r.APICategory),
			optionalString(r.APIBrand),
			optionalFloat(r.APIRating),
			matchFlag(r.APIMatch),
		}
		if _, err := fmt.Fprintln(bw, strings.Join(row, "|")); err != nil {
			return fmt.Errorf("failed to write transaction %s: %w", r.TransactionID, err)
		}
	}

	return bw.Flush()
}

func optionalString(s *string) string {
	if s == nil {
		return ""
	}
	// The export is pipe-delimited; keep catalog text from adding columns.
	return strings.ReplaceAll(*s, "|", " ")
}

func optionalFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func matchFlag(matched bool) string {
	if matched {
		return "True"
	}
	return "False"
}
