package csvparser

import (
	"errors"
	"testing"

	"github.com/ginjaninja78/sales-analytics/internal/types"
	"github.com/shopspring/decimal"
)

func TestParseLine(t *testing.T) {
	record, err := ParseLine(" T1 | 2024-01-05 | P101 | Widget, Deluxe | 1,200 | 1,499.50 | C1 | North ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if record.TransactionID != "T1" {
		t.Errorf("transaction id = %q", record.TransactionID)
	}
	if record.DateString() != "2024-01-05" {
		t.Errorf("date = %s", record.DateString())
	}
	if record.ProductName != "Widget  Deluxe" {
		t.Errorf("product name = %q", record.ProductName)
	}
	if record.Quantity != 1200 {
		t.Errorf("quantity = %d, want 1200", record.Quantity)
	}
	if !record.UnitPrice.Equal(decimal.RequireFromString("1499.50")) {
		t.Errorf("unit price = %s", record.UnitPrice)
	}
	if record.CustomerID != "C1" || record.Region != "North" {
		t.Errorf("customer/region = %q/%q", record.CustomerID, record.Region)
	}
	if !record.Amount().Equal(decimal.RequireFromString("1799400")) {
		t.Errorf("amount = %s", record.Amount())
	}
}

func TestParseLineRejects(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		field string
	}{
		{"seven fields", "T1|2024-01-05|P101|Widget|3|10.00|C1", ""},
		{"nine fields", "T1|2024-01-05|P101|Widget|3|10.00|C1|North|extra", ""},
		{"bad quantity", "T1|2024-01-05|P101|Widget|three|10.00|C1|North", "Quantity"},
		{"fractional quantity", "T1|2024-01-05|P101|Widget|1.5|10.00|C1|North", "Quantity"},
		{"bad price", "T1|2024-01-05|P101|Widget|3|ten|C1|North", "UnitPrice"},
		{"exponent price", "T1|2024-01-05|P101|Widget|3|1e3|C1|North", "UnitPrice"},
		{"huge exponent price", "T1|2024-01-05|P101|Widget|1|1e-400000000|C1|North", "UnitPrice"},
		{"grouped exponent price", "T1|2024-01-05|P101|Widget|1|1,0E5|C1|North", "UnitPrice"},
		{"bare dot price", "T1|2024-01-05|P101|Widget|1|.|C1|North", "UnitPrice"},
		{"bad date", "T1|05/01/2024|P101|Widget|3|10.00|C1|North", "Date"},
		{"missing date", "T1||P101|Widget|3|10.00|C1|North", "Date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := ParseLine(tt.line)
			if err == nil {
				t.Fatalf("expected an error, got %+v", record)
			}
			if !errors.Is(err, types.ErrMalformedRow) {
				t.Errorf("error does not wrap ErrMalformedRow: %v", err)
			}
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("error is not a *ParseError")
			}
			if parseErr.Field != tt.field {
				t.Errorf("field = %q, want %q", parseErr.Field, tt.field)
			}
			if record != (types.TransactionRecord{}) {
				t.Errorf("partial record returned: %+v", record)
			}
		})
	}
}

func TestParseLineKeepsNonPositiveNumbers(t *testing.T) {
	record, err := ParseLine("T1|2024-01-05|P101|Widget|0|-1|C1|North")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Quantity != 0 || !record.UnitPrice.IsNegative() {
		t.Errorf("parser must not apply business rules: %+v", record)
	}
}

func TestParseLinePlainDecimalPrices(t *testing.T) {
	for price, want := range map[string]string{
		"10":       "10",
		"10.":      "10",
		".5":       "0.5",
		"+2.25":    "2.25",
		"1,234.50": "1234.5",
	} {
		record, err := ParseLine("T1|2024-01-05|P101|Widget|1|" + price + "|C1|North")
		if err != nil {
			t.Errorf("price %q: unexpected error: %v", price, err)
			continue
		}
		if record.UnitPrice.String() != want {
			t.Errorf("price %q = %s, want %s", price, record.UnitPrice, want)
		}
	}
}

func TestParseLines(t *testing.T) {
	lines := []RawLine{
		{Number: 2, Text: "T1|2024-01-05|P101|Widget|3|10.00|C1|North"},
		{Number: 3, Text: "garbage"},
		{Number: 4, Text: "T2|2024-01-05|P999|Gadget|2|25.00|C2|South"},
	}

	result := ParseLines(lines)

	if result.Total != 3 {
		t.Errorf("total = %d, want 3", result.Total)
	}
	if len(result.Records) != 2 || len(result.Rejections) != 1 {
		t.Fatalf("records/rejections = %d/%d, want 2/1", len(result.Records), len(result.Rejections))
	}
	if result.Records[0].LineNumber != 2 || result.Records[1].LineNumber != 4 {
		t.Errorf("line numbers not carried: %d, %d", result.Records[0].LineNumber, result.Records[1].LineNumber)
	}
	if result.Rejections[0].Line != 3 {
		t.Errorf("rejection line = %d, want 3", result.Rejections[0].Line)
	}
}
