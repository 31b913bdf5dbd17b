package analytics

import (
	"reflect"
	"testing"
	"time"

	"github.com/ginjaninja78/sales-analytics/internal/types"
	"github.com/shopspring/decimal"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func tx(id string, date time.Time, product string, qty int, price, customer, region string) types.TransactionRecord {
	return types.TransactionRecord{
		TransactionID: id,
		Date:          date,
		ProductID:     "P1",
		ProductName:   product,
		Quantity:      qty,
		UnitPrice:     decimal.RequireFromString(price),
		CustomerID:    customer,
		Region:        region,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, what string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", what, got, want)
	}
}

func TestTwoRegionScenario(t *testing.T) {
	records := []types.TransactionRecord{
		tx("T1", day(5), "Widget", 3, "10.00", "C1", "North"),
		tx("T2", day(5), "Gadget", 2, "25.00", "C2", "South"),
	}

	assertDecimal(t, "total revenue", TotalRevenue(records), "80.00")

	regions := RegionBreakdown(records)
	if len(regions) != 2 {
		t.Fatalf("regions = %d, want 2", len(regions))
	}
	if regions[0].Region != "South" || regions[1].Region != "North" {
		t.Errorf("order = %s, %s, want South, North", regions[0].Region, regions[1].Region)
	}
	assertDecimal(t, "South sales", regions[0].TotalSales, "50.00")
	assertDecimal(t, "South pct", regions[0].Percentage, "62.5")
	assertDecimal(t, "North sales", regions[1].TotalSales, "30.00")
	assertDecimal(t, "North pct", regions[1].Percentage, "37.5")
}

func TestRegionBreakdownIdentities(t *testing.T) {
	records := []types.TransactionRecord{
		tx("T1", day(1), "A", 1, "10", "C1", "North"),
		tx("T2", day(1), "B", 1, "10", "C1", "South"),
		tx("T3", day(2), "C", 1, "10", "C1", "East"),
		tx("T4", day(2), "D", 3, "3.33", "C2", "North"),
	}

	regions := RegionBreakdown(records)
	total := TotalRevenue(records)

	sales := decimal.Zero
	pct := decimal.Zero
	for _, r := range regions {
		sales = sales.Add(r.TotalSales)
		pct = pct.Add(r.Percentage)
	}
	if !sales.Equal(total) {
		t.Errorf("sum of region sales %s != total %s", sales, total)
	}
	if pct.Sub(hundred).Abs().GreaterThan(dec("0.05")) {
		t.Errorf("percentages sum to %s, want ~100", pct)
	}

	// South and East tie at 10.00; South was seen first.
	if regions[1].Region != "South" || regions[2].Region != "East" {
		t.Errorf("tie order = %s, %s, want South, East", regions[1].Region, regions[2].Region)
	}
	// 19.99 / 2 = 9.995 rounds half away from zero.
	assertDecimal(t, "North average", regions[0].AverageTransaction, "10.00")
}

func TestRegionBreakdownZeroTotal(t *testing.T) {
	records := []types.TransactionRecord{tx("T1", day(1), "A", 0, "10", "C1", "North")}

	regions := RegionBreakdown(records)

	if len(regions) != 1 || !regions[0].Percentage.IsZero() {
		t.Errorf("percentage with zero grand total = %+v", regions)
	}
}

func TestTopProducts(t *testing.T) {
	records := []types.TransactionRecord{
		tx("T1", day(1), "Mouse", 5, "1", "C1", "N"),
		tx("T2", day(1), "Laptop", 1, "1000", "C1", "N"),
		tx("T3", day(1), "Cable", 5, "2", "C1", "N"),
		tx("T4", day(1), "Mouse", 2, "1", "C2", "N"),
		tx("T5", day(1), "Pen", 9, "0.5", "C2", "N"),
	}

	top := TopProducts(records, 3)

	names := []string{top[0].Name, top[1].Name, top[2].Name}
	if !reflect.DeepEqual(names, []string{"Pen", "Mouse", "Cable"}) {
		t.Errorf("ranking = %v, want [Pen Mouse Cable]", names)
	}
	if top[1].Quantity != 7 {
		t.Errorf("Mouse quantity = %d, want 7", top[1].Quantity)
	}
	assertDecimal(t, "Pen revenue", top[0].Revenue, "4.5")

	if got := len(TopProducts(records, 0)); got != 4 {
		t.Errorf("default n over 4 products = %d, want 4", got)
	}
}

func TestTopProductsTieKeepsInputOrder(t *testing.T) {
	records := []types.TransactionRecord{
		tx("T1", day(1), "B", 2, "1", "C1", "N"),
		tx("T2", day(1), "A", 2, "1", "C1", "N"),
	}

	top := TopProducts(records, 5)

	if top[0].Name != "B" || top[1].Name != "A" {
		t.Errorf("tie order = %s, %s, want B, A", top[0].Name, top[1].Name)
	}
}

func TestCustomerAnalysis(t *testing.T) {
	records := []types.TransactionRecord{
		tx("T1", day(1), "Pen", 2, "5", "C1", "N"),
		tx("T2", day(1), "Book", 1, "30", "C2", "N"),
		tx("T3", day(2), "Apple", 1, "5", "C1", "N"),
		tx("T4", day(2), "Pen", 1, "5", "C1", "N"),
		tx("T5", day(3), "Ink", 1, "20", "C3", "N"),
	}

	customers := CustomerAnalysis(records)

	if len(customers) != 3 {
		t.Fatalf("customers = %d, want 3", len(customers))
	}
	// C1 and C3 tie at 20; C1 was seen first.
	if customers[0].CustomerID != "C2" || customers[1].CustomerID != "C1" || customers[2].CustomerID != "C3" {
		t.Errorf("order = %s, %s, %s", customers[0].CustomerID, customers[1].CustomerID, customers[2].CustomerID)
	}

	c1 := customers[1]
	assertDecimal(t, "C1 spent", c1.TotalSpent, "20")
	if c1.PurchaseCount != 3 {
		t.Errorf("C1 purchases = %d, want 3", c1.PurchaseCount)
	}
	assertDecimal(t, "C1 average", c1.AvgOrderValue, "6.67")
	if !reflect.DeepEqual(c1.Products, []string{"Apple", "Pen"}) {
		t.Errorf("C1 products = %v", c1.Products)
	}
}

func TestDailyTrendOrdersByDate(t *testing.T) {
	records := []types.TransactionRecord{
		tx("T1", day(10), "A", 1, "10", "C1", "N"),
		tx("T2", day(2), "A", 1, "5", "C1", "N"),
		tx("T3", day(10), "A", 1, "10", "C2", "N"),
		tx("T4", day(10), "A", 1, "10", "C1", "N"),
	}

	trend := DailyTrend(records)

	if len(trend) != 2 {
		t.Fatalf("days = %d, want 2", len(trend))
	}
	if !trend[0].Date.Equal(day(2)) || !trend[1].Date.Equal(day(10)) {
		t.Errorf("dates = %v, %v", trend[0].Date, trend[1].Date)
	}
	assertDecimal(t, "day 10 revenue", trend[1].Revenue, "30")
	if trend[1].TransactionCount != 3 || trend[1].UniqueCustomers != 2 {
		t.Errorf("day 10 = %+v", trend[1])
	}
}

func TestFindPeakDayTieResolvesToEarliest(t *testing.T) {
	records := []types.TransactionRecord{
		tx("T1", day(9), "A", 1, "50", "C1", "N"),
		tx("T2", day(3), "A", 2, "25", "C1", "N"),
		tx("T3", day(6), "A", 1, "10", "C1", "N"),
	}

	peak, ok := FindPeakDay(records)

	if !ok {
		t.Fatal("expected a peak day")
	}
	if !peak.Date.Equal(day(3)) {
		t.Errorf("peak = %v, want 2024-01-03", peak.Date)
	}
	assertDecimal(t, "peak revenue", peak.Revenue, "50")
	if peak.TransactionCount != 1 {
		t.Errorf("peak count = %d, want 1", peak.TransactionCount)
	}
}

func TestLowPerformers(t *testing.T) {
	records := []types.TransactionRecord{
		tx("T1", day(1), "Bulk", 50, "1", "C1", "N"),
		tx("T2", day(1), "Rare", 4, "1", "C1", "N"),
		tx("T3", day(1), "Edge", 10, "1", "C1", "N"),
		tx("T4", day(1), "Slow", 2, "1", "C1", "N"),
		tx("T5", day(1), "Rare", 3, "1", "C1", "N"),
	}

	low := LowPerformers(records, 10)

	if len(low) != 2 {
		t.Fatalf("low performers = %+v", low)
	}
	if low[0].Name != "Slow" || low[1].Name != "Rare" || low[1].Quantity != 7 {
		t.Errorf("low performers = %+v", low)
	}
}

func TestEmptyInput(t *testing.T) {
	if !TotalRevenue(nil).IsZero() {
		t.Errorf("total revenue of nothing is not zero")
	}
	if len(RegionBreakdown(nil)) != 0 || len(TopProducts(nil, 5)) != 0 ||
		len(CustomerAnalysis(nil)) != 0 || len(DailyTrend(nil)) != 0 ||
		len(LowPerformers(nil, 10)) != 0 {
		t.Errorf("expected empty summaries")
	}
	if _, ok := FindPeakDay(nil); ok {
		t.Errorf("peak day of nothing should be none")
	}

	s := Summarize(nil, Options{})
	if s.RecordCount != 0 || !s.AverageOrderValue.IsZero() || s.HasPeak || !s.FirstDate.IsZero() {
		t.Errorf("summary of nothing = %+v", s)
	}
}

func TestSummarizeIsIdempotent(t *testing.T) {
	records := []types.TransactionRecord{
		tx("T1", day(2), "Widget", 3, "10.00", "C1", "North"),
		tx("T2", day(1), "Gadget", 2, "25.00", "C2", "South"),
		tx("T3", day(2), "Widget", 1, "10.00", "C2", "North"),
	}
	before := append([]types.TransactionRecord(nil), records...)

	first := Summarize(records, Options{TopProducts: 5, LowPerformerThreshold: 10})
	second := Summarize(records, Options{TopProducts: 5, LowPerformerThreshold: 10})

	if !reflect.DeepEqual(first, second) {
		t.Errorf("summaries differ between runs")
	}
	if !reflect.DeepEqual(before, records) {
		t.Errorf("input records were modified")
	}
	if !first.FirstDate.Equal(day(1)) || !first.LastDate.Equal(day(2)) {
		t.Errorf("date range = %v to %v", first.FirstDate, first.LastDate)
	}
	assertDecimal(t, "average order value", first.AverageOrderValue, "30")
}
