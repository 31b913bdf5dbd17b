// =============================================================================
// Sales Analytics - Aggregator
// =============================================================================
//
// Pure aggregation functions over accepted transaction records.
//
// RULES SHARED BY EVERY FUNCTION:
//   - The input slice is never modified.
//   - Empty input yields the empty/zero result, never a division by zero.
//   - Running sums stay exact; only reported values are rounded, to 2
//     places, half away from zero (decimal.Round).
//   - Rankings use a stable sort over groups kept in first-encounter order,
//     so ties resolve to whichever key appeared first in the input.
//
// =============================================================================

package analytics

import (
	"sort"
	"time"

	"github.com/ginjaninja78/sales-analytics/internal/types"
	"github.com/shopspring/decimal"
)

// Places is the number of decimal places in every reported money value.
const Places = 2

// Defaults used when a caller passes a non-positive size or threshold.
const (
	DefaultTopProducts           = 5
	DefaultLowPerformerThreshold = 10
)

var hundred = decimal.NewFromInt(100)

// =============================================================================
// SUMMARY TYPES
// =============================================================================

// RegionSummary is one row of the region breakdown.
type RegionSummary struct {
	Region           string
	TotalSales       decimal.Decimal
	TransactionCount int

	// Percentage is the share of the grand total, 0 when the total is 0.
	Percentage decimal.Decimal

	// AverageTransaction is TotalSales / TransactionCount.
	AverageTransaction decimal.Decimal
}

// ProductSummary is one row of a product ranking.
type ProductSummary struct {
	Name     string
	Quantity int
	Revenue  decimal.Decimal
}

// CustomerSummary is one row of the customer analysis.
type CustomerSummary struct {
	CustomerID    string
	TotalSpent    decimal.Decimal
	PurchaseCount int
	AvgOrderValue decimal.Decimal

	// Products is the sorted set of distinct product names bought.
	Products []string
}

// DailySummary is one day of the daily trend.
type DailySummary struct {
	Date             time.Time
	Revenue          decimal.Decimal
	TransactionCount int
	UniqueCustomers  int
}

// PeakDay is the day with the highest revenue.
type PeakDay struct {
	Date             time.Time
	Revenue          decimal.Decimal
	TransactionCount int
}

// =============================================================================
// GROUPING
// =============================================================================

// grouped keeps one accumulator per key in first-encounter order. A fresh
// zero accumulator is created the first time a key is seen.
type grouped[K comparable, V any] struct {
	index map[K]int
	keys  []K
	items []*V
}

func newGrouped[K comparable, V any]() *grouped[K, V] {
	return &grouped[K, V]{index: make(map[K]int)}
}

func (g *grouped[K, V]) at(key K) *V {
	if i, ok := g.index[key]; ok {
		return g.items[i]
	}
	g.index[key] = len(g.items)
	g.keys = append(g.keys, key)
	v := new(V)
	g.items = append(g.items, v)
	return v
}

type salesAcc struct {
	sales decimal.Decimal
	count int
}

type productAcc struct {
	quantity int
	revenue  decimal.Decimal
}

type customerAcc struct {
	spent    decimal.Decimal
	count    int
	products map[string]bool
}

type dayAcc struct {
	revenue   decimal.Decimal
	count     int
	customers map[string]bool
}

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// ratio returns num/den, or zero when den is zero.
func ratio(num decimal.Decimal, den int) decimal.Decimal {
	if den == 0 {
		return decimal.Zero
	}
	return num.Div(decimal.NewFromInt(int64(den)))
}

// =============================================================================
// AGGREGATIONS
// =============================================================================

// TotalRevenue sums the amount of every record.
func TotalRevenue(records []types.TransactionRecord) decimal.Decimal {
	return round(sumAmounts(records))
}

func sumAmounts(records []types.TransactionRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount())
	}
	return total
}

// RegionBreakdown groups sales by region, ordered by descending total sales.
func RegionBreakdown(records []types.TransactionRecord) []RegionSummary {
	groups := newGrouped[string, salesAcc]()
	grand := decimal.Zero

	for _, r := range records {
		amount := r.Amount()
		acc := groups.at(r.Region)
		acc.sales = acc.sales.Add(amount)
		acc.count++
		grand = grand.Add(amount)
	}

	type row struct {
		summary RegionSummary
		exact   decimal.Decimal
	}
	rows := make([]row, 0, len(groups.keys))
	for i, region := range groups.keys {
		acc := groups.items[i]
		pct := decimal.Zero
		if grand.IsPositive() {
			pct = acc.sales.Div(grand).Mul(hundred)
		}
		rows = append(rows, row{
			summary: RegionSummary{
				Region:             region,
				TotalSales:         round(acc.sales),
				TransactionCount:   acc.count,
				Percentage:         round(pct),
				AverageTransaction: round(ratio(acc.sales, acc.count)),
			},
			exact: acc.sales,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].exact.GreaterThan(rows[j].exact)
	})

	result := make([]RegionSummary, len(rows))
	for i, r := range rows {
		result[i] = r.summary
	}
	return result
}

// productTotals groups quantity and revenue by product name, in first-encounter order.
func productTotals(records []types.TransactionRecord) []ProductSummary {
	groups := newGrouped[string, productAcc]()
	for _, r := range records {
		acc := groups.at(r.ProductName)
		acc.quantity += r.Quantity
		acc.revenue = acc.revenue.Add(r.Amount())
	}

	products := make([]ProductSummary, len(groups.keys))
	for i, name := range groups.keys {
		products[i] = ProductSummary{
			Name:     name,
			Quantity: groups.items[i].quantity,
			Revenue:  round(groups.items[i].revenue),
		}
	}
	return products
}

// TopProducts returns the n best-selling products by total quantity.
// A non-positive n selects DefaultTopProducts.
func TopProducts(records []types.TransactionRecord, n int) []ProductSummary {
	if n <= 0 {
		n = DefaultTopProducts
	}

	products := productTotals(records)
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Quantity > products[j].Quantity
	})

	if len(products) > n {
		products = products[:n]
	}
	return products
}

// CustomerAnalysis summarizes purchases per customer, ordered by descending
// total spent.
func CustomerAnalysis(records []types.TransactionRecord) []CustomerSummary {
	groups := newGrouped[string, customerAcc]()
	for _, r := range records {
		acc := groups.at(r.CustomerID)
		if acc.products == nil {
			acc.products = make(map[string]bool)
		}
		acc.spent = acc.spent.Add(r.Amount())
		acc.count++
		acc.products[r.ProductName] = true
	}

	type row struct {
		summary CustomerSummary
		exact   decimal.Decimal
	}
	rows := make([]row, len(groups.keys))
	for i, customer := range groups.keys {
		acc := groups.items[i]
		products := make([]string, 0, len(acc.products))
		for name := range acc.products {
			products = append(products, name)
		}
		sort.Strings(products)

		rows[i] = row{
			summary: CustomerSummary{
				CustomerID:    customer,
				TotalSpent:    round(acc.spent),
				PurchaseCount: acc.count,
				AvgOrderValue: round(ratio(acc.spent, acc.count)),
				Products:      products,
			},
			exact: acc.spent,
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].exact.GreaterThan(rows[j].exact)
	})

	result := make([]CustomerSummary, len(rows))
	for i, r := range rows {
		result[i] = r.summary
	}
	return result
}

// dailyTotals groups records by calendar date, ascending.
func dailyTotals(records []types.TransactionRecord) ([]time.Time, []*dayAcc) {
	groups := newGrouped[time.Time, dayAcc]()
	for _, r := range records {
		acc := groups.at(calendarDate(r.Date))
		if acc.customers == nil {
			acc.customers = make(map[string]bool)
		}
		acc.revenue = acc.revenue.Add(r.Amount())
		acc.count++
		acc.customers[r.CustomerID] = true
	}

	order := make([]int, len(groups.keys))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return groups.keys[order[a]].Before(groups.keys[order[b]])
	})

	dates := make([]time.Time, len(order))
	accs := make([]*dayAcc, len(order))
	for i, idx := range order {
		dates[i] = groups.keys[idx]
		accs[i] = groups.items[idx]
	}
	return dates, accs
}

// calendarDate truncates a timestamp to its UTC calendar date so it can key a map.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DailyTrend summarizes each calendar date, ascending by date.
func DailyTrend(records []types.TransactionRecord) []DailySummary {
	dates, accs := dailyTotals(records)

	trend := make([]DailySummary, len(dates))
	for i, date := range dates {
		trend[i] = DailySummary{
			Date:             date,
			Revenue:          round(accs[i].revenue),
			TransactionCount: accs[i].count,
			UniqueCustomers:  len(accs[i].customers),
		}
	}
	return trend
}

// FindPeakDay returns the date with the highest revenue. Ties resolve to the
// earliest date. The boolean is false for empty input.
func FindPeakDay(records []types.TransactionRecord) (PeakDay, bool) {
	dates, accs := dailyTotals(records)
	if len(dates) == 0 {
		return PeakDay{}, false
	}

	best := 0
	for i := 1; i < len(dates); i++ {
		if accs[i].revenue.GreaterThan(accs[best].revenue) {
			best = i
		}
	}

	return PeakDay{
		Date:             dates[best],
		Revenue:          round(accs[best].revenue),
		TransactionCount: accs[best].count,
	}, true
}

// LowPerformers returns products whose total quantity is strictly below the
// threshold, ascending by quantity. A non-positive threshold selects
// DefaultLowPerformerThreshold.
func LowPerformers(records []types.TransactionRecord, threshold int) []ProductSummary {
	if threshold <= 0 {
		threshold = DefaultLowPerformerThreshold
	}

	var low []ProductSummary
	for _, p := range productTotals(records) {
		if p.Quantity < threshold {
			low = append(low, p)
		}
	}

	sort.SliceStable(low, func(i, j int) bool {
		return low[i].Quantity < low[j].Quantity
	})
	return low
}

// =============================================================================
// SUMMARY BUNDLE
// =============================================================================

// Options controls the ranking sizes used by Summarize.
type Options struct {
	TopProducts           int
	LowPerformerThreshold int
}

// Summary bundles every metric the report needs.
type Summary struct {
	RecordCount       int
	TotalRevenue      decimal.Decimal
	AverageOrderValue decimal.Decimal

	// FirstDate and LastDate bound the data; zero when RecordCount is 0.
	FirstDate time.Time
	LastDate  time.Time

	Regions       []RegionSummary
	TopProducts   []ProductSummary
	Customers     []CustomerSummary
	Daily         []DailySummary
	LowPerformers []ProductSummary

	Peak    PeakDay
	HasPeak bool
}

// Summarize computes every metric over the same record set.
func Summarize(records []types.TransactionRecord, opts Options) Summary {
	total := sumAmounts(records)

	s := Summary{
		RecordCount:       len(records),
		TotalRevenue:      round(total),
		AverageOrderValue: round(ratio(total, len(records))),
		Regions:           RegionBreakdown(records),
		TopProducts:       TopProducts(records, opts.TopProducts),
		Customers:         CustomerAnalysis(records),
		Daily:             DailyTrend(records),
		LowPerformers:     LowPerformers(records, opts.LowPerformerThreshold),
	}
	s.Peak, s.HasPeak = FindPeakDay(records)

	if n := len(s.Daily); n > 0 {
		s.FirstDate = s.Daily[0].Date
		s.LastDate = s.Daily[n-1].Date
	}
	return s
}
