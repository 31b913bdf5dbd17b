// =============================================================================
// Sales Analytics - Report Renderer
// =============================================================================
//
// This module renders the fixed-width text report.
//
// REPORT SECTIONS:
//   1. Header (generation time, records processed)
//   2. Overall summary
//   3. Region-wise performance
//   4. Top products
//   5. Top customers
//   6. Daily sales trend
//   7. Product performance analysis
//   8. API enrichment summary
//
// The renderer only formats. Every number it prints was computed by the
// analytics and enrichment packages.
//
// =============================================================================

package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ginjaninja78/sales-analytics/internal/analytics"
	"github.com/ginjaninja78/sales-analytics/internal/enrichment"
	"github.com/ginjaninja78/sales-analytics/internal/types"
	"github.com/shopspring/decimal"
)

// CurrencySymbol prefixes every money value.
const CurrencySymbol = "₹"

// CatalogStatus describes how the enrichment catalog was obtained.
type CatalogStatus string

const (
	CatalogLoaded      CatalogStatus = "loaded"
	CatalogUnavailable CatalogStatus = "unavailable"
	CatalogSkipped     CatalogStatus = "skipped"
)

const (
	headerWidth  = 47
	sectionWidth = 44

	lowPerformersShown = 3
	notEnrichedShown   = 5
)

// Data is everything the report prints.
type Data struct {
	GeneratedAt      time.Time
	RecordsProcessed int

	Summary       analytics.Summary
	Enrichment    enrichment.Stats
	CatalogStatus CatalogStatus

	// TopCustomers limits the customer table. Non-positive shows five.
	TopCustomers int
}

// FormatCurrency renders a money value as "₹1,234.50".
func FormatCurrency(d decimal.Decimal) string {
	return CurrencySymbol + humanize.FormatFloat("#,###.##", d.Round(2).InexactFloat64())
}

// FormatPercentage renders a percentage with two decimals.
func FormatPercentage(d decimal.Decimal) string {
	return d.StringFixed(2) + "%"
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// listOrNone joins up to max names, or returns "None".
func listOrNone(names []string, max int) string {
	if len(names) == 0 {
		return "None"
	}
	if len(names) <= max {
		return strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s (+%d more)", strings.Join(names[:max], ", "), len(names)-max)
}

// WriteText renders the report.
func WriteText(w io.Writer, data Data) error {
	bw := bufio.NewWriter(w)
	s := data.Summary
	rule := strings.Repeat("-", sectionWidth)

	// 1. HEADER
	fmt.Fprintln(bw, strings.Repeat("=", headerWidth))
	fmt.Fprintln(bw, "         SALES ANALYTICS REPORT")
	fmt.Fprintf(bw, "       Generated: %s\n", data.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(bw, "       Records Processed: %d\n", data.RecordsProcessed)
	fmt.Fprintln(bw, strings.Repeat("=", headerWidth))
	fmt.Fprintln(bw)

	// 2. OVERALL SUMMARY
	dateRange := "N/A"
	if s.RecordCount > 0 {
		dateRange = fmt.Sprintf("%s to %s", s.FirstDate.Format(types.DateLayout), s.LastDate.Format(types.DateLayout))
	}
	fmt.Fprintln(bw, "OVERALL SUMMARY")
	fmt.Fprintln(bw, rule)
	fmt.Fprintf(bw, "Total Revenue:        %s\n", FormatCurrency(s.TotalRevenue))
	fmt.Fprintf(bw, "Total Transactions:   %d\n", s.RecordCount)
	fmt.Fprintf(bw, "Average Order Value:  %s\n", FormatCurrency(s.AverageOrderValue))
	fmt.Fprintf(bw, "Date Range:           %s\n", dateRange)
	fmt.Fprintln(bw)

	// 3. REGION-WISE PERFORMANCE
	fmt.Fprintln(bw, "REGION-WISE PERFORMANCE")
	fmt.Fprintln(bw, rule)
	fmt.Fprintf(bw, "%-10s %-12s %-10s %-12s\n", "Region", "Sales", "% of Total", "Transactions")
	fmt.Fprintln(bw, rule)
	for _, r := range s.Regions {
		fmt.Fprintf(bw, "%-10s %-12s %-10s %-12d\n",
			r.Region, FormatCurrency(r.TotalSales), FormatPercentage(r.Percentage), r.TransactionCount)
	}
	fmt.Fprintln(bw)

	// 4. TOP PRODUCTS
	fmt.Fprintf(bw, "TOP %d PRODUCTS\n", len(s.TopProducts))
	fmt.Fprintln(bw, rule)
	fmt.Fprintf(bw, "%-4s %-20s %-10s %-12s\n", "Rank", "Product Name", "Qty Sold", "Revenue")
	fmt.Fprintln(bw, rule)
	for i, p := range s.TopProducts {
		fmt.Fprintf(bw, "%-4d %-20s %-10d %-12s\n", i+1, truncate(p.Name, 19), p.Quantity, FormatCurrency(p.Revenue))
	}
	fmt.Fprintln(bw)

	// 5. TOP CUSTOMERS
	topCustomers := data.TopCustomers
	if topCustomers <= 0 {
		topCustomers = 5
	}
	customers := s.Customers
	if len(customers) > topCustomers {
		customers = customers[:topCustomers]
	}
	fmt.Fprintf(bw, "TOP %d CUSTOMERS\n", len(customers))
	fmt.Fprintln(bw, rule)
	fmt.Fprintf(bw, "%-4s %-12s %-12s %-12s\n", "Rank", "Customer ID", "Total Spent", "Order Count")
	fmt.Fprintln(bw, rule)
	for i, c := range customers {
		fmt.Fprintf(bw, "%-4d %-12s %-12s %-12d\n", i+1, truncate(c.CustomerID, 11), FormatCurrency(c.TotalSpent), c.PurchaseCount)
	}
	fmt.Fprintln(bw)

	// 6. DAILY SALES TREND
	fmt.Fprintln(bw, "DAILY SALES TREND")
	fmt.Fprintln(bw, rule)
	fmt.Fprintf(bw, "%-12s %-12s %-12s %-12s\n", "Date", "Revenue", "Transactions", "Unique Cust")
	fmt.Fprintln(bw, rule)
	for _, d := range s.Daily {
		fmt.Fprintf(bw, "%-12s %-12s %-12d %-12d\n",
			d.Date.Format(types.DateLayout), FormatCurrency(d.Revenue), d.TransactionCount, d.UniqueCustomers)
	}
	fmt.Fprintln(bw)

	// 7. PRODUCT PERFORMANCE ANALYSIS
	bestDay := "N/A"
	if s.HasPeak {
		bestDay = fmt.Sprintf("%s (%s, %d transactions)",
			s.Peak.Date.Format(types.DateLayout), FormatCurrency(s.Peak.Revenue), s.Peak.TransactionCount)
	}
	lowNames := make([]string, len(s.LowPerformers))
	for i, p := range s.LowPerformers {
		lowNames[i] = fmt.Sprintf("%s (%d)", p.Name, p.Quantity)
	}
	fmt.Fprintln(bw, "PRODUCT PERFORMANCE ANALYSIS")
	fmt.Fprintln(bw, rule)
	fmt.Fprintf(bw, "Best selling day:     %s\n", bestDay)
	fmt.Fprintf(bw, "Low performing products: %s\n", listOrNone(lowNames, lowPerformersShown))
	fmt.Fprintln(bw, "Avg transaction value per region:")
	for _, r := range s.Regions {
		fmt.Fprintf(bw, "  %s: %s\n", r.Region, FormatCurrency(r.AverageTransaction))
	}
	fmt.Fprintln(bw)

	// 8. API ENRICHMENT SUMMARY
	e := data.Enrichment
	status := data.CatalogStatus
	if status == "" {
		status = CatalogLoaded
	}
	fmt.Fprintln(bw, "API ENRICHMENT SUMMARY")
	fmt.Fprintln(bw, rule)
	fmt.Fprintf(bw, "Catalog status:          %s\n", status)
	fmt.Fprintf(bw, "Total products enriched: %d\n", len(e.Enriched))
	fmt.Fprintf(bw, "Records matched:         %d of %d\n", e.Matched, e.Total)
	fmt.Fprintf(bw, "Success rate:            %s\n", FormatPercentage(e.SuccessRate))
	fmt.Fprintf(bw, "Products not enriched:   %s\n", listOrNone(e.NotEnriched, notEnrichedShown))

	return bw.Flush()
}
