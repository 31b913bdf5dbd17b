package report

import (
	"fmt"

	"github.com/ginjaninja78/sales-analytics/internal/types"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the exported workbook, in tab order.
const (
	SheetSummary   = "Summary"
	SheetRegions   = "Regions"
	SheetProducts  = "Top Products"
	SheetCustomers = "Customers"
	SheetDaily     = "Daily Trend"
	SheetEnriched  = "Enriched"
)

// WriteWorkbook exports the report data and the enriched records to an XLSX
// file, one sheet per section.
func WriteWorkbook(path string, data Data, enriched []types.EnrichedRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	// The default sheet becomes the summary sheet.
	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		return fmt.Errorf("failed to rename default sheet: %w", err)
	}

	s := data.Summary
	e := data.Enrichment

	summary := [][]interface{}{
		{"Metric", "Value"},
		{"Generated", data.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Records Processed", data.RecordsProcessed},
		{"Total Revenue", s.TotalRevenue.InexactFloat64()},
		{"Total Transactions", s.RecordCount},
		{"Average Order Value", s.AverageOrderValue.InexactFloat64()},
		{"Catalog Status", string(data.CatalogStatus)},
		{"Records Matched", e.Matched},
		{"Enrichment Success Rate", e.SuccessRate.InexactFloat64()},
	}
	if s.RecordCount > 0 {
		summary = append(summary,
			[]interface{}{"First Date", s.FirstDate.Format(types.DateLayout)},
			[]interface{}{"Last Date", s.LastDate.Format(types.DateLayout)},
		)
	}
	if s.HasPeak {
		summary = append(summary, []interface{}{"Best Selling Day", s.Peak.Date.Format(types.DateLayout)})
	}

	regions := [][]interface{}{{"Region", "Sales", "% of Total", "Transactions", "Avg Transaction"}}
	for _, r := range s.Regions {
		regions = append(regions, []interface{}{
			r.Region, r.TotalSales.InexactFloat64(), r.Percentage.InexactFloat64(),
			r.TransactionCount, r.AverageTransaction.InexactFloat64(),
		})
	}

	products := [][]interface{}{{"Rank", "Product Name", "Qty Sold", "Revenue"}}
	for i, p := range s.TopProducts {
		products = append(products, []interface{}{i + 1, p.Name, p.Quantity, p.Revenue.InexactFloat64()})
	}

	customers := [][]interface{}{{"Customer ID", "Total Spent", "Order Count", "Avg Order Value", "Products"}}
	for _, c := range s.Customers {
		customers = append(customers, []interface{}{
			c.CustomerID, c.TotalSpent.InexactFloat64(), c.PurchaseCount,
			c.AvgOrderValue.InexactFloat64(), fmt.Sprint(c.Products),
		})
	}

	daily := [][]interface{}{{"Date", "Revenue", "Transactions", "Unique Customers"}}
	for _, d := range s.Daily {
		daily = append(daily, []interface{}{
			d.Date.Format(types.DateLayout), d.Revenue.InexactFloat64(), d.TransactionCount, d.UniqueCustomers,
		})
	}

	rows := [][]interface{}{{
		"TransactionID", "Date", "ProductID", "ProductName", "Quantity", "UnitPrice",
		"CustomerID", "Region", "API_Category", "API_Brand", "API_Rating", "API_Match",
	}}
	for _, r := range enriched {
		rows = append(rows, []interface{}{
			r.TransactionID, r.DateString(), r.ProductID, r.ProductName, r.Quantity,
			r.UnitPrice.InexactFloat64(), r.CustomerID, r.Region,
			cellString(r.APICategory), cellString(r.APIBrand), cellFloat(r.APIRating), r.APIMatch,
		})
	}

	sheets := []struct {
		name string
		rows [][]interface{}
	}{
		{SheetSummary, summary},
		{SheetRegions, regions},
		{SheetProducts, products},
		{SheetCustomers, customers},
		{SheetDaily, daily},
		{SheetEnriched, rows},
	}

	for i, sheet := range sheets {
		if i > 0 {
			if _, err := f.NewSheet(sheet.name); err != nil {
				return fmt.Errorf("failed to create sheet %s: %w", sheet.name, err)
			}
		}
		if err := writeRows(f, sheet.name, sheet.rows); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func cellString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func cellFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}
