// =============================================================================
// Sales Analytics - XML Report Export
// =============================================================================
//
// This file renders the report data as an XML document for systems that
// ingest structured summaries rather than the text report.
//
// XML STRUCTURE:
//   <salesReport generated="2024-12-05T10:00:00Z" recordsProcessed="7">
//     <summary>
//       <totalRevenue>142000.00</totalRevenue>
//       ...
//     </summary>
//     <regions>
//       <region n="1">                 <!-- Rank, best first -->
//         <name>North</name>
//         <sales>135000.00</sales>
//         ...
//       </region>
//     </regions>
//     <topProducts>...</topProducts>
//     <customers>...</customers>
//     <dailyTrend>...</dailyTrend>
//     <peakDay date="2024-12-01">...</peakDay>  <!-- Omitted without records -->
//     <lowPerformers>...</lowPerformers>
//     <enrichment status="loaded" matched="2" total="4">...</enrichment>
//   </salesReport>
//
// Monetary values and percentages carry exactly two decimals.
//
// =============================================================================

package report

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/ginjaninja78/sales-analytics/internal/types"
	"github.com/shopspring/decimal"
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// XMLOptions contains options for XML generation.
type XMLOptions struct {
	// Indent is the string used for indentation.
	// Default: "  " (two spaces)
	Indent string

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	// Default: true
	IncludeXMLDeclaration bool
}

// DefaultXMLOptions returns the default generation options.
func DefaultXMLOptions() XMLOptions {
	return XMLOptions{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
	}
}

// =============================================================================
// XML DOCUMENT STRUCTURE
// =============================================================================

type xmlReport struct {
	XMLName          xml.Name        `xml:"salesReport"`
	Generated        string          `xml:"generated,attr"`
	RecordsProcessed int             `xml:"recordsProcessed,attr"`
	Summary          xmlSummary      `xml:"summary"`
	Regions          []xmlRegion     `xml:"regions>region"`
	TopProducts      []xmlProduct    `xml:"topProducts>product"`
	Customers        []xmlCustomer   `xml:"customers>customer"`
	Daily            []xmlDay        `xml:"dailyTrend>day"`
	Peak             *xmlPeakDay     `xml:"peakDay,omitempty"`
	LowPerformers    []xmlLowProduct `xml:"lowPerformers>product"`
	Enrichment       xmlEnrichment   `xml:"enrichment"`
}

type xmlSummary struct {
	TotalRevenue      string `xml:"totalRevenue"`
	Transactions      int    `xml:"transactions"`
	AverageOrderValue string `xml:"averageOrderValue"`
	FirstDate         string `xml:"firstDate,omitempty"`
	LastDate          string `xml:"lastDate,omitempty"`
}

type xmlRegion struct {
	N                  int    `xml:"n,attr"`
	Name               string `xml:"name"`
	Sales              string `xml:"sales"`
	Percentage         string `xml:"percentage"`
	Transactions       int    `xml:"transactions"`
	AverageTransaction string `xml:"averageTransaction"`
}

type xmlProduct struct {
	N        int    `xml:"n,attr"`
	Name     string `xml:"name"`
	Quantity int    `xml:"quantity"`
	Revenue  string `xml:"revenue"`
}

type xmlCustomer struct {
	N             int      `xml:"n,attr"`
	ID            string   `xml:"id,attr"`
	TotalSpent    string   `xml:"totalSpent"`
	Orders        int      `xml:"orders"`
	AvgOrderValue string   `xml:"avgOrderValue"`
	Products      []string `xml:"products>product"`
}

type xmlDay struct {
	Date            string `xml:"date,attr"`
	Revenue         string `xml:"revenue"`
	Transactions    int    `xml:"transactions"`
	UniqueCustomers int    `xml:"uniqueCustomers"`
}

type xmlPeakDay struct {
	Date         string `xml:"date,attr"`
	Revenue      string `xml:"revenue"`
	Transactions int    `xml:"transactions"`
}

type xmlLowProduct struct {
	Quantity int    `xml:"quantity,attr"`
	Name     string `xml:",chardata"`
}

type xmlEnrichment struct {
	Status      string   `xml:"status,attr"`
	Matched     int      `xml:"matched,attr"`
	Total       int      `xml:"total,attr"`
	SuccessRate string   `xml:"successRate"`
	Enriched    []string `xml:"enriched>product"`
	NotEnriched []string `xml:"notEnriched>product"`
}

// =============================================================================
// XML GENERATION FUNCTIONS
// =============================================================================

// WriteXML renders the report data as XML with the default options.
func WriteXML(w io.Writer, data Data) error {
	return WriteXMLWithOptions(w, data, DefaultXMLOptions())
}

// WriteXMLWithOptions renders the report data as XML.
//
// PARAMETERS:
//   - w:       The destination.
//   - data:    The report data.
//   - options: The generation options.
//
// RETURNS:
//   - An error if marshalling or writing fails.
func WriteXMLWithOptions(w io.Writer, data Data, options XMLOptions) error {
	if options.IncludeXMLDeclaration {
		if _, err := io.WriteString(w, xml.Header); err != nil {
			return err
		}
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", options.Indent)
	if err := enc.Encode(buildXMLReport(data)); err != nil {
		return fmt.Errorf("failed to marshal XML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}

	_, err := io.WriteString(w, "\n")
	return err
}

// buildXMLReport maps the report data onto the document structure.
func buildXMLReport(data Data) xmlReport {
	s := data.Summary
	e := data.Enrichment

	doc := xmlReport{
		Generated:        data.GeneratedAt.Format(time.RFC3339),
		RecordsProcessed: data.RecordsProcessed,
		Summary: xmlSummary{
			TotalRevenue:      fixed(s.TotalRevenue),
			Transactions:      s.RecordCount,
			AverageOrderValue: fixed(s.AverageOrderValue),
		},
		Enrichment: xmlEnrichment{
			Status:      string(data.CatalogStatus),
			Matched:     e.Matched,
			Total:       e.Total,
			SuccessRate: fixed(e.SuccessRate),
			Enriched:    e.Enriched,
			NotEnriched: e.NotEnriched,
		},
	}

	if s.RecordCount > 0 {
		doc.Summary.FirstDate = s.FirstDate.Format(types.DateLayout)
		doc.Summary.LastDate = s.LastDate.Format(types.DateLayout)
	}

	for i, r := range s.Regions {
		doc.Regions = append(doc.Regions, xmlRegion{
			N:                  i + 1,
			Name:               r.Region,
			Sales:              fixed(r.TotalSales),
			Percentage:         fixed(r.Percentage),
			Transactions:       r.TransactionCount,
			AverageTransaction: fixed(r.AverageTransaction),
		})
	}

	for i, p := range s.TopProducts {
		doc.TopProducts = append(doc.TopProducts, xmlProduct{
			N: i + 1, Name: p.Name, Quantity: p.Quantity, Revenue: fixed(p.Revenue),
		})
	}

	for i, c := range s.Customers {
		doc.Customers = append(doc.Customers, xmlCustomer{
			N:             i + 1,
			ID:            c.CustomerID,
			TotalSpent:    fixed(c.TotalSpent),
			Orders:        c.PurchaseCount,
			AvgOrderValue: fixed(c.AvgOrderValue),
			Products:      c.Products,
		})
	}

	for _, d := range s.Daily {
		doc.Daily = append(doc.Daily, xmlDay{
			Date:            d.Date.Format(types.DateLayout),
			Revenue:         fixed(d.Revenue),
			Transactions:    d.TransactionCount,
			UniqueCustomers: d.UniqueCustomers,
		})
	}

	if s.HasPeak {
		doc.Peak = &xmlPeakDay{
			Date:         s.Peak.Date.Format(types.DateLayout),
			Revenue:      fixed(s.Peak.Revenue),
			Transactions: s.Peak.TransactionCount,
		}
	}

	for _, p := range s.LowPerformers {
		doc.LowPerformers = append(doc.LowPerformers, xmlLowProduct{Quantity: p.Quantity, Name: p.Name})
	}

	return doc
}

func fixed(d decimal.Decimal) string {
	return d.StringFixed(2)
}
