// =============================================================================
// Sales Analytics - Enrichment Join
// =============================================================================
//
// This module decorates accepted records with product catalog data.
//
// JOIN RULES:
//   - The key is the numeric part of ProductID: one prefix letter followed by
//     digits only ("P101" -> 101). Anything else cannot match.
//   - Exactly one EnrichedRecord per input record, in input order.
//   - A miss is a normal outcome: nil catalog fields and APIMatch=false.
//   - A nil or empty catalog is valid; every record then misses.
//
// =============================================================================

package enrichment

import (
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/ginjaninja78/sales-analytics/internal/types"
	"github.com/shopspring/decimal"
)

// ExtractNumericID returns the numeric suffix of a product id.
// The boolean is false when the id is not a letter followed by digits.
func ExtractNumericID(productID string) (int, bool) {
	prefix, size := utf8.DecodeRuneInString(productID)
	if size == 0 || !unicode.IsLetter(prefix) {
		return 0, false
	}

	digits := productID[size:]
	if digits == "" {
		return 0, false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, false
		}
	}

	id, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Enrich decorates a single record.
func Enrich(record types.TransactionRecord, catalog types.Catalog) types.EnrichedRecord {
	enriched := types.EnrichedRecord{TransactionRecord: record}

	id, ok := ExtractNumericID(record.ProductID)
	if !ok {
		return enriched
	}
	entry, found := catalog[id]
	if !found {
		return enriched
	}

	enriched.APICategory = entry.Category
	enriched.APIBrand = entry.Brand
	enriched.APIRating = entry.Rating
	enriched.APIMatch = true
	return enriched
}

// Join enriches every record against the catalog.
func Join(records []types.TransactionRecord, catalog types.Catalog) []types.EnrichedRecord {
	enriched := make([]types.EnrichedRecord, len(records))
	for i, record := range records {
		enriched[i] = Enrich(record, catalog)
	}
	return enriched
}

// =============================================================================
// STATISTICS
// =============================================================================

// Stats summarizes how well a join went.
type Stats struct {
	Total   int
	Matched int

	// SuccessRate is Matched / Total * 100, 0 for an empty join.
	SuccessRate decimal.Decimal

	// Enriched and NotEnriched list distinct product names in first-encounter
	// order. A name can appear in both when only some of its ids matched.
	Enriched    []string
	NotEnriched []string
}

// Summarize computes join statistics.
func Summarize(enriched []types.EnrichedRecord) Stats {
	stats := Stats{Total: len(enriched), SuccessRate: decimal.Zero}
	seenHit := make(map[string]bool)
	seenMiss := make(map[string]bool)

	for _, r := range enriched {
		if r.APIMatch {
			stats.Matched++
			if !seenHit[r.ProductName] {
				seenHit[r.ProductName] = true
				stats.Enriched = append(stats.Enriched, r.ProductName)
			}
			continue
		}
		if !seenMiss[r.ProductName] {
			seenMiss[r.ProductName] = true
			stats.NotEnriched = append(stats.NotEnriched, r.ProductName)
		}
	}

	if stats.Total > 0 {
		stats.SuccessRate = decimal.NewFromInt(int64(stats.Matched)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(stats.Total))).
			Round(2)
	}
	return stats
}
