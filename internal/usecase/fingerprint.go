package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"fliptrack-intel/internal/domain/entity"
)

// Fingerprint computes the cache key for one analysis input: a SHA-256 over
// the canonical JSON form of exactly the aggregates the prompt will see.
// Canonical form means sorted object keys (encoding/json sorts map keys),
// compact output, money rendered as fixed two-decimal strings, and trimmed
// text. Any change to this encoding invalidates every cached analysis, so
// extend the payload only deliberately.
func Fingerprint(vendors []entity.VendorSummary, categories []entity.CategorySummary, highFreq []entity.HighFrequencyVendor, meta entity.AggregateMeta) string {
	payload := map[string]any{
		"meta": map[string]any{
			"grand_total":   money(meta.GrandTotal),
			"project_count": meta.ProjectCount,
			"earliest_date": trimmedOrNil(meta.EarliestDate),
			"latest_date":   trimmedOrNil(meta.LatestDate),
		},
		"vendors":    vendorPayload(vendors),
		"categories": categoryPayload(categories),
		"high_freq":  highFreqPayload(highFreq),
	}
	// Marshal of plain strings, ints and nils cannot fail.
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func vendorPayload(vendors []entity.VendorSummary) []map[string]any {
	out := make([]map[string]any, 0, len(vendors))
	for _, v := range vendors {
		out = append(out, map[string]any{
			"vendor":            strings.TrimSpace(v.Vendor),
			"total_spend":       money(v.TotalSpend),
			"transaction_count": v.Transactions,
			"avg_transaction":   money(v.AvgTransaction),
		})
	}
	return out
}

func categoryPayload(categories []entity.CategorySummary) []map[string]any {
	out := make([]map[string]any, 0, len(categories))
	for _, c := range categories {
		out = append(out, map[string]any{
			"category":          strings.TrimSpace(c.Category),
			"total_spend":       money(c.TotalSpend),
			"transaction_count": c.Transactions,
		})
	}
	return out
}

func highFreqPayload(highFreq []entity.HighFrequencyVendor) []map[string]any {
	out := make([]map[string]any, 0, len(highFreq))
	for _, h := range highFreq {
		out = append(out, map[string]any{
			"vendor":            strings.TrimSpace(h.Vendor),
			"transaction_count": h.Transactions,
			"total_spend":       money(h.TotalSpend),
		})
	}
	return out
}

// money renders a float amount as a fixed two-decimal string so the hash
// never sees float formatting artifacts.
func money(v float64) string {
	return decimal.NewFromFloat(v).Round(2).StringFixed(2)
}

func trimmedOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return strings.TrimSpace(*s)
}
