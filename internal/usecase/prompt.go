package usecase

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"fliptrack-intel/internal/domain/entity"
)

// jsonShape is the response contract rendered into every prompt. Enum fields
// carry their full vocabulary inline so the model cannot invent values.
const jsonShape = `{
  "top_vendors": [
    {
      "vendor": "",
      "spend": 0,
      "transactions": 0,
      "insight": "",
      "leverage": ""
    }
  ],
  "opportunities": [
    {
      "type": "trip_consolidation|duplicate_vendor|volume_negotiation|payment_terms|category_overspend",
      "vendor_or_category": "",
      "description": "",
      "estimated_savings": 0,
      "action": ""
    }
  ],
  "recommendations": [
    {
      "priority": "high|medium|low",
      "action": "",
      "expected_impact": "$X-$Y saved",
      "effort": "low|medium|high"
    }
  ],
  "key_insights": ["", "", ""],
  "total_estimated_savings": 0
}`

// Comma-grouped dollar figures read better in the headline than raw floats.
var grandTotalPrinter = message.NewPrinter(language.English)

// BuildPrompt renders the truncated aggregates into the model instruction.
// Pure string construction. The slices arrive already sorted and truncated,
// so the prompt and the cache fingerprint always describe the same data.
func BuildPrompt(vendors []entity.VendorSummary, categories []entity.CategorySummary, highFreq []entity.HighFrequencyVendor, meta entity.AggregateMeta, clientName string) string {
	var b strings.Builder
	b.WriteString("You are a construction procurement consultant for a house-flip / rentals business.\n")
	b.WriteString("Return ONLY valid JSON. No markdown. No commentary.\n\n")

	if name := strings.TrimSpace(clientName); name != "" {
		fmt.Fprintf(&b, "Client: %s\n", name)
	}
	fmt.Fprintf(&b, "Projects: %d\n", meta.ProjectCount)
	grandTotalPrinter.Fprintf(&b, "Total spend: $%.0f\n", meta.GrandTotal)
	fmt.Fprintf(&b, "Date range: %s to %s\n", dateOrNA(meta.EarliestDate), dateOrNA(meta.LatestDate))

	b.WriteString("\nVENDOR SUMMARY (top):\n")
	writeVendorTable(&b, vendors)
	b.WriteString("\nCATEGORY SUMMARY (top):\n")
	writeCategoryTable(&b, categories)
	b.WriteString("\nHIGH-FREQUENCY VENDORS:\n")
	writeHighFreqTable(&b, highFreq)

	b.WriteString("\nValid expense categories: ")
	b.WriteString(strings.Join(entity.ExpenseCategories, ", "))
	b.WriteString("\n\nReturn this JSON shape exactly:\n")
	b.WriteString(jsonShape)
	b.WriteString("\n")
	return b.String()
}

func writeVendorTable(b *strings.Builder, vendors []entity.VendorSummary) {
	if len(vendors) == 0 {
		b.WriteString("(none)\n")
		return
	}
	fmt.Fprintf(b, "%-32s %14s %18s %16s\n", "vendor", "total_spend", "transaction_count", "avg_transaction")
	for _, v := range vendors {
		fmt.Fprintf(b, "%-32s %14s %18d %16s\n", displayName(v.Vendor), money(v.TotalSpend), v.Transactions, money(v.AvgTransaction))
	}
}

func writeCategoryTable(b *strings.Builder, categories []entity.CategorySummary) {
	if len(categories) == 0 {
		b.WriteString("(none)\n")
		return
	}
	fmt.Fprintf(b, "%-32s %14s %18s\n", "category", "total_spend", "transaction_count")
	for _, c := range categories {
		fmt.Fprintf(b, "%-32s %14s %18d\n", displayName(c.Category), money(c.TotalSpend), c.Transactions)
	}
}

func writeHighFreqTable(b *strings.Builder, highFreq []entity.HighFrequencyVendor) {
	if len(highFreq) == 0 {
		b.WriteString("(none)\n")
		return
	}
	fmt.Fprintf(b, "%-32s %18s %14s\n", "vendor", "transaction_count", "total_spend")
	for _, h := range highFreq {
		fmt.Fprintf(b, "%-32s %18d %14s\n", displayName(h.Vendor), h.Transactions, money(h.TotalSpend))
	}
}

// displayName keeps table rows readable when the source row had no name. The
// placeholder is cosmetic: hashing always sees the raw value.
func displayName(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(unknown)"
	}
	return s
}

func dateOrNA(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return "n/a"
	}
	return *s
}
