package entity

import "time"

// ExpenseRecord is one row of the expense ledger, read-only to this service.
// Rows with a NULL amount are filtered out by the source query; a missing
// vendor or category arrives as the empty string and groups on its own.
type ExpenseRecord struct {
	Vendor    string
	Category  string
	Amount    float64
	ProjectID string
	Date      time.Time
}

// VendorSummary is the per-vendor spend rollup for one aggregation pass.
// Derived data: recomputed on every pass, never persisted on its own.
type VendorSummary struct {
	Vendor         string  `json:"vendor"`
	TotalSpend     float64 `json:"total_spend"`
	Transactions   int     `json:"transaction_count"`
	AvgTransaction float64 `json:"avg_transaction"`
}

// CategorySummary is the per-category spend rollup.
type CategorySummary struct {
	Category     string  `json:"category"`
	TotalSpend   float64 `json:"total_spend"`
	Transactions int     `json:"transaction_count"`
}

// HighFrequencyVendor marks a vendor with repeated purchases (>= 3
// transactions). Used as a cache-input signal and prompt context only.
type HighFrequencyVendor struct {
	Vendor       string  `json:"vendor"`
	Transactions int     `json:"transaction_count"`
	TotalSpend   float64 `json:"total_spend"`
}

// AggregateMeta describes the whole record set behind one aggregation pass.
// Dates are YYYY-MM-DD strings, nil when no records exist.
type AggregateMeta struct {
	GrandTotal   float64 `json:"grand_total"`
	ProjectCount int     `json:"project_count"`
	EarliestDate *string `json:"earliest_date"`
	LatestDate   *string `json:"latest_date"`
}

// SpendProfile bundles everything one aggregation pass produces.
type SpendProfile struct {
	Vendors    []VendorSummary
	Categories []CategorySummary
	HighFreq   []HighFrequencyVendor
	Meta       AggregateMeta
}

// Empty reports the "no data yet" terminal state: nothing to analyze,
// not an error.
func (p SpendProfile) Empty() bool {
	return len(p.Vendors) == 0
}

// ExpenseCategories is the fixed rehab category vocabulary the product uses.
// Aggregation is category-agnostic; the list constrains the LLM prompt so the
// model cannot invent categories.
var ExpenseCategories = []string{
	"Acquisition", "Closing Costs", "Demo", "Cleanup", "Site Work",
	"Permits & Inspections", "Plans & Engineering", "Foundation",
	"Concrete", "Framing", "Plumbing", "Electrical", "HVAC",
	"Roofing", "Siding", "Windows & Doors", "Drywall", "Painting",
	"Flooring", "Cabinets & Countertops", "Appliances", "Landscaping",
	"Utilities", "Materials", "Professional Services", "Other",
}
