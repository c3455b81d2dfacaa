package entity

// OpportunityType classifies one cost-saving opportunity.
type OpportunityType string

const (
	OpportunityTripConsolidation OpportunityType = "trip_consolidation"
	OpportunityDuplicateVendor   OpportunityType = "duplicate_vendor"
	OpportunityVolumeNegotiation OpportunityType = "volume_negotiation"
	OpportunityPaymentTerms      OpportunityType = "payment_terms"
	OpportunityCategoryOverspend OpportunityType = "category_overspend"
)

// Priority ranks a recommendation.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Effort estimates how much work a recommendation takes.
type Effort string

const (
	EffortLow    Effort = "low"
	EffortMedium Effort = "medium"
	EffortHigh   Effort = "high"
)

// TopVendor is the model's read on one major vendor.
type TopVendor struct {
	Vendor       string  `json:"vendor" validate:"required"`
	Spend        float64 `json:"spend" validate:"gte=0"`
	Transactions int     `json:"transactions" validate:"gte=0"`
	Insight      string  `json:"insight"`
	Leverage     string  `json:"leverage"`
}

// Opportunity is one itemized cost-saving suggestion.
type Opportunity struct {
	Type             OpportunityType `json:"type" validate:"oneof=trip_consolidation duplicate_vendor volume_negotiation payment_terms category_overspend"`
	VendorOrCategory string          `json:"vendor_or_category" validate:"required"`
	Description      string          `json:"description"`
	EstimatedSavings float64         `json:"estimated_savings" validate:"gte=0"`
	Action           string          `json:"action"`
}

// Recommendation is one prioritized action item.
type Recommendation struct {
	Priority       Priority `json:"priority" validate:"oneof=high medium low"`
	Action         string   `json:"action" validate:"required"`
	ExpectedImpact string   `json:"expected_impact"`
	Effort         Effort   `json:"effort" validate:"oneof=low medium high"`
}

// VendorAnalysis is the full analysis payload. The first five fields are the
// exact JSON contract the LLM must satisfy; InputHash and Meta are attached by
// the coordinator before persistence and key cache reuse. Validate tags define
// what counts as a parseable payload: enum fields must be in-vocabulary and
// identifying strings non-empty, anything else is a parse failure for the
// provider that produced it.
type VendorAnalysis struct {
	TopVendors            []TopVendor      `json:"top_vendors" validate:"dive"`
	Opportunities         []Opportunity    `json:"opportunities" validate:"dive"`
	Recommendations       []Recommendation `json:"recommendations" validate:"dive"`
	KeyInsights           []string         `json:"key_insights"`
	TotalEstimatedSavings float64          `json:"total_estimated_savings" validate:"gte=0"`
	InputHash             string           `json:"input_hash,omitempty"`
	Meta                  *AggregateMeta   `json:"meta,omitempty"`
}
