package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InsightTypeVendorIntelligence is the discriminator for records written by
// this pipeline. Other analysis types may share the table later.
const InsightTypeVendorIntelligence = "vendor_intelligence"

// InsightRecord is one immutable, timestamped analysis run. Records are only
// ever appended; reads always want the newest one.
type InsightRecord struct {
	InsightID        string
	InsightType      string
	GeneratedAt      time.Time
	Analysis         *VendorAnalysis
	Recommendations  []Recommendation
	EstimatedSavings float64
}

// NewInsightID builds a time-derived record ID. The UUID fragment keeps IDs
// unique when two processes generate within the same second (the accepted
// concurrent-generation race).
func NewInsightID(now time.Time) string {
	return fmt.Sprintf("VENDOR-%s-%s", now.UTC().Format("20060102-150405"), uuid.NewString()[:8])
}

// AnalysisResult is the payload handed to the presentation layer.
type AnalysisResult struct {
	InsightID        string           `json:"insight_id,omitempty"`
	GeneratedAt      time.Time        `json:"generated_at"`
	VendorAnalysis   *VendorAnalysis  `json:"vendor_analysis"`
	Opportunities    []Opportunity    `json:"opportunities"`
	Recommendations  []Recommendation `json:"recommendations"`
	EstimatedSavings float64          `json:"estimated_savings"`
	Cached           bool             `json:"cached"`
}

// Result flattens a stored record into the presentation payload. cached marks
// whether the record came from the reuse path rather than a fresh generation.
func (r *InsightRecord) Result(cached bool) *AnalysisResult {
	res := &AnalysisResult{
		InsightID:        r.InsightID,
		GeneratedAt:      r.GeneratedAt,
		VendorAnalysis:   r.Analysis,
		Recommendations:  r.Recommendations,
		EstimatedSavings: r.EstimatedSavings,
		Cached:           cached,
	}
	if r.Analysis != nil {
		res.Opportunities = r.Analysis.Opportunities
	}
	return res
}

// UsageSnapshot is one day of LLM-spend telemetry counters.
type UsageSnapshot struct {
	Day      string           `json:"day"`
	Counters map[string]int64 `json:"counters"`
}
