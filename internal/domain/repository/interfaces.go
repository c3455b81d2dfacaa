package repository

import (
	"context"

	"fliptrack-intel/internal/domain/entity"
)

// ExpenseSource is the read-only query capability over the expense ledger.
// Implementations must exclude rows with a NULL amount.
type ExpenseSource interface {
	FetchAll(ctx context.Context) ([]entity.ExpenseRecord, error)
}

// InsightStore persists immutable analysis records.
type InsightStore interface {
	// EnsureSchema creates the record structure if absent. Idempotent and
	// never destructive; safe to call on every process start.
	EnsureSchema(ctx context.Context) error

	// Insert appends a record. Records are never updated or deleted.
	Insert(ctx context.Context, rec *entity.InsightRecord) error

	// Latest returns the most recent record of the given type, or
	// (nil, nil) when none exists. A broken persisted payload also reads
	// as (nil, nil) so generation can proceed; only a failing query
	// returns an error.
	Latest(ctx context.Context, insightType string) (*entity.InsightRecord, error)
}

// Provider is one LLM backend able to complete a prompt into raw text.
// Implementations report failures as errors, never panics; output repair and
// schema validation happen in the invoker, not here.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// UsageTracker records LLM-spend telemetry. Purely observational: it never
// gates the pipeline, and implementations should make failures cheap to
// ignore (warn and continue).
type UsageTracker interface {
	Record(ctx context.Context, event string) error
	Snapshot(ctx context.Context) (entity.UsageSnapshot, error)
}
