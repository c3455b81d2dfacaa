package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"fliptrack-intel/internal/domain/entity"
	"fliptrack-intel/internal/domain/repository"
)

// Usage event names recorded per pipeline outcome.
const (
	eventCacheHit      = "cache_hit"
	eventCacheMiss     = "cache_miss"
	eventGenerated     = "generated"
	eventLLMExhausted  = "llm_exhausted"
	eventPersistFailed = "persist_failed"
)

// OrchestratorConfig carries the prompt truncation limits and the client
// identity line. Zero limits fall back to the standard 15/10 split.
type OrchestratorConfig struct {
	TopVendors    int
	TopCategories int
	ClientName    string
}

// Orchestrator runs the vendor-intelligence pipeline: aggregate, fingerprint,
// reuse the stored analysis when the fingerprint matches, otherwise generate,
// normalize and persist a fresh one.
type Orchestrator struct {
	expenses repository.ExpenseSource
	insights repository.InsightStore
	usage    repository.UsageTracker
	invoker  *Invoker
	cfg      OrchestratorConfig
	log      *zap.Logger

	schemaOnce sync.Once
}

func NewOrchestrator(expenses repository.ExpenseSource, insights repository.InsightStore, usage repository.UsageTracker, invoker *Invoker, cfg OrchestratorConfig, log *zap.Logger) *Orchestrator {
	if cfg.TopVendors <= 0 {
		cfg.TopVendors = 15
	}
	if cfg.TopCategories <= 0 {
		cfg.TopCategories = 10
	}
	return &Orchestrator{
		expenses: expenses,
		insights: insights,
		usage:    usage,
		invoker:  invoker,
		cfg:      cfg,
		log:      log,
	}
}

// GetOrGenerate produces the current vendor analysis. A (nil, nil) return
// means there is no expense data to analyze, which is a normal state for a
// fresh install, not an error.
func (o *Orchestrator) GetOrGenerate(ctx context.Context, forceRefresh bool) (*entity.AnalysisResult, error) {
	// 1. Aggregate. An unreachable expense store is fatal to this call.
	profile, err := Aggregate(ctx, o.expenses)
	if err != nil {
		return nil, err
	}
	if profile.Empty() {
		o.log.Info("no expense data to analyze")
		return nil, nil
	}

	// 2. Truncate once. The prompt and the fingerprint must see the exact
	// same slices or cache keys drift away from what the model was shown.
	vendors := head(profile.Vendors, o.cfg.TopVendors)
	categories := head(profile.Categories, o.cfg.TopCategories)
	highFreq := profile.HighFreq

	hash := Fingerprint(vendors, categories, highFreq, profile.Meta)

	o.ensureSchema(ctx)

	// 3. Cache lookup keyed on the input fingerprint.
	if !forceRefresh {
		if cached := o.lookupCached(ctx, hash); cached != nil {
			o.recordUsage(ctx, eventCacheHit)
			o.log.Info("reusing stored analysis", zap.String("insight_id", cached.InsightID))
			return cached.Result(true), nil
		}
	}
	o.recordUsage(ctx, eventCacheMiss)

	// 4. Generate through the provider chain.
	prompt := BuildPrompt(vendors, categories, highFreq, profile.Meta, o.cfg.ClientName)
	analysis, provider, err := o.invoker.Invoke(ctx, prompt)
	if err != nil {
		o.recordUsage(ctx, eventLLMExhausted)
		return nil, err
	}

	// 5. Attach the fingerprint and aggregate metadata, then normalize.
	meta := profile.Meta
	analysis.InputHash = hash
	analysis.Meta = &meta
	NormalizeTotals(analysis)

	// 6. Persist. Failure downgrades to a warning: the caller still gets
	// the freshly generated analysis.
	now := time.Now().UTC()
	record := &entity.InsightRecord{
		InsightID:        entity.NewInsightID(now),
		InsightType:      entity.InsightTypeVendorIntelligence,
		GeneratedAt:      now,
		Analysis:         analysis,
		Recommendations:  analysis.Recommendations,
		EstimatedSavings: analysis.TotalEstimatedSavings,
	}
	if err := o.insights.Insert(ctx, record); err != nil {
		o.recordUsage(ctx, eventPersistFailed)
		o.log.Warn("analysis generated but not persisted", zap.Error(err))
	}
	o.recordUsage(ctx, eventGenerated+":"+provider)
	o.log.Info("generated fresh analysis",
		zap.String("insight_id", record.InsightID),
		zap.String("provider", provider),
		zap.Float64("estimated_savings", record.EstimatedSavings))

	return record.Result(false), nil
}

// Latest returns the newest stored analysis without touching any provider.
// (nil, nil) means nothing has been generated yet; read failures degrade to
// the same outcome so a broken store never breaks the dashboard.
func (o *Orchestrator) Latest(ctx context.Context) (*entity.AnalysisResult, error) {
	o.ensureSchema(ctx)

	record, err := o.insights.Latest(ctx, entity.InsightTypeVendorIntelligence)
	if err != nil {
		o.log.Warn("insight lookup failed, reporting none", zap.Error(err))
		return nil, nil
	}
	if record == nil {
		return nil, nil
	}
	return record.Result(true), nil
}

// lookupCached returns the stored record only when its fingerprint matches
// the current inputs. Read failures degrade to a cache miss.
func (o *Orchestrator) lookupCached(ctx context.Context, hash string) *entity.InsightRecord {
	record, err := o.insights.Latest(ctx, entity.InsightTypeVendorIntelligence)
	if err != nil {
		o.log.Warn("cache lookup failed, regenerating", zap.Error(err))
		return nil
	}
	if record == nil || record.Analysis == nil {
		return nil
	}
	if strings.TrimSpace(record.Analysis.InputHash) != hash {
		return nil
	}
	return record
}

func (o *Orchestrator) ensureSchema(ctx context.Context) {
	o.schemaOnce.Do(func() {
		if err := o.insights.EnsureSchema(ctx); err != nil {
			o.log.Warn("insight schema check failed", zap.Error(err))
		}
	})
}

func (o *Orchestrator) recordUsage(ctx context.Context, event string) {
	if o.usage == nil {
		return
	}
	if err := o.usage.Record(ctx, event); err != nil {
		o.log.Debug("usage telemetry dropped", zap.String("event", event), zap.Error(err))
	}
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
