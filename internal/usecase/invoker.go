package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"fliptrack-intel/internal/domain/entity"
	"fliptrack-intel/internal/domain/repository"
	"fliptrack-intel/internal/pkg/jsonrepair"
)

// Invoker walks the ordered provider chain until one of them produces a
// parseable, schema-valid analysis. It owns output repair and validation so
// every provider is held to the same contract regardless of whether it
// supports structured output.
type Invoker struct {
	chain      []repository.Provider
	validate   *validator.Validate
	timeout    time.Duration // per provider attempt
	maxRetries int
	baseDelay  time.Duration
	log        *zap.Logger
}

func NewInvoker(chain []repository.Provider, timeout time.Duration, maxRetries int, log *zap.Logger) *Invoker {
	return &Invoker{
		chain:      chain,
		validate:   validator.New(),
		timeout:    timeout,
		maxRetries: maxRetries,
		baseDelay:  500 * time.Millisecond,
		log:        log,
	}
}

// Invoke returns the first valid analysis along with the name of the provider
// that produced it. Provider errors, malformed output and panics all collapse
// into a fall-through to the next provider; when the chain is exhausted the
// joined per-provider failures ride along for diagnostics.
func (inv *Invoker) Invoke(ctx context.Context, prompt string) (*entity.VendorAnalysis, string, error) {
	if len(inv.chain) == 0 {
		return nil, "", fmt.Errorf("%w: no providers configured", entity.ErrAnalysisUnavailable)
	}

	var failures []error
	for _, p := range inv.chain {
		text, err := inv.completeWithRetry(ctx, p, prompt)
		if err != nil {
			inv.log.Warn("provider call failed, falling through",
				zap.String("provider", p.Name()), zap.Error(err))
			failures = append(failures, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}

		analysis, err := inv.decode(text)
		if err != nil {
			inv.log.Warn("provider output rejected",
				zap.String("provider", p.Name()), zap.Error(err))
			failures = append(failures, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		return analysis, p.Name(), nil
	}
	return nil, "", fmt.Errorf("%w: %w", entity.ErrAnalysisUnavailable, errors.Join(failures...))
}

func (inv *Invoker) completeWithRetry(ctx context.Context, p repository.Provider, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= inv.maxRetries; attempt++ {
		text, err := inv.complete(ctx, p, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !isRetryable(err) || attempt == inv.maxRetries {
			break
		}
		select {
		case <-time.After(backoffDelay(inv.baseDelay, attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("%w: %w", entity.ErrProviderFailure, lastErr)
}

// complete runs one provider attempt under the per-attempt timeout. A panic
// inside a provider adapter is converted to an error: the chain must keep
// walking no matter how a provider misbehaves.
func (inv *Invoker) complete(ctx context.Context, p repository.Provider, prompt string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()

	callCtx := ctx
	if inv.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, inv.timeout)
		defer cancel()
	}
	return p.Complete(callCtx, prompt)
}

func (inv *Invoker) decode(text string) (*entity.VendorAnalysis, error) {
	raw, ok := jsonrepair.DecodeObject(text)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in model output", entity.ErrParseFailure)
	}

	var analysis entity.VendorAnalysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrParseFailure, err)
	}
	if err := inv.validate.Struct(&analysis); err != nil {
		return nil, fmt.Errorf("%w: schema violation: %v", entity.ErrParseFailure, err)
	}
	return &analysis, nil
}

// Rate limits and server errors are worth retrying; everything else fails the
// provider immediately.
func isRetryable(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "500") ||
		strings.Contains(msg, "503") ||
		strings.Contains(msg, "overloaded") ||
		strings.Contains(msg, "deadline")
}

func backoffDelay(base time.Duration, attempt int) time.Duration {
	backoff := float64(base) * float64(int(1)<<attempt)
	jitter := (rand.Float64() * 0.2) * backoff // 20% jitter
	return time.Duration(backoff + jitter)
}
