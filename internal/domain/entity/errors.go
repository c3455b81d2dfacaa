package entity

import "errors"

// Pipeline error taxonomy. Only ErrDataUnavailable and ErrAnalysisUnavailable
// surface to the caller; the rest degrade to warnings inside the pipeline.
var (
	// ErrDataUnavailable: the expense query itself failed. An empty result
	// set is a normal "no data yet" state, not this error.
	ErrDataUnavailable = errors.New("expense data unavailable")

	// ErrProviderFailure: a single LLM provider call failed (network, auth,
	// rate limit). Recovered by falling through to the next provider.
	ErrProviderFailure = errors.New("llm provider call failed")

	// ErrParseFailure: a provider answered but its output could not be
	// coerced to a valid analysis after all repairs. Treated like a
	// provider failure for that provider.
	ErrParseFailure = errors.New("llm output unparseable")

	// ErrAnalysisUnavailable: every provider in the chain failed. The
	// caller reports "analysis unavailable", never a partial result.
	ErrAnalysisUnavailable = errors.New("analysis unavailable: all providers exhausted")

	// ErrPersistenceFailure: an insight store write failed. Non-fatal to
	// the in-memory analysis.
	ErrPersistenceFailure = errors.New("insight store write failed")
)
