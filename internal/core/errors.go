package core

import (
	"fmt"
	"strings"
)

// ProducerFetchError records a single provider or source that failed during a
// refresh. It is recovered locally: the producer is skipped with a warning and
// never surfaced to the caller of Refresh.
type ProducerFetchError struct {
	Producer string
	Err      error
}

func (e *ProducerFetchError) Error() string {
	return fmt.Sprintf("producer %q fetch failed: %v", e.Producer, e.Err)
}

func (e *ProducerFetchError) Unwrap() error { return e.Err }

// NewProducerFetchError wraps a producer failure.
func NewProducerFetchError(producer string, err error) *ProducerFetchError {
	return &ProducerFetchError{Producer: producer, Err: err}
}

// AggregationConfigError is a structural misconfiguration that makes a refresh
// impossible (duplicate provider names, invalid override patterns). It is
// fatal to that refresh; the previous snapshot is retained.
type AggregationConfigError struct {
	Reason string
	Err    error
}

func (e *AggregationConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("aggregation config error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("aggregation config error: %s", e.Reason)
}

func (e *AggregationConfigError) Unwrap() error { return e.Err }

// NewAggregationConfigError creates a config error with the given reason.
func NewAggregationConfigError(reason string, err error) *AggregationConfigError {
	return &AggregationConfigError{Reason: reason, Err: err}
}

// NoCandidateModelError means automatic selection found zero entries after
// filtering. The rejected criteria are attached for diagnosis.
type NoCandidateModelError struct {
	Criteria Criteria
}

func (e *NoCandidateModelError) Error() string {
	var parts []string
	if len(e.Criteria.Required) > 0 {
		caps := e.Criteria.Required.List()
		strs := make([]string, len(caps))
		for i, c := range caps {
			strs[i] = string(c)
		}
		parts = append(parts, "required="+strings.Join(strs, ","))
	}
	if len(e.Criteria.Providers.Allow) > 0 {
		parts = append(parts, "allow="+strings.Join(e.Criteria.Providers.Allow, ","))
	}
	if len(e.Criteria.Providers.Deny) > 0 {
		parts = append(parts, "deny="+strings.Join(e.Criteria.Providers.Deny, ","))
	}
	if e.Criteria.MinContextWindow > 0 {
		parts = append(parts, fmt.Sprintf("min_context_window=%d", e.Criteria.MinContextWindow))
	}
	if len(parts) == 0 {
		return "no candidate model satisfies the selection criteria"
	}
	return "no candidate model satisfies the selection criteria (" + strings.Join(parts, " ") + ")"
}

// NewNoCandidateModelError creates a no-candidate failure carrying the criteria.
func NewNoCandidateModelError(criteria Criteria) *NoCandidateModelError {
	return &NoCandidateModelError{Criteria: criteria}
}

// UnknownModelError means an explicitly requested model id is not present in
// the current snapshot. There is no fallback to automatic selection.
type UnknownModelError struct {
	Model string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("unknown model %q", e.Model)
}

// NewUnknownModelError creates an unknown-model failure.
func NewUnknownModelError(model string) *UnknownModelError {
	return &UnknownModelError{Model: model}
}

// HookError means a selection hook failed. Selection never silently continues
// with un-hooked values.
type HookError struct {
	Hook  string
	Stage string // "before" or "after"
	Err   error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("%s-selection hook %q failed: %v", e.Stage, e.Hook, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }

// NewHookError wraps a hook failure.
func NewHookError(hook, stage string, err error) *HookError {
	return &HookError{Hook: hook, Stage: stage, Err: err}
}
