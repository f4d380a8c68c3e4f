package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrConfigConflict indicates mutually exclusive configuration options.
	ErrConfigConflict = errors.New("stencil: conflicting configuration")
	// ErrMissingProductionField indicates incomplete production metadata.
	ErrMissingProductionField = errors.New("stencil: missing production field")
	// ErrAborted indicates a run aborted mid-phase by the escalation policy.
	ErrAborted = errors.New("stencil: generation aborted")
	// ErrPhaseFailed indicates a phase failure that stopped the pipeline.
	ErrPhaseFailed = errors.New("stencil: phase failed")
	// ErrBlocked indicates blocking errors found in the final sweep.
	ErrBlocked = errors.New("stencil: generation blocked")
	// ErrAnalysisMissing indicates a cache read for an unanalyzed model.
	ErrAnalysisMissing = errors.New("stencil: analysis missing")
)

// Severity classifies a GenerationError.
type Severity int

// Severity levels, ordered from least to most severe. Validation ranks
// highest: it means the output itself would be invalid.
const (
	SeverityWarning Severity = iota
	SeverityError
	SeverityFatal
	SeverityValidation
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	case SeverityValidation:
		return "validation"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// GenerationError is one diagnostic produced during a run. Instances
// are immutable once created: they are appended to the collector and
// never mutated or removed.
type GenerationError struct {
	Severity Severity
	Message  string
	// Model is the model the error relates to, if any.
	Model string
	// Phase is the phase that produced the error, if known.
	Phase string
	// BlocksGeneration forces blocking treatment regardless of severity.
	BlocksGeneration bool
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("stencil: [")
	b.WriteString(e.Severity.String())
	b.WriteString("] ")
	b.WriteString(e.Message)
	if e.Model != "" {
		fmt.Fprintf(&b, " (model: %s)", e.Model)
	}
	if e.Phase != "" {
		fmt.Fprintf(&b, " (phase: %s)", e.Phase)
	}
	return b.String()
}

// NewWarning creates a warning-level GenerationError.
func NewWarning(message string) *GenerationError {
	return &GenerationError{Severity: SeverityWarning, Message: message}
}

// NewError creates an error-level GenerationError.
func NewError(message string) *GenerationError {
	return &GenerationError{Severity: SeverityError, Message: message}
}

// NewFatal creates a fatal-level GenerationError.
func NewFatal(message string) *GenerationError {
	return &GenerationError{Severity: SeverityFatal, Message: message}
}

// NewValidation creates a validation-level GenerationError.
func NewValidation(message string) *GenerationError {
	return &GenerationError{Severity: SeverityValidation, Message: message}
}

// ConfigConflictError reports two options that cannot both be set.
type ConfigConflictError struct {
	OptionA string
	OptionB string
}

// Error implements the error interface.
func (e *ConfigConflictError) Error() string {
	return fmt.Sprintf("stencil: config conflict: %q and %q cannot both be enabled", e.OptionA, e.OptionB)
}

// Is reports whether the target matches the sentinel error for ConfigConflictError.
func (e *ConfigConflictError) Is(target error) bool {
	return target == ErrConfigConflict
}

// NewConfigConflictError creates a new ConfigConflictError.
func NewConfigConflictError(a, b string) *ConfigConflictError {
	return &ConfigConflictError{OptionA: a, OptionB: b}
}

// MissingProductionFieldError reports metadata a production run requires.
type MissingProductionFieldError struct {
	Field string
}

// Error implements the error interface.
func (e *MissingProductionFieldError) Error() string {
	return fmt.Sprintf("stencil: production run requires metadata field %q", e.Field)
}

// Is reports whether the target matches the sentinel error for MissingProductionFieldError.
func (e *MissingProductionFieldError) Is(target error) bool {
	return target == ErrMissingProductionField
}

// NewMissingProductionFieldError creates a new MissingProductionFieldError.
func NewMissingProductionFieldError(field string) *MissingProductionFieldError {
	return &MissingProductionFieldError{Field: field}
}

// AbortError is raised by Context.AddError when the escalation policy
// decides an error must stop the run mid-phase. Phase bodies must
// propagate it unchanged so the pipeline can attribute and roll back.
type AbortError struct {
	// Err is the generation error that triggered the abort.
	Err *GenerationError
}

// Error implements the error interface.
func (e *AbortError) Error() string {
	return fmt.Sprintf("stencil: generation aborted: %s", e.Err.Error())
}

// Unwrap returns the triggering generation error.
func (e *AbortError) Unwrap() error {
	return e.Err
}

// Is reports whether the target matches the sentinel error for AbortError.
func (e *AbortError) Is(target error) bool {
	return target == ErrAborted
}

// NewAbortError creates a new AbortError.
func NewAbortError(err *GenerationError) *AbortError {
	return &AbortError{Err: err}
}

// PhaseFailureError names the phase that stopped the pipeline. Err
// holds the triggering generation error when one is known; Cause holds
// a wrapped unexpected failure.
type PhaseFailureError struct {
	Phase string
	Err   *GenerationError
	Cause error
}

// Error implements the error interface.
func (e *PhaseFailureError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "stencil: phase %q failed", e.Phase)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the wrapped cause, or the generation error if there
// is no separate cause.
func (e *PhaseFailureError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	if e.Err != nil {
		return e.Err
	}
	return nil
}

// Is reports whether the target matches the sentinel error for PhaseFailureError.
func (e *PhaseFailureError) Is(target error) bool {
	return target == ErrPhaseFailed
}

// NewPhaseFailureError creates a new PhaseFailureError.
func NewPhaseFailureError(phase string, genErr *GenerationError, cause error) *PhaseFailureError {
	return &PhaseFailureError{Phase: phase, Err: genErr, Cause: cause}
}

// BlockedError summarizes every blocking error found by the final
// sweep after all phases completed. Callers needing the complete
// diagnostic list should read the context's collector instead of
// parsing this message.
type BlockedError struct {
	Errors []*GenerationError
}

// Error implements the error interface.
func (e *BlockedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "stencil: generation blocked by %d error(s):", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&b, "\n  [%d] %s", i+1, err.Error())
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for BlockedError.
func (e *BlockedError) Is(target error) bool {
	return target == ErrBlocked
}

// NewBlockedError creates a new BlockedError.
func NewBlockedError(errs []*GenerationError) *BlockedError {
	return &BlockedError{Errors: errs}
}

// IsConfigConflict reports whether the error is a ConfigConflictError.
func IsConfigConflict(err error) bool {
	var e *ConfigConflictError
	return errors.As(err, &e)
}

// IsMissingProductionField reports whether the error is a MissingProductionFieldError.
func IsMissingProductionField(err error) bool {
	var e *MissingProductionFieldError
	return errors.As(err, &e)
}

// IsAbort reports whether the error is an AbortError.
func IsAbort(err error) bool {
	var e *AbortError
	return errors.As(err, &e)
}

// IsPhaseFailure reports whether the error is a PhaseFailureError.
func IsPhaseFailure(err error) bool {
	var e *PhaseFailureError
	return errors.As(err, &e)
}

// IsBlocked reports whether the error is a BlockedError.
func IsBlocked(err error) bool {
	var e *BlockedError
	return errors.As(err, &e)
}
