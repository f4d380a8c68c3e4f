package gen

import "context"

// Status is the lifecycle state of a phase within a run.
type Status int

// Phase statuses.
const (
	StatusPending Status = iota
	StatusRunning
	StatusCompleted
	StatusFailed
	StatusSkipped
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// PhaseResult is the outcome of one phase execution. Errors carries
// the diagnostics the phase produced without aborting; the pipeline
// merges them into the context, where each may still abort the run per
// the escalation policy.
type PhaseResult struct {
	Success bool
	Status  Status
	Errors  []*GenerationError
}

// Completed returns a successful result carrying any non-aborting
// diagnostics the phase produced.
func Completed(errs ...*GenerationError) *PhaseResult {
	return &PhaseResult{Success: true, Status: StatusCompleted, Errors: errs}
}

// Failed returns a failed result carrying the phase's diagnostics.
func Failed(errs ...*GenerationError) *PhaseResult {
	return &PhaseResult{Success: false, Status: StatusFailed, Errors: errs}
}

// Phase is a named, ordered unit of pipeline work operating on the
// shared context. Phases communicate only through typed state: the
// analysis cache, the files builder and the error collector.
type Phase interface {
	// Name identifies the phase in logs, snapshots and failures.
	Name() string
	// Order positions the phase in the run; lower runs first.
	Order() int
	// ShouldExecute is the phase guard. A false return skips the
	// phase entirely: no snapshot, no rollback participation.
	ShouldExecute(*Context) bool
	// Execute performs the phase work. It may return a PhaseResult
	// with collected errors, or terminate early with an error
	// (an *AbortError raised via Context.AddError, or an unexpected
	// failure).
	Execute(ctx context.Context, gctx *Context) (*PhaseResult, error)
}

// Rollbacker is the optional custom-rollback capability of a phase,
// detected by type assertion. Phases without it are rolled back by
// restoring their pre-execution snapshot.
type Rollbacker interface {
	Rollback(*Context) error
}

// phaseMeta provides Name and Order for the built-in phases.
type phaseMeta struct {
	name  string
	order int
}

func (m phaseMeta) Name() string { return m.name }
func (m phaseMeta) Order() int   { return m.order }
