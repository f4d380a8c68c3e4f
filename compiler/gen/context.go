package gen

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/stencilkit/stencil/compiler/load"
)

// Snapshot is a named, immutable point-in-time copy of the files
// aggregate, captured immediately before the phase it is named after
// executed. All snapshots of a run coexist until the run ends.
type Snapshot struct {
	Phase   string
	TakenAt time.Time
	data    []byte
}

// Context is the shared state passed to every phase: configuration,
// schema, error collector, analysis cache, files builder and the
// snapshot store. It is exclusively owned by one in-flight Execute
// call; the sequential pipeline guarantee makes locking unnecessary.
type Context struct {
	Config *Config
	Schema *load.Schema
	Errors *Collector
	Cache  *AnalysisCache
	Files  *FilesBuilder

	policy    Policy
	snapshots map[string]*Snapshot
	log       zerolog.Logger
}

// NewContext creates the shared context for one run.
func NewContext(cfg *Config, schema *load.Schema) *Context {
	return &Context{
		Config:    cfg,
		Schema:    schema,
		Errors:    NewCollector(),
		Cache:     NewAnalysisCache(),
		Files:     NewFilesBuilder(),
		snapshots: make(map[string]*Snapshot),
		log:       cfg.Logger(),
	}
}

// Logger returns the run logger.
func (c *Context) Logger() zerolog.Logger {
	return c.log
}

// Policy returns the escalation policy shared by every abort decision.
func (c *Context) Policy() Policy {
	return c.policy
}

// AddError appends the error to the collector, then consults the
// escalation policy. If the policy says the run must stop, AddError
// returns an *AbortError carrying the triggering error; phase bodies
// must propagate it unchanged. A nil return means the error was merely
// collected.
func (c *Context) AddError(err *GenerationError) error {
	c.Errors.Add(err)
	if c.policy.ShouldAbort(err, c.Config) {
		return NewAbortError(err)
	}
	return nil
}

// CreateSnapshot captures the full current files aggregate under the
// given phase name.
func (c *Context) CreateSnapshot(phase string) error {
	data, err := c.Files.snapshot()
	if err != nil {
		return err
	}
	c.snapshots[phase] = &Snapshot{Phase: phase, TakenAt: time.Now(), data: data}
	return nil
}

// HasSnapshot reports whether a snapshot exists for the phase.
func (c *Context) HasSnapshot(phase string) bool {
	_, ok := c.snapshots[phase]
	return ok
}

// RollbackToSnapshot restores the files aggregate to exactly the state
// captured for the phase. Whole-state overwrite, not a diff. A missing
// snapshot is logged as a no-op warning and is never an error.
func (c *Context) RollbackToSnapshot(phase string) error {
	snap, ok := c.snapshots[phase]
	if !ok {
		c.log.Warn().Str("phase", phase).Msg("no snapshot to roll back to")
		return nil
	}
	if err := c.Files.restore(snap.data); err != nil {
		return err
	}
	c.log.Info().Str("phase", phase).Msg("rolled back files to pre-phase snapshot")
	return nil
}
