package gen

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stencilkit/stencil/compiler/load"
	"github.com/stencilkit/stencil/plugin"
)

// Pipeline is the canonical orchestrator: it assembles the phase list
// from the configuration, executes the phases strictly sequentially
// with snapshot/rollback around each, and produces the finalized
// artifact or a typed failure. There is exactly one run loop; modes
// change the phase set, never the loop.
type Pipeline struct {
	cfg      *Config
	schema   *load.Schema
	gctx     *Context
	phases   []Phase
	statuses map[string]Status
	plugins  *plugin.Registry
	log      zerolog.Logger
}

// NewPipeline creates a pipeline for one run over the given schema.
func NewPipeline(cfg *Config, schema *load.Schema) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		schema:   schema,
		gctx:     NewContext(cfg, schema),
		statuses: make(map[string]Status),
		log:      cfg.Logger(),
	}
}

// WithPlugins attaches the plugin registry consumed by the plugin
// generation phase.
func (p *Pipeline) WithPlugins(registry *plugin.Registry) *Pipeline {
	p.plugins = registry
	return p
}

// Context returns the shared generation context. Callers that received
// a failure from Run use it to access the full diagnostic list instead
// of parsing the error message.
func (p *Pipeline) Context() *Context {
	return p.gctx
}

// Statuses returns the recorded status of every assembled phase.
func (p *Pipeline) Statuses() map[string]Status {
	out := make(map[string]Status, len(p.statuses))
	for name, s := range p.statuses {
		out[name] = s
	}
	return out
}

// buildPhases assembles the phase list for the configured mode.
// Registry mode includes exactly one consolidated registry phase; the
// split mode includes the DTO/service/controller/route quartet. The
// two sets are mutually exclusive by construction.
func (p *Pipeline) buildPhases() []Phase {
	phases := []Phase{
		newValidatePhase(),
		newNamingPhase(),
		newAnalyzePhase(),
	}
	if p.cfg.UseRegistry {
		phases = append(phases, newRegistryPhase())
	} else {
		phases = append(phases,
			newDTOPhase(),
			newServicePhase(),
			newControllerPhase(),
			newRoutePhase(),
		)
	}
	phases = append(phases, newSDKPhase(), newHooksPhase())
	if len(p.cfg.Features) > 0 {
		phases = append(phases, newPluginsPhase(p.plugins))
	}
	if p.cfg.Generation.Checklist {
		phases = append(phases, newChecklistPhase())
	}
	sort.SliceStable(phases, func(i, j int) bool {
		return phases[i].Order() < phases[j].Order()
	})
	return phases
}

// Run executes the pipeline and returns the finalized artifact.
//
// Phases run strictly sequentially; a phase's guard is not evaluated
// until the previous phase fully completed, because later phases read
// state written by earlier ones. There is no timeout or cancellation
// beyond what ctx carries into phase bodies: a hung phase hangs the
// run. Known gap, kept deliberately visible.
//
// On failure Run returns one typed error (*PhaseFailureError or
// *BlockedError); the complete diagnostic list stays available via
// Context().Errors.
func (p *Pipeline) Run(ctx context.Context) (*GeneratedFiles, error) {
	if p.phases == nil {
		p.phases = p.buildPhases()
	}
	for _, ph := range p.phases {
		p.statuses[ph.Name()] = StatusPending
	}

	for _, ph := range p.phases {
		if !ph.ShouldExecute(p.gctx) {
			p.statuses[ph.Name()] = StatusSkipped
			p.log.Info().Str("phase", ph.Name()).Msg("phase skipped")
			continue
		}
		if err := p.gctx.CreateSnapshot(ph.Name()); err != nil {
			return nil, NewPhaseFailureError(ph.Name(), nil, err)
		}
		p.statuses[ph.Name()] = StatusRunning
		p.log.Info().Str("phase", ph.Name()).Msg("phase started")

		result, err := ph.Execute(ctx, p.gctx)
		if err != nil {
			p.statuses[ph.Name()] = StatusFailed
			p.rollback(ph)
			var abort *AbortError
			if errors.As(err, &abort) {
				return nil, NewPhaseFailureError(ph.Name(), abort.Err, err)
			}
			return nil, NewPhaseFailureError(ph.Name(), nil, err)
		}

		var blocking *GenerationError
		if result != nil {
			for _, gerr := range result.Errors {
				if aerr := p.gctx.AddError(gerr); aerr != nil {
					p.statuses[ph.Name()] = StatusFailed
					p.rollback(ph)
					return nil, NewPhaseFailureError(ph.Name(), gerr, aerr)
				}
				if blocking == nil && p.gctx.Policy().IsBlocking(gerr) {
					blocking = gerr
				}
			}
			if !result.Success && blocking != nil {
				p.statuses[ph.Name()] = StatusFailed
				p.rollback(ph)
				return nil, NewPhaseFailureError(ph.Name(), blocking, nil)
			}
		}
		p.statuses[ph.Name()] = StatusCompleted
		p.log.Info().Str("phase", ph.Name()).Msg("phase completed")
	}

	// Final sweep over the whole accumulated list: warnings-only phases
	// may individually pass while the combination still blocks.
	if blocking := p.gctx.Errors.Blocking(p.gctx.Policy()); len(blocking) > 0 {
		return nil, NewBlockedError(blocking)
	}

	files, err := p.gctx.Files.Build(&RunSummary{
		RunID:   uuid.NewString(),
		Project: p.cfg.Metadata.ProjectName,
		Counts:  p.gctx.Errors.Summary(),
	})
	if err != nil {
		return nil, err
	}
	p.log.Info().
		Int("files", len(files.Layers)).
		Int("warnings", files.Summary.Counts.Warning).
		Str("run", files.Summary.RunID).
		Msg("generation complete")
	return files, nil
}

// rollback undoes a failed phase's effects: the phase's own Rollback
// when it provides one, otherwise a whole-state restore of its
// pre-execution snapshot. Rollback failures are logged only; cleanup
// must not mask the original failure.
func (p *Pipeline) rollback(ph Phase) {
	var err error
	if rb, ok := ph.(Rollbacker); ok {
		err = rb.Rollback(p.gctx)
	} else {
		err = p.gctx.RollbackToSnapshot(ph.Name())
	}
	if err != nil {
		p.log.Warn().Err(err).Str("phase", ph.Name()).Msg("rollback failed")
	}
}
