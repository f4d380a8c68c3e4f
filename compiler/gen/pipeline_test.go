package gen

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stencilkit/stencil/compiler/load"
	"github.com/stencilkit/stencil/plugin"
)

// fakePhase drives the run loop mechanics in tests.
type fakePhase struct {
	phaseMeta
	guard   bool
	execute func(*Context) (*PhaseResult, error)

	executed   bool
	rolledBack bool
}

func (f *fakePhase) ShouldExecute(*Context) bool { return f.guard }

func (f *fakePhase) Execute(_ context.Context, gctx *Context) (*PhaseResult, error) {
	f.executed = true
	if f.execute == nil {
		return Completed(), nil
	}
	return f.execute(gctx)
}

// fakeRollbackPhase adds the optional custom-rollback capability.
type fakeRollbackPhase struct {
	fakePhase
}

func (f *fakeRollbackPhase) Rollback(*Context) error {
	f.rolledBack = true
	return nil
}

type fakePlugin struct {
	name     string
	valid    bool
	problems []string
	files    map[string]string
}

func (p *fakePlugin) Name() string { return p.name }

func (p *fakePlugin) Validate() plugin.ValidationResult {
	return plugin.ValidationResult{Valid: p.valid, Problems: p.problems}
}

func (p *fakePlugin) Generate() (*plugin.Output, error) {
	return &plugin.Output{Files: p.files}, nil
}

func TestBuildPhasesModeExclusivity(t *testing.T) {
	names := func(p *Pipeline) []string {
		var out []string
		for _, ph := range p.buildPhases() {
			out = append(out, ph.Name())
		}
		return out
	}

	t.Run("split mode", func(t *testing.T) {
		cfg := testConfig(&RawConfig{})
		got := names(NewPipeline(cfg, basicSchema()))
		assert.Contains(t, got, "generate-dtos")
		assert.Contains(t, got, "generate-services")
		assert.Contains(t, got, "generate-controllers")
		assert.Contains(t, got, "generate-routes")
		assert.NotContains(t, got, "generate-registry")
	})

	t.Run("registry mode", func(t *testing.T) {
		cfg := testConfig(&RawConfig{UseRegistry: true})
		got := names(NewPipeline(cfg, basicSchema()))
		assert.NotContains(t, got, "generate-dtos")
		assert.NotContains(t, got, "generate-services")
		assert.NotContains(t, got, "generate-controllers")
		assert.NotContains(t, got, "generate-routes")
		registries := 0
		for _, n := range got {
			if n == "generate-registry" {
				registries++
			}
		}
		assert.Equal(t, 1, registries)
	})

	t.Run("ordered by order field", func(t *testing.T) {
		cfg := testConfig(&RawConfig{})
		phases := NewPipeline(cfg, basicSchema()).buildPhases()
		for i := 1; i < len(phases); i++ {
			assert.LessOrEqual(t, phases[i-1].Order(), phases[i].Order())
		}
	})
}

func TestRunSuccess(t *testing.T) {
	cfg := testConfig(&RawConfig{ErrorHandling: RawErrorHandling{ContinueOnError: true}})
	p := NewPipeline(cfg, basicSchema())

	files, err := p.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, files)

	for _, layer := range []Layer{LayerContracts, LayerValidators, LayerServices, LayerControllers, LayerRoutes, LayerSDK, LayerChecklist} {
		assert.NotEmpty(t, files.Layers[layer], "layer %s", layer)
	}
	assert.Empty(t, files.Layers[LayerRegistry])
	assert.NotEmpty(t, files.Hooks["react"])
	assert.NotEmpty(t, files.Summary.RunID)
	assert.Equal(t, 0, files.Summary.Counts.Error)
}

func TestRunRegistryMode(t *testing.T) {
	cfg := testConfig(&RawConfig{UseRegistry: true, ErrorHandling: RawErrorHandling{ContinueOnError: true}})
	files, err := NewPipeline(cfg, basicSchema()).Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, files.Layers[LayerRegistry])
	assert.Empty(t, files.Layers[LayerServices])
	assert.Empty(t, files.Layers[LayerControllers])
	assert.Empty(t, files.Layers[LayerRoutes])
	assert.NotEmpty(t, files.Layers[LayerSDK])
}

// Scenario A: one warning under continueOnError completes with an
// artifact and a warning-only summary.
func TestRunWithWarningCompletes(t *testing.T) {
	schema := basicSchema()
	// A model without an id field draws a validate-phase warning.
	schema.Models = append(schema.Models, &load.Model{
		Name:   "Note",
		Fields: []*load.Field{scalar("text", "string")},
	})
	cfg := testConfig(&RawConfig{ErrorHandling: RawErrorHandling{ContinueOnError: true}})
	p := NewPipeline(cfg, schema)

	files, err := p.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, files)
	assert.Equal(t, 1, files.Summary.Counts.Warning)
	assert.Equal(t, 0, files.Summary.Counts.Error)
}

// Scenario B: an error under failFast aborts immediately and no later
// phase executes.
func TestRunFailFastAborts(t *testing.T) {
	schema := basicSchema()
	schema.Models = append(schema.Models, &load.Model{Name: "Empty"})
	cfg := testConfig(&RawConfig{ErrorHandling: RawErrorHandling{FailFast: true}})
	p := NewPipeline(cfg, schema)

	files, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, files)
	assert.True(t, IsPhaseFailure(err))
	assert.Contains(t, err.Error(), "validate-schema")

	statuses := p.Statuses()
	assert.Equal(t, StatusFailed, statuses["validate-schema"])
	assert.Equal(t, StatusPending, statuses["naming-conflicts"])
	assert.Equal(t, StatusPending, statuses["analyze-models"])
}

// Scenario C: a failing plugin under strict validation emits a
// generation-blocking error; the checklist phase never executes.
func TestRunStrictPluginValidationBlocks(t *testing.T) {
	registry := plugin.NewRegistry()
	require.NoError(t, registry.Register(&fakePlugin{
		name:     "auth",
		valid:    false,
		problems: []string{"missing client secret"},
	}))

	cfg := testConfig(&RawConfig{
		ErrorHandling: RawErrorHandling{ContinueOnError: true, StrictPluginValidation: true},
		Features:      map[string]Features{"auth": {"provider": "oidc"}},
	})
	p := NewPipeline(cfg, basicSchema()).WithPlugins(registry)

	files, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, files)
	assert.True(t, IsPhaseFailure(err))
	assert.Contains(t, err.Error(), "generate-plugins")

	statuses := p.Statuses()
	assert.Equal(t, StatusFailed, statuses["generate-plugins"])
	assert.Equal(t, StatusPending, statuses["generate-checklist"])

	var failure *PhaseFailureError
	require.True(t, errors.As(err, &failure))
	require.NotNil(t, failure.Err)
	assert.True(t, failure.Err.BlocksGeneration)
}

// The same invalid plugin under lax validation only warns; the run
// completes and the plugin's files are not merged.
func TestRunLaxPluginValidationWarns(t *testing.T) {
	registry := plugin.NewRegistry()
	require.NoError(t, registry.Register(&fakePlugin{
		name:     "auth",
		valid:    false,
		problems: []string{"missing client secret"},
	}))
	require.NoError(t, registry.Register(&fakePlugin{
		name:  "payments",
		valid: true,
		files: map[string]string{"stripe.ts": "export {};"},
	}))

	cfg := testConfig(&RawConfig{
		ErrorHandling: RawErrorHandling{ContinueOnError: true},
		Features:      map[string]Features{"auth": {}, "payments": {}},
	})
	p := NewPipeline(cfg, basicSchema()).WithPlugins(registry)

	files, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, files.Summary.Counts.Warning)
	assert.Contains(t, files.Layers[LayerPlugins], "payments/stripe.ts")
	assert.NotContains(t, files.Layers[LayerPlugins], "auth/auth.ts")
}

// Scenario D: a ten-model schema with three junction models analyzes
// exactly seven models and leaves nothing missing.
func TestRunJunctionExclusion(t *testing.T) {
	cfg := testConfig(&RawConfig{ErrorHandling: RawErrorHandling{ContinueOnError: true}})
	p := NewPipeline(cfg, wideSchema())

	files, err := p.Run(context.Background())
	require.NoError(t, err)

	gctx := p.Context()
	assert.Equal(t, 7, gctx.Cache.AnalysisCount())
	assert.Equal(t, gctx.Cache.ExpectedCount(gctx.Schema), gctx.Cache.AnalysisCount())
	assert.Empty(t, gctx.Cache.MissingAnalysis(gctx.Schema))

	// Junction models get no artifacts in any per-model layer.
	assert.NotContains(t, files.Layers[LayerContracts], "user_group.dto.ts")
	assert.Len(t, files.Layers[LayerSDK], 7)
}

func TestRunSkippedPhaseGetsNoSnapshot(t *testing.T) {
	cfg := testConfig(&RawConfig{ErrorHandling: RawErrorHandling{ContinueOnError: true}})
	p := NewPipeline(cfg, basicSchema())
	skipped := &fakePhase{phaseMeta: phaseMeta{name: "never-runs", order: 1}, guard: false}
	ran := &fakePhase{phaseMeta: phaseMeta{name: "runs", order: 2}, guard: true}
	p.phases = []Phase{skipped, ran}

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, skipped.executed)
	assert.Equal(t, StatusSkipped, p.Statuses()["never-runs"])
	assert.False(t, p.Context().HasSnapshot("never-runs"))
	assert.True(t, p.Context().HasSnapshot("runs"))
}

func TestRunRollbackRestoresFiles(t *testing.T) {
	cfg := testConfig(&RawConfig{ErrorHandling: RawErrorHandling{ContinueOnError: true}})
	p := NewPipeline(cfg, basicSchema())

	first := &fakePhase{phaseMeta: phaseMeta{name: "first", order: 1}, guard: true,
		execute: func(gctx *Context) (*PhaseResult, error) {
			require.NoError(t, gctx.Files.AddFile(LayerContracts, "keep.ts", "kept"))
			return Completed(), nil
		}}
	failing := &fakePhase{phaseMeta: phaseMeta{name: "failing", order: 2}, guard: true,
		execute: func(gctx *Context) (*PhaseResult, error) {
			require.NoError(t, gctx.Files.AddFile(LayerContracts, "drop.ts", "dropped"))
			return Failed(NewFatal("phase broke")), nil
		}}
	p.phases = []Phase{first, failing}

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, IsPhaseFailure(err))

	// The aggregate after rollback equals the pre-phase snapshot.
	got := p.Context().Files.Layer(LayerContracts)
	assert.Equal(t, map[string]string{"keep.ts": "kept"}, got)
}

func TestRunCustomRollbackPreferred(t *testing.T) {
	cfg := testConfig(&RawConfig{ErrorHandling: RawErrorHandling{ContinueOnError: true}})
	p := NewPipeline(cfg, basicSchema())

	custom := &fakeRollbackPhase{fakePhase{
		phaseMeta: phaseMeta{name: "custom", order: 1},
		guard:     true,
		execute: func(gctx *Context) (*PhaseResult, error) {
			require.NoError(t, gctx.Files.AddFile(LayerContracts, "half.ts", "partial"))
			return Failed(NewFatal("broke")), nil
		},
	}}
	p.phases = []Phase{custom}

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, custom.rolledBack)
	// Custom rollback replaces the snapshot restore entirely.
	assert.Equal(t, "partial", p.Context().Files.Layer(LayerContracts)["half.ts"])
}

func TestRunUnexpectedErrorIsWrapped(t *testing.T) {
	cfg := testConfig(&RawConfig{ErrorHandling: RawErrorHandling{ContinueOnError: true}})
	p := NewPipeline(cfg, basicSchema())

	boom := errors.New("unexpected io failure")
	failing := &fakePhase{phaseMeta: phaseMeta{name: "explodes", order: 1}, guard: true,
		execute: func(gctx *Context) (*PhaseResult, error) {
			require.NoError(t, gctx.Files.AddFile(LayerContracts, "half.ts", "partial"))
			return nil, boom
		}}
	p.phases = []Phase{failing}

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, IsPhaseFailure(err))
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "explodes")
	// Rollback ran before re-raising.
	assert.Empty(t, p.Context().Files.Layer(LayerContracts))
}

// Warnings-only phases can pass individually while a flagged error
// still blocks the run in the final sweep.
func TestRunFinalSweepBlocks(t *testing.T) {
	cfg := testConfig(&RawConfig{ErrorHandling: RawErrorHandling{ContinueOnError: true}})
	p := NewPipeline(cfg, basicSchema())

	flagged := NewWarning("soft but flagged")
	flagged.BlocksGeneration = true
	quiet := &fakePhase{phaseMeta: phaseMeta{name: "quiet", order: 1}, guard: true,
		execute: func(gctx *Context) (*PhaseResult, error) {
			// Success result: no per-phase blocking check fires.
			gctx.Errors.Add(flagged)
			return Completed(), nil
		}}
	p.phases = []Phase{quiet}

	files, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, files)
	assert.True(t, IsBlocked(err))
	assert.Contains(t, err.Error(), "soft but flagged")
}

func TestChecklistSkippedAfterCriticalError(t *testing.T) {
	cfg := testConfig(&RawConfig{ErrorHandling: RawErrorHandling{ContinueOnError: true}})
	schema := basicSchema()
	p := NewPipeline(cfg, schema)

	// Record a collected (non-aborting) error before the run; the
	// checklist guard must then refuse to execute.
	require.NoError(t, p.Context().AddError(NewError("already broken")))

	_, err := p.Run(context.Background())
	// The collected error blocks nothing, so the run completes...
	require.NoError(t, err)
	// ...but the checklist phase was skipped.
	assert.Equal(t, StatusSkipped, p.Statuses()["generate-checklist"])
}
