package gen

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/stencilkit/stencil/plugin"
)

// pluginsPhase drives the narrow plugin contract: validate every
// registered plugin, then merge each plugin's generated files into the
// plugins layer under a plugin-scoped bucket, without interpreting the
// content. Under strict plugin validation an invalid plugin raises a
// generation-blocking error; shipping a broken integration silently is
// not an option there.
type pluginsPhase struct {
	phaseMeta
	registry *plugin.Registry
}

func newPluginsPhase(registry *plugin.Registry) *pluginsPhase {
	return &pluginsPhase{
		phaseMeta: phaseMeta{name: "generate-plugins", order: 70},
		registry:  registry,
	}
}

func (p *pluginsPhase) ShouldExecute(gctx *Context) bool {
	return len(gctx.Config.Features) > 0 && p.registry != nil && p.registry.Len() > 0
}

func (p *pluginsPhase) Execute(_ context.Context, gctx *Context) (*PhaseResult, error) {
	results := p.registry.ValidateAll()
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	invalid := make(map[string]bool)
	for _, name := range names {
		res := results[name]
		if res.Valid {
			continue
		}
		invalid[name] = true
		msg := fmt.Sprintf("plugin %q failed validation: %s", name, strings.Join(res.Problems, "; "))
		gerr := &GenerationError{
			Severity: SeverityError,
			Message:  msg,
			Phase:    p.Name(),
		}
		if !gctx.Config.ErrorHandling.StrictPluginValidation {
			gerr.Severity = SeverityWarning
		} else {
			gerr.BlocksGeneration = true
		}
		// Added directly so a strict-mode failure aborts before any
		// plugin output is merged.
		if aerr := gctx.AddError(gerr); aerr != nil {
			return nil, aerr
		}
	}

	outputs, err := p.registry.GenerateAll()
	if err != nil {
		gerr := &GenerationError{
			Severity: SeverityError,
			Message:  fmt.Sprintf("plugin generation failed: %v", err),
			Phase:    p.Name(),
		}
		if aerr := gctx.AddError(gerr); aerr != nil {
			return nil, aerr
		}
		return Failed(gerr), nil
	}
	for _, name := range names {
		out, ok := outputs[name]
		if !ok || invalid[name] {
			continue
		}
		for file, content := range out.Files {
			if err := gctx.Files.AddFile(LayerPlugins, path.Join(name, file), content); err != nil {
				return nil, err
			}
		}
	}
	return Completed(), nil
}
