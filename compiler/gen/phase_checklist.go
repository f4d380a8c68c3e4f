package gen

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// checklistPhase writes a markdown status report of the run. The guard
// re-checks the no-critical-errors condition at execution time: a
// checklist must never present an all-green dashboard for a build that
// already recorded error- or fatal-level diagnostics.
type checklistPhase struct {
	phaseMeta
}

func newChecklistPhase() *checklistPhase {
	return &checklistPhase{phaseMeta{name: "generate-checklist", order: 90}}
}

func (p *checklistPhase) ShouldExecute(gctx *Context) bool {
	return gctx.Config.Generation.Checklist && !gctx.Errors.HasCritical()
}

func (p *checklistPhase) Execute(_ context.Context, gctx *Context) (*PhaseResult, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# Generation checklist: %s\n\n", gctx.Config.Metadata.ProjectName)
	fmt.Fprintf(&b, "- Framework: %s\n", gctx.Config.Framework)
	fmt.Fprintf(&b, "- Models analyzed: %d\n", gctx.Cache.AnalysisCount())
	fmt.Fprintf(&b, "- Files generated: %d\n", gctx.Files.FileCount())
	summary := gctx.Errors.Summary()
	fmt.Fprintf(&b, "- Warnings: %d\n\n", summary.Warning)

	b.WriteString("## Generated layers\n\n")
	var layers []string
	for _, layer := range layerOrder {
		if n := len(gctx.Files.Layer(layer)); n > 0 {
			layers = append(layers, fmt.Sprintf("- [x] %s (%d files)", layer, n))
		}
	}
	sort.Strings(layers)
	b.WriteString(strings.Join(layers, "\n"))
	b.WriteString("\n")

	if len(gctx.Config.Generation.HookFrameworks) > 0 {
		b.WriteString("\n## Hooks\n\n")
		for _, fw := range gctx.Config.Generation.HookFrameworks {
			fmt.Fprintf(&b, "- [x] %s (%d files)\n", fw, len(gctx.Files.HookFiles(fw)))
		}
	}

	if err := gctx.Files.AddFile(LayerChecklist, "CHECKLIST.md", b.String()); err != nil {
		return nil, err
	}
	return Completed(), nil
}
