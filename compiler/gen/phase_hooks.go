package gen

import (
	"context"
	"fmt"
	"strings"
)

// hooksPhase emits one data-access hook bundle per configured target
// framework, one hook per analyzed model.
type hooksPhase struct {
	phaseMeta
}

func newHooksPhase() *hooksPhase {
	return &hooksPhase{phaseMeta{name: "generate-hooks", order: 60}}
}

func (p *hooksPhase) ShouldExecute(*Context) bool { return true }

func (p *hooksPhase) Execute(_ context.Context, gctx *Context) (*PhaseResult, error) {
	models, err := analyzedModels(gctx, p.Name())
	if err != nil {
		return nil, err
	}
	for _, framework := range gctx.Config.Generation.HookFrameworks {
		for _, a := range models {
			name := exportedName(a.Model)
			var b strings.Builder
			fmt.Fprintf(&b, "// %s data hooks for %s\n", name, framework)
			fmt.Fprintf(&b, "export function use%s(id: string) {\n", name)
			fmt.Fprintf(&b, "  return useQuery([%q, id], () => sdk.%s.find(id));\n", snakeName(a.Model), lowerFirst(name))
			b.WriteString("}\n")
			fmt.Fprintf(&b, "export function use%s() {\n", pluralName(name))
			fmt.Fprintf(&b, "  return useQuery([%q], () => sdk.%s.findMany());\n", snakeName(pluralName(a.Model)), lowerFirst(name))
			b.WriteString("}\n")
			file := fmt.Sprintf("use_%s.%s.ts", snakeName(a.Model), framework)
			if err := gctx.Files.AddHookFile(framework, file, b.String()); err != nil {
				return nil, err
			}
		}
	}
	return Completed(), nil
}
