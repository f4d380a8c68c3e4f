package gen

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// The split-mode layer phases emit one artifact per analyzed model per
// layer: DTO contracts (with validators), services, controllers and
// route bindings. Registry mode replaces all four with a single
// consolidated registry artifact; the pipeline assembler guarantees
// the two sets are mutually exclusive.

// analyzedModels returns the cache entries for every expected model in
// schema order. Reaching an unanalyzed model here means the phase
// ordering contract was broken, which is fatal.
func analyzedModels(gctx *Context, phase string) ([]*ModelAnalysis, error) {
	names := gctx.Cache.ExpectedModels(gctx.Schema)
	out := make([]*ModelAnalysis, 0, len(names))
	for _, name := range names {
		a, err := gctx.Cache.Analysis(name)
		if err != nil {
			if aerr := gctx.AddError(&GenerationError{
				Severity: SeverityFatal,
				Message:  err.Error(),
				Model:    name,
				Phase:    phase,
			}); aerr != nil {
				return nil, aerr
			}
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

type dtoPhase struct {
	phaseMeta
}

func newDTOPhase() *dtoPhase {
	return &dtoPhase{phaseMeta{name: "generate-dtos", order: 40}}
}

func (p *dtoPhase) ShouldExecute(gctx *Context) bool {
	return !gctx.Config.UseRegistry
}

func (p *dtoPhase) Execute(_ context.Context, gctx *Context) (*PhaseResult, error) {
	models, err := analyzedModels(gctx, p.Name())
	if err != nil {
		return nil, err
	}
	for _, a := range models {
		m, _ := gctx.Schema.Model(a.Model)
		name := exportedName(a.Model)
		var b strings.Builder
		fmt.Fprintf(&b, "export interface %sDTO {\n", name)
		for _, f := range m.Scalars() {
			opt := ""
			if f.Optional {
				opt = "?"
			}
			fmt.Fprintf(&b, "  %s%s: %s;\n", f.Name, opt, dtoType(f.Type, f.List))
		}
		if gctx.Config.UseEnhanced {
			// Enhanced contracts carry server-managed audit fields.
			b.WriteString("  createdAt: string;\n")
			b.WriteString("  updatedAt: string;\n")
		}
		b.WriteString("}\n")
		if err := gctx.Files.AddFile(LayerContracts, snakeName(a.Model)+".dto.ts", b.String()); err != nil {
			return nil, err
		}

		var v strings.Builder
		fmt.Fprintf(&v, "export const %sSchema = schema({\n", lowerFirst(name))
		for _, f := range m.Scalars() {
			rule := dtoType(f.Type, f.List)
			if f.Optional {
				rule += ".optional()"
			}
			fmt.Fprintf(&v, "  %s: %s,\n", f.Name, rule)
		}
		v.WriteString("});\n")
		if err := gctx.Files.AddFile(LayerValidators, snakeName(a.Model)+".schema.ts", v.String()); err != nil {
			return nil, err
		}
	}
	return Completed(), nil
}

type servicePhase struct {
	phaseMeta
}

func newServicePhase() *servicePhase {
	return &servicePhase{phaseMeta{name: "generate-services", order: 41}}
}

func (p *servicePhase) ShouldExecute(gctx *Context) bool {
	return !gctx.Config.UseRegistry
}

func (p *servicePhase) Execute(_ context.Context, gctx *Context) (*PhaseResult, error) {
	models, err := analyzedModels(gctx, p.Name())
	if err != nil {
		return nil, err
	}
	for _, a := range models {
		svc, serr := gctx.Cache.Service(a.Model)
		if serr != nil {
			if aerr := gctx.AddError(&GenerationError{
				Severity: SeverityFatal,
				Message:  serr.Error(),
				Model:    a.Model,
				Phase:    p.Name(),
			}); aerr != nil {
				return nil, aerr
			}
			continue
		}
		var b strings.Builder
		fmt.Fprintf(&b, "export class %s {\n", svc.Service)
		for _, method := range svc.Methods {
			fmt.Fprintf(&b, "  async %s(...args: unknown[]) { return this.repo.%s(...args); }\n", lowerFirst(method), lowerFirst(method))
		}
		b.WriteString("}\n")
		if err := gctx.Files.AddFile(LayerServices, snakeName(a.Model)+".service.ts", b.String()); err != nil {
			return nil, err
		}
	}
	return Completed(), nil
}

type controllerPhase struct {
	phaseMeta
}

func newControllerPhase() *controllerPhase {
	return &controllerPhase{phaseMeta{name: "generate-controllers", order: 42}}
}

func (p *controllerPhase) ShouldExecute(gctx *Context) bool {
	return !gctx.Config.UseRegistry
}

func (p *controllerPhase) Execute(_ context.Context, gctx *Context) (*PhaseResult, error) {
	models, err := analyzedModels(gctx, p.Name())
	if err != nil {
		return nil, err
	}
	for _, a := range models {
		name := exportedName(a.Model)
		var b strings.Builder
		fmt.Fprintf(&b, "// %s controller for %s\n", name, gctx.Config.Framework)
		fmt.Fprintf(&b, "export class %sController {\n", name)
		for _, op := range a.Operations {
			fmt.Fprintf(&b, "  %s = handler(this.service, %q);\n", op, op)
		}
		b.WriteString("}\n")
		if err := gctx.Files.AddFile(LayerControllers, snakeName(a.Model)+".controller.ts", b.String()); err != nil {
			return nil, err
		}
	}
	return Completed(), nil
}

type routePhase struct {
	phaseMeta
}

func newRoutePhase() *routePhase {
	return &routePhase{phaseMeta{name: "generate-routes", order: 43}}
}

func (p *routePhase) ShouldExecute(gctx *Context) bool {
	return !gctx.Config.UseRegistry
}

func (p *routePhase) Execute(_ context.Context, gctx *Context) (*PhaseResult, error) {
	models, err := analyzedModels(gctx, p.Name())
	if err != nil {
		return nil, err
	}
	for _, a := range models {
		name := exportedName(a.Model)
		path := routePath(a.Model)
		var b strings.Builder
		fmt.Fprintf(&b, "router.post(%q, %sController.create);\n", path, lowerFirst(name))
		fmt.Fprintf(&b, "router.get(%q, %sController.findMany);\n", path, lowerFirst(name))
		fmt.Fprintf(&b, "router.get(%q, %sController.findOne);\n", path+"/:id", lowerFirst(name))
		fmt.Fprintf(&b, "router.patch(%q, %sController.update);\n", path+"/:id", lowerFirst(name))
		fmt.Fprintf(&b, "router.delete(%q, %sController.delete);\n", path+"/:id", lowerFirst(name))
		if err := gctx.Files.AddFile(LayerRoutes, snakeName(a.Model)+".routes.ts", b.String()); err != nil {
			return nil, err
		}
	}
	return Completed(), nil
}

// registryPhase emits the single consolidated CRUD registry artifact
// used instead of per-model service/controller/route files.
type registryPhase struct {
	phaseMeta
}

func newRegistryPhase() *registryPhase {
	return &registryPhase{phaseMeta{name: "generate-registry", order: 45}}
}

func (p *registryPhase) ShouldExecute(gctx *Context) bool {
	return gctx.Config.UseRegistry
}

func (p *registryPhase) Execute(_ context.Context, gctx *Context) (*PhaseResult, error) {
	models, err := analyzedModels(gctx, p.Name())
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString("export const registry = {\n")
	for _, a := range models {
		ops := make([]string, len(a.Operations))
		for i, op := range a.Operations {
			ops[i] = strconv.Quote(op)
		}
		sort.Strings(ops)
		fmt.Fprintf(&b, "  %s: { path: %q, operations: [%s] },\n",
			lowerFirst(exportedName(a.Model)), routePath(a.Model), strings.Join(ops, ", "))
	}
	b.WriteString("};\n")
	if err := gctx.Files.AddFile(LayerRegistry, "registry.ts", b.String()); err != nil {
		return nil, err
	}
	return Completed(), nil
}

// dtoType maps a schema scalar type to its contract type.
func dtoType(t string, list bool) string {
	var out string
	switch strings.ToLower(t) {
	case "int", "float", "decimal", "bigint":
		out = "number"
	case "bool", "boolean":
		out = "boolean"
	case "datetime", "date":
		out = "string"
	case "json":
		out = "Record<string, unknown>"
	default:
		out = "string"
	}
	if list {
		out += "[]"
	}
	return out
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
