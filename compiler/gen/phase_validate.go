package gen

import (
	"context"
	"fmt"
	"strings"
)

// validatePhase checks the parsed schema is generatable at all: an
// empty schema is a validation failure (the output would be an empty
// artifact), a model without fields is an error, a model without an id
// field only warns because registry mode can synthesize one.
type validatePhase struct {
	phaseMeta
}

func newValidatePhase() *validatePhase {
	return &validatePhase{phaseMeta{name: "validate-schema", order: 10}}
}

func (p *validatePhase) ShouldExecute(*Context) bool { return true }

func (p *validatePhase) Execute(_ context.Context, gctx *Context) (*PhaseResult, error) {
	if len(gctx.Schema.Models) == 0 {
		err := NewValidation("schema contains no models")
		err.Phase = p.Name()
		return Failed(err), nil
	}
	var errs []*GenerationError
	for _, m := range gctx.Schema.Models {
		if len(m.Fields) == 0 {
			err := NewError(fmt.Sprintf("model %q has no fields", m.Name))
			err.Model = m.Name
			err.Phase = p.Name()
			errs = append(errs, err)
			continue
		}
		if _, ok := m.IDField(); !ok {
			err := NewWarning(fmt.Sprintf("model %q has no id field", m.Name))
			err.Model = m.Name
			err.Phase = p.Name()
			errs = append(errs, err)
		}
		for _, f := range m.Fields {
			if f.Name == "" {
				err := NewError(fmt.Sprintf("model %q has an unnamed field", m.Name))
				err.Model = m.Name
				err.Phase = p.Name()
				errs = append(errs, err)
			}
			if f.Relation {
				if _, ok := gctx.Schema.Model(f.Type); !ok {
					err := NewError(fmt.Sprintf("model %q field %q relates to unknown model %q", m.Name, f.Name, f.Type))
					err.Model = m.Name
					err.Phase = p.Name()
					errs = append(errs, err)
				}
			}
		}
	}
	for _, e := range errs {
		if e.Severity != SeverityWarning {
			return Failed(errs...), nil
		}
	}
	return Completed(errs...), nil
}

// namingPhase detects identifier collisions that would make generated
// files overwrite each other: two models folding to the same exported
// name, or one model's plural colliding with another model's name.
type namingPhase struct {
	phaseMeta
}

func newNamingPhase() *namingPhase {
	return &namingPhase{phaseMeta{name: "naming-conflicts", order: 20}}
}

func (p *namingPhase) ShouldExecute(*Context) bool { return true }

func (p *namingPhase) Execute(_ context.Context, gctx *Context) (*PhaseResult, error) {
	var errs []*GenerationError
	seen := make(map[string]string)
	for _, m := range gctx.Schema.Models {
		folded := strings.ToLower(exportedName(m.Name))
		if prev, ok := seen[folded]; ok {
			err := NewError(fmt.Sprintf("models %q and %q fold to the same identifier %q", prev, m.Name, exportedName(m.Name)))
			err.Model = m.Name
			err.Phase = p.Name()
			errs = append(errs, err)
			continue
		}
		seen[folded] = m.Name
	}
	for _, m := range gctx.Schema.Models {
		plural := strings.ToLower(exportedName(pluralName(m.Name)))
		if other, ok := seen[plural]; ok && other != m.Name {
			err := NewError(fmt.Sprintf("plural of model %q collides with model %q", m.Name, other))
			err.Model = m.Name
			err.Phase = p.Name()
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return Failed(errs...), nil
	}
	return Completed(), nil
}
