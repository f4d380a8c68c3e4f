package gen

import (
	"context"
	"fmt"
	"strings"
)

// analyzePhase fills the analysis cache: one ModelAnalysis and one
// ServiceAnnotation per non-junction model. Junction models are
// recorded only in the skip log; every later phase reads the cache
// instead of re-deriving structure from the schema.
type analyzePhase struct {
	phaseMeta
}

func newAnalyzePhase() *analyzePhase {
	return &analyzePhase{phaseMeta{name: "analyze-models", order: 30}}
}

func (p *analyzePhase) ShouldExecute(*Context) bool { return true }

func (p *analyzePhase) Execute(_ context.Context, gctx *Context) (*PhaseResult, error) {
	log := gctx.Logger()
	for _, m := range gctx.Schema.Models {
		if isJunctionModel(m) {
			log.Debug().Str("model", m.Name).Msg("skipping junction model")
			continue
		}
		relations := m.Relations()
		targets := make([]string, 0, len(relations))
		for _, f := range relations {
			targets = append(targets, f.Type)
		}
		analysis := &ModelAnalysis{
			Model:           m.Name,
			ScalarFields:    len(m.Scalars()),
			RelationFields:  len(relations),
			TotalFields:     len(m.Fields),
			Junction:        false,
			RelationTargets: targets,
			Operations:      crudOperations,
		}
		if err := gctx.Cache.SetAnalysis(m.Name, analysis); err != nil {
			if aerr := gctx.AddError(&GenerationError{
				Severity: SeverityFatal,
				Message:  err.Error(),
				Model:    m.Name,
				Phase:    p.Name(),
			}); aerr != nil {
				return nil, aerr
			}
			continue
		}
		if err := gctx.Cache.SetService(m.Name, &ServiceAnnotation{
			Service: serviceName(m.Name),
			Methods: serviceMethods(m.Name),
		}); err != nil {
			if aerr := gctx.AddError(&GenerationError{
				Severity: SeverityFatal,
				Message:  err.Error(),
				Model:    m.Name,
				Phase:    p.Name(),
			}); aerr != nil {
				return nil, aerr
			}
		}
	}
	if missing := gctx.Cache.MissingAnalysis(gctx.Schema); len(missing) > 0 {
		err := NewError(fmt.Sprintf("analysis incomplete, missing models: %s", strings.Join(missing, ", ")))
		err.Phase = p.Name()
		return Failed(err), nil
	}
	log.Info().
		Int("analyzed", gctx.Cache.AnalysisCount()).
		Int("models", len(gctx.Schema.Models)).
		Msg("model analysis complete")
	return Completed(), nil
}
