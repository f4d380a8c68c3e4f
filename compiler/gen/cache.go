package gen

import (
	"fmt"
	"sort"

	"github.com/stencilkit/stencil/compiler/load"
)

// Junction-table heuristic thresholds. A model with at least two
// relation fields, at most two scalar fields and at most four fields in
// total is treated as a pure join table and excluded from deep
// analysis. The heuristic is approximate and intentionally tunable;
// nothing outside this file infers junction-ness on its own.
const (
	junctionMinRelations = 2
	junctionMaxScalars   = 2
	junctionMaxFields    = 4
)

func isJunctionModel(m *load.Model) bool {
	relations := len(m.Relations())
	scalars := len(m.Scalars())
	return relations >= junctionMinRelations &&
		scalars <= junctionMaxScalars &&
		len(m.Fields) <= junctionMaxFields
}

// ModelAnalysis holds the structural facts derived from one model.
// Computed once per run by the analysis phase and reread by every
// generation phase after it.
type ModelAnalysis struct {
	Model           string
	ScalarFields    int
	RelationFields  int
	TotalFields     int
	Junction        bool
	RelationTargets []string
	// Operations are the CRUD operation names generated for the model.
	Operations []string
}

// ServiceAnnotation describes the service generated for a model: its
// name and the ordered method list.
type ServiceAnnotation struct {
	Service string
	Methods []string
}

// AnalysisCache memoizes per-model structural analysis and service
// metadata so later phases never recompute them. Entries are
// write-once per model per run.
type AnalysisCache struct {
	analyses map[string]*ModelAnalysis
	services map[string]*ServiceAnnotation
}

// NewAnalysisCache creates an empty cache.
func NewAnalysisCache() *AnalysisCache {
	return &AnalysisCache{
		analyses: make(map[string]*ModelAnalysis),
		services: make(map[string]*ServiceAnnotation),
	}
}

// SetAnalysis stores the analysis for a model. A model is analyzed at
// most once per run; a second store is an error.
func (c *AnalysisCache) SetAnalysis(model string, a *ModelAnalysis) error {
	if _, ok := c.analyses[model]; ok {
		return fmt.Errorf("stencil: model %q already analyzed", model)
	}
	c.analyses[model] = a
	return nil
}

// Analysis returns the analysis for a model, or an error wrapping
// ErrAnalysisMissing if the model has not been analyzed.
func (c *AnalysisCache) Analysis(model string) (*ModelAnalysis, error) {
	a, ok := c.analyses[model]
	if !ok {
		return nil, fmt.Errorf("%w: model %q", ErrAnalysisMissing, model)
	}
	return a, nil
}

// TryAnalysis returns the analysis for a model if present.
func (c *AnalysisCache) TryAnalysis(model string) (*ModelAnalysis, bool) {
	a, ok := c.analyses[model]
	return a, ok
}

// HasAnalysis reports whether the model has been analyzed.
func (c *AnalysisCache) HasAnalysis(model string) bool {
	_, ok := c.analyses[model]
	return ok
}

// AnalysisCount returns the number of analyzed models.
func (c *AnalysisCache) AnalysisCount() int {
	return len(c.analyses)
}

// SetService stores the service annotation for a model. Write-once,
// like SetAnalysis.
func (c *AnalysisCache) SetService(model string, s *ServiceAnnotation) error {
	if _, ok := c.services[model]; ok {
		return fmt.Errorf("stencil: service for model %q already annotated", model)
	}
	c.services[model] = s
	return nil
}

// Service returns the service annotation for a model, or an error
// wrapping ErrAnalysisMissing if absent.
func (c *AnalysisCache) Service(model string) (*ServiceAnnotation, error) {
	s, ok := c.services[model]
	if !ok {
		return nil, fmt.Errorf("%w: service for model %q", ErrAnalysisMissing, model)
	}
	return s, nil
}

// TryService returns the service annotation for a model if present.
func (c *AnalysisCache) TryService(model string) (*ServiceAnnotation, bool) {
	s, ok := c.services[model]
	return s, ok
}

// HasService reports whether the model has a service annotation.
func (c *AnalysisCache) HasService(model string) bool {
	_, ok := c.services[model]
	return ok
}

// ServiceCount returns the number of annotated services.
func (c *AnalysisCache) ServiceCount() int {
	return len(c.services)
}

// ExpectedModels returns the names of the schema models subject to
// deep analysis, i.e. those not matching the junction-table heuristic,
// in schema order.
func (c *AnalysisCache) ExpectedModels(s *load.Schema) []string {
	var names []string
	for _, m := range s.Models {
		if !isJunctionModel(m) {
			names = append(names, m.Name)
		}
	}
	return names
}

// ExpectedCount returns the number of models deep analysis must cover.
func (c *AnalysisCache) ExpectedCount(s *load.Schema) int {
	return len(c.ExpectedModels(s))
}

// MissingAnalysis returns the sorted names of models that should have
// been analyzed but were not.
func (c *AnalysisCache) MissingAnalysis(s *load.Schema) []string {
	var missing []string
	for _, name := range c.ExpectedModels(s) {
		if !c.HasAnalysis(name) {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}
