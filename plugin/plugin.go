// Package plugin defines the narrow contract between the generation
// pipeline and third-party feature plugins (auth, payment, storage
// providers). The pipeline only ever validates plugins, collects their
// generated output, and optionally health-checks them; plugin business
// logic stays on the other side of this boundary.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrDuplicatePlugin is returned when registering a name twice.
var ErrDuplicatePlugin = errors.New("stencil: plugin already registered")

// ValidationResult reports whether a plugin's configuration is usable.
type ValidationResult struct {
	Valid    bool
	Problems []string
}

// Output is everything a plugin contributes to the artifact: files
// merged under the plugin's bucket, environment variables the
// generated project needs, and package dependencies to declare.
type Output struct {
	Files   map[string]string
	EnvVars map[string]string
	Deps    []string
}

// Plugin is the fixed capability contract of one feature plugin.
type Plugin interface {
	// Name identifies the plugin; it namespaces the plugin's files.
	Name() string
	// Validate checks the plugin's configuration.
	Validate() ValidationResult
	// Generate produces the plugin's contribution to the artifact.
	Generate() (*Output, error)
}

// HealthChecker is the optional health-check capability, detected by
// type assertion.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Registry holds the plugins of one run in registration order.
type Registry struct {
	order   []string
	plugins map[string]Plugin
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]Plugin)}
}

// Register adds a plugin. Registering the same name twice is an error.
func (r *Registry) Register(p Plugin) error {
	name := p.Name()
	if _, ok := r.plugins[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicatePlugin, name)
	}
	r.order = append(r.order, name)
	r.plugins[name] = p
	return nil
}

// Len returns the number of registered plugins.
func (r *Registry) Len() int {
	return len(r.plugins)
}

// Names returns the registered plugin names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	sort.Strings(names)
	return names
}

// ValidateAll validates every plugin and returns the result per name.
func (r *Registry) ValidateAll() map[string]ValidationResult {
	out := make(map[string]ValidationResult, len(r.plugins))
	for name, p := range r.plugins {
		out[name] = p.Validate()
	}
	return out
}

// GenerateAll runs every plugin's generator in registration order and
// returns the output per name. Generation stops at the first failing
// plugin: partial plugin output is worse than none.
func (r *Registry) GenerateAll() (map[string]*Output, error) {
	out := make(map[string]*Output, len(r.plugins))
	for _, name := range r.order {
		o, err := r.plugins[name].Generate()
		if err != nil {
			return nil, fmt.Errorf("stencil: plugin %q: %w", name, err)
		}
		out[name] = o
	}
	return out, nil
}

// HealthCheckAll health-checks every plugin that implements the
// capability and returns the failures per name.
func (r *Registry) HealthCheckAll(ctx context.Context) map[string]error {
	out := make(map[string]error)
	for _, name := range r.order {
		if hc, ok := r.plugins[name].(HealthChecker); ok {
			if err := hc.HealthCheck(ctx); err != nil {
				out[name] = err
			}
		}
	}
	return out
}
