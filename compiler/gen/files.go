package gen

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
)

// Layer identifies one output bucket of the generated artifact.
type Layer string

// Output layers. Registry, checklist and plugins are only populated in
// the configurations that enable them.
const (
	LayerContracts   Layer = "contracts"
	LayerValidators  Layer = "validators"
	LayerServices    Layer = "services"
	LayerControllers Layer = "controllers"
	LayerRoutes      Layer = "routes"
	LayerSDK         Layer = "sdk"
	LayerRegistry    Layer = "registry"
	LayerChecklist   Layer = "checklist"
	LayerPlugins     Layer = "plugins"
)

// ErrBuilderFinalized is returned when registering files after Build.
var ErrBuilderFinalized = errors.New("stencil: files builder already finalized")

// filesState is the snapshot-serializable content of the builder.
// Hook bundles are kept apart from the layer maps because they are
// additionally keyed by target framework.
type filesState struct {
	Layers map[Layer]map[string]string  `msgpack:"layers"`
	Hooks  map[string]map[string]string `msgpack:"hooks"`
}

// FilesBuilder accumulates generated files by layer. It is strictly
// additive until Build is called; afterwards any further registration
// fails with ErrBuilderFinalized.
type FilesBuilder struct {
	state filesState
	built bool
}

// NewFilesBuilder creates an empty builder.
func NewFilesBuilder() *FilesBuilder {
	return &FilesBuilder{
		state: filesState{
			Layers: make(map[Layer]map[string]string),
			Hooks:  make(map[string]map[string]string),
		},
	}
}

// AddFile registers a generated file under a layer.
func (b *FilesBuilder) AddFile(layer Layer, name, content string) error {
	if b.built {
		return ErrBuilderFinalized
	}
	if b.state.Layers[layer] == nil {
		b.state.Layers[layer] = make(map[string]string)
	}
	b.state.Layers[layer][name] = content
	return nil
}

// AddHookFile registers a generated hook file for a target framework.
func (b *FilesBuilder) AddHookFile(framework, name, content string) error {
	if b.built {
		return ErrBuilderFinalized
	}
	if b.state.Hooks[framework] == nil {
		b.state.Hooks[framework] = make(map[string]string)
	}
	b.state.Hooks[framework][name] = content
	return nil
}

// Layer returns a copy of the named layer's files.
func (b *FilesBuilder) Layer(layer Layer) map[string]string {
	out := make(map[string]string, len(b.state.Layers[layer]))
	for name, content := range b.state.Layers[layer] {
		out[name] = content
	}
	return out
}

// HookFiles returns a copy of the hook files for a framework.
func (b *FilesBuilder) HookFiles(framework string) map[string]string {
	out := make(map[string]string, len(b.state.Hooks[framework]))
	for name, content := range b.state.Hooks[framework] {
		out[name] = content
	}
	return out
}

// FileCount returns the total number of registered files.
func (b *FilesBuilder) FileCount() int {
	n := 0
	for _, layer := range b.state.Layers {
		n += len(layer)
	}
	for _, hooks := range b.state.Hooks {
		n += len(hooks)
	}
	return n
}

// snapshot serializes the current builder content. The msgpack
// round-trip yields a structurally independent copy, so later phase
// writes can never leak into a captured snapshot.
func (b *FilesBuilder) snapshot() ([]byte, error) {
	data, err := msgpack.Marshal(&b.state)
	if err != nil {
		return nil, fmt.Errorf("stencil: snapshot files: %w", err)
	}
	return data, nil
}

// restore overwrites the builder content with a captured snapshot.
// Whole-state overwrite: files added after the snapshot are dropped.
func (b *FilesBuilder) restore(data []byte) error {
	var state filesState
	if err := msgpack.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("stencil: restore files: %w", err)
	}
	if state.Layers == nil {
		state.Layers = make(map[Layer]map[string]string)
	}
	if state.Hooks == nil {
		state.Hooks = make(map[string]map[string]string)
	}
	b.state = state
	return nil
}

// Build finalizes the aggregate and returns it annotated with the run
// summary. The builder rejects further additions afterwards.
func (b *FilesBuilder) Build(summary *RunSummary) (*GeneratedFiles, error) {
	if b.built {
		return nil, ErrBuilderFinalized
	}
	b.built = true
	out := &GeneratedFiles{
		Layers:  make(map[Layer]map[string]string, len(b.state.Layers)),
		Hooks:   make(map[string]map[string]string, len(b.state.Hooks)),
		Summary: summary,
	}
	for layer, files := range b.state.Layers {
		out.Layers[layer] = make(map[string]string, len(files))
		for name, content := range files {
			out.Layers[layer][name] = content
		}
	}
	for framework, files := range b.state.Hooks {
		out.Hooks[framework] = make(map[string]string, len(files))
		for name, content := range files {
			out.Hooks[framework][name] = content
		}
	}
	return out, nil
}

// GeneratedFiles is the finalized output aggregate of a run.
type GeneratedFiles struct {
	Layers  map[Layer]map[string]string
	Hooks   map[string]map[string]string
	Summary *RunSummary
}

// Layers in deterministic write order.
var layerOrder = []Layer{
	LayerContracts, LayerValidators, LayerServices, LayerControllers,
	LayerRoutes, LayerSDK, LayerRegistry, LayerChecklist, LayerPlugins,
}

// LayerNames returns the populated layers in deterministic order.
func (g *GeneratedFiles) LayerNames() []Layer {
	var names []Layer
	for _, layer := range layerOrder {
		if len(g.Layers[layer]) > 0 {
			names = append(names, layer)
		}
	}
	return names
}

// FileNames returns the sorted file names of a layer.
func (g *GeneratedFiles) FileNames(layer Layer) []string {
	names := make([]string, 0, len(g.Layers[layer]))
	for name := range g.Layers[layer] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunSummary annotates a finalized artifact with run identification
// and per-severity error counts.
type RunSummary struct {
	RunID   string
	Project string
	Counts  Summary
}
