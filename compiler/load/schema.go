// Package load provides the parsed data-model schema consumed by the
// generation pipeline. Schemas are produced by an external parser and
// loaded here from their YAML interchange form; the pipeline treats the
// loaded document as read-only.
package load

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Schema holds the ordered list of models of one parsed data model.
type Schema struct {
	// Name is the logical name of the data model (project or datasource).
	Name string `yaml:"name,omitempty" msgpack:"name"`
	// Models are kept in source order; generation output order follows it.
	Models []*Model `yaml:"models" msgpack:"models"`
}

// Model is a single named entity of the data model.
type Model struct {
	Name   string   `yaml:"name" msgpack:"name"`
	Fields []*Field `yaml:"fields" msgpack:"fields"`
}

// Field is a named, typed member of a model. A field is either scalar
// (string, int, ...) or a relation to another model.
type Field struct {
	Name string `yaml:"name" msgpack:"name"`
	// Type is the scalar type name, or the target model name for relations.
	Type     string `yaml:"type" msgpack:"type"`
	Relation bool   `yaml:"relation,omitempty" msgpack:"relation"`
	// List marks to-many relations and scalar list fields.
	List     bool `yaml:"list,omitempty" msgpack:"list"`
	Optional bool `yaml:"optional,omitempty" msgpack:"optional"`
	Unique   bool `yaml:"unique,omitempty" msgpack:"unique"`
	ID       bool `yaml:"id,omitempty" msgpack:"id"`
}

// Load parses a YAML schema document.
func Load(data []byte) (*Schema, error) {
	s := &Schema{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("load: unmarshal schema: %w", err)
	}
	for i, m := range s.Models {
		if m == nil || m.Name == "" {
			return nil, fmt.Errorf("load: model at index %d has no name", i)
		}
	}
	return s, nil
}

// LoadFile reads and parses a YAML schema document from path.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: read schema %s: %w", path, err)
	}
	return Load(data)
}

// Hash returns the hex-encoded sha256 digest of a schema document.
// It is the schema hash recorded in production configuration metadata.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Model returns the model with the given name.
func (s *Schema) Model(name string) (*Model, bool) {
	for _, m := range s.Models {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// ModelNames returns the model names in source order.
func (s *Schema) ModelNames() []string {
	names := make([]string, len(s.Models))
	for i, m := range s.Models {
		names[i] = m.Name
	}
	return names
}

// Scalars returns the scalar (non-relation) fields of the model.
func (m *Model) Scalars() []*Field {
	fields := make([]*Field, 0, len(m.Fields))
	for _, f := range m.Fields {
		if !f.Relation {
			fields = append(fields, f)
		}
	}
	return fields
}

// Relations returns the relation fields of the model.
func (m *Model) Relations() []*Field {
	fields := make([]*Field, 0, len(m.Fields))
	for _, f := range m.Fields {
		if f.Relation {
			fields = append(fields, f)
		}
	}
	return fields
}

// IDField returns the field flagged as the model identifier.
func (m *Model) IDField() (*Field, bool) {
	for _, f := range m.Fields {
		if f.ID {
			return f, true
		}
	}
	return nil, false
}
