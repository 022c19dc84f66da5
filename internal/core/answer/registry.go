package answer

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

type Kind string

const (
	KindExtractive Kind = "extractive"
	KindGenerative Kind = "generative"
)

// Model is one entry of the registry. Kind and Backend stay server side.
type Model struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Kind    Kind   `yaml:"kind"`
	Backend string `yaml:"backend"`
}

//go:embed models.yaml
var builtinModels []byte

// Registry is the fixed list of models the service can answer with. It is
// read-only after construction.
type Registry struct {
	models []Model
	byID   map[string]Model
}

func DefaultRegistry() (*Registry, error) {
	return ParseRegistry(builtinModels)
}

func ParseRegistry(data []byte) (*Registry, error) {
	var doc struct {
		Models []Model `yaml:"models"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse model registry: %w", err)
	}
	if len(doc.Models) == 0 {
		return nil, errors.New("model registry is empty")
	}

	r := &Registry{byID: make(map[string]Model, len(doc.Models))}
	for i, m := range doc.Models {
		m.ID = strings.TrimSpace(m.ID)
		switch {
		case m.ID == "":
			return nil, fmt.Errorf("model registry entry %d has no id", i)
		case m.Kind != KindExtractive && m.Kind != KindGenerative:
			return nil, fmt.Errorf("model %q: unknown kind %q", m.ID, m.Kind)
		case m.Backend == "":
			return nil, fmt.Errorf("model %q has no backend", m.ID)
		}
		if _, dup := r.byID[m.ID]; dup {
			return nil, fmt.Errorf("model %q listed twice", m.ID)
		}
		if m.Name == "" {
			m.Name = m.ID
		}
		r.models = append(r.models, m)
		r.byID[m.ID] = m
	}
	return r, nil
}

// List returns the models in registry order. The slice is a copy.
func (r *Registry) List() []Model {
	out := make([]Model, len(r.models))
	copy(out, r.models)
	return out
}

func (r *Registry) Lookup(id string) (Model, bool) {
	m, ok := r.byID[id]
	return m, ok
}

func (r *Registry) Default() Model {
	return r.models[0]
}
