package retailer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Registry is the fixed, ordered set of retailers queried for every term.
// It is built once at startup and never mutated.
type Registry struct {
	profiles []Profile
	byName   map[string]int
}

// NewRegistry validates profiles and returns a registry preserving their order.
func NewRegistry(profiles ...Profile) (*Registry, error) {
	if len(profiles) == 0 {
		return nil, fmt.Errorf("registry: at least one retailer is required")
	}

	r := &Registry{
		profiles: make([]Profile, len(profiles)),
		byName:   make(map[string]int, len(profiles)),
	}
	for i, p := range profiles {
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("registry: %w", err)
		}
		if _, dup := r.byName[p.Name]; dup {
			return nil, fmt.Errorf("registry: duplicate retailer %q", p.Name)
		}
		r.profiles[i] = p
		r.byName[p.Name] = i
	}
	return r, nil
}

// All returns the profiles in registry order. The slice is a copy.
func (r *Registry) All() []Profile {
	out := make([]Profile, len(r.profiles))
	copy(out, r.profiles)
	return out
}

// Names returns the retailer names in registry order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.profiles))
	for i, p := range r.profiles {
		out[i] = p.Name
	}
	return out
}

// Len returns the number of retailers.
func (r *Registry) Len() int {
	return len(r.profiles)
}

// Lookup returns the profile with the given name.
func (r *Registry) Lookup(name string) (Profile, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Profile{}, false
	}
	return r.profiles[i], true
}

// file is the on-disk registry layout.
type file struct {
	Retailers []Profile `yaml:"retailers"`
}

// Parse decodes a YAML registry document.
func Parse(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("registry: decode yaml: %w", err)
	}
	return NewRegistry(f.Retailers...)
}

// LoadFile reads a YAML registry from path.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: read %s: %w", path, err)
	}
	return Parse(data)
}

// Load returns the registry from path, or the built-in retailers when path
// is empty.
func Load(path string) (*Registry, error) {
	if path == "" {
		return NewRegistry(DefaultProfiles()...)
	}
	return LoadFile(path)
}
