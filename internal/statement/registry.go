package statement

import (
	"fmt"
	"strings"
)

// Registry holds known formats in registration order. It is not safe for concurrent Register
// calls; build it once and then share it read-only.
type Registry struct {
	formats []Format
	byName  map[string]int
}

// NewRegistry creates a registry holding formats, in order.
func NewRegistry(formats ...Format) (*Registry, error) {
	r := &Registry{byName: make(map[string]int)}
	for _, f := range formats {
		if err := r.Register(f); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultRegistry returns a registry with the built-in formats.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(Builtins()...)
	if err != nil {
		panic(err) // built-ins are static
	}
	return r
}

// Register adds f. Names are unique, case-insensitively.
func (r *Registry) Register(f Format) error {
	if err := f.Validate(); err != nil {
		return err
	}
	key := strings.ToLower(strings.TrimSpace(f.Name))
	if _, ok := r.byName[key]; ok {
		return fmt.Errorf("duplicate statement format: %s", f.Name)
	}
	r.byName[key] = len(r.formats)
	r.formats = append(r.formats, f)
	return nil
}

// Lookup returns the format registered under name.
func (r *Registry) Lookup(name string) (Format, bool) {
	i, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Format{}, false
	}
	return r.formats[i], true
}

// Formats returns a copy of the registered formats.
func (r *Registry) Formats() []Format {
	out := make([]Format, len(r.formats))
	copy(out, r.formats)
	return out
}
