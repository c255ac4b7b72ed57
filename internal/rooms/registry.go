// Package rooms holds the static catalog of shared-topic rooms. Rooms are
// fixed at process start; membership is transient state on each connection
// session, not on the registry.
package rooms

import (
	"strings"

	"github.com/nfrund/parley/internal/domain"
)

// Registry is the enumerated set of valid room names.
type Registry struct {
	names []string
	valid map[string]struct{}
}

// NewRegistry builds the catalog from the configured names. Names are
// trimmed; empty and duplicate entries are dropped. Catalog order is
// preserved for the rooms:list event.
func NewRegistry(names []string) *Registry {
	r := &Registry{
		valid: make(map[string]struct{}, len(names)),
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := r.valid[name]; ok {
			continue
		}
		r.valid[name] = struct{}{}
		r.names = append(r.names, name)
	}
	return r
}

// IsValid reports whether name is in the catalog.
func (r *Registry) IsValid(name string) bool {
	_, ok := r.valid[name]
	return ok
}

// Validate returns domain.ErrInvalidRoom for a name outside the catalog.
func (r *Registry) Validate(name string) error {
	if !r.IsValid(name) {
		return domain.ErrInvalidRoom
	}
	return nil
}

// Names returns a copy of the catalog in configuration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}
