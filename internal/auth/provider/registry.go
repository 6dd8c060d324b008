package provider

import "fmt"

// Registry holds all configured session providers and allows lookup by
// provider name. It performs no auth logic itself.
type Registry struct {
	providers map[string]SessionProvider
}

// NewRegistry registers the given session providers by name.
// Provider names must be unique.
func NewRegistry(list ...SessionProvider) *Registry {
	m := make(map[string]SessionProvider)
	for _, p := range list {
		m[p.Name()] = p
	}
	return &Registry{providers: m}
}

// Get returns the session provider by name or an error if not registered.
func (r *Registry) Get(name string) (SessionProvider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown session provider: %s", name)
	}
	return p, nil
}
