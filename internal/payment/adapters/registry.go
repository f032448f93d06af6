package adapters

import (
	"fmt"
	"sort"
	"strings"

	"github.com/smallbiznis/clubos/internal/payment/domain"
)

// Registry maps a provider name to the factory that builds its normalizer.
type Registry struct {
	factories map[string]domain.AdapterFactory
}

func NewRegistry(factories ...domain.AdapterFactory) *Registry {
	r := &Registry{factories: make(map[string]domain.AdapterFactory, len(factories))}
	for _, f := range factories {
		if f == nil {
			continue
		}
		if name := providerKey(f.Provider()); name != "" {
			r.factories[name] = f
		}
	}
	return r
}

// Providers lists the registered provider names in sorted order.
func (r *Registry) Providers() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build creates one normalizer per registered provider, handing each factory
// its entry from configs. A provider without an entry gets an empty config.
func (r *Registry) Build(configs map[string]domain.AdapterConfig) (map[string]domain.Normalizer, error) {
	out := make(map[string]domain.Normalizer)
	for _, name := range r.Providers() {
		normalizer, err := r.factories[name].NewAdapter(configs[name])
		if err != nil {
			return nil, fmt.Errorf("build %s adapter: %w", name, err)
		}
		out[name] = normalizer
	}
	return out, nil
}

func providerKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
