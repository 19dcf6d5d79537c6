package platform

import (
	"fmt"
	"slices"
	"sync"
)

// Registry maps backend names to scrapers.
type Registry struct {
	mu       sync.RWMutex
	scrapers map[string]Scraper
}

func NewRegistry() *Registry {
	return &Registry{scrapers: make(map[string]Scraper)}
}

func (r *Registry) Register(scraper Scraper) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scrapers[scraper.Name()] = scraper
}

func (r *Registry) Get(name string) (Scraper, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.scrapers[name]
	if !ok {
		return nil, fmt.Errorf("scraper backend %q not registered", name)
	}
	return s, nil
}

// List returns the registered names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.scrapers))
	for name := range r.scrapers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
