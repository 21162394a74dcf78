package plugin

import (
	"fmt"
	"sync"

	streamyerrors "github.com/kbrannigan/medley/pkg/errors"
)

var (
	factoryMu sync.RWMutex
	factories = make(map[string]Factory)
)

// RegisterFactory associates a locator identifier (a class_hint, or the
// name derived from a plugin's manifest name per the convention in
// Locator) with a constructor. Concrete plugin packages call this from an
// init() function; the core never imports a concrete plugin package
// itself (spec §1 — plugin bodies are external collaborators).
func RegisterFactory(locator string, factory Factory) error {
	if factory == nil {
		return streamyerrors.NewLoaderError(locator, "factory is nil", nil)
	}

	factoryMu.Lock()
	defer factoryMu.Unlock()

	if _, exists := factories[locator]; exists {
		return streamyerrors.NewLoaderError(locator, "factory already registered", nil)
	}

	factories[locator] = factory
	return nil
}

// LookupFactory retrieves a registered constructor by locator identifier.
func LookupFactory(locator string) (Factory, error) {
	factoryMu.RLock()
	defer factoryMu.RUnlock()

	factory, ok := factories[locator]
	if !ok {
		return nil, streamyerrors.NewLoaderError(locator, "no factory registered", nil)
	}
	return factory, nil
}

// ResetFactories clears all registrations. Intended for tests.
func ResetFactories() {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factories = make(map[string]Factory)
}

// Registry is the process-lifetime set of live plugin instances produced
// by LoadEnabled (spec §3.3 "Plugin instance" lifecycle): created once, reused
// read-only across all matches.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
}

// NewRegistry returns an empty live-instance registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]Plugin)}
}

func (r *Registry) set(name string, p Plugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins[name] = p
}

// Get retrieves a live plugin instance by name.
func (r *Registry) Get(name string) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plugins[name]
	if !ok {
		return nil, fmt.Errorf("plugin %q not loaded", name)
	}
	return p, nil
}

// Names returns the loaded plugin names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	return names
}
