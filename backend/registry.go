package backend

import (
	"fmt"
	"sync"
)

// registry holds registered factories, one slot per API.
var (
	registryMu sync.RWMutex
	factories  [APICount]Factory
)

// Register registers a backend factory for api.
// This is typically called from init() functions in backend packages.
// A factory already registered for the slot is replaced.
func Register(api API, factory Factory) {
	if !api.Valid() || api == APINull {
		panic(fmt.Sprintf("backend: cannot register %v", api))
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[api] = factory
}

// Unregister removes the factory for api.
// This is useful for testing.
func Unregister(api API) {
	if !api.Valid() {
		return
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[api] = nil
}

// IsRegistered checks if a factory is registered for api.
func IsRegistered(api API) bool {
	if !api.Valid() {
		return false
	}
	registryMu.RLock()
	defer registryMu.RUnlock()
	return factories[api] != nil
}

// Available returns the registered APIs in slot order.
func Available() []API {
	registryMu.RLock()
	defer registryMu.RUnlock()

	apis := make([]API, 0, APICount)
	for i, f := range factories {
		if f != nil {
			apis = append(apis, API(i))
		}
	}
	return apis
}

// Lookup returns the factory registered for api, or nil.
func Lookup(api API) Factory {
	if !api.Valid() {
		return nil
	}
	registryMu.RLock()
	defer registryMu.RUnlock()
	return factories[api]
}

// New constructs an uninitialised backend for api.
func New(api API) (Backend, error) {
	f := Lookup(api)
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrBackendNotAvailable, api)
	}
	b := f()
	if b == nil {
		return nil, fmt.Errorf("%w: %s factory returned nil", ErrBackendNotAvailable, api)
	}
	return b, nil
}
