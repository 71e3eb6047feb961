package backend

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory creates a new, uninitialized device.
type Factory func() Device

// registry holds registered devices.
var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
	// Priority order for device selection (first that initializes wins).
	// GPU first, the CPU device is the fallback.
	priority = []string{BackendWGPU, BackendSoftware}
)

// Register registers a device factory with the given name.
// This is typically called from init() functions in backend packages.
// If a factory with the same name is already registered, it is replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

// Unregister removes a device from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the registered device names in selection order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return orderedNames()
}

// IsRegistered checks if a device with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Get returns a new uninitialized device by name.
// Returns nil if the name is not registered.
func Get(name string) Device {
	registryMu.RLock()
	factory, ok := factories[name]
	registryMu.RUnlock()
	if !ok {
		return nil
	}
	return factory()
}

// orderedNames returns priority names first, then the remaining
// registered names sorted. Caller holds registryMu.
func orderedNames() []string {
	names := make([]string, 0, len(factories))
	seen := make(map[string]bool, len(factories))
	for _, name := range priority {
		if _, ok := factories[name]; ok {
			names = append(names, name)
			seen[name] = true
		}
	}
	rest := make([]string, 0, len(factories))
	for name := range factories {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// SelectOptions controls device probing.
type SelectOptions struct {
	// Only restricts probing to a single named device.
	Only string

	// Skip excludes devices for which it returns true.
	Skip func(name string, caps Capabilities) bool

	// OnFailure is called for every device that fails to initialize.
	OnFailure func(name string, err error)
}

// Select probes the registered devices in priority order and returns the
// first one whose Init succeeds. The returned device is initialized.
//
// When nothing can be opened the error wraps ErrBackendNotAvailable and
// names every attempted backend.
func Select(opts SelectOptions) (Device, error) {
	registryMu.RLock()
	names := orderedNames()
	candidates := make([]Factory, len(names))
	for i, name := range names {
		candidates[i] = factories[name]
	}
	registryMu.RUnlock()

	var (
		attempted []string
		errs      []error
	)
	for i, name := range names {
		if opts.Only != "" && name != opts.Only {
			continue
		}
		d := candidates[i]()
		if d == nil {
			continue
		}
		if opts.Skip != nil && opts.Skip(name, d.Capabilities()) {
			continue
		}
		attempted = append(attempted, name)
		if err := d.Init(); err != nil {
			err = fmt.Errorf("%s: %w", name, err)
			errs = append(errs, err)
			if opts.OnFailure != nil {
				opts.OnFailure(name, err)
			}
			continue
		}
		return d, nil
	}

	if len(attempted) == 0 {
		return nil, fmt.Errorf("%w: no backend registered", ErrBackendNotAvailable)
	}
	return nil, fmt.Errorf("%w (tried %s): %w",
		ErrBackendNotAvailable, strings.Join(attempted, ", "), errors.Join(errs...))
}
