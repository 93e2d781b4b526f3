package commercehub

import (
	"strings"
	"sync"
)

type StateBackendFactory func(dsn string) (StateBackend, error)

var stateBackendRegistry = struct {
	mu        sync.RWMutex
	factories map[string]StateBackendFactory
}{
	factories: map[string]StateBackendFactory{},
}

// RegisterStateBackendFactory lets embedders plug in additional
// persistence schemes without forking the DSN dispatch.
func RegisterStateBackendFactory(scheme string, factory StateBackendFactory) {
	scheme = normalizeBackendScheme(scheme)
	if scheme == "" || factory == nil {
		return
	}
	stateBackendRegistry.mu.Lock()
	defer stateBackendRegistry.mu.Unlock()
	stateBackendRegistry.factories[scheme] = factory
}

func lookupStateBackendFactory(scheme string) (StateBackendFactory, bool) {
	scheme = normalizeBackendScheme(scheme)
	stateBackendRegistry.mu.RLock()
	defer stateBackendRegistry.mu.RUnlock()
	factory, ok := stateBackendRegistry.factories[scheme]
	return factory, ok
}

func normalizeBackendScheme(scheme string) string {
	return strings.ToLower(strings.TrimSpace(scheme))
}
