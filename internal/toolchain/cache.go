package toolchain

import "sync"

// probeKind distinguishes the different probes memoized per executable.
type probeKind string

const (
	probeEnumerate probeKind = "enumerate"
	probeVersion   probeKind = "version"
	probeStandards probeKind = "standards"
)

type cacheKey struct {
	kind probeKind
	path string
}

// Cache memoizes discovery enumeration and per-executable probes for the
// lifetime of the process, keyed by absolute executable path and probe
// kind, guarded by a mutex since discovery may run concurrently (spec §5,
// §9 — replacing Python's @cache decorator).
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]any
}

// NewCache constructs an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]any)}
}

// do returns the cached value for key, computing and storing it via fn on
// first access. fn's error is not cached, so a transient failure can be
// retried on a later call.
func do[T any](c *Cache, kind probeKind, path string, fn func() (T, error)) (T, error) {
	key := cacheKey{kind: kind, path: path}

	c.mu.Lock()
	if cached, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return cached.(T), nil
	}
	c.mu.Unlock()

	value, err := fn()
	if err != nil {
		var zero T
		return zero, err
	}

	c.mu.Lock()
	c.entries[key] = value
	c.mu.Unlock()
	return value, nil
}
