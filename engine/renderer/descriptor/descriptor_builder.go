package descriptor

import "github.com/Carmen-Shannon/oxy-core/engine/profiler"

// CacheBuilderOption is a functional option used to configure a Cache during construction.
type CacheBuilderOption func(*Cache)

// WithMetrics counts hits and misses on m's cache counters.
func WithMetrics(m *profiler.Metrics) CacheBuilderOption {
	return func(c *Cache) {
		c.metrics = m
	}
}
