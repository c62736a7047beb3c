package frame

import (
	"time"

	"github.com/Carmen-Shannon/oxy-core/engine/profiler"
	"go.uber.org/zap"
)

// SynchronizerBuilderOption is a functional option used to configure a Synchronizer during construction.
type SynchronizerBuilderOption func(*Synchronizer)

// WithWaitTimeout bounds every fence and idle wait. Zero waits forever.
//
// Parameters:
//   - d: the maximum wait
//
// Returns:
//   - SynchronizerBuilderOption: a function that sets the wait timeout
func WithWaitTimeout(d time.Duration) SynchronizerBuilderOption {
	return func(s *Synchronizer) {
		s.waitTimeout = d
	}
}

// WithLogger sets the logger for swapchain events.
func WithLogger(l *zap.Logger) SynchronizerBuilderOption {
	return func(s *Synchronizer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics counts presents, rebuilds, stale reports, fence waits and deferred releases on m.
func WithMetrics(m *profiler.Metrics) SynchronizerBuilderOption {
	return func(s *Synchronizer) {
		s.metrics = m
	}
}

// WithClearColor sets the clear color of the main pass color attachment.
func WithClearColor(c [4]float64) SynchronizerBuilderOption {
	return func(s *Synchronizer) {
		s.clear = c
	}
}
