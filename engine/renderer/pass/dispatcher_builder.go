package pass

import "go.uber.org/zap"

// DispatcherBuilderOption is a functional option used to configure a Dispatcher during construction.
type DispatcherBuilderOption func(*Dispatcher)

// WithLogger sets the logger that reports skipped handles at debug level.
func WithLogger(l *zap.Logger) DispatcherBuilderOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}
