package monitor

import (
	"math/rand/v2"

	"github.com/okian/compass/pkg/logger"
)

// Option configures a Monitor.
type Option func(*Monitor)

// WithRand sets the random source, mostly for deterministic tests.
func WithRand(rng *rand.Rand) Option {
	return func(m *Monitor) {
		if rng != nil {
			m.rng = rng
		}
	}
}

// WithLogger overrides the monitor logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.logger = l
		}
	}
}
