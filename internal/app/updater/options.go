package updater

import (
	"math/rand/v2"

	"github.com/okian/compass/pkg/logger"
)

// Option configures an Updater.
type Option func(*Updater)

// WithRand sets the random source.
func WithRand(rng *rand.Rand) Option {
	return func(u *Updater) {
		if rng != nil {
			u.rng = rng
		}
	}
}

// WithLogger overrides the updater logger.
func WithLogger(l logger.Logger) Option {
	return func(u *Updater) {
		if l != nil {
			u.logger = l
		}
	}
}
