package store

import (
	"os"
	"time"
)

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithFileMode sets the permissions of the written file.
func WithFileMode(mode os.FileMode) Option {
	return func(s *Store) {
		if mode != 0 {
			s.perm = mode
		}
	}
}

// WithClock overrides the time source used by Stamp.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}
