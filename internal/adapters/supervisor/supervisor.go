// Package supervisor restarts the demo's background processes, either by
// respawning a tracked program or by running stop/start scripts.
package supervisor

import (
	"context"
)

// Restarter restarts a managed application and returns a message for the caller.
type Restarter interface {
	Restart(ctx context.Context) (string, error)
	// Mode names the strategy for metrics and logs.
	Mode() string
}
