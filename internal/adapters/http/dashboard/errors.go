package dashboard

import "errors"

// Sentinel kinds for dashboard errors.
var (
	ErrTemplate        = errors.New("template render failed")
	ErrRestartDisabled = errors.New("restart not configured")
)
