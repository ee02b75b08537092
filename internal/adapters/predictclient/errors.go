package predictclient

import "errors"

// Sentinel kinds for prediction client errors. Connection failures are kept
// apart from other request failures so callers can report them differently.
var (
	ErrConnection = errors.New("connection error")
	ErrRequest    = errors.New("request error")
)
