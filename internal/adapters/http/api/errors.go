package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest     = errors.New("bad request")
	ErrModelNotLoaded = errors.New("model not loaded")
	ErrNoFeatures     = errors.New("no features provided")
	ErrInference      = errors.New("inference failed")
)
