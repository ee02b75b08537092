package classifier

import "errors"

// Sentinel kinds for classifier errors.
var (
	ErrInvalidModel   = errors.New("invalid model")
	ErrInvalidInput   = errors.New("invalid input")
	ErrFeatureCount   = errors.New("feature count mismatch")
	ErrNonFinite      = errors.New("non-finite value")
	ErrTrainingFailed = errors.New("training failed")
)
