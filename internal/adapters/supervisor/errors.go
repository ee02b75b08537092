package supervisor

import "errors"

// Sentinel kinds for restart errors.
var (
	ErrNotFound = errors.New("program not found")
	ErrTimeout  = errors.New("timed out")
	ErrFailed   = errors.New("restart failed")
)

// Failure is a restart error whose Message is safe to show to the caller.
type Failure struct {
	Kind    error
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil && f.Message == "" {
		return f.Err.Error()
	}
	return f.Message
}

func (f *Failure) Unwrap() []error {
	if f.Err == nil {
		return []error{f.Kind}
	}
	return []error{f.Kind, f.Err}
}

func fail(kind error, msg string, err error) *Failure {
	return &Failure{Kind: kind, Message: msg, Err: err}
}
