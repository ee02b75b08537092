package store

import "errors"

// Sentinel kinds for metrics store errors.
var (
	ErrRead  = errors.New("read metrics store")
	ErrParse = errors.New("parse metrics store")
	ErrWrite = errors.New("write metrics store")
	ErrWatch = errors.New("watch metrics store")
)
