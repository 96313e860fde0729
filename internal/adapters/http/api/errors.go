package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrServe            = errors.New("monitor serve failed")
	ErrMethodNotAllowed = errors.New("method not allowed")
)
