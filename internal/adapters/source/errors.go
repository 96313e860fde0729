package source

import "errors"

// Sentinel error kinds for event sources.
var (
	ErrDecode = errors.New("event decode failed")
	ErrOpen   = errors.New("event source open failed")
)
