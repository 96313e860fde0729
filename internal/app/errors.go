package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrAlreadyRunning = errors.New("analysis run already in progress")
)
