package analysis

import "errors"

// Sentinel error kinds for the analysis pipeline.
var (
	ErrNotInitialized  = errors.New("analysis not initialized")
	ErrDuplicateRegion = errors.New("duplicate region")
)
