package enrich

import "errors"

// Sentinel error kinds for candidate enrichment. Both are recoverable: the
// caller skips the candidate (or region) and continues the event.
var (
	ErrMalformedCandidate = errors.New("malformed vertex candidate")
	ErrTrackNotFound      = errors.New("track not found in event collection")
)
