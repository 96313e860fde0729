package histos

import "errors"

// Sentinel error kinds for histogram definitions and output.
var (
	ErrConfig = errors.New("invalid histogram definition")
	ErrWrite  = errors.New("histogram write failed")
)
