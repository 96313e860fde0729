package selection

import "errors"

// Sentinel error kinds for rule sets. These allow errors.Is from callers.
var (
	// ErrConfig reports an unreadable or invalid rule-set definition.
	ErrConfig = errors.New("invalid rule set")
	// ErrUnknownCut reports a cut name that is not part of the loaded rule set.
	ErrUnknownCut = errors.New("unknown cut")
	// ErrCutOrder reports a stage evaluated out of configured order.
	ErrCutOrder = errors.New("cut evaluated out of order")
)
