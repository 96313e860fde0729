package selection

import (
	"fmt"
	"strings"
)

// Kind is the comparison applied by a cut.
type Kind int

// Comparison kinds. Bounds are open: a value equal to the threshold fails
// both LessThan and GreaterThan.
const (
	LessThan Kind = iota + 1
	GreaterThan
	Equal
)

// Name suffixes that imply a kind when none is configured explicitly.
const (
	suffixLt = "_lt"
	suffixGt = "_gt"
	suffixEq = "_eq"
)

func (k Kind) String() string {
	switch k {
	case LessThan:
		return "lt"
	case GreaterThan:
		return "gt"
	case Equal:
		return "eq"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind parses a configured comparison kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lt", "<", "less_than":
		return LessThan, nil
	case "gt", ">", "greater_than":
		return GreaterThan, nil
	case "eq", "==", "equal":
		return Equal, nil
	default:
		return 0, fmt.Errorf("%w: unrecognized comparison kind %q", ErrConfig, s)
	}
}

// KindFromName derives the kind from a cut name suffix such as "chi2unc_lt".
func KindFromName(name string) (Kind, bool) {
	switch {
	case strings.HasSuffix(name, suffixLt):
		return LessThan, true
	case strings.HasSuffix(name, suffixGt):
		return GreaterThan, true
	case strings.HasSuffix(name, suffixEq):
		return Equal, true
	default:
		return 0, false
	}
}

// Compare reports whether value passes a cut of this kind at threshold.
func (k Kind) Compare(value, threshold float64) bool {
	switch k {
	case LessThan:
		return value < threshold
	case GreaterThan:
		return value > threshold
	case Equal:
		return value == threshold
	default:
		return false
	}
}
