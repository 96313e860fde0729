package selection

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Rule-set file fields.
const (
	fieldID   = "id"
	fieldCut  = "cut"
	fieldKind = "kind"
	fieldInfo = "info"
)

// Load reads a rule-set file. JSON files load through the YAML parser.
//
// Each top-level key is a cut name:
//
//	chi2unc_lt:
//	  id: 0
//	  cut: 10.0
//	  info: "vtx chi2 < 10"
//
// id and cut are required. kind is optional and defaults to the name suffix
// (_lt, _gt, _eq).
func Load(name, path string) (*RuleSet, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrConfig, path, err)
	}
	return fromKoanf(name, path, k)
}

// NameFromPath derives a region name from its definition file: the base
// name without extension.
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func fromKoanf(name, path string, k *koanf.Koanf) (*RuleSet, error) {
	raw := k.Raw()
	names := make([]string, 0, len(raw))
	for n := range raw {
		names = append(names, n)
	}
	sort.Strings(names)

	cuts := make([]Cut, 0, len(names))
	for _, n := range names {
		c, err := parseCut(k, n)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		cuts = append(cuts, c)
	}
	return New(name, cuts...)
}

func parseCut(k *koanf.Koanf, name string) (Cut, error) {
	key := func(field string) string { return name + "." + field }

	if !k.Exists(key(fieldID)) {
		return Cut{}, fmt.Errorf("%w: cut %q: missing required field %q", ErrConfig, name, fieldID)
	}
	if !k.Exists(key(fieldCut)) {
		return Cut{}, fmt.Errorf("%w: cut %q: missing required field %q", ErrConfig, name, fieldCut)
	}

	var kind Kind
	if s := k.String(key(fieldKind)); s != "" {
		parsed, err := ParseKind(s)
		if err != nil {
			return Cut{}, fmt.Errorf("cut %q: %w", name, err)
		}
		kind = parsed
	} else {
		derived, ok := KindFromName(name)
		if !ok {
			return Cut{}, fmt.Errorf("%w: cut %q: no kind configured and none implied by name", ErrConfig, name)
		}
		kind = derived
	}

	threshold, err := number(k.Get(key(fieldCut)))
	if err != nil {
		return Cut{}, fmt.Errorf("%w: cut %q: field %q: %v", ErrConfig, name, fieldCut, err)
	}
	id, err := number(k.Get(key(fieldID)))
	if err != nil {
		return Cut{}, fmt.Errorf("%w: cut %q: field %q: %v", ErrConfig, name, fieldID, err)
	}
	if id != math.Trunc(id) {
		return Cut{}, fmt.Errorf("%w: cut %q: field %q: %v is not an integer", ErrConfig, name, fieldID, id)
	}

	return Cut{
		Name:      name,
		ID:        int(id),
		Kind:      kind,
		Threshold: threshold,
		Info:      k.String(key(fieldInfo)),
	}, nil
}

// number reads a numeric field. Quoted numbers are accepted.
func number(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float64:
		return n, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unsupported value %v (%T)", v, v)
	}
}
