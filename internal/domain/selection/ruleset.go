// Package selection implements named, ordered cut sets with cut-flow
// accounting.
//
// A RuleSet holds cuts in configured order. Slot 0 of the cut flow counts
// everything that entered the selection (Begin); slot i counts what passed
// the i-th cut. Callers short-circuit on the first failing cut; the rule set
// only records the stage it is asked to evaluate.
package selection

import (
	"fmt"
	"sort"
	"strings"

	"go-hep.org/x/hep/hbook"
)

// NoCutsStage names the cut-flow slot recorded before any cut.
const NoCutsStage = "nocuts"

// Cut is a single named threshold test.
type Cut struct {
	Name      string
	ID        int
	Kind      Kind
	Threshold float64
	Info      string
}

// Stage is one cut-flow slot.
type Stage struct {
	Name  string
	Count float64
}

// RuleSet is an ordered collection of cuts with cumulative pass counts.
// It is not safe for concurrent use; each selector owns its own instance.
type RuleSet struct {
	name   string
	cuts   []Cut
	index  map[string]int
	counts []float64

	// cursor is the last slot evaluated for the current candidate.
	cursor int
}

// New builds a rule set from cuts, ordered by Cut.ID.
func New(name string, cuts ...Cut) (*RuleSet, error) {
	sorted := make([]Cut, len(cuts))
	copy(sorted, cuts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	rs := &RuleSet{
		name:   name,
		cuts:   sorted,
		index:  make(map[string]int, len(sorted)),
		counts: make([]float64, len(sorted)+1),
	}
	for i, c := range sorted {
		if c.Name == "" {
			return nil, fmt.Errorf("%w: %s: cut with id %d has no name", ErrConfig, name, c.ID)
		}
		if _, dup := rs.index[c.Name]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate cut %q", ErrConfig, name, c.Name)
		}
		if i > 0 && sorted[i-1].ID == c.ID {
			return nil, fmt.Errorf("%w: %s: cuts %q and %q share id %d", ErrConfig, name, sorted[i-1].Name, c.Name, c.ID)
		}
		if c.Kind < LessThan || c.Kind > Equal {
			return nil, fmt.Errorf("%w: %s: cut %q has no comparison kind", ErrConfig, name, c.Name)
		}
		rs.index[c.Name] = i
	}
	return rs, nil
}

// Name returns the rule set name (selector or region name).
func (rs *RuleSet) Name() string { return rs.name }

// Cuts returns the cuts in evaluation order.
func (rs *RuleSet) Cuts() []Cut {
	out := make([]Cut, len(rs.cuts))
	copy(out, rs.cuts)
	return out
}

// HasCut reports whether name is configured.
func (rs *RuleSet) HasCut(name string) bool {
	_, ok := rs.index[name]
	return ok
}

// Threshold returns the configured threshold of a cut.
func (rs *RuleSet) Threshold(name string) (float64, error) {
	i, ok := rs.index[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s: %q", ErrUnknownCut, rs.name, name)
	}
	return rs.cuts[i].Threshold, nil
}

// Begin records a candidate entering the selection and clears the
// per-candidate state.
func (rs *RuleSet) Begin(weight float64) {
	rs.counts[0] += weight
	rs.Reset()
}

// Reset clears per-candidate transient state. Cut-flow counts persist.
func (rs *RuleSet) Reset() {
	rs.cursor = 0
}

// Evaluate applies the named cut to value. On pass the cut's slot grows by
// weight and true is returned.
func (rs *RuleSet) Evaluate(name string, value, weight float64) (bool, error) {
	i, ok := rs.index[name]
	if !ok {
		return false, fmt.Errorf("%w: %s: %q", ErrUnknownCut, rs.name, name)
	}
	slot := i + 1
	if slot <= rs.cursor {
		return false, fmt.Errorf("%w: %s: %q evaluated after %q", ErrCutOrder, rs.name, name, rs.cuts[rs.cursor-1].Name)
	}
	rs.cursor = slot

	c := rs.cuts[i]
	if !c.Kind.Compare(value, c.Threshold) {
		return false, nil
	}
	rs.counts[slot] += weight
	return true, nil
}

// CutFlow returns a snapshot of the cut flow, slot 0 first.
func (rs *RuleSet) CutFlow() []Stage {
	out := make([]Stage, len(rs.counts))
	out[0] = Stage{Name: NoCutsStage, Count: rs.counts[0]}
	for i, c := range rs.cuts {
		out[i+1] = Stage{Name: c.Name, Count: rs.counts[i+1]}
	}
	return out
}

// Require checks that every referenced cut is configured and that the
// references follow configured order. It returns the configured cuts that
// are never referenced.
func (rs *RuleSet) Require(names ...string) ([]string, error) {
	seen := make(map[string]bool, len(names))
	last := -1
	for _, n := range names {
		i, ok := rs.index[n]
		if !ok {
			return nil, fmt.Errorf("%w: %s: %q", ErrUnknownCut, rs.name, n)
		}
		if i <= last {
			return nil, fmt.Errorf("%w: %s: %q is configured before %q", ErrCutOrder, rs.name, n, rs.cuts[last].Name)
		}
		last = i
		seen[n] = true
	}
	var unused []string
	for _, c := range rs.cuts {
		if !seen[c.Name] {
			unused = append(unused, c.Name)
		}
	}
	return unused, nil
}

// Merge adds the counts of an identically configured rule set.
func (rs *RuleSet) Merge(other *RuleSet) error {
	if len(other.cuts) != len(rs.cuts) {
		return fmt.Errorf("%w: cannot merge %s into %s: stage count differs", ErrConfig, other.name, rs.name)
	}
	for i := range rs.cuts {
		if rs.cuts[i].Name != other.cuts[i].Name {
			return fmt.Errorf("%w: cannot merge %s into %s: stage %d is %q vs %q",
				ErrConfig, other.name, rs.name, i+1, other.cuts[i].Name, rs.cuts[i].Name)
		}
	}
	for i := range rs.counts {
		rs.counts[i] += other.counts[i]
	}
	return nil
}

// Histogram renders the cut flow with one bin per slot, bin i centred on i.
func (rs *RuleSet) Histogram() *hbook.H1D {
	n := len(rs.counts)
	h := hbook.NewH1D(n, -0.5, float64(n)-0.5)
	labels := make([]string, n)
	for i, st := range rs.CutFlow() {
		h.Fill(float64(i), st.Count)
		labels[i] = st.Name
	}
	h.Annotation()["name"] = rs.name + "/cutflow"
	h.Annotation()["title"] = rs.name + " cut flow"
	h.Annotation()["labels"] = strings.Join(labels, ",")
	return h
}
