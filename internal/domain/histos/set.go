// Package histos holds named sets of fixed-binning 1-D and 2-D
// accumulators, backed by go-hep's hbook, and the output contract that
// hands them to a persistence sink.
package histos

import (
	"context"

	"go-hep.org/x/hep/hbook"
)

// Set maps quantity names to accumulators. Binning is fixed when the set is
// built; afterwards the set only changes through fills.
type Set struct {
	name  string
	h1    map[string]*hbook.H1D
	h2    map[string]*hbook.H2D
	order []string
}

// NewSet builds a set from definitions. Histogram paths are <name>/<quantity>.
func NewSet(name string, defs []Definition) *Set {
	s := &Set{
		name: name,
		h1:   make(map[string]*hbook.H1D),
		h2:   make(map[string]*hbook.H2D),
	}
	for _, d := range defs {
		if d.Is2D() {
			h := hbook.NewH2D(d.BinsX, d.MinX, d.MaxX, d.BinsY, d.MinY, d.MaxY)
			annotate(h.Annotation(), name, d)
			s.h2[d.Name] = h
		} else {
			h := hbook.NewH1D(d.BinsX, d.MinX, d.MaxX)
			annotate(h.Annotation(), name, d)
			s.h1[d.Name] = h
		}
		s.order = append(s.order, d.Name)
	}
	return s
}

func annotate(ann hbook.Annotation, set string, d Definition) {
	ann["name"] = set + "/" + d.Name
	ann["title"] = d.Name
	if d.XTitle != "" {
		ann["xtitle"] = d.XTitle
	}
	if d.YTitle != "" {
		ann["ytitle"] = d.YTitle
	}
}

// Name returns the set name.
func (s *Set) Name() string { return s.name }

// Names returns quantity names in definition order.
func (s *Set) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Fill1D adds a weighted sample. It reports false when the quantity is not
// defined as a 1-D histogram.
func (s *Set) Fill1D(quantity string, x, w float64) bool {
	h, ok := s.h1[quantity]
	if !ok {
		return false
	}
	h.Fill(x, w)
	return true
}

// Fill2D adds a weighted (x, y) sample. It reports false when the quantity
// is not defined as a 2-D histogram.
func (s *Set) Fill2D(quantity string, x, y, w float64) bool {
	h, ok := s.h2[quantity]
	if !ok {
		return false
	}
	h.Fill(x, y, w)
	return true
}

// H1D returns the named 1-D histogram or nil.
func (s *Set) H1D(quantity string) *hbook.H1D { return s.h1[quantity] }

// H2D returns the named 2-D histogram or nil.
func (s *Set) H2D(quantity string) *hbook.H2D { return s.h2[quantity] }

// Group bundles the set with its cut-flow histogram for output.
func (s *Set) Group(cutflow *hbook.H1D) Group {
	g := Group{Name: s.name, CutFlow: cutflow}
	for _, n := range s.order {
		if h, ok := s.h1[n]; ok {
			g.H1 = append(g.H1, h)
		}
		if h, ok := s.h2[n]; ok {
			g.H2 = append(g.H2, h)
		}
	}
	return g
}

// Group is one top-level namespace of the output hierarchy: a selector or
// region name, its cut flow and its observable histograms.
type Group struct {
	Name    string
	CutFlow *hbook.H1D
	H1      []*hbook.H1D
	H2      []*hbook.H2D
}

// Sink persists groups. Groups arrive in output order.
type Sink interface {
	WriteGroup(ctx context.Context, g Group) error
	Close() error
}
