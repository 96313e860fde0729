package histos

import (
	"github.com/okian/vtxana/internal/domain/model"
)

// Leg prefixes used by candidate quantities.
const (
	electronPrefix = "ele_"
	positronPrefix = "pos_"
)

// Candidate is a fully resolved vertex: both legs and their enriched tracks.
type Candidate struct {
	Vertex        *model.Vertex
	Electron      *model.Particle
	Positron      *model.Particle
	ElectronTrack model.Track
	PositronTrack model.Track
}

var vertex1D = map[string]func(v *model.Vertex) float64{
	"vtx_chi2_h": func(v *model.Vertex) float64 { return v.Chi2 },
	"vtx_X_h":    func(v *model.Vertex) float64 { return v.Pos[0] },
	"vtx_Y_h":    func(v *model.Vertex) float64 { return v.Pos[1] },
	"vtx_Z_h":    func(v *model.Vertex) float64 { return v.Pos[2] },
	"vtx_InvM_h": func(v *model.Vertex) float64 { return v.InvM },
	"vtx_px_h":   func(v *model.Vertex) float64 { return v.P[0] },
	"vtx_py_h":   func(v *model.Vertex) float64 { return v.P[1] },
	"vtx_pz_h":   func(v *model.Vertex) float64 { return v.P[2] },
	"vtx_p_h":    func(v *model.Vertex) float64 { return v.Momentum() },
}

var vertex2D = map[string]func(v *model.Vertex) (float64, float64){
	"vtx_InvM_vtx_z_hh": func(v *model.Vertex) (float64, float64) { return v.InvM, v.Pos[2] },
	"vtx_p_vtx_z_hh":    func(v *model.Vertex) (float64, float64) { return v.Momentum(), v.Pos[2] },
	"vtx_Y_vtx_X_hh":    func(v *model.Vertex) (float64, float64) { return v.Pos[0], v.Pos[1] },
}

// leg1D quantities are filled once per leg under the ele_ and pos_ prefixes.
var leg1D = map[string]func(p *model.Particle, t *model.Track) float64{
	"p_h":           func(p *model.Particle, _ *model.Track) float64 { return p.Momentum() },
	"E_h":           func(p *model.Particle, _ *model.Track) float64 { return p.Energy },
	"PIDgoodness_h": func(p *model.Particle, _ *model.Track) float64 { return p.GoodnessOfPID },
	"clusterE_h":    func(p *model.Particle, _ *model.Track) float64 { return p.Cluster.Energy },
	"clusterT_h":    func(p *model.Particle, _ *model.Track) float64 { return p.Cluster.Time },
	"TanLambda_h":   func(_ *model.Particle, t *model.Track) float64 { return t.TanLambda },
	"d0_h":          func(_ *model.Particle, t *model.Track) float64 { return t.D0 },
	"Phi_h":         func(_ *model.Particle, t *model.Track) float64 { return t.Phi },
	"Omega_h":       func(_ *model.Particle, t *model.Track) float64 { return t.Omega },
	"Z0_h":          func(_ *model.Particle, t *model.Track) float64 { return t.Z0 },
	"time_h":        func(_ *model.Particle, t *model.Track) float64 { return t.Time },
	"chi2ndf_h":     func(_ *model.Particle, t *model.Track) float64 { return t.Chi2Ndf },
	"nHits_h":       func(_ *model.Particle, t *model.Track) float64 { return float64(t.NHits) },
	"nShared_h":     func(_ *model.Particle, t *model.Track) float64 { return float64(t.NShared) },
	"sharedLy0_h":   func(_ *model.Particle, t *model.Track) float64 { return float64(model.BoolToInt(t.SharedLy0)) },
	"sharedLy1_h":   func(_ *model.Particle, t *model.Track) float64 { return float64(model.BoolToInt(t.SharedLy1)) },
}

var candidate2D = map[string]func(c *Candidate) (float64, float64){
	"ele_p_pos_p_hh": func(c *Candidate) (float64, float64) {
		return c.Electron.Momentum(), c.Positron.Momentum()
	},
	"ele_TanLambda_pos_TanLambda_hh": func(c *Candidate) (float64, float64) {
		return c.ElectronTrack.TanLambda, c.PositronTrack.TanLambda
	},
	"ele_time_pos_time_hh": func(c *Candidate) (float64, float64) {
		return c.ElectronTrack.Time, c.PositronTrack.Time
	},
}

// FillVertex1D fills every defined vertex-level 1-D quantity.
func (s *Set) FillVertex1D(v *model.Vertex, w float64) {
	for name, fn := range vertex1D {
		s.Fill1D(name, fn(v), w)
	}
}

// FillVertex2D fills every defined vertex-level 2-D quantity.
func (s *Set) FillVertex2D(v *model.Vertex, w float64) {
	for name, fn := range vertex2D {
		x, y := fn(v)
		s.Fill2D(name, x, y, w)
	}
}

// FillCandidate fills vertex quantities, per-leg quantities computed from the
// enriched tracks, and leg-vs-leg correlations.
func (s *Set) FillCandidate(c Candidate, w float64) {
	s.FillVertex1D(c.Vertex, w)
	for name, fn := range leg1D {
		s.Fill1D(electronPrefix+name, fn(c.Electron, &c.ElectronTrack), w)
		s.Fill1D(positronPrefix+name, fn(c.Positron, &c.PositronTrack), w)
	}
	for name, fn := range candidate2D {
		x, y := fn(&c)
		s.Fill2D(name, x, y, w)
	}
}
