// Package model contains the event data passed between layers.
//
// Events are owned by the event source and are read-only to the analysis.
// Particles carry their Track by value, so any working copy taken from a
// particle never aliases the record it came from.
package model

import "math"

// PDG codes of the two vertex legs.
const (
	ElectronPDG = 11
	PositronPDG = -11
)

// Event is one processing iteration: a header, the reconstructed vertex
// candidates and the full track collection of the event.
type Event struct {
	Header   Header
	Vertices []Vertex
	Tracks   []Track
}

// Header carries run metadata and trigger bits.
type Header struct {
	RunNumber      int  `json:"run_number"`
	EventNumber    int  `json:"event_number"`
	Pair1Trigger   bool `json:"pair1_trigger"`
	Single0Trigger bool `json:"single0_trigger"`
	Single1Trigger bool `json:"single1_trigger"`
	Pulser         bool `json:"pulser"`
}

// Vertex is a reconstructed decay-vertex candidate.
type Vertex struct {
	Chi2      float64    `json:"chi2"`
	Pos       [3]float64 `json:"pos"`
	P         [3]float64 `json:"p"`
	InvM      float64    `json:"invm"`
	Particles []Particle `json:"particles"`
}

// Particle is a decay leg.
type Particle struct {
	PDG           int        `json:"pdg"`
	Energy        float64    `json:"energy"`
	P             [3]float64 `json:"p"`
	Track         Track      `json:"track"`
	Cluster       Cluster    `json:"cluster"`
	GoodnessOfPID float64    `json:"goodness_pid"`
}

// Track is a fitted charged-particle trajectory. The shared-hit fields are
// not filled at reconstruction time for tracks attached to particles.
type Track struct {
	ID        int     `json:"id"`
	TanLambda float64 `json:"tan_lambda"`
	Chi2Ndf   float64 `json:"chi2_ndf"`
	Time      float64 `json:"time"`
	D0        float64 `json:"d0"`
	Phi       float64 `json:"phi"`
	Omega     float64 `json:"omega"`
	Z0        float64 `json:"z0"`
	NHits     int     `json:"n_hits"`
	NShared   int     `json:"n_shared"`
	SharedLy0 bool    `json:"shared_ly0"`
	SharedLy1 bool    `json:"shared_ly1"`
}

// Cluster is the calorimeter deposit matched to a particle.
type Cluster struct {
	Time   float64 `json:"time"`
	Energy float64 `json:"energy"`
}

// Mag returns the magnitude of a 3-vector.
func Mag(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Momentum returns the particle's momentum magnitude.
func (p *Particle) Momentum() float64 { return Mag(p.P) }

// Momentum returns the vertex momentum magnitude.
func (v *Vertex) Momentum() float64 { return Mag(v.P) }

// BoolToInt maps a flag to the integer used by equality cuts.
func BoolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
