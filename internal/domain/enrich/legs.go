// Package enrich resolves the electron and positron legs of a vertex
// candidate and copies shared-hit information onto their tracks from the
// event's full track collection.
package enrich

import (
	"fmt"

	"github.com/okian/vtxana/internal/domain/model"
)

// Legs are the two resolved legs of a vertex. Pointers refer into the
// vertex's particle slice and must be treated as read-only.
type Legs struct {
	Electron *model.Particle
	Positron *model.Particle

	// Ignored lists PDG codes that took no role.
	Ignored []int
}

// ResolveLegs assigns roles by PDG code: +11 electron, -11 positron. Other
// codes are excluded and reported in Legs.Ignored. A missing role, or more
// than one particle for the same role, makes the vertex malformed.
func ResolveLegs(vtx *model.Vertex) (Legs, error) {
	var legs Legs
	for i := range vtx.Particles {
		p := &vtx.Particles[i]
		switch p.PDG {
		case model.ElectronPDG:
			if legs.Electron != nil {
				return legs, fmt.Errorf("%w: more than one electron leg", ErrMalformedCandidate)
			}
			legs.Electron = p
		case model.PositronPDG:
			if legs.Positron != nil {
				return legs, fmt.Errorf("%w: more than one positron leg", ErrMalformedCandidate)
			}
			legs.Positron = p
		default:
			legs.Ignored = append(legs.Ignored, p.PDG)
		}
	}
	if legs.Electron == nil || legs.Positron == nil {
		return legs, fmt.Errorf("%w: vertex formed without electron/positron (%d particles)",
			ErrMalformedCandidate, len(vtx.Particles))
	}
	return legs, nil
}
