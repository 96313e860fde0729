package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/vtxana/internal/domain/enrich"
	"github.com/okian/vtxana/internal/domain/histos"
	"github.com/okian/vtxana/internal/domain/model"
	"github.com/okian/vtxana/internal/domain/selection"
	"github.com/okian/vtxana/pkg/logger"
	"github.com/okian/vtxana/pkg/metrics"
)

// Region is one downstream selection with its own rule set and histograms.
type Region struct {
	Name   string
	Rules  *selection.RuleSet
	Histos *histos.Set
}

// NewRegion pairs a rule set with a histogram set of the same name.
func NewRegion(rules *selection.RuleSet, defs []histos.Definition) *Region {
	return &Region{
		Name:   rules.Name(),
		Rules:  rules,
		Histos: histos.NewSet(rules.Name(), defs),
	}
}

// RegionSet owns every region in configuration order. Regions share no
// mutable state, so one region's outcome never affects another.
type RegionSet struct {
	regions []*Region
	beamE   float64
	logger  logger.Logger
}

// NewRegionSet checks each region's rule set and rejects duplicate names.
// PrimarySelectorName is reserved for the primary selector's output group.
func NewRegionSet(beamE float64, log logger.Logger, regions ...*Region) (*RegionSet, error) {
	seen := make(map[string]bool, len(regions)+1)
	seen[PrimarySelectorName] = true
	for _, r := range regions {
		if seen[r.Name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRegion, r.Name)
		}
		seen[r.Name] = true

		unused, err := r.Rules.Require(RegionCuts...)
		if err != nil {
			return nil, err
		}
		for _, name := range unused {
			log.Warn(context.Background(), "configured cut is never evaluated",
				logger.String("region", r.Name), logger.String("cut", name))
		}
	}
	return &RegionSet{regions: regions, beamE: beamE, logger: log}, nil
}

// Regions returns the regions in configuration order.
func (rs *RegionSet) Regions() []*Region {
	out := make([]*Region, len(rs.regions))
	copy(out, rs.regions)
	return out
}

// Process evaluates every region against the selected candidates of evt.
// Per-region skips are logged; only rule-set mismatches are returned.
func (rs *RegionSet) Process(ctx context.Context, evt *model.Event, selected []*model.Vertex, tracks *enrich.TrackIndex, weight float64) error {
	for _, r := range rs.regions {
		passed, err := rs.apply(ctx, r, evt, selected, tracks, weight)
		if err != nil {
			return fmt.Errorf("region %s: %w", r.Name, err)
		}
		if passed {
			metrics.RecordRegionPass(r.Name)
		}
	}
	return nil
}

func (rs *RegionSet) apply(ctx context.Context, r *Region, evt *model.Event, selected []*model.Vertex, tracks *enrich.TrackIndex, weight float64) (bool, error) {
	g := newGate(r.Rules, weight)
	if !g.pass(CutPair1, float64(model.BoolToInt(evt.Header.Pair1Trigger))) ||
		!g.pass(CutNVtxs, float64(len(selected))) {
		return false, g.err
	}
	if len(selected) == 0 {
		return false, nil
	}

	vtx := selected[0]
	legs, err := enrich.ResolveLegs(vtx)
	logIgnoredLegs(ctx, rs.logger, evt, legs.Ignored)
	if err != nil {
		if !errors.Is(err, enrich.ErrMalformedCandidate) {
			return false, err
		}
		rs.skip(ctx, r, evt, "malformed", err)
		return false, nil
	}

	eSum := (legs.Electron.Energy + legs.Positron.Energy) / rs.beamE
	if !g.pass(CutChi2, vtx.Chi2) || !g.pass(CutESumLt, eSum) || !g.pass(CutESumGt, eSum) {
		return false, g.err
	}

	eleTrk, err := tracks.Enrich(legs.Electron.Track)
	if err != nil {
		rs.skip(ctx, r, evt, "track_not_found", err)
		return false, nil
	}
	posTrk, err := tracks.Enrich(legs.Positron.Track)
	if err != nil {
		rs.skip(ctx, r, evt, "track_not_found", err)
		return false, nil
	}

	ok := g.pass(CutEleSharedL0, float64(model.BoolToInt(eleTrk.SharedLy0))) &&
		g.pass(CutPosSharedL0, float64(model.BoolToInt(posTrk.SharedLy0))) &&
		g.pass(CutEleSharedL1, float64(model.BoolToInt(eleTrk.SharedLy1))) &&
		g.pass(CutPosSharedL1, float64(model.BoolToInt(posTrk.SharedLy1)))
	if !ok {
		return false, g.err
	}

	r.Histos.Fill1D(NTracksHisto, float64(len(evt.Tracks)), weight)
	r.Histos.Fill1D(NVerticesHisto, float64(len(selected)), weight)
	r.Histos.FillCandidate(histos.Candidate{
		Vertex:        vtx,
		Electron:      legs.Electron,
		Positron:      legs.Positron,
		ElectronTrack: eleTrk,
		PositronTrack: posTrk,
	}, weight)
	r.Histos.FillVertex2D(vtx, weight)
	return true, nil
}

func (rs *RegionSet) skip(ctx context.Context, r *Region, evt *model.Event, reason string, err error) {
	rs.logger.Warn(ctx, "skipping region for event",
		logger.String("region", r.Name),
		logger.Int("event", evt.Header.EventNumber),
		logger.String("reason", reason),
		logger.Error(err))
	metrics.RecordCandidateSkipped(r.Name, reason)
}
