package analysis

import (
	"context"
	"errors"
	"math"

	"github.com/okian/vtxana/internal/domain/enrich"
	"github.com/okian/vtxana/internal/domain/histos"
	"github.com/okian/vtxana/internal/domain/model"
	"github.com/okian/vtxana/internal/domain/selection"
	"github.com/okian/vtxana/pkg/logger"
	"github.com/okian/vtxana/pkg/metrics"
)

// PrimarySelectorName names the primary selector's rule set, histogram set
// and output group.
const PrimarySelectorName = "vtxSelection"

// PrimarySelector applies the fixed sequence of vertex cuts to every
// candidate of an event and fills the global histograms for survivors.
type PrimarySelector struct {
	rules      *selection.RuleSet
	histos     *histos.Set
	timeOffset float64
	logger     logger.Logger
}

// NewPrimarySelector checks that rules define every primary cut in order.
func NewPrimarySelector(rules *selection.RuleSet, set *histos.Set, timeOffset float64, log logger.Logger) (*PrimarySelector, error) {
	unused, err := rules.Require(PrimaryCuts...)
	if err != nil {
		return nil, err
	}
	for _, name := range unused {
		log.Warn(context.Background(), "configured cut is never evaluated",
			logger.String("selector", rules.Name()), logger.String("cut", name))
	}
	return &PrimarySelector{rules: rules, histos: set, timeOffset: timeOffset, logger: log}, nil
}

// Rules returns the selector's rule set.
func (s *PrimarySelector) Rules() *selection.RuleSet { return s.rules }

// Histos returns the selector's histogram set.
func (s *PrimarySelector) Histos() *histos.Set { return s.histos }

// Select runs every candidate of evt through the cuts and returns the
// accepted ones in input order. Malformed candidates are skipped; only
// rule-set mismatches are returned as errors.
func (s *PrimarySelector) Select(ctx context.Context, evt *model.Event, weight float64) ([]*model.Vertex, error) {
	var selected []*model.Vertex
	for i := range evt.Vertices {
		vtx := &evt.Vertices[i]
		metrics.RecordCandidate(s.rules.Name())

		ok, err := s.accept(ctx, evt, vtx, weight)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		s.histos.FillVertex1D(vtx, weight)
		s.histos.FillVertex2D(vtx, weight)
		selected = append(selected, vtx)
		metrics.RecordCandidateSelected(s.rules.Name())
	}
	s.histos.Fill1D(NVerticesHisto, float64(len(selected)), weight)
	return selected, nil
}

func (s *PrimarySelector) accept(ctx context.Context, evt *model.Event, vtx *model.Vertex, weight float64) (bool, error) {
	g := newGate(s.rules, weight)
	if !g.pass(CutChi2, vtx.Chi2) {
		return false, g.err
	}

	legs, err := enrich.ResolveLegs(vtx)
	logIgnoredLegs(ctx, s.logger, evt, legs.Ignored)
	if err != nil {
		if !errors.Is(err, enrich.ErrMalformedCandidate) {
			return false, err
		}
		s.logger.Warn(ctx, "skipping vertex", logger.Int("event", evt.Header.EventNumber), logger.Error(err))
		metrics.RecordCandidateSkipped(s.rules.Name(), "malformed")
		return false, nil
	}

	ele, pos := legs.Electron, legs.Positron
	eleCluTime := ele.Cluster.Time - s.timeOffset
	posCluTime := pos.Cluster.Time - s.timeOffset

	ok := g.pass(CutTanLambdaProd, ele.Track.TanLambda*pos.Track.TanLambda) &&
		g.pass(CutEleTrkCluMatch, ele.GoodnessOfPID) &&
		g.pass(CutPosTrkCluMatch, pos.GoodnessOfPID) &&
		g.pass(CutEleTrkCluTimeDiff, math.Abs(ele.Track.Time-eleCluTime)) &&
		g.pass(CutPosTrkCluTimeDiff, math.Abs(pos.Track.Time-posCluTime)) &&
		g.pass(CutEleposCluTimeDiff, math.Abs(eleCluTime-posCluTime)) &&
		g.pass(CutEleTrkChi2, ele.Track.Chi2Ndf) &&
		g.pass(CutPosTrkChi2, pos.Track.Chi2Ndf) &&
		g.pass(CutEleMom, ele.Momentum())
	return ok, g.err
}

func logIgnoredLegs(ctx context.Context, log logger.Logger, evt *model.Event, codes []int) {
	for _, pdg := range codes {
		log.Debug(ctx, "wrong particle id associated to vertex",
			logger.Int("event", evt.Header.EventNumber), logger.Int("pdg", pdg))
	}
}
