package analysis_test

import (
	"context"
	"io"
	"testing"

	"github.com/okian/vtxana/internal/config"
	"github.com/okian/vtxana/internal/domain/histos"
	"github.com/okian/vtxana/internal/domain/model"
	"github.com/okian/vtxana/internal/domain/selection"
	"github.com/okian/vtxana/pkg/logger"
)

const (
	testBeamE      = 2.3
	testTimeOffset = 43.0
)

func init() {
	_ = logger.InitWithWriter(io.Discard)
}

// ruleSet builds a rule set whose cut kinds follow the name suffix and whose
// ids follow the order of names.
func ruleSet(t *testing.T, name string, names []string, thresholds map[string]float64) *selection.RuleSet {
	t.Helper()
	cuts := make([]selection.Cut, 0, len(names))
	for i, n := range names {
		kind, ok := selection.KindFromName(n)
		if !ok {
			t.Fatalf("cut %q has no kind suffix", n)
		}
		cuts = append(cuts, selection.Cut{Name: n, ID: i, Kind: kind, Threshold: thresholds[n]})
	}
	rs, err := selection.New(name, cuts...)
	if err != nil {
		t.Fatalf("building %s: %v", name, err)
	}
	return rs
}

func primaryThresholds() map[string]float64 {
	return map[string]float64{
		"chi2unc_lt":            10,
		"eleposTanLambaProd_lt": 0,
		"eleTrkCluMatch_lt":     10,
		"posTrkCluMatch_lt":     10,
		"eleTrkCluTimeDiff_lt":  4,
		"posTrkCluTimeDiff_lt":  4,
		"eleposCluTimeDiff_lt":  2,
		"eleTrkChi2_lt":         6,
		"posTrkChi2_lt":         6,
		"eleMom_lt":             1.75,
	}
}

func regionThresholds() map[string]float64 {
	return map[string]float64{
		"Pair1_eq":        1,
		"nVtxs_eq":        1,
		"chi2unc_lt":      10,
		"eSum_lt":         1.2,
		"eSum_gt":         0.5,
		"ele_sharedL0_eq": 0,
		"pos_sharedL0_eq": 0,
		"ele_sharedL1_eq": 0,
		"pos_sharedL1_eq": 0,
	}
}

func testDefinitions() []histos.Definition {
	return []histos.Definition{
		{Name: "n_vertices_h", BinsX: 10, MinX: -0.5, MaxX: 9.5},
		{Name: "n_tracks_h", BinsX: 20, MinX: -0.5, MaxX: 19.5},
		{Name: "vtx_chi2_h", BinsX: 50, MinX: 0, MaxX: 50},
		{Name: "ele_nShared_h", BinsX: 10, MinX: -0.5, MaxX: 9.5},
		{Name: "vtx_InvM_vtx_z_hh", BinsX: 20, MinX: 0, MaxX: 0.2, BinsY: 20, MinY: -20, MaxY: 80},
		{Name: "ele_p_pos_p_hh", BinsX: 10, MinX: 0, MaxX: 3, BinsY: 10, MinY: 0, MaxY: 3},
	}
}

func particle(pdg, trackID int, tanLambda float64) model.Particle {
	return model.Particle{
		PDG:           pdg,
		Energy:        1.0,
		P:             [3]float64{0.02, 0.01, 1.0},
		Track:         model.Track{ID: trackID, TanLambda: tanLambda, Chi2Ndf: 1.5, Time: 1.0, NHits: 6},
		Cluster:       model.Cluster{Time: testTimeOffset + 1.0, Energy: 0.9},
		GoodnessOfPID: 2,
	}
}

// goodVertex passes every primary cut and, with matching tracks, every
// region cut of the test thresholds.
func goodVertex(eleTrkID, posTrkID int) model.Vertex {
	return model.Vertex{
		Chi2: 0.5,
		Pos:  [3]float64{0.1, -0.2, -4},
		P:    [3]float64{0.04, 0.02, 2.0},
		InvM: 0.05,
		Particles: []model.Particle{
			particle(model.ElectronPDG, eleTrkID, 0.03),
			particle(model.PositronPDG, posTrkID, -0.03),
		},
	}
}

func event(number int, pair1 bool, tracks []model.Track, vertices ...model.Vertex) *model.Event {
	return &model.Event{
		Header:   model.Header{EventNumber: number, Pair1Trigger: pair1},
		Vertices: vertices,
		Tracks:   tracks,
	}
}

func cleanTracks(ids ...int) []model.Track {
	out := make([]model.Track, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Track{ID: id, NShared: 0})
	}
	return out
}

func testConfig() *config.Config {
	cfg := config.New()
	cfg.BeamE = testBeamE
	cfg.CalTimeOffset = testTimeOffset
	return cfg
}

// recordingSink keeps written groups in order.
type recordingSink struct {
	groups []histos.Group
	err    error
	closed bool
}

func (s *recordingSink) WriteGroup(_ context.Context, g histos.Group) error {
	if s.err != nil {
		return s.err
	}
	s.groups = append(s.groups, g)
	return nil
}

func (s *recordingSink) Close() error {
	s.closed = true
	return nil
}

func stageCount(rs *selection.RuleSet, stage string) float64 {
	for _, st := range rs.CutFlow() {
		if st.Name == stage {
			return st.Count
		}
	}
	return -1
}
