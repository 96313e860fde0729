package analysis

import (
	"github.com/okian/vtxana/internal/domain/selection"
)

// Cut names referenced by the selectors. Rule-set files must define every
// cut a selector references, with ids in the order listed below.
const (
	CutChi2              = "chi2unc_lt"
	CutTanLambdaProd     = "eleposTanLambaProd_lt"
	CutEleTrkCluMatch    = "eleTrkCluMatch_lt"
	CutPosTrkCluMatch    = "posTrkCluMatch_lt"
	CutEleTrkCluTimeDiff = "eleTrkCluTimeDiff_lt"
	CutPosTrkCluTimeDiff = "posTrkCluTimeDiff_lt"
	CutEleposCluTimeDiff = "eleposCluTimeDiff_lt"
	CutEleTrkChi2        = "eleTrkChi2_lt"
	CutPosTrkChi2        = "posTrkChi2_lt"
	CutEleMom            = "eleMom_lt"

	CutPair1       = "Pair1_eq"
	CutNVtxs       = "nVtxs_eq"
	CutESumLt      = "eSum_lt"
	CutESumGt      = "eSum_gt"
	CutEleSharedL0 = "ele_sharedL0_eq"
	CutPosSharedL0 = "pos_sharedL0_eq"
	CutEleSharedL1 = "ele_sharedL1_eq"
	CutPosSharedL1 = "pos_sharedL1_eq"
)

// PrimaryCuts is the evaluation order of the primary vertex selector.
var PrimaryCuts = []string{
	CutChi2,
	CutTanLambdaProd,
	CutEleTrkCluMatch,
	CutPosTrkCluMatch,
	CutEleTrkCluTimeDiff,
	CutPosTrkCluTimeDiff,
	CutEleposCluTimeDiff,
	CutEleTrkChi2,
	CutPosTrkChi2,
	CutEleMom,
}

// RegionCuts is the evaluation order of every region selector.
var RegionCuts = []string{
	CutPair1,
	CutNVtxs,
	CutChi2,
	CutESumLt,
	CutESumGt,
	CutEleSharedL0,
	CutPosSharedL0,
	CutEleSharedL1,
	CutPosSharedL1,
}

// Histogram quantities filled directly by the selectors.
const (
	NVerticesHisto = "n_vertices_h"
	NTracksHisto   = "n_tracks_h"
)

// gate evaluates cuts of one candidate against a rule set and keeps the
// first error, so a chain of cuts can be joined with &&.
type gate struct {
	rules  *selection.RuleSet
	weight float64
	err    error
}

func newGate(rules *selection.RuleSet, weight float64) *gate {
	rules.Begin(weight)
	return &gate{rules: rules, weight: weight}
}

func (g *gate) pass(cut string, value float64) bool {
	if g.err != nil {
		return false
	}
	ok, err := g.rules.Evaluate(cut, value, g.weight)
	if err != nil {
		g.err = err
		return false
	}
	return ok
}
