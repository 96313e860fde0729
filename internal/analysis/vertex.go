package analysis

import (
	"context"
	"fmt"

	"github.com/okian/vtxana/internal/config"
	"github.com/okian/vtxana/internal/domain/enrich"
	"github.com/okian/vtxana/internal/domain/histos"
	"github.com/okian/vtxana/internal/domain/model"
	"github.com/okian/vtxana/internal/domain/selection"
	"github.com/okian/vtxana/pkg/logger"
	"github.com/okian/vtxana/pkg/metrics"
)

const defaultWeight = 1.0

// VertexAnalysis selects vertex candidates and fills global and per-region
// histograms. It processes one event at a time and is not safe for
// concurrent use.
type VertexAnalysis struct {
	name   string
	weight float64

	// Settings from Configure.
	anaName       string
	vtxSelection  string
	histoCfg      string
	regionFiles   []string
	calTimeOffset float64
	beamE         float64

	// In-memory overrides of the files above.
	primaryRules *selection.RuleSet
	regionRules  []*selection.RuleSet
	defs         []histos.Definition

	primary *PrimarySelector
	regions *RegionSet

	logger logger.Logger
}

// NewVertexAnalysis creates an unconfigured analysis.
func NewVertexAnalysis(opts ...Option) *VertexAnalysis {
	a := &VertexAnalysis{
		name:   "vertex-ana",
		weight: defaultWeight,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logger.Get().Named(a.name)
	}
	return a
}

// Name implements Processor.
func (a *VertexAnalysis) Name() string { return a.name }

// Configure implements Processor.
func (a *VertexAnalysis) Configure(cfg *config.Config) error {
	if a.primaryRules == nil && cfg.VtxSelection == "" {
		return fmt.Errorf("%w: vtx_selection must not be empty", config.ErrInvalidConfig)
	}
	if a.defs == nil && cfg.HistoCfg == "" {
		return fmt.Errorf("%w: histo_cfg must not be empty", config.ErrInvalidConfig)
	}
	if cfg.BeamE <= 0 {
		return fmt.Errorf("%w: beam_e must be positive, got %g", config.ErrInvalidConfig, cfg.BeamE)
	}

	a.anaName = cfg.AnaName
	a.vtxSelection = cfg.VtxSelection
	a.histoCfg = cfg.HistoCfg
	a.regionFiles = append([]string(nil), cfg.RegionDefinitions...)
	a.calTimeOffset = cfg.CalTimeOffset
	a.beamE = cfg.BeamE
	return nil
}

// Initialize implements Processor. Every error is a configuration error and
// fatal to the run.
func (a *VertexAnalysis) Initialize(ctx context.Context) error {
	if a.beamE <= 0 {
		return ErrNotInitialized
	}

	defs := a.defs
	if defs == nil {
		var err error
		if defs, err = histos.LoadDefinitions(a.histoCfg); err != nil {
			return err
		}
	}

	primaryRules, regionRules, err := a.loadRuleSets()
	if err != nil {
		return err
	}

	a.primary, err = NewPrimarySelector(primaryRules, histos.NewSet(primaryRules.Name(), defs), a.calTimeOffset, a.logger)
	if err != nil {
		return err
	}

	regions := make([]*Region, 0, len(regionRules))
	for _, rs := range regionRules {
		a.logger.Info(ctx, "setting up region", logger.String("region", rs.Name()))
		regions = append(regions, NewRegion(rs, defs))
	}
	a.regions, err = NewRegionSet(a.beamE, a.logger, regions...)
	if err != nil {
		return err
	}

	a.logger.Info(ctx, "vertex analysis initialized",
		logger.String("ana_name", a.anaName),
		logger.Int("primary_cuts", len(primaryRules.Cuts())),
		logger.Int("regions", len(regions)),
		logger.Int("histograms", len(defs)))
	return nil
}

func (a *VertexAnalysis) loadRuleSets() (*selection.RuleSet, []*selection.RuleSet, error) {
	if a.primaryRules != nil {
		return a.primaryRules, a.regionRules, nil
	}
	primary, err := selection.Load(PrimarySelectorName, a.vtxSelection)
	if err != nil {
		return nil, nil, err
	}
	regions := make([]*selection.RuleSet, 0, len(a.regionFiles))
	for _, path := range a.regionFiles {
		rs, err := selection.Load(selection.NameFromPath(path), path)
		if err != nil {
			return nil, nil, err
		}
		regions = append(regions, rs)
	}
	return primary, regions, nil
}

// Process implements Processor: primary selection over all candidates, then
// every region over the survivors.
func (a *VertexAnalysis) Process(ctx context.Context, evt *model.Event) error {
	if a.primary == nil {
		return ErrNotInitialized
	}
	selected, err := a.primary.Select(ctx, evt, a.weight)
	if err != nil {
		return fmt.Errorf("event %d: %w", evt.Header.EventNumber, err)
	}
	if err := a.regions.Process(ctx, evt, selected, enrich.NewTrackIndex(evt.Tracks), a.weight); err != nil {
		return fmt.Errorf("event %d: %w", evt.Header.EventNumber, err)
	}
	return nil
}

// Finalize implements Processor. The primary group is written first, then
// each region in configuration order.
func (a *VertexAnalysis) Finalize(ctx context.Context, sink histos.Sink) error {
	if a.primary == nil {
		return ErrNotInitialized
	}
	if err := a.writeGroup(ctx, sink, a.primary.Rules(), a.primary.Histos()); err != nil {
		return err
	}
	for _, r := range a.regions.Regions() {
		if err := a.writeGroup(ctx, sink, r.Rules, r.Histos); err != nil {
			return err
		}
	}
	return nil
}

func (a *VertexAnalysis) writeGroup(ctx context.Context, sink histos.Sink, rules *selection.RuleSet, set *histos.Set) error {
	for _, st := range rules.CutFlow() {
		metrics.UpdateCutFlowStage(rules.Name(), st.Name, st.Count)
		a.logger.Debug(ctx, "cut flow",
			logger.String("selector", rules.Name()),
			logger.String("stage", st.Name),
			logger.Float64("count", st.Count))
	}
	if err := sink.WriteGroup(ctx, set.Group(rules.Histogram())); err != nil {
		return fmt.Errorf("write %s: %w", rules.Name(), err)
	}
	return nil
}

// PrimarySelector returns the primary selector, nil before Initialize.
func (a *VertexAnalysis) PrimarySelector() *PrimarySelector { return a.primary }

// Regions returns the region set, nil before Initialize.
func (a *VertexAnalysis) Regions() *RegionSet { return a.regions }
