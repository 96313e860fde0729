package analysis

import (
	"github.com/okian/vtxana/internal/domain/histos"
	"github.com/okian/vtxana/internal/domain/selection"
	"github.com/okian/vtxana/pkg/logger"
)

// Option applies a configuration option to the VertexAnalysis.
type Option func(*VertexAnalysis)

// WithName sets the processor name used in logs.
func WithName(name string) Option {
	return func(a *VertexAnalysis) {
		if name != "" {
			a.name = name
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(a *VertexAnalysis) {
		if log != nil {
			a.logger = log
		}
	}
}

// WithRuleSets supplies the primary and region rule sets directly instead
// of loading them from the configured files.
func WithRuleSets(primary *selection.RuleSet, regions ...*selection.RuleSet) Option {
	return func(a *VertexAnalysis) {
		if primary != nil {
			a.primaryRules = primary
			a.regionRules = regions
		}
	}
}

// WithHistoDefinitions supplies histogram definitions directly instead of
// loading them from the configured file.
func WithHistoDefinitions(defs []histos.Definition) Option {
	return func(a *VertexAnalysis) {
		if defs != nil {
			a.defs = defs
		}
	}
}

// WithWeight sets the per-event weight. Non-positive values are ignored.
func WithWeight(w float64) Option {
	return func(a *VertexAnalysis) {
		if w > 0 {
			a.weight = w
		}
	}
}
