// Package analysis runs the vertex analysis over events: a primary vertex
// selection, then one independent region selection per configured region.
package analysis

import (
	"context"
	"fmt"

	"github.com/okian/vtxana/internal/config"
	"github.com/okian/vtxana/internal/domain/histos"
	"github.com/okian/vtxana/internal/domain/model"
)

// Processor is one stage of an analysis run.
type Processor interface {
	// Name identifies the processor in errors and logs.
	Name() string

	// Configure reads the processor's settings. It does no I/O.
	Configure(cfg *config.Config) error

	// Initialize loads rule sets and builds histograms.
	Initialize(ctx context.Context) error

	// Process handles one event. A returned error is fatal to the run.
	Process(ctx context.Context, evt *model.Event) error

	// Finalize hands accumulated histograms to sink.
	Finalize(ctx context.Context, sink histos.Sink) error
}

// Pipeline runs a fixed sequence of processors, each lifecycle step in
// order over all of them.
type Pipeline struct {
	processors []Processor
}

// NewPipeline composes processors in the given order.
func NewPipeline(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Name implements Processor.
func (p *Pipeline) Name() string { return "pipeline" }

// Configure implements Processor.
func (p *Pipeline) Configure(cfg *config.Config) error {
	for _, proc := range p.processors {
		if err := proc.Configure(cfg); err != nil {
			return fmt.Errorf("configure %s: %w", proc.Name(), err)
		}
	}
	return nil
}

// Initialize implements Processor.
func (p *Pipeline) Initialize(ctx context.Context) error {
	for _, proc := range p.processors {
		if err := proc.Initialize(ctx); err != nil {
			return fmt.Errorf("initialize %s: %w", proc.Name(), err)
		}
	}
	return nil
}

// Process implements Processor. The first error stops the event.
func (p *Pipeline) Process(ctx context.Context, evt *model.Event) error {
	for _, proc := range p.processors {
		if err := proc.Process(ctx, evt); err != nil {
			return fmt.Errorf("process %s: %w", proc.Name(), err)
		}
	}
	return nil
}

// Finalize implements Processor.
func (p *Pipeline) Finalize(ctx context.Context, sink histos.Sink) error {
	for _, proc := range p.processors {
		if err := proc.Finalize(ctx, sink); err != nil {
			return fmt.Errorf("finalize %s: %w", proc.Name(), err)
		}
	}
	return nil
}
