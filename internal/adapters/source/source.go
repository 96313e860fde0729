// Package source reads events for the analysis: a JSON-lines file reader
// and an in-memory source for tests and generated data.
package source

import (
	"context"
	"io"

	"github.com/okian/vtxana/internal/domain/model"
)

// Source yields events in read order. Next returns io.EOF after the last
// event.
type Source interface {
	Next(ctx context.Context) (*model.Event, error)
	Close() error
}

// Memory serves a fixed slice of events.
type Memory struct {
	events []model.Event
	pos    int
}

// NewMemory returns a source over events.
func NewMemory(events ...model.Event) *Memory {
	return &Memory{events: events}
}

// Next implements Source.
func (m *Memory) Next(ctx context.Context) (*model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.pos >= len(m.events) {
		return nil, io.EOF
	}
	evt := &m.events[m.pos]
	m.pos++
	return evt, nil
}

// Close implements Source.
func (m *Memory) Close() error { return nil }
