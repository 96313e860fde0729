package sink

import (
	"context"
	"sync"

	"github.com/okian/vtxana/internal/domain/histos"
)

// Memory keeps groups in memory, in write order.
type Memory struct {
	mu     sync.Mutex
	groups []histos.Group
	closed bool
}

// NewMemory returns an empty memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

// WriteGroup implements histos.Sink.
func (m *Memory) WriteGroup(ctx context.Context, g histos.Group) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups = append(m.groups, g)
	return nil
}

// Groups returns the written groups.
func (m *Memory) Groups() []histos.Group {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]histos.Group, len(m.groups))
	copy(out, m.groups)
	return out
}

// Group returns the group with name, if written.
func (m *Memory) Group(name string) (histos.Group, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.groups {
		if g.Name == name {
			return g, true
		}
	}
	return histos.Group{}, false
}

// Close implements histos.Sink.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *Memory) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
