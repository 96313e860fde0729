// Package sink persists histogram groups at the end of a run.
package sink

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/okian/vtxana/internal/domain/histos"
)

// yodaMarshaler is implemented by hbook's H1D and H2D.
type yodaMarshaler interface {
	MarshalYODA() ([]byte, error)
}

// YODA writes groups as YODA text, one block per histogram. Each group
// starts with its cut flow; block paths are /<group>/<quantity>.
type YODA struct {
	w       *bufio.Writer
	file    io.Closer
	header  []string
	started bool
	groups  []string
}

// Option applies a configuration option to the YODA sink.
type Option func(*YODA)

// WithHeader adds comment lines written once before the first group.
func WithHeader(lines ...string) Option {
	return func(y *YODA) {
		y.header = append(y.header, lines...)
	}
}

// NewYODA writes to w. Close flushes but does not close w.
func NewYODA(w io.Writer, opts ...Option) *YODA {
	y := &YODA{w: bufio.NewWriter(w)}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

// CreateYODA creates the file at path.
func CreateYODA(path string, opts ...Option) (*YODA, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", histos.ErrWrite, err)
	}
	y := NewYODA(f, opts...)
	y.file = f
	return y, nil
}

// WriteGroup implements histos.Sink.
func (y *YODA) WriteGroup(ctx context.Context, g histos.Group) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !y.started {
		for _, line := range y.header {
			if _, err := fmt.Fprintf(y.w, "# %s\n", line); err != nil {
				return fmt.Errorf("%w: %v", histos.ErrWrite, err)
			}
		}
		y.started = true
	}
	if _, err := fmt.Fprintf(y.w, "# group %s\n", g.Name); err != nil {
		return fmt.Errorf("%w: %v", histos.ErrWrite, err)
	}

	blocks := make([]yodaMarshaler, 0, 1+len(g.H1)+len(g.H2))
	if g.CutFlow != nil {
		blocks = append(blocks, g.CutFlow)
	}
	for _, h := range g.H1 {
		blocks = append(blocks, h)
	}
	for _, h := range g.H2 {
		blocks = append(blocks, h)
	}
	for _, b := range blocks {
		raw, err := b.MarshalYODA()
		if err != nil {
			return fmt.Errorf("%w: %s: %v", histos.ErrWrite, g.Name, err)
		}
		if _, err := y.w.Write(raw); err != nil {
			return fmt.Errorf("%w: %s: %v", histos.ErrWrite, g.Name, err)
		}
	}
	y.groups = append(y.groups, g.Name)
	return nil
}

// Groups returns the names written so far, in order.
func (y *YODA) Groups() []string {
	out := make([]string, len(y.groups))
	copy(out, y.groups)
	return out
}

// Close implements histos.Sink.
func (y *YODA) Close() error {
	var errs []error
	if err := y.w.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", histos.ErrWrite, err))
	}
	if y.file != nil {
		if err := y.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%w: %v", histos.ErrWrite, err))
		}
		y.file = nil
	}
	return errors.Join(errs...)
}
