package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/okian/vtxana/internal/domain/model"
)

// HeaderKey is the object key of the event header in a JSON-lines record.
const HeaderKey = "EventHeader"

// Default collection keys.
const (
	DefaultVertexCollection = "UnconstrainedV0Vertices"
	DefaultTrackCollection  = "GBLTracks"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// JSONLines reads one event per line:
//
//	{"EventHeader": {...}, "UnconstrainedV0Vertices": [...], "GBLTracks": [...]}
//
// Missing collections decode as empty. Blank lines are skipped.
type JSONLines struct {
	r       *bufio.Reader
	closers []io.Closer
	vtxColl string
	trkColl string
	line    int
}

// Option applies a configuration option to a JSON-lines reader or writer.
type Option func(*collections)

type collections struct {
	vtx string
	trk string
}

// WithCollections sets the vertex and track collection keys.
func WithCollections(vtx, trk string) Option {
	return func(c *collections) {
		if vtx != "" {
			c.vtx = vtx
		}
		if trk != "" {
			c.trk = trk
		}
	}
}

func applyOptions(opts []Option) collections {
	c := collections{vtx: DefaultVertexCollection, trk: DefaultTrackCollection}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// NewJSONLines reads events from r. The caller owns r.
func NewJSONLines(r io.Reader, opts ...Option) *JSONLines {
	c := applyOptions(opts)
	return &JSONLines{r: bufio.NewReader(r), vtxColl: c.vtx, trkColl: c.trk}
}

// Open opens path for reading; "-" selects stdin. Files ending in .gz or
// .zst are decompressed.
func Open(path string, opts ...Option) (*JSONLines, error) {
	if path == Stdin {
		return NewJSONLines(os.Stdin, opts...), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	r, closer, err := decompress(path, f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrOpen, path, err)
	}
	src := NewJSONLines(r, opts...)
	if closer != nil {
		src.closers = append(src.closers, closer)
	}
	src.closers = append(src.closers, f)
	return src, nil
}

func decompress(path string, r io.Reader) (io.Reader, io.Closer, error) {
	switch {
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr, nil
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, closerFunc(func() error { zr.Close(); return nil }), nil
	default:
		return r, nil, nil
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// Next implements Source.
func (s *JSONLines) Next(ctx context.Context) (*model.Event, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := s.r.ReadBytes('\n')
		if len(bytes.TrimSpace(raw)) == 0 {
			if err != nil {
				return nil, s.readErr(err)
			}
			s.line++
			continue
		}
		s.line++
		evt, decErr := s.decode(raw)
		if decErr != nil {
			return nil, decErr
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, s.readErr(err)
		}
		return evt, nil
	}
}

func (s *JSONLines) readErr(err error) error {
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	return fmt.Errorf("%w: line %d: %v", ErrDecode, s.line+1, err)
}

func (s *JSONLines) decode(raw []byte) (*model.Event, error) {
	var rec map[string]json.RawMessage
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("%w: line %d: %v", ErrDecode, s.line, err)
	}
	evt := &model.Event{}
	fields := []struct {
		key string
		dst any
	}{
		{HeaderKey, &evt.Header},
		{s.vtxColl, &evt.Vertices},
		{s.trkColl, &evt.Tracks},
	}
	for _, f := range fields {
		msg, ok := rec[f.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(msg, f.dst); err != nil {
			return nil, fmt.Errorf("%w: line %d: %s: %v", ErrDecode, s.line, f.key, err)
		}
	}
	return evt, nil
}

// Close releases the decompressor and file, if any.
func (s *JSONLines) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Writer encodes events in the layout JSONLines reads.
type Writer struct {
	w       io.Writer
	closers []io.Closer
	vtxColl string
	trkColl string
}

// NewWriter writes events to w. The caller owns w.
func NewWriter(w io.Writer, opts ...Option) *Writer {
	c := applyOptions(opts)
	return &Writer{w: w, vtxColl: c.vtx, trkColl: c.trk}
}

// Create creates path for writing; "-" selects stdout. Files ending in .gz
// or .zst are compressed.
func Create(path string, opts ...Option) (*Writer, error) {
	if path == Stdin {
		return NewWriter(os.Stdout, opts...), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	var w io.Writer = f
	var closers []io.Closer
	switch {
	case strings.HasSuffix(path, ".gz"):
		zw := gzip.NewWriter(f)
		w, closers = zw, append(closers, zw)
	case strings.HasSuffix(path, ".zst"):
		zw, err := zstd.NewWriter(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("%w: %s: %v", ErrOpen, path, err)
		}
		w, closers = zw, append(closers, zw)
	}
	out := NewWriter(w, opts...)
	out.closers = append(closers, f)
	return out, nil
}

// Write encodes one event as a single line.
func (w *Writer) Write(evt *model.Event) error {
	rec := map[string]any{
		HeaderKey: evt.Header,
		w.vtxColl: nonNil(evt.Vertices),
		w.trkColl: nonNil(evt.Tracks),
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = w.w.Write(append(line, '\n'))
	return err
}

// Close flushes the compressor, if any, and closes the file.
func (w *Writer) Close() error {
	var errs []error
	for _, c := range w.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	w.closers = nil
	return errors.Join(errs...)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
