// Package service wires a full analysis run: it reads events from the
// configured source, feeds them through the analysis pipeline on a single
// worker and writes the histogram groups once the input is exhausted.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/vtxana/internal/adapters/http/api"
	eventqueue "github.com/okian/vtxana/internal/adapters/mq/queue"
	"github.com/okian/vtxana/internal/adapters/mq/worker"
	"github.com/okian/vtxana/internal/adapters/sink"
	"github.com/okian/vtxana/internal/adapters/source"
	"github.com/okian/vtxana/internal/analysis"
	"github.com/okian/vtxana/internal/config"
	"github.com/okian/vtxana/internal/domain/histos"
	"github.com/okian/vtxana/pkg/logger"
	"github.com/okian/vtxana/pkg/metrics"
)

// Summary describes a finished run.
type Summary struct {
	RunID           string
	EventsRead      int64
	EventsProcessed int64
	Groups          []string
	Duration        time.Duration
}

// Service runs one analysis pass over an event stream.
type Service struct {
	mu sync.Mutex

	cfg *config.Config

	// Components; nil ones are built from cfg when the run starts.
	processors []analysis.Processor
	source     source.Source
	sink       histos.Sink

	// Configuration
	queueSize int
	runID     string

	// State
	running   bool
	state     string
	startedAt time.Time
	read      atomic.Int64
	queue     *eventqueue.InMemoryQueue
	worker    *worker.InMemoryWorker

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithProcessors replaces the default vertex analysis.
func WithProcessors(processors ...analysis.Processor) Option {
	return func(s *Service) {
		if len(processors) > 0 {
			s.processors = processors
		}
	}
}

// WithSource reads events from src instead of the configured input.
func WithSource(src source.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithSink writes groups to out instead of the configured output file.
func WithSink(out histos.Sink) Option {
	return func(s *Service) {
		if out != nil {
			s.sink = out
		}
	}
}

// WithQueueSize overrides the configured queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithRunID sets the run identifier instead of a random one.
func WithRunID(id string) Option {
	return func(s *Service) {
		if id != "" {
			s.runID = id
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a Service for cfg.
func New(cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		cfg:       cfg,
		queueSize: cfg.QueueSize,
		runID:     uuid.New().String(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger = s.logger.With(logger.String("run_id", s.runID))

	if len(s.processors) == 0 {
		s.processors = []analysis.Processor{
			analysis.NewVertexAnalysis(
				analysis.WithName(cfg.AnaName),
				analysis.WithLogger(s.logger.Named(cfg.AnaName)),
			),
		}
	}

	return s
}

// RunID returns the identifier stamped on logs and output.
func (s *Service) RunID() string {
	return s.runID
}

// Run processes the whole input. A fatal error from any stage stops the run;
// no output is written in that case.
func (s *Service) Run(ctx context.Context) (Summary, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return Summary{}, ErrAlreadyRunning
	}
	s.running = true
	s.state = api.StateStarting
	s.startedAt = time.Now()
	s.read.Store(0)
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	start := time.Now()
	summary := Summary{RunID: s.runID}

	if s.cfg.MonitorAddr != "" {
		stop, err := s.startMonitor(ctx)
		if err != nil {
			return summary, s.fail(ctx, "monitor", err)
		}
		defer stop()
	}

	s.logger.Info(ctx, "starting analysis run",
		logger.String("ana", s.cfg.AnaName),
		logger.String("input", s.cfg.Input),
		logger.String("output", s.cfg.Output),
		logger.Int("regions", len(s.cfg.RegionDefinitions)),
		logger.Int("queueSize", s.queueSize),
		logger.Int("maxEvents", s.cfg.MaxEvents),
	)

	pipeline := analysis.NewPipeline(s.processors...)
	if err := pipeline.Configure(s.cfg); err != nil {
		return summary, s.fail(ctx, "configure", err)
	}
	if err := pipeline.Initialize(ctx); err != nil {
		return summary, s.fail(ctx, "initialize", err)
	}

	src, err := s.openSource()
	if err != nil {
		return summary, s.fail(ctx, "source", err)
	}
	defer func() { _ = src.Close() }()

	s.setState(api.StateRunning)
	read, processed, err := s.process(ctx, src, pipeline)
	summary.EventsRead, summary.EventsProcessed = read, processed
	if err != nil {
		return summary, s.fail(ctx, "process", err)
	}

	s.setState(api.StateFinishing)
	groups, err := s.finalize(ctx, pipeline)
	summary.Groups = groups
	if err != nil {
		return summary, s.fail(ctx, "finalize", err)
	}

	if s.cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(s.cfg.MetricsFile); err != nil {
			return summary, s.fail(ctx, "metrics", err)
		}
	}

	s.setState(api.StateDone)
	summary.Duration = time.Since(start)
	s.logger.Info(ctx, "analysis run complete",
		logger.Int("eventsRead", int(summary.EventsRead)),
		logger.Int("eventsProcessed", int(summary.EventsProcessed)),
		logger.Int("groups", len(summary.Groups)),
		logger.String("duration", summary.Duration.String()),
	)
	return summary, nil
}

func (s *Service) openSource() (source.Source, error) {
	if s.source != nil {
		return s.source, nil
	}
	return source.Open(s.cfg.Input, source.WithCollections(s.cfg.VtxColl, s.cfg.TrkColl))
}

// process runs the reader and the worker until the input is exhausted or
// either side fails; the first failure cancels the other.
func (s *Service) process(ctx context.Context, src source.Source, pipeline *analysis.Pipeline) (int64, int64, error) {
	q := eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	w := worker.NewInMemoryWorker(q, pipeline,
		worker.WithName(s.cfg.AnaName),
		worker.WithLogger(s.logger.Named("worker")),
	)

	s.mu.Lock()
	s.queue, s.worker = q, w
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer func() { _ = q.Close() }()
		for s.cfg.MaxEvents <= 0 || s.read.Load() < int64(s.cfg.MaxEvents) {
			evt, err := src.Next(gctx)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read event: %w", err)
			}
			if err := q.Enqueue(gctx, evt); err != nil {
				return fmt.Errorf("enqueue event %d: %w", evt.Header.EventNumber, err)
			}
			s.read.Add(1)
		}
		s.logger.Info(gctx, "event limit reached", logger.Int("maxEvents", s.cfg.MaxEvents))
		return nil
	})

	g.Go(func() error {
		return w.Run(gctx)
	})

	err := g.Wait()
	return s.read.Load(), w.Processed(), err
}

func (s *Service) finalize(ctx context.Context, pipeline *analysis.Pipeline) ([]string, error) {
	out := s.sink
	if out == nil {
		yoda, err := sink.CreateYODA(s.cfg.Output,
			sink.WithHeader("run_id: "+s.runID, "ana_name: "+s.cfg.AnaName))
		if err != nil {
			return nil, err
		}
		out = yoda
	}

	rec := &groupRecorder{Sink: out}
	if err := pipeline.Finalize(ctx, rec); err != nil {
		_ = out.Close()
		return rec.names, err
	}
	return rec.names, out.Close()
}

func (s *Service) fail(ctx context.Context, stage string, err error) error {
	s.setState(api.StateFailed)
	metrics.RecordErrorByComponent("service", stage)
	s.logger.Error(ctx, "analysis run failed", logger.String("stage", stage), logger.Error(err))
	return fmt.Errorf("%s: %w", stage, err)
}

func (s *Service) setState(state string) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Status reports run progress; it is safe to call while Run is active.
func (s *Service) Status(ctx context.Context) api.Status {
	s.mu.Lock()
	st := api.Status{
		RunID:      s.runID,
		State:      s.state,
		EventsRead: s.read.Load(),
		StartedAt:  s.startedAt,
	}
	q, w := s.queue, s.worker
	s.mu.Unlock()

	if w != nil {
		st.EventsProcessed = w.Processed()
	}
	if q != nil {
		st.QueueLength = q.Len(ctx)
	}
	if !st.StartedAt.IsZero() {
		st.Elapsed = time.Since(st.StartedAt).Round(time.Millisecond).String()
	}
	return st
}

// startMonitor binds the monitor address and serves until the returned stop
// function is called.
func (s *Service) startMonitor(ctx context.Context) (func(), error) {
	ln, err := net.Listen("tcp", s.cfg.MonitorAddr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", api.ErrServe, err)
	}

	mux := http.NewServeMux()
	api.NewServer(s).Register(ctx, mux)

	monCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := api.ServeListener(monCtx, ln, mux); err != nil {
			s.logger.Warn(monCtx, "monitor stopped", logger.Error(err))
		}
	}()

	s.logger.Info(ctx, "serving run monitor", logger.String("addr", ln.Addr().String()))
	return func() {
		cancel()
		<-done
	}, nil
}

// groupRecorder notes the names of written groups.
type groupRecorder struct {
	histos.Sink
	names []string
}

func (r *groupRecorder) WriteGroup(ctx context.Context, g histos.Group) error {
	if err := r.Sink.WriteGroup(ctx, g); err != nil {
		return err
	}
	r.names = append(r.names, g.Name)
	return nil
}
