// Package worker drains the event queue into the analysis, one event at a
// time in read order.
package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/vtxana/internal/adapters/mq/queue"
	"github.com/okian/vtxana/pkg/logger"
	"github.com/okian/vtxana/pkg/metrics"
)

// Event abstracts what workers read off the queue.
type Event = queue.Event

// Processor handles one event. Any error is fatal to the run.
type Processor interface {
	Process(ctx context.Context, evt Event) error
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker processes events until the queue is drained.
type Worker interface {
	// Run processes events until the queue closes, ctx is done, or an
	// event fails.
	Run(ctx context.Context) error

	// Shutdown stops the worker after the event in progress.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker over a Queue.
type InMemoryWorker struct {
	queue     Queue
	processor Processor
	name      string

	processed atomic.Int64

	// Shutdown control
	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, processor Processor, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		processor: processor,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) error {
	defer close(w.done)

	eventChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.shutdown:
			return nil
		case event, ok := <-eventChan:
			if !ok {
				w.logger.Debug(ctx, "queue drained", logger.Int("processed", int(w.processed.Load())))
				return nil
			}
			if err := w.processEvent(ctx, event); err != nil {
				return err
			}
		}
	}
}

// Shutdown gracefully stops the worker. It is safe to call more than once.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Processed returns the number of events processed successfully.
func (w *InMemoryWorker) Processed() int64 {
	return w.processed.Load()
}

// processEvent handles a single event.
func (w *InMemoryWorker) processEvent(ctx context.Context, event Event) error {
	start := time.Now()
	defer func() {
		metrics.RecordEventLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if err := w.processor.Process(ctx, event); err != nil {
		metrics.RecordErrorByComponent("worker", "process_error")
		w.logger.Error(ctx, "event processing failed",
			logger.Int("run", event.Header.RunNumber),
			logger.Int("event", event.Header.EventNumber),
			logger.Error(err),
		)
		return fmt.Errorf("event %d: %w", event.Header.EventNumber, err)
	}

	w.processed.Add(1)
	metrics.RecordEventProcessed()
	return nil
}
