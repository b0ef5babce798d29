package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// AsyncOptions configures the remote shipping queue.
type AsyncOptions struct {
	BufferSize   int           // queued records before new ones are dropped; default 1024
	FlushTimeout time.Duration // Shutdown wait when ctx has no deadline; default 5s
}

func (o AsyncOptions) withDefaults() AsyncOptions {
	if o.BufferSize <= 0 {
		o.BufferSize = 1024
	}
	if o.FlushTimeout <= 0 {
		o.FlushTimeout = 5 * time.Second
	}
	return o
}

type queuedRecord struct {
	ctx  context.Context
	rec  slog.Record
	dest slog.Handler
}

// shipQueue is shared by an AsyncHandler and every handler derived from it.
type shipQueue struct {
	mu      sync.RWMutex // held for reading while sending, for writing while closing
	closed  bool
	records chan queuedRecord
	drained chan struct{}
	dropped atomic.Uint64
	flush   time.Duration
}

func newShipQueue(opts AsyncOptions) *shipQueue {
	opts = opts.withDefaults()
	q := &shipQueue{
		records: make(chan queuedRecord, opts.BufferSize),
		drained: make(chan struct{}),
		flush:   opts.FlushTimeout,
	}
	go q.drain()
	return q
}

func (q *shipQueue) drain() {
	defer close(q.drained)
	for r := range q.records {
		_ = r.dest.Handle(r.ctx, r.rec)
	}
}

func (q *shipQueue) push(r queuedRecord) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return
	}
	select {
	case q.records <- r:
	default:
		q.dropped.Add(1)
	}
}

func (q *shipQueue) close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.records)
	}
	q.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.flush)
		defer cancel()
	}
	select {
	case <-q.drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AsyncHandler hands records to a single background goroutine so remote log
// shipping never blocks the webhook path. Records are dropped when the queue
// is full, and ignored after Shutdown.
type AsyncHandler struct {
	q    *shipQueue
	dest slog.Handler
}

// NewAsyncHandler wraps dest with a bounded queue.
func NewAsyncHandler(dest slog.Handler, opts AsyncOptions) *AsyncHandler {
	return &AsyncHandler{q: newShipQueue(opts), dest: dest}
}

func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.dest.Enabled(ctx, level)
}

// Handle queues a clone of r. The record outlives the request, so ctx loses
// its cancellation.
func (h *AsyncHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx == nil {
		ctx = context.Background()
	}
	h.q.push(queuedRecord{ctx: context.WithoutCancel(ctx), rec: r.Clone(), dest: h.dest})
	return nil
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{q: h.q, dest: h.dest.WithAttrs(attrs)}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{q: h.q, dest: h.dest.WithGroup(name)}
}

// Dropped returns how many records were discarded because the queue was full.
func (h *AsyncHandler) Dropped() uint64 {
	if h == nil {
		return 0
	}
	return h.q.dropped.Load()
}

// Shutdown stops accepting records and waits for the queue to drain.
// Safe to call more than once.
func (h *AsyncHandler) Shutdown(ctx context.Context) error {
	if h == nil {
		return nil
	}
	return h.q.close(ctx)
}
