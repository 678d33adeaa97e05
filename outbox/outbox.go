/*
Package outbox implements the best-effort sync path between the
in-memory ledger and durable storage.

PURPOSE:
  The ledger mutates in memory first; durability is a separate,
  asynchronous concern. After each mutation the caller enqueues the
  affected customer's snapshot here, and a worker goroutine drains the
  queue into a Sink. A sink failure is logged and retried; it never
  blocks a caller and never rolls back the in-memory state.

CONTRACT:
  - Enqueue never blocks. If the buffer is full the task is dropped
    and counted; the next mutation of the same customer re-snapshots
    the full state, so a dropped task loses no information for long.
  - Tasks carry whole-customer snapshots, not diffs. Saves are
    idempotent full replacements, so replays and reorderings are safe.
  - The worker retries a failed task with backoff up to MaxAttempts,
    then gives up on that task.

SEE ALSO:
  - store/sqlite: The production Sink
  - ledger/store.go: The in-memory source of truth
*/
package outbox

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/debt-engine/ledger"
	"github.com/warp/debt-engine/metrics"
)

// Sink receives full customer snapshots. Implementations must treat
// SaveCustomer as an idempotent full replacement.
type Sink interface {
	SaveCustomer(ctx context.Context, c ledger.Customer) error
	DeleteCustomer(ctx context.Context, id ledger.CustomerID) error
}

// Task is one queued sync operation. A nil Customer means delete.
type Task struct {
	CustomerID ledger.CustomerID
	Customer   *ledger.Customer
	EnqueuedAt time.Time
}

// Options tune the outbox. Zero values fall back to defaults.
type Options struct {
	Buffer       int
	MaxAttempts  int
	RetryBackoff time.Duration
	SaveTimeout  time.Duration
}

func (o Options) withDefaults() Options {
	if o.Buffer <= 0 {
		o.Buffer = 256
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 250 * time.Millisecond
	}
	if o.SaveTimeout <= 0 {
		o.SaveTimeout = 5 * time.Second
	}
	return o
}

// Outbox queues sync tasks for a single worker goroutine.
type Outbox struct {
	sink Sink
	log  *zap.Logger
	opts Options

	ch chan Task
	wg sync.WaitGroup
}

// New creates an outbox. A nil logger means zap.NewNop.
//
// New arms the WaitGroup behind Wait, not Run: if Run registered
// itself, a shutdown could call Wait before the worker goroutine was
// scheduled and skip the flush. Run must be called exactly once.
func New(sink Sink, log *zap.Logger, opts Options) *Outbox {
	if log == nil {
		log = zap.NewNop()
	}
	opts = opts.withDefaults()
	o := &Outbox{
		sink: sink,
		log:  log.Named("outbox"),
		opts: opts,
		ch:   make(chan Task, opts.Buffer),
	}
	o.wg.Add(1)
	return o
}

// EnqueueSave queues a full snapshot of the customer. Never blocks.
func (o *Outbox) EnqueueSave(c ledger.Customer) {
	snapshot := c.Clone()
	o.enqueue(Task{CustomerID: c.ID, Customer: &snapshot, EnqueuedAt: time.Now()})
}

// EnqueueDelete queues removal of the customer from the sink.
func (o *Outbox) EnqueueDelete(id ledger.CustomerID) {
	o.enqueue(Task{CustomerID: id, EnqueuedAt: time.Now()})
}

func (o *Outbox) enqueue(t Task) {
	select {
	case o.ch <- t:
		metrics.Ledger().OutboxDepth.Set(float64(len(o.ch)))
	default:
		metrics.Ledger().OutboxDropped.Inc()
		o.log.Warn("outbox buffer full, dropping sync task",
			zap.String("customer_id", string(t.CustomerID)))
	}
}

// Depth returns the number of queued tasks.
func (o *Outbox) Depth() int { return len(o.ch) }

// Run drains the queue until ctx is canceled, then flushes whatever is
// still buffered and returns. Call once, typically in a goroutine.
func (o *Outbox) Run(ctx context.Context) {
	defer o.wg.Done()

	for {
		select {
		case t := <-o.ch:
			o.process(t)
			metrics.Ledger().OutboxDepth.Set(float64(len(o.ch)))
		case <-ctx.Done():
			o.drain()
			return
		}
	}
}

// Wait blocks until Run has returned, including its shutdown flush.
func (o *Outbox) Wait() { o.wg.Wait() }

func (o *Outbox) drain() {
	for {
		select {
		case t := <-o.ch:
			o.process(t)
		default:
			metrics.Ledger().OutboxDepth.Set(0)
			return
		}
	}
}

func (o *Outbox) process(t Task) {
	var err error
	for attempt := 1; attempt <= o.opts.MaxAttempts; attempt++ {
		err = o.flush(t)
		if err == nil {
			metrics.Ledger().OutboxSaves.Inc()
			return
		}
		metrics.Ledger().OutboxFailures.Inc()
		o.log.Warn("sink write failed",
			zap.String("customer_id", string(t.CustomerID)),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt < o.opts.MaxAttempts {
			time.Sleep(o.opts.RetryBackoff * time.Duration(attempt))
		}
	}
	// Give up; the next mutation of this customer re-snapshots the full
	// state, so nothing is permanently lost while the process lives.
	o.log.Error("giving up on sync task",
		zap.String("customer_id", string(t.CustomerID)),
		zap.Int("attempts", o.opts.MaxAttempts),
		zap.Error(err))
}

func (o *Outbox) flush(t Task) error {
	ctx, cancel := context.WithTimeout(context.Background(), o.opts.SaveTimeout)
	defer cancel()

	if t.Customer == nil {
		return o.sink.DeleteCustomer(ctx, t.CustomerID)
	}
	return o.sink.SaveCustomer(ctx, *t.Customer)
}
