// Package transport delivers telemetry events to the ingestion endpoint
// asynchronously: callers enqueue events on a bounded channel and a single
// background goroutine batches and flushes them, so the invocation path
// never blocks on network I/O.
package transport

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/atomic"

	ilog "github.com/InvokeLens/invokelens-sdk/internal/log"
)

// Retry/backoff parameters for the HTTP batch sender. MaxRetries+1 total
// attempts are made for a given batch before it is dropped. The
// EventBridge sender makes a single attempt per batch.
const (
	MaxRetries        = 3
	InitialBackoff    = 1 * time.Second
	BackoffMultiplier = 2.0
)

// initialBackoff is the mutable base used by the HTTP sender's retry loop.
// It defaults to InitialBackoff; tests shrink it to keep retry tests fast.
var initialBackoff = InitialBackoff

// Sender flushes one batch of already-serialized events. Implementations
// decide the wire format and retry policy for their transport mode.
type Sender interface {
	Flush(batch []string)
}

// Transport accepts telemetry events for asynchronous delivery.
type Transport interface {
	Send(event any)
	Shutdown()
}

// batched is the shared bounded-queue, background-worker implementation
// used by every real Sender. It owns the goroutine lifecycle; Sender
// implementations only need to know how to flush a batch.
type batched struct {
	sender Sender

	batchSize     int
	flushInterval time.Duration

	queue chan string

	dropped atomic.Int64

	wg       sync.WaitGroup
	shutdown chan struct{}
	once     sync.Once
}

func newBatched(sender Sender, batchSize int, flushInterval time.Duration, maxQueueSize int) *batched {
	if batchSize <= 0 {
		batchSize = 10
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}
	if maxQueueSize <= 0 {
		maxQueueSize = 1000
	}
	b := &batched{
		sender:        sender,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		queue:         make(chan string, maxQueueSize),
		shutdown:      make(chan struct{}),
	}
	b.wg.Add(1)
	go b.run()
	return b
}

// Send enqueues event for async delivery. Non-blocking: if the queue is
// full the event is dropped and a warning logged, rather than ever
// blocking the caller's invocation.
func (b *batched) Send(event any) {
	encoded, err := json.Marshal(event)
	if err != nil {
		ilog.Warn("InvokeLens failed to encode event, dropping: %s", err)
		return
	}
	select {
	case b.queue <- string(encoded):
	default:
		b.dropped.Add(1)
		ilog.Warn("InvokeLens event queue full, dropping event")
	}
}

// Dropped returns the number of events dropped so far because the queue
// was full.
func (b *batched) Dropped() int64 {
	return b.dropped.Load()
}

func (b *batched) run() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	batch := make([]string, 0, b.batchSize)
	for {
		select {
		case item := <-b.queue:
			batch = append(batch, item)
			if len(batch) >= b.batchSize {
				b.sender.Flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				b.sender.Flush(batch)
				batch = batch[:0]
			}
		case <-b.shutdown:
			b.drain(&batch)
			return
		}
	}
}

func (b *batched) drain(batch *[]string) {
	for {
		select {
		case item := <-b.queue:
			*batch = append(*batch, item)
		default:
			if len(*batch) > 0 {
				b.sender.Flush(*batch)
			}
			return
		}
	}
}

// shutdownTimeout caps how long Shutdown waits for the worker's final
// flush, which may itself be mid-retry against an unhealthy endpoint.
const shutdownTimeout = 10 * time.Second

// Shutdown stops the worker and flushes any events still queued, waiting
// at most shutdownTimeout for the final flush to complete.
func (b *batched) Shutdown() {
	b.once.Do(func() {
		close(b.shutdown)
	})
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		ilog.Warn("InvokeLens transport worker did not stop within %s, abandoning final flush", shutdownTimeout)
	}
}
