// Package queue carries pairing jobs from the report builder to the
// evaluation workers.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/racepick/internal/domain/model"
	"github.com/okian/racepick/pkg/metrics"
)

// DefaultCapacity is the queue size unless WithCapacity says otherwise.
const DefaultCapacity = 1024

// Job asks a worker to evaluate one pairing. Seq is the job's position in
// the cross product and lets results be put back in roster order.
type Job struct {
	Seq    int
	Ours   model.Player
	Theirs model.Player
}

// Queue provides enqueue and channel-based dequeue semantics.
type Queue interface {
	// Put adds a job, waiting for room until ctx is done.
	Put(ctx context.Context, j Job) error

	// Dequeue returns a channel that receives jobs. It is closed when the
	// queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Job

	// Len returns the current number of queued jobs.
	Len(ctx context.Context) int

	// Close stops accepting jobs. Queued jobs can still be dequeued.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)
	metrics.UpdateQueue(0, q.capacity)
	return q
}

// Put adds a job, blocking while the queue is full.
func (q *InMemoryQueue) Put(ctx context.Context, j Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueue(false)
		metrics.RecordError("queue", "closed")
		return ErrClosed
	}

	select {
	case q.jobs <- j:
		metrics.RecordQueueEnqueue(true)
		metrics.UpdateQueue(len(q.jobs), q.capacity)
		return nil
	case <-ctx.Done():
		metrics.RecordQueueEnqueue(false)
		metrics.RecordError("queue", "context_cancelled")
		return fmt.Errorf("put job %d: %w", j.Seq, ctx.Err())
	}
}

// Dequeue returns the job channel. Every call returns the same channel.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Job {
	return q.jobs
}

// Len returns the current number of queued jobs.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.jobs)
	metrics.UpdateQueue(size, q.capacity)
	return size
}

// Capacity returns the queue bound.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close stops accepting jobs.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
