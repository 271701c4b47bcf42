// Package protocol defines the messages exchanged between the control
// thread and the audio thread and the bounded queues that carry them.
package protocol

import (
	"errors"
	"sync/atomic"
)

// ErrDropped is returned by Push when the queue is full. The message is
// discarded; the caller never blocks.
var ErrDropped = errors.New("queue full: message dropped")

// Queue is a bounded single-producer/single-consumer ring. One goroutine
// may call Push and one other goroutine may call Pop concurrently; neither
// call blocks or allocates.
type Queue[T any] struct {
	buf  []T
	mask uint64

	// head is the next slot to read, owned by the consumer.
	head atomic.Uint64
	_    [56]byte
	// tail is the next slot to write, owned by the producer.
	tail atomic.Uint64
	_    [56]byte
}

// NewQueue creates a queue holding at least capacity items. The capacity is
// rounded up to a power of two.
func NewQueue[T any](capacity int) *Queue[T] {
	n := 1
	for n < capacity {
		n <<= 1
	}
	return &Queue[T]{
		buf:  make([]T, n),
		mask: uint64(n - 1),
	}
}

// Push appends v, or returns ErrDropped when the queue is full.
func (q *Queue[T]) Push(v T) error {
	tail := q.tail.Load()
	if tail-q.head.Load() >= uint64(len(q.buf)) {
		return ErrDropped
	}
	q.buf[tail&q.mask] = v
	q.tail.Store(tail + 1)
	return nil
}

// Pop removes the oldest item. ok is false when the queue is empty.
func (q *Queue[T]) Pop() (v T, ok bool) {
	head := q.head.Load()
	if head == q.tail.Load() {
		return v, false
	}
	slot := &q.buf[head&q.mask]
	v = *slot
	var zero T
	*slot = zero
	q.head.Store(head + 1)
	return v, true
}

// Len returns the number of queued items. It is a snapshot and may be stale
// by the time the caller uses it.
func (q *Queue[T]) Len() int {
	return int(q.tail.Load() - q.head.Load())
}

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int { return len(q.buf) }
