package spatial

import (
	"runtime"
	"sync/atomic"
)

// CacheLineSize is the typical CPU cache line size (64 bytes on x86-64)
const CacheLineSize = 64

// Padding keeps hot counters on separate cache lines
type Padding [CacheLineSize]byte

type cell[T any] struct {
	seq  atomic.Uint64
	item T
}

// LockFreeQueue is a bounded multi-producer ring buffer drained by one
// consumer. Each cell carries a sequence number, so a consumer never reads
// a slot a producer has claimed but not yet written.
//
// Producers are network goroutines (inbound commands, outbound effect
// descriptors); the consumer is the tick loop or the broadcast loop.
type LockFreeQueue[T any] struct {
	_pad0 Padding
	head  atomic.Uint64 // next slot to claim (producers)
	_pad1 Padding
	tail  atomic.Uint64 // next slot to read (consumer)
	_pad2 Padding

	mask  uint64
	cells []cell[T]

	dropped atomic.Uint64
}

// NewLockFreeQueue creates a queue. capacity is rounded up to a power of 2.
func NewLockFreeQueue[T any](capacity int) *LockFreeQueue[T] {
	size := 2
	for size < capacity {
		size <<= 1
	}
	q := &LockFreeQueue[T]{
		mask:  uint64(size - 1),
		cells: make([]cell[T], size),
	}
	for i := range q.cells {
		q.cells[i].seq.Store(uint64(i))
	}
	return q
}

// TryPush adds an item. Returns false when the queue is full; the item is
// counted as dropped.
func (q *LockFreeQueue[T]) TryPush(item T) bool {
	for {
		pos := q.head.Load()
		c := &q.cells[pos&q.mask]
		seq := c.seq.Load()

		switch {
		case seq == pos:
			if q.head.CompareAndSwap(pos, pos+1) {
				c.item = item
				c.seq.Store(pos + 1)
				return true
			}
		case seq < pos:
			q.dropped.Add(1)
			return false
		}
		runtime.Gosched()
	}
}

// TryPop removes the oldest item. Single consumer only.
func (q *LockFreeQueue[T]) TryPop() (T, bool) {
	var zero T
	pos := q.tail.Load()
	c := &q.cells[pos&q.mask]
	if c.seq.Load() != pos+1 {
		return zero, false
	}
	item := c.item
	c.item = zero
	c.seq.Store(pos + q.mask + 1)
	q.tail.Store(pos + 1)
	return item, true
}

// Drain pops up to maxItems into a new slice.
func (q *LockFreeQueue[T]) Drain(maxItems int) []T {
	out := make([]T, 0, min(maxItems, q.Len()))
	for len(out) < maxItems {
		item, ok := q.TryPop()
		if !ok {
			break
		}
		out = append(out, item)
	}
	return out
}

// DrainTo pops into buf without allocating and returns the count written.
func (q *LockFreeQueue[T]) DrainTo(buf []T) int {
	n := 0
	for n < len(buf) {
		item, ok := q.TryPop()
		if !ok {
			break
		}
		buf[n] = item
		n++
	}
	return n
}

// Len returns an approximate item count.
func (q *LockFreeQueue[T]) Len() int {
	head := q.head.Load()
	tail := q.tail.Load()
	if head < tail {
		return 0
	}
	return int(head - tail)
}

// Cap returns the capacity.
func (q *LockFreeQueue[T]) Cap() int {
	return int(q.mask + 1)
}

// Dropped returns how many pushes were refused because the queue was full.
func (q *LockFreeQueue[T]) Dropped() uint64 {
	return q.dropped.Load()
}
