package netsync

import (
	"sync/atomic"

	"arena/internal/game/spatial"
)

// DefaultOutboxSize bounds descriptors waiting for the broadcast loop.
const DefaultOutboxSize = 1024

// Outbox buffers descriptors between the tick loop and the network. Send
// never blocks; when the broadcast side falls behind, the newest
// descriptors are dropped.
type Outbox struct {
	queue *spatial.LockFreeQueue[Descriptor]
	seq   atomic.Uint64
}

// NewOutbox creates an outbox. size <= 0 uses DefaultOutboxSize.
func NewOutbox(size int) *Outbox {
	if size <= 0 {
		size = DefaultOutboxSize
	}
	return &Outbox{queue: spatial.NewLockFreeQueue[Descriptor](size)}
}

// Send stamps the sequence number and enqueues d.
func (o *Outbox) Send(d Descriptor) bool {
	d.Seq = o.seq.Add(1)
	return o.queue.TryPush(d)
}

// Drain returns up to max pending descriptors in send order.
func (o *Outbox) Drain(max int) []Descriptor {
	return o.queue.Drain(max)
}

// Pending returns the approximate queue depth.
func (o *Outbox) Pending() int {
	return o.queue.Len()
}

// Dropped returns descriptors lost to a full queue.
func (o *Outbox) Dropped() uint64 {
	return o.queue.Dropped()
}
