// Package charge manages an ability's pool of charges and the queue that
// brings consumed charges back over time.
//
// A consumed charge joins the regeneration queue. Its recovery delay is
// its 1-based queue position times the base cooldown, so a burst of three
// consumptions comes back at 1x, 2x and 3x the cooldown. Recovery is keyed
// by charge id and is a no-op for a charge that is already available, so a
// reset between consumption and recovery never double-restores.
package charge

import (
	"time"

	"arena/internal/game/clock"
)

// Charge is one slot of an ability's resource pool.
type Charge struct {
	ID            int        `json:"id"`
	Available     bool       `json:"available"`
	CooldownStart *time.Time `json:"cooldownStart,omitempty"`
}

// QueueEntry is a charge waiting to come back.
type QueueEntry struct {
	ChargeID int       `json:"chargeId"`
	Start    time.Time `json:"start"`
	Delay    time.Duration
	timer    clock.TimerID
}

// ReadyAt returns when the entry's charge is restored.
func (q QueueEntry) ReadyAt() time.Time {
	return q.Start.Add(q.Delay)
}

// Listener is notified after the pool changes.
type Listener func(available, size int)

// Ledger owns one ability's charges. Not safe for concurrent use.
type Ledger struct {
	sched    *clock.Scheduler
	cooldown time.Duration
	charges  []Charge
	queue    []QueueEntry
	epoch    uint64

	onChange Listener
}

// NewLedger creates a full pool of size charges that each recover after
// baseCooldown scaled by queue position.
func NewLedger(sched *clock.Scheduler, size int, baseCooldown time.Duration) *Ledger {
	if size < 1 {
		size = 1
	}
	l := &Ledger{
		sched:    sched,
		cooldown: baseCooldown,
		charges:  make([]Charge, size),
	}
	for i := range l.charges {
		l.charges[i] = Charge{ID: i, Available: true}
	}
	return l
}

// OnChange registers a listener for pool changes.
func (l *Ledger) OnChange(fn Listener) {
	l.onChange = fn
}

// Consume takes count charges. It returns false without side effects when
// fewer than count are available.
func (l *Ledger) Consume(count int) bool {
	if count <= 0 {
		return true
	}
	if l.Available() < count {
		return false
	}
	taken := 0
	for i := range l.charges {
		if taken == count {
			break
		}
		if l.charges[i].Available {
			l.take(i)
			taken++
		}
	}
	l.notify()
	return true
}

// ConsumeID takes the charge with the given id if it is available.
func (l *Ledger) ConsumeID(id int) bool {
	if id < 0 || id >= len(l.charges) || !l.charges[id].Available {
		return false
	}
	l.take(id)
	l.notify()
	return true
}

// FirstAvailable returns the lowest available charge id.
func (l *Ledger) FirstAvailable() (int, bool) {
	for _, c := range l.charges {
		if c.Available {
			return c.ID, true
		}
	}
	return 0, false
}

func (l *Ledger) take(i int) {
	now := l.sched.Now()
	c := &l.charges[i]
	c.Available = false
	start := now
	c.CooldownStart = &start

	position := len(l.queue) + 1
	entry := QueueEntry{
		ChargeID: c.ID,
		Start:    now,
		Delay:    time.Duration(position) * l.cooldown,
	}
	id, epoch := c.ID, l.epoch
	entry.timer = l.sched.After(entry.Delay, func() {
		if epoch != l.epoch {
			return
		}
		l.regenerate(id)
	})
	l.queue = append(l.queue, entry)
}

// regenerate restores a charge. Idempotent.
func (l *Ledger) regenerate(id int) {
	if id < 0 || id >= len(l.charges) {
		return
	}
	c := &l.charges[id]
	if c.Available {
		l.dequeue(id)
		return
	}
	c.Available = true
	c.CooldownStart = nil
	l.dequeue(id)
	l.notify()
}

func (l *Ledger) dequeue(id int) {
	for i, e := range l.queue {
		if e.ChargeID == id {
			l.queue = append(l.queue[:i], l.queue[i+1:]...)
			return
		}
	}
}

// Reset restores every charge and cancels pending recoveries.
func (l *Ledger) Reset() {
	for _, e := range l.queue {
		l.sched.Cancel(e.timer)
	}
	l.queue = l.queue[:0]
	l.epoch++
	for i := range l.charges {
		l.charges[i].Available = true
		l.charges[i].CooldownStart = nil
	}
	l.notify()
}

// Available returns the number of usable charges.
func (l *Ledger) Available() int {
	n := 0
	for _, c := range l.charges {
		if c.Available {
			n++
		}
	}
	return n
}

// InFlight returns the number of charges waiting in the regeneration queue.
func (l *Ledger) InFlight() int {
	return len(l.queue)
}

// Size returns the pool size.
func (l *Ledger) Size() int {
	return len(l.charges)
}

// BaseCooldown returns the per-position recovery delay.
func (l *Ledger) BaseCooldown() time.Duration {
	return l.cooldown
}

// Charges returns a copy of the pool.
func (l *Ledger) Charges() []Charge {
	out := make([]Charge, len(l.charges))
	copy(out, l.charges)
	return out
}

// Queue returns a copy of the regeneration queue in order.
func (l *Ledger) Queue() []QueueEntry {
	out := make([]QueueEntry, len(l.queue))
	copy(out, l.queue)
	return out
}

// NextReady returns the time until the earliest queued charge recovers.
func (l *Ledger) NextReady() (time.Duration, bool) {
	if len(l.queue) == 0 {
		return 0, false
	}
	now := l.sched.Now()
	best := l.queue[0].ReadyAt()
	for _, e := range l.queue[1:] {
		if e.ReadyAt().Before(best) {
			best = e.ReadyAt()
		}
	}
	d := best.Sub(now)
	if d < 0 {
		d = 0
	}
	return d, true
}

func (l *Ledger) notify() {
	if l.onChange != nil {
		l.onChange(l.Available(), len(l.charges))
	}
}
