package clock

import (
	"container/heap"
	"time"
)

// TimerID identifies a scheduled callback.
type TimerID uint64

type timer struct {
	id    TimerID
	due   time.Time
	seq   uint64
	fn    func()
	index int
}

// timerHeap orders by due time, then issue order.
type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// Scheduler runs callbacks once game time reaches their deadline.
//
// It is not safe for concurrent use; it belongs to the tick goroutine like
// the rest of the combat core.
type Scheduler struct {
	clock  Source
	timers timerHeap
	byID   map[TimerID]*timer
	nextID TimerID
	seq    uint64
}

// NewScheduler creates a scheduler reading time from src.
func NewScheduler(src Source) *Scheduler {
	return &Scheduler{
		clock: src,
		byID:  make(map[TimerID]*timer),
	}
}

// Now returns the scheduler's current time.
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// After schedules fn to run no earlier than delay from now.
// Callbacks with the same deadline run in the order they were scheduled.
func (s *Scheduler) After(delay time.Duration, fn func()) TimerID {
	if delay < 0 {
		delay = 0
	}
	s.nextID++
	s.seq++
	t := &timer{
		id:  s.nextID,
		due: s.clock.Now().Add(delay),
		seq: s.seq,
		fn:  fn,
	}
	heap.Push(&s.timers, t)
	s.byID[t.id] = t
	return t.id
}

// Cancel removes a pending callback. Returns false if it already ran or
// never existed.
func (s *Scheduler) Cancel(id TimerID) bool {
	t, ok := s.byID[id]
	if !ok {
		return false
	}
	heap.Remove(&s.timers, t.index)
	delete(s.byID, id)
	return true
}

// RunDue fires every callback whose deadline has passed and returns how
// many ran. Callbacks scheduled by a callback wait for the next call.
func (s *Scheduler) RunDue() int {
	now := s.clock.Now()
	boundary := s.seq
	fired := 0

	var deferred []*timer
	for s.timers.Len() > 0 {
		t := s.timers[0]
		if t.due.After(now) {
			break
		}
		heap.Pop(&s.timers)
		if t.seq > boundary {
			deferred = append(deferred, t)
			continue
		}
		delete(s.byID, t.id)
		t.fn()
		fired++
	}

	for _, t := range deferred {
		heap.Push(&s.timers, t)
	}
	return fired
}

// Pending returns the number of scheduled callbacks.
func (s *Scheduler) Pending() int {
	return s.timers.Len()
}

// Due reports when id fires.
func (s *Scheduler) Due(id TimerID) (time.Time, bool) {
	t, ok := s.byID[id]
	if !ok {
		return time.Time{}, false
	}
	return t.due, true
}

// Reset drops every pending callback.
func (s *Scheduler) Reset() {
	s.timers = s.timers[:0]
	s.byID = make(map[TimerID]*timer)
}
