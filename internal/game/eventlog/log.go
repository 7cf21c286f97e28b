package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"arena/internal/game/spatial"

	"golang.org/x/time/rate"
)

// Defaults.
const (
	BufferSize           = 1024
	MaxEventsPerSec      = 10000
	MaxEventsPerSource   = 200
	BatchFlushSize       = 64
	BatchFlushInterval   = 100 * time.Millisecond
	SourceLimiterCleanup = 5 * time.Minute
	RecentSize           = 256
)

// Stats is a point-in-time view of the log.
type Stats struct {
	Total   uint64 `json:"total"`
	Dropped uint64 `json:"dropped"`
	Pending int    `json:"pending"`
	Running bool   `json:"running"`
}

type sourceLimiter struct {
	limiter  *rate.Limiter
	lastUsed atomic.Int64
}

// Log is a bounded, rate-limited event sink. Emit never blocks; a writer
// goroutine batches events to the output and keeps a tail of recent events
// for the API.
type Log struct {
	queue *spatial.LockFreeQueue[Event]
	seq   atomic.Uint64

	global  *rate.Limiter
	sources sync.Map // source id -> *sourceLimiter

	out    io.Writer
	closer io.Closer

	recentMu sync.Mutex
	recent   []Event
	next     int

	lifeMu  sync.Mutex // serializes Start and Stop
	wg      sync.WaitGroup
	stop    chan struct{}
	running atomic.Bool

	dropped atomic.Uint64
	total   atomic.Uint64
}

// New creates a stopped log.
func New() *Log {
	return &Log{
		queue:  spatial.NewLockFreeQueue[Event](BufferSize),
		global: rate.NewLimiter(MaxEventsPerSec, MaxEventsPerSec/10),
		recent: make([]Event, 0, RecentSize),
	}
}

// Start opens path for appending and starts the writer. An empty path
// keeps only the in-memory tail. Starting a running log is a no-op; a
// stopped log may be started again.
func (l *Log) Start(path string) error {
	l.lifeMu.Lock()
	defer l.lifeMu.Unlock()
	if l.running.Load() {
		return nil
	}
	if path == "" {
		l.start(nil, nil)
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	l.start(f, f)
	return nil
}

// StartWriter starts the writer goroutines against w, which may be nil.
func (l *Log) StartWriter(w io.Writer) error {
	l.lifeMu.Lock()
	defer l.lifeMu.Unlock()
	if !l.running.Load() {
		l.start(w, nil)
	}
	return nil
}

func (l *Log) start(w io.Writer, c io.Closer) {
	l.out = w
	l.closer = c
	l.stop = make(chan struct{})
	l.wg.Add(2)
	go l.writerLoop(l.stop)
	go l.cleanupLoop(l.stop)
	l.running.Store(true)
}

// Stop flushes pending events and closes the output.
func (l *Log) Stop() {
	l.lifeMu.Lock()
	defer l.lifeMu.Unlock()
	if !l.running.Load() {
		return
	}
	l.running.Store(false)
	close(l.stop)
	l.wg.Wait()
	if l.closer != nil {
		l.closer.Close()
		l.closer = nil
	}
}

// Emit enqueues an event. It returns false when the log is stopped, rate
// limited or full.
func (l *Log) Emit(e Event) bool {
	if !l.running.Load() {
		return false
	}
	if !l.global.Allow() {
		l.dropped.Add(1)
		return false
	}
	if e.SourceID != "" && !l.limiter(e.SourceID).Allow() {
		l.dropped.Add(1)
		return false
	}

	e.Sequence = l.seq.Add(1)
	if !l.queue.TryPush(e) {
		l.dropped.Add(1)
		return false
	}
	l.total.Add(1)
	return true
}

func (l *Log) limiter(source string) *rate.Limiter {
	now := time.Now().UnixNano()
	if v, ok := l.sources.Load(source); ok {
		s := v.(*sourceLimiter)
		s.lastUsed.Store(now)
		return s.limiter
	}
	s := &sourceLimiter{limiter: rate.NewLimiter(MaxEventsPerSource, MaxEventsPerSource/10)}
	s.lastUsed.Store(now)
	actual, _ := l.sources.LoadOrStore(source, s)
	return actual.(*sourceLimiter).limiter
}

func (l *Log) writerLoop(stop <-chan struct{}) {
	defer l.wg.Done()

	ticker := time.NewTicker(BatchFlushInterval)
	defer ticker.Stop()

	var bw *bufio.Writer
	if l.out != nil {
		bw = bufio.NewWriter(l.out)
	}
	batch := make([]Event, BatchFlushSize)

	for {
		select {
		case <-stop:
			for l.flush(bw, batch) > 0 {
			}
			return
		case <-ticker.C:
			l.flush(bw, batch)
		}
	}
}

// flush drains one batch and returns how many events it wrote.
func (l *Log) flush(bw *bufio.Writer, batch []Event) int {
	n := l.queue.DrainTo(batch)
	if n == 0 {
		return 0
	}
	l.remember(batch[:n])
	if bw == nil {
		return n
	}
	enc := json.NewEncoder(bw)
	for _, e := range batch[:n] {
		enc.Encode(e)
	}
	bw.Flush()
	return n
}

func (l *Log) remember(events []Event) {
	l.recentMu.Lock()
	defer l.recentMu.Unlock()
	for _, e := range events {
		if len(l.recent) < RecentSize {
			l.recent = append(l.recent, e)
			continue
		}
		l.recent[l.next] = e
		l.next = (l.next + 1) % RecentSize
	}
}

// Recent returns up to n of the latest written events, oldest first.
func (l *Log) Recent(n int) []Event {
	l.recentMu.Lock()
	defer l.recentMu.Unlock()

	size := len(l.recent)
	if n <= 0 || n > size {
		n = size
	}
	out := make([]Event, 0, n)
	start := l.next + size - n
	for i := 0; i < n; i++ {
		out = append(out, l.recent[(start+i)%size])
	}
	return out
}

func (l *Log) cleanupLoop(stop <-chan struct{}) {
	defer l.wg.Done()

	ticker := time.NewTicker(SourceLimiterCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			l.cleanupLimiters(time.Now().Add(-SourceLimiterCleanup))
		}
	}
}

func (l *Log) cleanupLimiters(cutoff time.Time) {
	l.sources.Range(func(key, value any) bool {
		if value.(*sourceLimiter).lastUsed.Load() < cutoff.UnixNano() {
			l.sources.Delete(key)
		}
		return true
	})
}

// Running reports whether the writer is active.
func (l *Log) Running() bool {
	return l.running.Load()
}

// Stats returns counters for monitoring.
func (l *Log) Stats() Stats {
	return Stats{
		Total:   l.total.Load(),
		Dropped: l.dropped.Load(),
		Pending: l.queue.Len(),
		Running: l.running.Load(),
	}
}
