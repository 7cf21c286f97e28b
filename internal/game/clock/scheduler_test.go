package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSchedulerNeverFiresEarly verifies callbacks wait for their deadline
func TestSchedulerNeverFiresEarly(t *testing.T) {
	c := New()
	s := NewScheduler(c)

	fired := false
	s.After(500*time.Millisecond, func() { fired = true })

	c.Advance(499 * time.Millisecond)
	assert.Equal(t, 0, s.RunDue())
	assert.False(t, fired)

	c.Advance(time.Millisecond)
	assert.Equal(t, 1, s.RunDue())
	assert.True(t, fired)
	assert.Equal(t, 0, s.Pending())
}

// TestSchedulerFIFOForEqualDeadlines verifies issue order is preserved
func TestSchedulerFIFOForEqualDeadlines(t *testing.T) {
	c := New()
	s := NewScheduler(c)

	var order []string
	s.After(time.Second, func() { order = append(order, "a") })
	s.After(time.Second, func() { order = append(order, "b") })
	s.After(500*time.Millisecond, func() { order = append(order, "early") })
	s.After(time.Second, func() { order = append(order, "c") })

	c.Advance(2 * time.Second)
	s.RunDue()

	assert.Equal(t, []string{"early", "a", "b", "c"}, order)
}

func TestSchedulerCancel(t *testing.T) {
	c := New()
	s := NewScheduler(c)

	fired := 0
	id := s.After(time.Second, func() { fired++ })
	s.After(time.Second, func() { fired++ })

	require.True(t, s.Cancel(id))
	assert.False(t, s.Cancel(id), "second cancel is a no-op")

	c.Advance(time.Second)
	s.RunDue()
	assert.Equal(t, 1, fired)
}

// TestSchedulerDefersCallbacksScheduledDuringRun verifies no re-entrant firing
func TestSchedulerDefersCallbacksScheduledDuringRun(t *testing.T) {
	c := New()
	s := NewScheduler(c)

	var order []int
	s.After(0, func() {
		order = append(order, 1)
		s.After(0, func() { order = append(order, 2) })
	})

	s.RunDue()
	assert.Equal(t, []int{1}, order)
	assert.Equal(t, 1, s.Pending())

	s.RunDue()
	assert.Equal(t, []int{1, 2}, order)
}

func TestSchedulerNegativeDelayClamped(t *testing.T) {
	c := New()
	s := NewScheduler(c)

	id := s.After(-time.Second, func() {})
	due, ok := s.Due(id)
	require.True(t, ok)
	assert.Equal(t, c.Now(), due)
}

func TestSchedulerReset(t *testing.T) {
	c := New()
	s := NewScheduler(c)

	s.After(time.Second, func() { t.Fatal("reset timer fired") })
	s.Reset()

	c.Advance(2 * time.Second)
	assert.Equal(t, 0, s.RunDue())
}

func TestClockAdvanceIgnoresNegative(t *testing.T) {
	c := New()
	c.Advance(-time.Second)
	assert.Equal(t, Epoch, c.Now())

	c.Advance(1500 * time.Millisecond)
	assert.Equal(t, 1500*time.Millisecond, c.Elapsed())

	c.Set(Epoch)
	assert.Equal(t, 1500*time.Millisecond, c.Elapsed(), "set never moves backwards")
}
