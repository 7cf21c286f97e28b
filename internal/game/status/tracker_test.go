package status

import (
	"testing"
	"time"

	"arena/internal/game/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLatestApplicationWins verifies re-application replaces, never extends
func TestLatestApplicationWins(t *testing.T) {
	c := clock.New()
	tr := NewTracker(c)

	tr.Apply("e1", Stun, 3*time.Second, 0)
	c.Advance(time.Second)
	tr.Apply("e1", Stun, time.Second, 0)

	c.Advance(999 * time.Millisecond)
	assert.True(t, tr.IsActive("e1", Stun))

	c.Advance(time.Millisecond)
	assert.False(t, tr.IsActive("e1", Stun), "the shorter later application governs")
}

func TestIsActiveExpiresLazily(t *testing.T) {
	c := clock.New()
	tr := NewTracker(c)

	tr.Apply("e1", Slow, 500*time.Millisecond, 0.4)
	require.Equal(t, 1, tr.Len())

	c.Advance(500 * time.Millisecond)
	assert.Equal(t, 1, tr.Len(), "not removed until read")
	assert.False(t, tr.IsActive("e1", Slow))
	assert.Equal(t, 0, tr.Len())
}

func TestKindsAreIndependent(t *testing.T) {
	c := clock.New()
	tr := NewTracker(c)

	tr.Apply("e1", Stun, time.Second, 0)
	tr.Apply("e1", Freeze, 2*time.Second, 0)

	active := tr.Active("e1")
	require.Len(t, active, 2)
	assert.Equal(t, Freeze, active[0].Kind)
	assert.Equal(t, Stun, active[1].Kind)

	c.Advance(1500 * time.Millisecond)
	assert.False(t, tr.IsActive("e1", Stun))
	assert.True(t, tr.IsActive("e1", Freeze))
	assert.Equal(t, 500*time.Millisecond, tr.Remaining("e1", Freeze))
}

func TestMultiplierPicksLargestActive(t *testing.T) {
	c := clock.New()
	tr := NewTracker(c)
	table := map[string]float64{"stun": 2, "freeze": 3}

	assert.Equal(t, 1.0, tr.Multiplier("e1", table))

	tr.Apply("e1", Stun, time.Second, 0)
	assert.Equal(t, 2.0, tr.Multiplier("e1", table))

	tr.Apply("e1", Freeze, time.Second, 0)
	assert.Equal(t, 3.0, tr.Multiplier("e1", table))
}

func TestSweepDropsDeadAndExpired(t *testing.T) {
	c := clock.New()
	tr := NewTracker(c)

	tr.Apply("alive", Stun, time.Second, 0)
	tr.Apply("alive", Slow, 5*time.Second, 0)
	tr.Apply("gone", Debuff, 5*time.Second, 0)

	c.Advance(2 * time.Second)
	removed := tr.Sweep(func(id string) bool { return id == "alive" })

	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, tr.Len())
	assert.True(t, tr.IsActive("alive", Slow))
}

func TestApplyIgnoresInvalid(t *testing.T) {
	tr := NewTracker(clock.New())
	tr.Apply("", Stun, time.Second, 0)
	tr.Apply("e1", Stun, 0, 0)
	assert.Equal(t, 0, tr.Len())
}

func TestVisualRequestHook(t *testing.T) {
	tr := NewTracker(clock.New())

	var got []VisualRequest
	tr.OnVisualRequest(func(r VisualRequest) { got = append(got, r) })
	tr.Apply("e1", Mark, 2*time.Second, 0)

	require.Len(t, got, 1)
	assert.Equal(t, Mark, got[0].Kind)
	assert.Equal(t, "e1", got[0].EnemyID)
	assert.Equal(t, 2*time.Second, got[0].Duration)
}
