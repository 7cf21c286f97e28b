package chain

import (
	"math"
	"testing"
	"time"

	"arena/internal/game/clock"
	"arena/internal/game/combat"
	"arena/internal/game/status"
	"arena/internal/game/world"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHost applies damage to a static source.
type fakeHost struct {
	src  *world.StaticSource
	hits []combat.Hit
}

func (h *fakeHost) Lookup(id string) (world.Enemy, bool) { return h.src.Lookup(id) }
func (h *fakeHost) Enemies() []world.Enemy               { return h.src.Enemies() }

func (h *fakeHost) ApplyHit(hit combat.Hit) combat.HitOutcome {
	e, ok := h.src.Lookup(hit.TargetID)
	if !ok || !e.Alive() {
		return combat.HitOutcome{}
	}
	h.hits = append(h.hits, hit)
	dmg := int(math.Floor(hit.Base))
	h.src.Damage(e.ID, dmg)
	return combat.HitOutcome{
		Applied:        true,
		Result:         combat.Result{Damage: dmg},
		Killed:         e.Health <= dmg,
		TargetPosition: e.Position,
	}
}

type fakeSummoner struct{ spawned []string }

func (s *fakeSummoner) SpawnIfAbsent(unitType string, pos world.Vec3) bool {
	for _, t := range s.spawned {
		if t == unitType {
			return false
		}
	}
	s.spawned = append(s.spawned, unitType)
	return true
}

func low(id string, x, z float64) world.Enemy {
	return world.Enemy{ID: id, Position: world.V(x, z), Health: 10, MaxHealth: 10}
}

func setup(enemies ...world.Enemy) (*Engine, *fakeHost, *fakeSummoner, *clock.Clock, *clock.Scheduler) {
	c := clock.New()
	s := clock.NewScheduler(c)
	host := &fakeHost{src: &world.StaticSource{List: enemies}}
	sum := &fakeSummoner{}
	eng := New(DefaultConfig(), s, host, status.NewTracker(c), sum, nil)
	return eng, host, sum, c, s
}

func run(c *clock.Clock, s *clock.Scheduler, d time.Duration) {
	c.Advance(d)
	s.RunDue()
}

// TestChainCap verifies one generation with at most two chained kills
func TestChainCap(t *testing.T) {
	eng, host, _, c, s := setup(
		low("a", 1, 0), low("b", 2, 0), low("c", 3, 0),
		low("far", 20, 0),
	)

	marked := eng.Trigger(Kill{SourceID: "p1", EnemyID: "dead", Position: world.V(0, 0), Level: 1})
	assert.Equal(t, 2, marked)
	assert.True(t, eng.IsMarked("a"))
	assert.True(t, eng.IsMarked("b"))
	assert.False(t, eng.IsMarked("c"))

	run(c, s, 2*time.Second)
	require.Len(t, host.hits, 2)
	assert.Equal(t, uint64(2), eng.Stats().Kills)

	// generation 2 kills are truncated: c is never struck
	run(c, s, 5*time.Second)
	assert.Len(t, host.hits, 2)
	assert.Equal(t, 0, eng.Len())

	e, _ := host.src.Lookup("c")
	assert.Equal(t, 10, e.Health)
	assert.Equal(t, uint64(2), eng.Stats().Truncated)
}

func TestStrikeWaitsForMark(t *testing.T) {
	eng, host, _, c, s := setup(low("a", 1, 0))
	eng.Trigger(Kill{EnemyID: "x", Position: world.V(0, 0)})

	run(c, s, 1999*time.Millisecond)
	assert.Empty(t, host.hits)

	run(c, s, time.Millisecond)
	assert.Len(t, host.hits, 1)
	assert.Equal(t, combat.SourceChain, host.hits[0].SourceKind)
	assert.Equal(t, 1, host.hits[0].Generation)
}

// TestStrikeRevalidatesTarget verifies gone or dying targets fizzle silently
func TestStrikeRevalidatesTarget(t *testing.T) {
	eng, host, _, c, s := setup(low("gone", 1, 0), low("dying", 1.5, 0))
	eng.Trigger(Kill{EnemyID: "x", Position: world.V(0, 0)})
	require.Equal(t, 2, eng.Len())

	host.src.Remove("gone")
	host.src.List[0].IsDying = true

	run(c, s, 2*time.Second)
	assert.Empty(t, host.hits)
	assert.Equal(t, uint64(2), eng.Stats().Fizzled)
	assert.Equal(t, 0, eng.Len())
}

func TestExcludesTargetedAndMarked(t *testing.T) {
	eng, _, _, _, _ := setup(low("a", 1, 0), low("b", 1.5, 0), low("c", 2, 0))
	eng.IsTargeted = func(id string) bool { return id == "a" }

	assert.Equal(t, 2, eng.Trigger(Kill{EnemyID: "x", Position: world.V(0, 0)}))
	assert.False(t, eng.IsMarked("a"))

	assert.Equal(t, 0, eng.Trigger(Kill{EnemyID: "y", Position: world.V(0, 0)}), "b and c already marked")
}

func TestSummonOnKillSingleInstance(t *testing.T) {
	eng, _, sum, _, _ := setup()

	eng.Trigger(Kill{EnemyID: "x", Position: world.V(0, 0)})
	eng.Trigger(Kill{EnemyID: "y", Position: world.V(0, 0)})
	assert.Equal(t, []string{"wraith"}, sum.spawned)
}

func TestLevelScaledDamage(t *testing.T) {
	eng, host, _, c, s := setup(world.Enemy{ID: "tank", Position: world.V(1, 0), Health: 1000, MaxHealth: 1000})
	eng.Trigger(Kill{EnemyID: "x", Position: world.V(0, 0), Level: 3})

	run(c, s, 2*time.Second)
	require.Len(t, host.hits, 1)
	assert.Equal(t, 200.0, host.hits[0].Base)
}

func TestResetCancelsStrikes(t *testing.T) {
	eng, host, _, c, s := setup(low("a", 1, 0))
	eng.Trigger(Kill{EnemyID: "x", Position: world.V(0, 0)})
	eng.Reset()

	run(c, s, 3*time.Second)
	assert.Empty(t, host.hits)
	assert.Equal(t, 0, s.Pending())
}
