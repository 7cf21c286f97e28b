package projectile

import (
	"testing"
	"time"

	"arena/internal/game/clock"
	"arena/internal/game/world"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dt = 0.05

func enemyAt(id string, x, z float64) world.Enemy {
	return world.Enemy{ID: id, Position: world.V(x, z), Health: 100, MaxHealth: 100}
}

// TestSingleHitProjectile verifies a non-piercing projectile hits at most one enemy
func TestSingleHitProjectile(t *testing.T) {
	c := clock.New()
	var hits []string
	sim := NewSimulator(Config{HitRadius: 0.5}, func(p *Projectile, e world.Enemy) {
		hits = append(hits, e.ID)
	})

	_, ok := sim.Spawn(Spec{Origin: world.V(0, 0), Direction: world.V(1, 0), Speed: 20, MaxDistance: 20}, c.Now())
	require.True(t, ok)

	// two enemies stacked on the path
	enemies := []world.Enemy{enemyAt("a", 1, 0), enemyAt("b", 1.1, 0)}
	for i := 0; i < 10; i++ {
		c.Advance(50 * time.Millisecond)
		sim.Tick(c.Now(), dt, enemies)
	}

	assert.Equal(t, []string{"a"}, hits)
}

// TestPiercingProjectile verifies piercing hits each enemy exactly once
func TestPiercingProjectile(t *testing.T) {
	c := clock.New()
	count := map[string]int{}
	sim := NewSimulator(Config{HitRadius: 0.5}, func(p *Projectile, e world.Enemy) {
		count[e.ID]++
	})

	p, ok := sim.Spawn(Spec{Origin: world.V(0, 0), Direction: world.V(1, 0), Speed: 10, MaxDistance: 10, Piercing: true}, c.Now())
	require.True(t, ok)

	enemies := []world.Enemy{enemyAt("a", 1, 0), enemyAt("b", 3, 0.2)}
	for i := 0; i < 30; i++ {
		c.Advance(50 * time.Millisecond)
		sim.Tick(c.Now(), dt, enemies)
	}

	assert.Equal(t, map[string]int{"a": 1, "b": 1}, count)
	assert.Equal(t, 2, p.HitCount())
}

func TestSkipsDeadAndDyingEnemies(t *testing.T) {
	c := clock.New()
	hits := 0
	sim := NewSimulator(Config{}, func(*Projectile, world.Enemy) { hits++ })

	_, ok := sim.Spawn(Spec{Origin: world.V(0, 0), Direction: world.V(1, 0), Speed: 10, MaxDistance: 5}, c.Now())
	require.True(t, ok)

	dead := enemyAt("dead", 0.5, 0)
	dead.Health = 0
	dying := enemyAt("dying", 0.5, 0)
	dying.IsDying = true

	c.Advance(50 * time.Millisecond)
	sim.Tick(c.Now(), dt, []world.Enemy{dead, dying})
	assert.Equal(t, 0, hits)
}

func TestHitTestIgnoresHeight(t *testing.T) {
	c := clock.New()
	hits := 0
	sim := NewSimulator(Config{HitRadius: 0.5}, func(*Projectile, world.Enemy) { hits++ })

	_, ok := sim.Spawn(Spec{Origin: world.Vec3{X: 0, Y: 1.5}, Direction: world.V(1, 0), Speed: 10, MaxDistance: 5}, c.Now())
	require.True(t, ok)

	c.Advance(50 * time.Millisecond)
	sim.Tick(c.Now(), dt, []world.Enemy{enemyAt("a", 0.5, 0)})
	assert.Equal(t, 1, hits)
}

// TestFadeLifecycle verifies linear fade then removal
func TestFadeLifecycle(t *testing.T) {
	c := clock.New()
	sim := NewSimulator(Config{FadeDuration: 400 * time.Millisecond}, nil)

	p, ok := sim.Spawn(Spec{Origin: world.V(0, 0), Direction: world.V(0, 1), Speed: 10, MaxDistance: 1}, c.Now())
	require.True(t, ok)

	// 0.5 units per tick: range reached on the second tick
	for i := 0; i < 2; i++ {
		c.Advance(50 * time.Millisecond)
		sim.Tick(c.Now(), dt, nil)
	}
	assert.Equal(t, PhaseFading, p.Phase())
	assert.InDelta(t, 1.0, p.Traveled, 1e-9, "clamped to max distance")

	c.Advance(200 * time.Millisecond)
	sim.Tick(c.Now(), dt, nil)
	assert.InDelta(t, 0.5, p.Opacity, 1e-9)

	c.Advance(200 * time.Millisecond)
	sim.Tick(c.Now(), dt, nil)
	assert.Equal(t, 0, sim.Len())
	assert.Equal(t, PhaseRemoved, p.Phase())
}

func TestSpawnLimits(t *testing.T) {
	c := clock.New()
	sim := NewSimulator(Config{MaxProjectiles: 2}, nil)

	spec := Spec{Origin: world.V(0, 0), Direction: world.V(1, 0), Speed: 1, MaxDistance: 10}
	_, ok := sim.Spawn(spec, c.Now())
	require.True(t, ok)
	_, ok = sim.Spawn(spec, c.Now())
	require.True(t, ok)
	_, ok = sim.Spawn(spec, c.Now())
	assert.False(t, ok, "pool full")

	sim.Clear()
	_, ok = sim.Spawn(Spec{Direction: world.Vec3{}}, c.Now())
	assert.False(t, ok, "degenerate direction")
}

func TestSnapshotCopiesState(t *testing.T) {
	c := clock.New()
	sim := NewSimulator(Config{}, nil)
	_, ok := sim.Spawn(Spec{AbilityID: "longbow", OwnerID: "p1", Origin: world.V(0, 0), Direction: world.V(1, 0), Speed: 10, MaxDistance: 10}, c.Now())
	require.True(t, ok)

	snaps := sim.AppendSnapshots(nil)
	require.Len(t, snaps, 1)
	assert.Equal(t, "longbow", snaps[0].AbilityID)
	assert.Equal(t, "active", snaps[0].Phase)
	assert.Len(t, snaps[0].Trail, 4)
}
