package sandbox

import (
	"testing"
	"time"

	"arena/internal/game"
	"arena/internal/game/ability"
	"arena/internal/game/combat"
	"arena/internal/game/status"
	"arena/internal/game/world"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatuses map[string]status.Effect

func (f fakeStatuses) Get(enemyID string, kind status.Kind) (status.Effect, bool) {
	e, ok := f[enemyID+"/"+string(kind)]
	return e, ok
}

func testConfig() Config {
	return Config{
		SpawnRadius:   10,
		StopDistance:  1,
		Speed:         2,
		WaveSize:      3,
		WaveGrowth:    1,
		WaveDelay:     time.Second,
		Health:        100,
		BossEvery:     2,
		BossHealth:    1000,
		DeathDuration: time.Second,
		Seed:          7,
	}
}

func TestNewSpawnsFirstWave(t *testing.T) {
	a := New(testConfig())

	enemies := a.Enemies()
	require.Len(t, enemies, 3)
	assert.Equal(t, 1, a.Wave())
	for _, e := range enemies {
		assert.InDelta(t, 10, world.Dist2D(e.Position, world.Vec3{}), 1e-9)
		assert.Equal(t, 100, e.Health)
		assert.False(t, e.IsBoss)
		got, ok := a.Lookup(e.ID)
		require.True(t, ok)
		assert.Equal(t, e, got)
	}
}

func TestApplyDamageStartsDeathAnimation(t *testing.T) {
	a := New(testConfig())
	id := a.Enemies()[0].ID

	assert.False(t, a.ApplyDamage(id, 40))
	assert.True(t, a.ApplyDamage(id, 60))
	assert.False(t, a.ApplyDamage(id, 10), "dying enemies take no damage")

	e, ok := a.Lookup(id)
	require.True(t, ok)
	assert.True(t, e.IsDying)
	assert.Zero(t, e.Health)
	assert.False(t, e.Alive())
	assert.Equal(t, 1, a.Stats().Dying)

	a.Advance(0.5)
	_, ok = a.Lookup(id)
	assert.True(t, ok, "still animating")

	a.Advance(0.5)
	_, ok = a.Lookup(id)
	assert.False(t, ok)
	assert.Equal(t, 1, a.Stats().Kills)
}

func TestMovementFollowsStatuses(t *testing.T) {
	a := New(testConfig())
	id := a.Enemies()[0].ID
	statuses := fakeStatuses{}
	a.SetStatusReader(statuses)

	dist := func() float64 {
		e, _ := a.Lookup(id)
		return world.Dist2D(e.Position, world.Vec3{})
	}

	a.Advance(0.5)
	assert.InDelta(t, 9, dist(), 1e-9)

	statuses[id+"/stun"] = status.Effect{Kind: status.Stun}
	a.Advance(0.5)
	assert.InDelta(t, 9, dist(), 1e-9)
	delete(statuses, id+"/stun")

	statuses[id+"/freeze"] = status.Effect{Kind: status.Freeze}
	a.Advance(0.5)
	assert.InDelta(t, 9, dist(), 1e-9)
	delete(statuses, id+"/freeze")

	statuses[id+"/slow"] = status.Effect{Kind: status.Slow, Magnitude: 0.5}
	a.Advance(0.5)
	assert.InDelta(t, 8.5, dist(), 1e-9)
	delete(statuses, id+"/slow")

	a.Advance(100)
	assert.InDelta(t, 1, dist(), 1e-9, "stops at the stop distance")
}

func TestClearedWaveSpawnsNextWithBoss(t *testing.T) {
	a := New(testConfig())
	for _, e := range a.Enemies() {
		require.True(t, a.ApplyDamage(e.ID, 1000))
	}

	a.Advance(1)
	assert.Empty(t, a.Enemies())
	assert.Equal(t, 1, a.Wave(), "waits for the wave delay")

	a.Advance(1)
	require.Equal(t, 2, a.Wave())
	enemies := a.Enemies()
	require.Len(t, enemies, 5)

	bosses := 0
	for _, e := range enemies {
		if e.IsBoss {
			bosses++
			assert.Equal(t, 1000, e.Health)
		}
	}
	assert.Equal(t, 1, bosses)

	st := a.Stats()
	assert.Equal(t, 8, st.Spawned)
	assert.Equal(t, 3, st.Kills)
}

func TestResetRestartsAtWaveOne(t *testing.T) {
	a := New(testConfig())
	first := a.Enemies()
	for _, e := range first {
		a.ApplyDamage(e.ID, 1000)
	}
	a.Advance(5)
	a.Advance(5)
	require.Greater(t, a.Wave(), 1)

	a.Reset()
	assert.Equal(t, 1, a.Wave())
	assert.Zero(t, a.Stats().Kills)
	after := a.Enemies()
	require.Len(t, after, len(first))
	assert.Equal(t, first[0].ID, after[0].ID)
	assert.Equal(t, first[0].Position, after[0].Position, "seeded spawn ring")
}

type noCrit struct{}

func (noCrit) Float64() float64 { return 0.999 }

func newWiredEngine(t *testing.T, cfg Config) (*game.Engine, *Arena) {
	t.Helper()
	a := New(cfg)
	gc := game.DefaultConfig()
	gc.Roller = noCrit{}
	e, err := game.NewEngine(gc, a, nil)
	require.NoError(t, err)
	a.Attach(e, game.Hooks{})
	e.Tick(0)
	return e, a
}

func TestEngineKillsThroughArena(t *testing.T) {
	cfg := testConfig()
	cfg.WaveSize = 1
	cfg.WaveGrowth = 0
	cfg.WaveDelay = 0
	cfg.BossEvery = 0
	e, a := newWiredEngine(t, cfg)
	id := a.Enemies()[0].ID

	out := e.ApplyHit(combat.Hit{SourceID: "hero", TargetID: id, Base: 500})
	require.True(t, out.Killed)

	en, _ := a.Lookup(id)
	assert.True(t, en.IsDying)
	assert.False(t, e.ApplyHit(combat.Hit{SourceID: "hero", TargetID: id, Base: 5}).Applied)

	e.Tick(time.Second)
	assert.Equal(t, 2, a.Wave())
	assert.Equal(t, 1, e.Snapshot().AliveCount)
}

func TestFreezeHoldsEnemyInPlace(t *testing.T) {
	cfg := testConfig()
	cfg.WaveSize = 1
	cfg.SpawnRadius = 4
	cfg.Health = 1000
	e, a := newWiredEngine(t, cfg)
	id := a.Enemies()[0].ID
	start, _ := a.Lookup(id)

	require.True(t, e.CastAbility("frost_nova", ability.Aim{}))
	e.Tick(time.Second)
	frozen, _ := a.Lookup(id)
	assert.Equal(t, start.Position, frozen.Position)
	assert.Equal(t, 990, frozen.Health)

	e.Tick(1500 * time.Millisecond)
	moved, _ := a.Lookup(id)
	assert.InDelta(t, 1, world.Dist2D(moved.Position, world.Vec3{}), 1e-9)
}

type fakeDriver struct {
	snap   *game.Snapshot
	reject map[string]bool
	calls  []string
	aims   []ability.Aim
}

func (d *fakeDriver) Snapshot() *game.Snapshot { return d.snap }

func (d *fakeDriver) call(action, id string, aim ability.Aim) bool {
	d.calls = append(d.calls, action+":"+id)
	d.aims = append(d.aims, aim)
	return !d.reject[id]
}

func (d *fakeDriver) StartCharging(id string) bool {
	return d.call("start", id, ability.Aim{})
}

func (d *fakeDriver) ReleaseCharge(id string, aim ability.Aim) bool {
	return d.call("release", id, aim)
}

func (d *fakeDriver) CastAbility(id string, aim ability.Aim) bool {
	return d.call("cast", id, aim)
}

func (d *fakeDriver) ShootProjectile(id string, aim ability.Aim) bool {
	return d.call("shoot", id, aim)
}

func snapshotWith(enemyPos world.Vec3, states ...ability.State) *game.Snapshot {
	return &game.Snapshot{
		Enemies: []game.EnemySnapshot{
			{Enemy: world.Enemy{ID: "far", Position: world.V(30, 0), Health: 10}},
			{Enemy: world.Enemy{ID: "near", Position: enemyPos, Health: 10}},
			{Enemy: world.Enemy{ID: "dead", Position: world.V(1, 0), Health: 0}},
		},
		Abilities: states,
	}
}

func TestAutopilotUsesFirstReadyAbilityInReach(t *testing.T) {
	defs := ability.DefaultCatalog()
	d := &fakeDriver{
		snap: snapshotWith(world.V(3, 0),
			ability.State{ID: "volley", Kind: ability.KindVolley, Size: 2, Available: 2},
			ability.State{ID: "glaive", Kind: ability.KindThrust, Size: 2, Available: 2},
			ability.State{ID: "smite", Kind: ability.KindSmite, CooldownRemaining: time.Second},
		),
		reject: map[string]bool{"volley": true},
	}
	p := NewAutopilot(d, defs, nil)

	assert.Equal(t, "glaive", p.Step())
	assert.Equal(t, []string{"shoot:volley", "cast:glaive"}, d.calls)
	assert.Equal(t, "near", d.aims[1].TargetID)
	assert.Equal(t, world.V(1, 0), d.aims[1].Direction)
	assert.Equal(t, map[string]int{"glaive": 1}, p.Accepted())
}

func TestAutopilotHoldsChargeUntilFull(t *testing.T) {
	defs := ability.DefaultCatalog()
	d := &fakeDriver{
		snap: snapshotWith(world.V(15, 0),
			ability.State{ID: "longbow", Kind: ability.KindChargedShot, Size: 3, Available: 3},
		),
	}
	p := NewAutopilot(d, defs, nil)

	assert.Equal(t, "", p.Step())
	assert.Equal(t, []string{"start:longbow"}, d.calls)

	d.snap.GameTime = time.Second
	assert.Equal(t, "", p.Step())
	assert.Len(t, d.calls, 1, "still charging")

	d.snap.GameTime = 2 * time.Second
	assert.Equal(t, "longbow", p.Step())
	assert.Equal(t, "release:longbow", d.calls[1])
	assert.Equal(t, world.V(1, 0), d.aims[1].Direction)
}

func TestAutopilotIdlesWithoutTargets(t *testing.T) {
	d := &fakeDriver{snap: &game.Snapshot{}}
	p := NewAutopilot(d, ability.DefaultCatalog(), nil)
	assert.Equal(t, "", p.Step())
	assert.Empty(t, d.calls)
}
