// Package sandbox is a reference scene layer for the combat engine.
//
// Arena owns enemy health and movement: it spawns waves around a goal
// point, walks enemies toward it, slows or stops them according to their
// status effects, and keeps killed enemies in a dying state for the length
// of the death animation before removing them. The engine only reads the
// arena through world.Source; damage comes back through ApplyDamage, wired
// to the engine's OnHit hook.
package sandbox

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"arena/internal/game"
	"arena/internal/game/clock"
	"arena/internal/game/status"
	"arena/internal/game/world"
)

// Config tunes enemy waves.
type Config struct {
	Goal          world.Vec3    // enemies walk toward this point
	SpawnRadius   float64       // waves spawn on a ring around Goal
	StopDistance  float64       // enemies stop this far from Goal
	Speed         float64       // units per second
	WaveSize      int           // enemies in the first wave
	WaveGrowth    int           // extra enemies per wave
	WaveDelay     time.Duration // pause between a cleared wave and the next
	Health        int           // health of a regular enemy in wave 1
	HealthPerWave int
	BossEvery     int // every Nth wave carries a boss; zero disables bosses
	BossHealth    int
	DeathDuration time.Duration // death animation window
	MaxEnemies    int
	Seed          uint64
}

// DefaultConfig returns the stock arena.
func DefaultConfig() Config {
	return Config{
		SpawnRadius:   18,
		StopDistance:  1.5,
		Speed:         2.5,
		WaveSize:      6,
		WaveGrowth:    2,
		WaveDelay:     3 * time.Second,
		Health:        300,
		HealthPerWave: 60,
		BossEvery:     3,
		BossHealth:    2500,
		DeathDuration: 1500 * time.Millisecond,
		MaxEnemies:    64,
		Seed:          1,
	}
}

// StatusReader resolves an enemy's active effects. The engine's status
// tracker satisfies it.
type StatusReader interface {
	Get(enemyID string, kind status.Kind) (status.Effect, bool)
}

// Stats summarizes the arena.
type Stats struct {
	Wave      int `json:"wave"`
	Alive     int `json:"alive"`
	Dying     int `json:"dying"`
	Spawned   int `json:"spawned"`
	Kills     int `json:"kills"`
	BossKills int `json:"bossKills"`
}

// Arena is the enemy population. Its methods are safe for concurrent use.
type Arena struct {
	mu  sync.RWMutex
	cfg Config
	rng *rand.Rand

	enemies  []world.Enemy
	index    map[string]int
	statuses StatusReader

	now       time.Time
	wave      int
	clearedAt time.Time
	nextID    int
	spawned   int
	kills     int
	bossKills int
}

// New creates an arena and spawns the first wave.
func New(cfg Config) *Arena {
	def := DefaultConfig()
	if cfg.Speed < 0 {
		cfg.Speed = 0
	}
	if cfg.WaveSize <= 0 {
		cfg.WaveSize = def.WaveSize
	}
	if cfg.Health <= 0 {
		cfg.Health = def.Health
	}
	if cfg.BossHealth <= 0 {
		cfg.BossHealth = def.BossHealth
	}
	if cfg.MaxEnemies <= 0 {
		cfg.MaxEnemies = def.MaxEnemies
	}
	a := &Arena{
		cfg:   cfg,
		index: make(map[string]int),
		now:   clock.Epoch,
	}
	a.reset()
	return a
}

// SetStatusReader attaches the status source used for movement.
func (a *Arena) SetStatusReader(r StatusReader) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.statuses = r
}

// Attach wires the arena to an engine built over it: hits lower arena
// health before hooks.OnHit runs, and movement reads the engine's status
// tracker. It replaces the engine's hooks with hooks.
func (a *Arena) Attach(e *game.Engine, hooks game.Hooks) {
	next := hooks.OnHit
	hooks.OnHit = func(ev game.HitEvent) {
		a.ApplyDamage(ev.TargetID, ev.Damage)
		if next != nil {
			next(ev)
		}
	}
	e.SetHooks(hooks)
	a.SetStatusReader(e.Tracker())
}

// Enemies returns a copy of the current population.
func (a *Arena) Enemies() []world.Enemy {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]world.Enemy, len(a.enemies))
	copy(out, a.enemies)
	return out
}

// Lookup returns an enemy's current state.
func (a *Arena) Lookup(id string) (world.Enemy, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	i, ok := a.index[id]
	if !ok {
		return world.Enemy{}, false
	}
	return a.enemies[i], true
}

// ApplyDamage lowers an enemy's health and reports whether the hit killed
// it. A killed enemy enters its death animation and can no longer be hit.
func (a *Arena) ApplyDamage(id string, amount int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	i, ok := a.index[id]
	if !ok || amount <= 0 {
		return false
	}
	e := &a.enemies[i]
	if !e.Alive() {
		return false
	}
	e.Health -= amount
	if e.Health > 0 {
		return false
	}
	e.Health = 0
	e.IsDying = true
	e.DeathStartTime = a.now
	a.kills++
	if e.IsBoss {
		a.bossKills++
	}
	return true
}

// Advance moves the arena forward by dt seconds.
func (a *Arena) Advance(dt float64) {
	if dt < 0 {
		dt = 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.now = a.now.Add(time.Duration(dt * float64(time.Second)))

	a.removeDead()
	for i := range a.enemies {
		if a.enemies[i].Alive() {
			a.move(&a.enemies[i], dt)
		}
	}

	if len(a.enemies) == 0 {
		if a.clearedAt.IsZero() {
			a.clearedAt = a.now
		}
		if a.now.Sub(a.clearedAt) >= a.cfg.WaveDelay {
			a.spawnWave()
		}
	}
}

// move walks e toward the goal. Stun and freeze hold it in place; slow
// scales its speed by one minus the effect's magnitude.
func (a *Arena) move(e *world.Enemy, dt float64) {
	speed := a.cfg.Speed
	if a.statuses != nil {
		if _, ok := a.statuses.Get(e.ID, status.Stun); ok {
			return
		}
		if _, ok := a.statuses.Get(e.ID, status.Freeze); ok {
			return
		}
		if s, ok := a.statuses.Get(e.ID, status.Slow); ok {
			speed *= 1 - math.Min(math.Max(s.Magnitude, 0), 1)
		}
	}

	dist := world.Dist2D(e.Position, a.cfg.Goal)
	if dist <= a.cfg.StopDistance || speed <= 0 {
		return
	}
	step := speed * dt
	if gap := dist - a.cfg.StopDistance; step > gap {
		step = gap
	}
	e.Facing = a.cfg.Goal.Sub(e.Position).Heading()
	e.Position = world.MoveToward(e.Position, a.cfg.Goal, step)
}

// removeDead drops enemies whose death animation is over.
func (a *Arena) removeDead() {
	n := 0
	for _, e := range a.enemies {
		if e.IsDying && a.now.Sub(e.DeathStartTime) >= a.cfg.DeathDuration {
			continue
		}
		a.enemies[n] = e
		n++
	}
	if n == len(a.enemies) {
		return
	}
	a.enemies = a.enemies[:n]
	a.reindex()
}

func (a *Arena) reindex() {
	clear(a.index)
	for i, e := range a.enemies {
		a.index[e.ID] = i
	}
}

func (a *Arena) spawnWave() {
	a.wave++
	a.clearedAt = time.Time{}

	count := a.cfg.WaveSize + a.cfg.WaveGrowth*(a.wave-1)
	boss := a.cfg.BossEvery > 0 && a.wave%a.cfg.BossEvery == 0
	if boss {
		count++
	}
	if count > a.cfg.MaxEnemies {
		count = a.cfg.MaxEnemies
	}

	health := a.cfg.Health + a.cfg.HealthPerWave*(a.wave-1)
	offset := a.rng.Float64() * 2 * math.Pi
	for i := 0; i < count; i++ {
		angle := offset + 2*math.Pi*float64(i)/float64(count)
		pos := a.cfg.Goal.Add(world.FromHeading(angle).Scale(a.cfg.SpawnRadius))
		a.nextID++
		e := world.Enemy{
			ID:        fmt.Sprintf("enemy_%d", a.nextID),
			Position:  pos,
			Facing:    a.cfg.Goal.Sub(pos).Heading(),
			Health:    health,
			MaxHealth: health,
		}
		if boss && i == 0 {
			e.ID = fmt.Sprintf("boss_%d", a.nextID)
			e.IsBoss = true
			e.Health = a.cfg.BossHealth
			e.MaxHealth = a.cfg.BossHealth
		}
		a.index[e.ID] = len(a.enemies)
		a.enemies = append(a.enemies, e)
		a.spawned++
	}
}

// Reset clears the arena and spawns wave one.
func (a *Arena) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reset()
}

func (a *Arena) reset() {
	a.rng = rand.New(rand.NewPCG(a.cfg.Seed, a.cfg.Seed^0x9e3779b97f4a7c15))
	a.enemies = a.enemies[:0]
	clear(a.index)
	a.wave = 0
	a.clearedAt = time.Time{}
	a.nextID = 0
	a.spawned = 0
	a.kills = 0
	a.bossKills = 0
	a.spawnWave()
}

// Wave returns the current wave number.
func (a *Arena) Wave() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.wave
}

// Stats returns population counters.
func (a *Arena) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s := Stats{
		Wave:      a.wave,
		Spawned:   a.spawned,
		Kills:     a.kills,
		BossKills: a.bossKills,
	}
	for _, e := range a.enemies {
		if e.Alive() {
			s.Alive++
		} else {
			s.Dying++
		}
	}
	return s
}
