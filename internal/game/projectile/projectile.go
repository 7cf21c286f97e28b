// Package projectile simulates moving attacks: straight-line travel,
// ground-plane hit tests against the enemy snapshot, and the fade-out that
// follows a hit or the end of range.
package projectile

import (
	"time"

	"arena/internal/game/world"
)

// Phase is the lifecycle stage of a projectile.
type Phase uint8

const (
	PhaseActive Phase = iota
	PhaseFading
	PhaseRemoved
)

func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseFading:
		return "fading"
	default:
		return "removed"
	}
}

// Projectile system defaults
const (
	DefaultMaxProjectiles = 64
	DefaultHitRadius      = 0.75
	DefaultFadeDuration   = 400 * time.Millisecond
	MinFadeDuration       = 300 * time.Millisecond
	MaxFadeDuration       = 500 * time.Millisecond
	trailLength           = 4
)

// Projectile is a moving attack entity.
type Projectile struct {
	ID        string
	OwnerID   string
	AbilityID string

	// Motion
	Position      world.Vec3
	Direction     world.Vec3 // ground-plane unit vector
	StartPosition world.Vec3
	Speed         float64 // units per second
	MaxDistance   float64
	Traveled      float64

	// Combat
	Damage     float64
	IsCritical bool
	HitRadius  float64
	Piercing   bool

	// Lifecycle
	StartTime     time.Time
	HasCollided   bool
	HitEnemies    map[string]struct{}
	Active        bool
	Opacity       float64
	FadeStartTime time.Time
	FadeDuration  time.Duration

	// Trail positions (ring buffer)
	trail    [trailLength]world.Vec3
	trailIdx int
}

// Phase derives the lifecycle stage.
func (p *Projectile) Phase() Phase {
	switch {
	case p.Active:
		return PhaseActive
	case p.Opacity > 0:
		return PhaseFading
	default:
		return PhaseRemoved
	}
}

// HasHit reports whether enemyID was already hit by this projectile.
func (p *Projectile) HasHit(enemyID string) bool {
	_, ok := p.HitEnemies[enemyID]
	return ok
}

// HitCount returns the number of distinct enemies hit.
func (p *Projectile) HitCount() int {
	return len(p.HitEnemies)
}

func (p *Projectile) pushTrail() {
	p.trail[p.trailIdx] = p.Position
	p.trailIdx = (p.trailIdx + 1) % trailLength
}

// Trail returns recent positions, oldest first.
func (p *Projectile) Trail() [trailLength]world.Vec3 {
	var out [trailLength]world.Vec3
	for i := 0; i < trailLength; i++ {
		out[i] = p.trail[(p.trailIdx+i)%trailLength]
	}
	return out
}

func (p *Projectile) startFade(now time.Time) {
	p.Active = false
	p.FadeStartTime = now
}

// Snapshot is an immutable copy of projectile state for rendering.
type Snapshot struct {
	ID        string       `json:"id"`
	OwnerID   string       `json:"ownerId"`
	AbilityID string       `json:"abilityId"`
	Position  world.Vec3   `json:"position"`
	Direction world.Vec3   `json:"direction"`
	Opacity   float64      `json:"opacity"`
	Phase     string       `json:"phase"`
	Hits      int          `json:"hits"`
	Trail     []world.Vec3 `json:"trail,omitempty"`
}

// ToSnapshot copies the projectile for readers outside the tick.
func (p *Projectile) ToSnapshot() Snapshot {
	tr := p.Trail()
	return Snapshot{
		ID:        p.ID,
		OwnerID:   p.OwnerID,
		AbilityID: p.AbilityID,
		Position:  p.Position,
		Direction: p.Direction,
		Opacity:   p.Opacity,
		Phase:     p.Phase().String(),
		Hits:      len(p.HitEnemies),
		Trail:     tr[:],
	}
}
