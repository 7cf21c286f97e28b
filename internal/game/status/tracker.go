// Package status tracks timed status effects on enemies.
//
// Each (enemy, kind) pair holds at most one effect. Re-applying replaces
// the previous one: the newest application decides start and duration.
// Expired effects are removed lazily on read and in bulk by Sweep.
package status

import (
	"sort"
	"time"

	"arena/internal/game/clock"
	"arena/internal/game/world"
)

// Kind is the type of a status effect.
type Kind string

const (
	Stun   Kind = "stun"
	Slow   Kind = "slow"
	Debuff Kind = "debuff"
	Freeze Kind = "freeze"
	Mark   Kind = "mark"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case Stun, Slow, Debuff, Freeze, Mark:
		return true
	}
	return false
}

// Effect is an active status on one enemy.
type Effect struct {
	EnemyID   string        `json:"enemyId"`
	Kind      Kind          `json:"kind"`
	Start     time.Time     `json:"start"`
	Duration  time.Duration `json:"duration"`
	Magnitude float64       `json:"magnitude,omitempty"`
}

// ExpiresAt returns when the effect ends.
func (e Effect) ExpiresAt() time.Time {
	return e.Start.Add(e.Duration)
}

// Expired reports whether the effect is over at now.
func (e Effect) Expired(now time.Time) bool {
	return now.Sub(e.Start) >= e.Duration
}

// VisualRequest asks the presentation layer to show a status.
type VisualRequest struct {
	Kind     Kind
	EnemyID  string
	Position world.Vec3
	Duration time.Duration
}

// Tracker holds every active status. Not safe for concurrent use.
type Tracker struct {
	clock   clock.Source
	effects map[string]map[Kind]Effect

	onVisual func(VisualRequest)
}

// NewTracker creates an empty tracker reading time from src.
func NewTracker(src clock.Source) *Tracker {
	return &Tracker{
		clock:   src,
		effects: make(map[string]map[Kind]Effect),
	}
}

// OnVisualRequest sets the hook used when a status is applied.
func (t *Tracker) OnVisualRequest(fn func(VisualRequest)) {
	t.onVisual = fn
}

// Apply records a status, replacing any previous one of the same kind.
// A non-positive duration or empty enemy id is ignored.
func (t *Tracker) Apply(enemyID string, kind Kind, duration time.Duration, magnitude float64) {
	t.ApplyAt(enemyID, kind, duration, magnitude, world.Vec3{})
}

// ApplyAt is Apply with a position for the visual request.
func (t *Tracker) ApplyAt(enemyID string, kind Kind, duration time.Duration, magnitude float64, pos world.Vec3) {
	if enemyID == "" || duration <= 0 {
		return
	}
	byKind, ok := t.effects[enemyID]
	if !ok {
		byKind = make(map[Kind]Effect, 2)
		t.effects[enemyID] = byKind
	}
	byKind[kind] = Effect{
		EnemyID:   enemyID,
		Kind:      kind,
		Start:     t.clock.Now(),
		Duration:  duration,
		Magnitude: magnitude,
	}
	if t.onVisual != nil {
		t.onVisual(VisualRequest{Kind: kind, EnemyID: enemyID, Position: pos, Duration: duration})
	}
}

// IsActive reports whether kind is active on the enemy, deleting it when
// it has expired.
func (t *Tracker) IsActive(enemyID string, kind Kind) bool {
	_, ok := t.get(enemyID, kind)
	return ok
}

// Get returns the active effect, if any.
func (t *Tracker) Get(enemyID string, kind Kind) (Effect, bool) {
	return t.get(enemyID, kind)
}

func (t *Tracker) get(enemyID string, kind Kind) (Effect, bool) {
	byKind, ok := t.effects[enemyID]
	if !ok {
		return Effect{}, false
	}
	e, ok := byKind[kind]
	if !ok {
		return Effect{}, false
	}
	if e.Expired(t.clock.Now()) {
		delete(byKind, kind)
		if len(byKind) == 0 {
			delete(t.effects, enemyID)
		}
		return Effect{}, false
	}
	return e, true
}

// Remaining returns how long kind stays active, or zero.
func (t *Tracker) Remaining(enemyID string, kind Kind) time.Duration {
	e, ok := t.get(enemyID, kind)
	if !ok {
		return 0
	}
	return e.ExpiresAt().Sub(t.clock.Now())
}

// Active returns the enemy's live effects sorted by kind.
func (t *Tracker) Active(enemyID string) []Effect {
	byKind, ok := t.effects[enemyID]
	if !ok {
		return nil
	}
	kinds := make([]Kind, 0, len(byKind))
	for k := range byKind {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	out := make([]Effect, 0, len(kinds))
	for _, k := range kinds {
		if e, ok := t.get(enemyID, k); ok {
			out = append(out, e)
		}
	}
	return out
}

// Multiplier returns the largest multiplier in table whose kind is active
// on the enemy, or 1. Call it before applying damage.
func (t *Tracker) Multiplier(enemyID string, table map[string]float64) float64 {
	mult := 1.0
	for kind, m := range table {
		if m > mult && t.IsActive(enemyID, Kind(kind)) {
			mult = m
		}
	}
	return mult
}

// Remove clears one kind from an enemy.
func (t *Tracker) Remove(enemyID string, kind Kind) {
	if byKind, ok := t.effects[enemyID]; ok {
		delete(byKind, kind)
		if len(byKind) == 0 {
			delete(t.effects, enemyID)
		}
	}
}

// Clear drops every effect on an enemy.
func (t *Tracker) Clear(enemyID string) {
	delete(t.effects, enemyID)
}

// Sweep removes expired effects and everything on enemies for which alive
// returns false. It returns the number of removed effects.
func (t *Tracker) Sweep(alive func(enemyID string) bool) int {
	now := t.clock.Now()
	removed := 0
	for id, byKind := range t.effects {
		if alive != nil && !alive(id) {
			removed += len(byKind)
			delete(t.effects, id)
			continue
		}
		for k, e := range byKind {
			if e.Expired(now) {
				delete(byKind, k)
				removed++
			}
		}
		if len(byKind) == 0 {
			delete(t.effects, id)
		}
	}
	return removed
}

// Len returns the number of stored effects, expired ones included until
// they are read or swept.
func (t *Tracker) Len() int {
	n := 0
	for _, byKind := range t.effects {
		n += len(byKind)
	}
	return n
}

// Reset drops everything.
func (t *Tracker) Reset() {
	t.effects = make(map[string]map[Kind]Effect)
}
