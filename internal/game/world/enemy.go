package world

import "time"

// Enemy is one entry of the per-tick snapshot handed to the combat core.
// The core only reads it; health changes happen in the scene layer in
// response to OnHit.
type Enemy struct {
	ID             string    `json:"id"`
	Position       Vec3      `json:"position"`
	Facing         float64   `json:"facing"`
	Health         int       `json:"health"`
	MaxHealth      int       `json:"maxHealth"`
	IsBoss         bool      `json:"isBoss"`
	IsDying        bool      `json:"isDying"`
	DeathStartTime time.Time `json:"deathStartTime,omitempty"`
}

// Alive reports whether the enemy may still be targeted or damaged.
func (e Enemy) Alive() bool {
	return e.Health > 0 && !e.IsDying
}

// Source is implemented by the scene layer.
//
// Enemies returns the snapshot for the current tick. Lookup returns the
// enemy's current state and is used by deferred callbacks that must
// re-validate their target instead of trusting a stored reference.
type Source interface {
	Enemies() []Enemy
	Lookup(id string) (Enemy, bool)
}

// Advancer is optionally implemented by a Source that simulates its own
// movement and should be stepped before the combat tick.
type Advancer interface {
	Advance(dt float64)
}

// FilterAlive appends the living enemies of src to dst.
func FilterAlive(dst, src []Enemy) []Enemy {
	for _, e := range src {
		if e.Alive() {
			dst = append(dst, e)
		}
	}
	return dst
}

// StaticSource is a fixed snapshot. Useful for tools and tests.
type StaticSource struct {
	List []Enemy
}

func (s *StaticSource) Enemies() []Enemy { return s.List }

func (s *StaticSource) Lookup(id string) (Enemy, bool) {
	for _, e := range s.List {
		if e.ID == id {
			return e, true
		}
	}
	return Enemy{}, false
}

// Damage lowers the enemy's health, mirroring what a scene layer would do.
func (s *StaticSource) Damage(id string, amount int) {
	for i := range s.List {
		if s.List[i].ID == id {
			s.List[i].Health -= amount
			if s.List[i].Health < 0 {
				s.List[i].Health = 0
			}
			return
		}
	}
}

// Remove drops an enemy from the snapshot.
func (s *StaticSource) Remove(id string) {
	for i := range s.List {
		if s.List[i].ID == id {
			s.List = append(s.List[:i], s.List[i+1:]...)
			return
		}
	}
}
