package projectile

import (
	"fmt"
	"time"

	"arena/internal/game/world"
)

// Config tunes a Simulator.
type Config struct {
	MaxProjectiles int
	HitRadius      float64
	FadeDuration   time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		MaxProjectiles: DefaultMaxProjectiles,
		HitRadius:      DefaultHitRadius,
		FadeDuration:   DefaultFadeDuration,
	}
}

// Spec describes a projectile to launch.
type Spec struct {
	OwnerID     string
	AbilityID   string
	Origin      world.Vec3
	Direction   world.Vec3
	Speed       float64
	MaxDistance float64
	Damage      float64
	IsCritical  bool
	Piercing    bool
	HitRadius   float64       // zero uses the simulator default
	Fade        time.Duration // zero uses the simulator default
}

// HitFunc is invoked once per (projectile, enemy) contact.
type HitFunc func(p *Projectile, target world.Enemy)

// Simulator owns the projectiles of one ability. Not safe for concurrent
// use.
type Simulator struct {
	cfg         Config
	projectiles []*Projectile
	nextID      uint64
	onHit       HitFunc

	alive []world.Enemy // scratch
}

// NewSimulator creates a simulator. Zero config fields take defaults.
func NewSimulator(cfg Config, onHit HitFunc) *Simulator {
	def := DefaultConfig()
	if cfg.MaxProjectiles <= 0 {
		cfg.MaxProjectiles = def.MaxProjectiles
	}
	if cfg.HitRadius <= 0 {
		cfg.HitRadius = def.HitRadius
	}
	if cfg.FadeDuration <= 0 {
		cfg.FadeDuration = def.FadeDuration
	}
	return &Simulator{
		cfg:         cfg,
		projectiles: make([]*Projectile, 0, cfg.MaxProjectiles),
		onHit:       onHit,
	}
}

// SetHitFunc replaces the hit callback.
func (s *Simulator) SetHitFunc(fn HitFunc) {
	s.onHit = fn
}

// Spawn launches a projectile. It returns false when the pool is full or
// the direction is degenerate.
func (s *Simulator) Spawn(spec Spec, now time.Time) (*Projectile, bool) {
	if len(s.projectiles) >= s.cfg.MaxProjectiles {
		return nil, false
	}
	dir := spec.Direction.Flatten()
	if dir == (world.Vec3{}) {
		return nil, false
	}

	radius := spec.HitRadius
	if radius <= 0 {
		radius = s.cfg.HitRadius
	}
	fade := spec.Fade
	if fade <= 0 {
		fade = s.cfg.FadeDuration
	}

	s.nextID++
	p := &Projectile{
		ID:            fmt.Sprintf("proj_%s_%d", spec.AbilityID, s.nextID),
		OwnerID:       spec.OwnerID,
		AbilityID:     spec.AbilityID,
		Position:      spec.Origin,
		Direction:     dir,
		StartPosition: spec.Origin,
		Speed:         spec.Speed,
		MaxDistance:   spec.MaxDistance,
		Damage:        spec.Damage,
		IsCritical:    spec.IsCritical,
		HitRadius:     radius,
		Piercing:      spec.Piercing,
		StartTime:     now,
		HitEnemies:    make(map[string]struct{}, 2),
		Active:        true,
		Opacity:       1,
		FadeDuration:  fade,
	}
	for i := range p.trail {
		p.trail[i] = spec.Origin
	}
	s.projectiles = append(s.projectiles, p)
	return p, true
}

// Tick advances every projectile by dt seconds and resolves hits against
// enemies. Removed projectiles are compacted out in place.
func (s *Simulator) Tick(now time.Time, dt float64, enemies []world.Enemy) {
	s.alive = world.FilterAlive(s.alive[:0], enemies)

	n := 0
	for _, p := range s.projectiles {
		if p.Active {
			s.advance(p, now, dt)
		} else {
			s.fade(p, now)
		}

		if p.Phase() == PhaseRemoved {
			continue
		}
		s.projectiles[n] = p
		n++
	}
	for i := n; i < len(s.projectiles); i++ {
		s.projectiles[i] = nil
	}
	s.projectiles = s.projectiles[:n]
}

func (s *Simulator) advance(p *Projectile, now time.Time, dt float64) {
	p.pushTrail()
	step := p.Speed * dt
	if p.MaxDistance > 0 && p.Traveled+step > p.MaxDistance {
		step = p.MaxDistance - p.Traveled
	}
	p.Position = p.Position.Add(p.Direction.Scale(step))
	p.Traveled += step

	for _, e := range s.alive {
		if p.HasHit(e.ID) {
			continue
		}
		if world.Dist2D(p.Position, e.Position) > p.HitRadius {
			continue
		}
		p.HitEnemies[e.ID] = struct{}{}
		if s.onHit != nil {
			s.onHit(p, e)
		}
		if !p.Piercing {
			p.HasCollided = true
			p.startFade(now)
			return
		}
	}

	if p.MaxDistance > 0 && p.Traveled >= p.MaxDistance {
		p.startFade(now)
	}
}

func (s *Simulator) fade(p *Projectile, now time.Time) {
	elapsed := now.Sub(p.FadeStartTime)
	if elapsed >= p.FadeDuration {
		p.Opacity = 0
		return
	}
	p.Opacity = 1 - float64(elapsed)/float64(p.FadeDuration)
}

// Active returns the live projectiles. The slice is owned by the simulator.
func (s *Simulator) Active() []*Projectile {
	return s.projectiles
}

// Len returns the number of projectiles that are active or fading.
func (s *Simulator) Len() int {
	return len(s.projectiles)
}

// AppendSnapshots appends render copies to dst.
func (s *Simulator) AppendSnapshots(dst []Snapshot) []Snapshot {
	for _, p := range s.projectiles {
		dst = append(dst, p.ToSnapshot())
	}
	return dst
}

// Clear removes every projectile.
func (s *Simulator) Clear() {
	for i := range s.projectiles {
		s.projectiles[i] = nil
	}
	s.projectiles = s.projectiles[:0]
}
