package ability

import (
	"time"

	"arena/internal/game/combat"
	"arena/internal/game/projectile"
	"arena/internal/game/status"
	"arena/internal/game/world"
	"arena/internal/netsync"
)

// Env is what an ability needs from the engine at activation time.
type Env interface {
	Now() time.Time
	Enemies() []world.Enemy
	ApplyHit(h combat.Hit) combat.HitOutcome
	ApplyStatus(enemyID string, kind status.Kind, d time.Duration, magnitude float64, pos world.Vec3)
	SpawnProjectile(spec projectile.Spec) (*projectile.Projectile, bool)
	HasSummon(unitType string) bool
	Summon(unitType, ownerID string, pos world.Vec3) bool
	SendEffect(d netsync.Descriptor)
}

// Caster is the entity activating the ability.
type Caster struct {
	ID       string
	Position world.Vec3
	Facing   float64 // radians on the ground plane
	Level    int
}

// Aim is the input layer's targeting for one activation. A zero Direction
// falls back to the caster's facing; Point falls back to the caster.
type Aim struct {
	Direction world.Vec3
	TargetID  string
	Point     *world.Vec3
}

func (a Aim) direction(c Caster) world.Vec3 {
	if d := a.Direction.Flatten(); d != (world.Vec3{}) {
		return d
	}
	return world.FromHeading(c.Facing)
}

func (a Aim) point(c Caster) world.Vec3 {
	if a.Point != nil {
		return *a.Point
	}
	return c.Position
}
