package game

import (
	"time"

	"arena/internal/game/combat"
	"arena/internal/game/projectile"
	"arena/internal/game/status"
	"arena/internal/game/world"
	"arena/internal/netsync"
)

// combatEnv is the engine as seen by abilities, the chain engine and the
// summon controller. Its methods run inside the tick or an entrypoint and
// never take the engine lock.
type combatEnv struct {
	e *Engine
}

func (v *combatEnv) Now() time.Time {
	return v.e.clock.Now()
}

func (v *combatEnv) Enemies() []world.Enemy {
	return v.e.source.Enemies()
}

func (v *combatEnv) Lookup(id string) (world.Enemy, bool) {
	return v.e.source.Lookup(id)
}

func (v *combatEnv) EnemiesNear(pos world.Vec3, radius float64) []world.Enemy {
	return v.e.enemiesNear(pos, radius)
}

func (v *combatEnv) ApplyHit(h combat.Hit) combat.HitOutcome {
	return v.e.applyHit(h)
}

func (v *combatEnv) ApplyStatus(enemyID string, kind status.Kind, d time.Duration, magnitude float64, pos world.Vec3) {
	v.e.applyStatus(enemyID, kind, d, magnitude, pos)
}

func (v *combatEnv) SpawnProjectile(spec projectile.Spec) (*projectile.Projectile, bool) {
	return v.e.projectiles.Spawn(spec, v.e.clock.Now())
}

func (v *combatEnv) HasSummon(unitType string) bool {
	return v.e.summons.Has(unitType)
}

func (v *combatEnv) Summon(unitType, ownerID string, pos world.Vec3) bool {
	_, ok := v.e.summons.Spawn(unitType, ownerID, pos)
	return ok
}

func (v *combatEnv) SendEffect(d netsync.Descriptor) {
	v.e.sendEffect(d)
}
