package ability

import (
	"time"

	"arena/internal/game/charge"
	"arena/internal/game/clock"
	"arena/internal/game/combat"
	"arena/internal/game/projectile"
	"arena/internal/game/world"
	"arena/internal/netsync"
)

// chargedShot is held with StartCharging and fired with ReleaseCharge.
// Damage and range both scale with how long it was held.
type chargedShot struct {
	base
	charging    bool
	chargeStart time.Time
}

func newChargedShot(def Definition, sched *clock.Scheduler) *chargedShot {
	return &chargedShot{base: newBase(def, sched)}
}

func (a *chargedShot) StartCharging(env Env, c Caster) bool {
	if a.charging || !a.hasCharge() {
		return false
	}
	a.charging = true
	a.chargeStart = env.Now()
	env.SendEffect(netsync.Descriptor{
		Kind:      netsync.KindChargeStart,
		AbilityID: a.def.ID,
		OwnerID:   c.ID,
		Position:  c.Position,
		Direction: world.FromHeading(c.Facing),
		Duration:  a.def.MaxChargeTime,
		At:        a.chargeStart,
	})
	return true
}

func (a *chargedShot) Charging() bool { return a.charging }

// scaling returns the damage and range curves for a hold of held.
func (a *chargedShot) scaling(held time.Duration) (dmg, rng combat.ChargeScaling) {
	dmg = combat.ChargeScaling{Min: a.def.MinDamage, Max: a.def.MaxDamage, ChargeTime: held, MaxChargeTime: a.def.MaxChargeTime}
	rng = combat.ChargeScaling{Min: a.def.MinRange, Max: a.def.MaxRange, ChargeTime: held, MaxChargeTime: a.def.MaxChargeTime}
	return dmg, rng
}

func (a *chargedShot) ReleaseCharge(env Env, c Caster, aim Aim) bool {
	if !a.charging {
		return false
	}
	a.charging = false
	if !a.hasCharge() {
		return false
	}

	now := env.Now()
	dmg, rng := a.scaling(now.Sub(a.chargeStart))
	spec := projectile.Spec{
		OwnerID:     c.ID,
		AbilityID:   a.def.ID,
		Origin:      c.Position,
		Direction:   aim.direction(c),
		Speed:       a.def.Speed,
		MaxDistance: rng.Value(),
		Damage:      combat.LevelScaled(dmg.Value(), a.def.DamagePerLevel, c.Level),
		Piercing:    a.def.Piercing,
		HitRadius:   a.def.HitRadius,
		Fade:        a.def.Fade,
	}
	if !spawn(env, spec, now) {
		return false
	}
	a.spend()
	return true
}

func (a *chargedShot) OnProjectileHit(env Env, p *projectile.Projectile, target world.Enemy) combat.HitOutcome {
	return env.ApplyHit(projectileHit(&a.base, p, target))
}

func (a *chargedShot) State(now time.Time) State {
	s := a.state(now)
	s.Charging = a.charging
	if a.charging {
		d, _ := a.scaling(now.Sub(a.chargeStart))
		s.ChargeFraction = d.Fraction()
	}
	return s
}

func (a *chargedShot) Reset() {
	a.base.Reset()
	a.charging = false
	a.chargeStart = time.Time{}
}

// volley fires ShotsPerCharge projectiles per charge.
type volley struct {
	base
	shots *charge.ShotLedger
}

func newVolley(def Definition, sched *clock.Scheduler) *volley {
	if def.Charges < 1 {
		def.Charges = 1
	}
	v := &volley{base: newBase(def, sched)}
	v.shots = charge.NewShotLedger(v.ledger, def.ShotsPerCharge)
	return v
}

func (a *volley) ShootProjectile(env Env, c Caster, aim Aim) bool {
	if !a.shots.CanShoot() {
		return false
	}
	now := env.Now()
	spec := projectile.Spec{
		OwnerID:     c.ID,
		AbilityID:   a.def.ID,
		Origin:      c.Position,
		Direction:   aim.direction(c),
		Speed:       a.def.Speed,
		MaxDistance: a.def.Range,
		Damage:      combat.LevelScaled(a.def.Damage, a.def.DamagePerLevel, c.Level),
		Piercing:    a.def.Piercing,
		HitRadius:   a.def.HitRadius,
		Fade:        a.def.Fade,
	}
	if !spawn(env, spec, now) {
		return false
	}
	a.shots.Shoot()
	return true
}

func (a *volley) OnProjectileHit(env Env, p *projectile.Projectile, target world.Enemy) combat.HitOutcome {
	return env.ApplyHit(projectileHit(&a.base, p, target))
}

func (a *volley) State(now time.Time) State {
	s := a.state(now)
	s.ShotsRemaining = a.shots.ShotsRemaining()
	return s
}

func (a *volley) Reset() {
	a.shots.Reset()
	a.readyAt = time.Time{}
}

// spawn creates the projectile and mirrors it to peers.
func spawn(env Env, spec projectile.Spec, now time.Time) bool {
	p, ok := env.SpawnProjectile(spec)
	if !ok {
		return false
	}
	var travel time.Duration
	if spec.Speed > 0 {
		travel = time.Duration(spec.MaxDistance / spec.Speed * float64(time.Second))
	}
	env.SendEffect(netsync.Descriptor{
		Kind:      netsync.KindProjectile,
		AbilityID: spec.AbilityID,
		OwnerID:   spec.OwnerID,
		Position:  p.StartPosition,
		Direction: p.Direction,
		Duration:  travel,
		Speed:     spec.Speed,
		Range:     spec.MaxDistance,
		At:        now,
	})
	return true
}

// projectileHit carries the damage baked in at spawn; level scaling was
// already applied then.
func projectileHit(b *base, p *projectile.Projectile, target world.Enemy) combat.Hit {
	return combat.Hit{
		SourceID:   p.OwnerID,
		SourceKind: combat.SourcePlayer,
		AbilityID:  p.AbilityID,
		TargetID:   target.ID,
		Base:       p.Damage,
		Mods: combat.Modifiers{
			CritChance:     b.def.CritChance,
			CritMultiplier: b.def.CritMultiplier,
		},
		StatusBonus: b.def.StatusBonus,
		ChainOnKill: b.def.ChainOnKill,
		Origin:      p.Position,
		Style:       combat.StyleNormal,
	}
}
