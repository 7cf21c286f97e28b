package ability

import (
	"time"

	"arena/internal/game/clock"
	"arena/internal/game/combat"
	"arena/internal/game/world"
	"arena/internal/netsync"
)

// mirror sends the cast descriptor for an instant ability.
func (b *base) mirror(env Env, kind netsync.Kind, c Caster, pos, dir world.Vec3, d time.Duration) {
	env.SendEffect(netsync.Descriptor{
		Kind:      kind,
		AbilityID: b.def.ID,
		OwnerID:   c.ID,
		Position:  pos,
		Direction: dir,
		Duration:  d,
		Range:     b.def.Range,
		At:        env.Now(),
	})
}

// thrust is a reach-limited line attack. Enemies at the tip of the reach
// always take a critical hit.
type thrust struct{ base }

func newThrust(def Definition, sched *clock.Scheduler) *thrust {
	return &thrust{base: newBase(def, sched)}
}

func (a *thrust) CastAbility(env Env, c Caster, aim Aim) bool {
	if !a.hasCharge() {
		return false
	}
	dir := aim.direction(c)
	box := Hitbox{Shape: ShapeLine, Range: a.def.Range, Width: a.def.Width}
	contacts := box.Collect(c.Position, dir, env.Enemies())

	a.spend()
	a.mirror(env, netsync.KindAbility, c, c.Position, dir, 0)

	for _, ct := range contacts {
		h := a.hit(c, ct.Enemy.ID, a.def.Damage, c.Position)
		h.Mods.Tip = &combat.TipZone{HitDistance: ct.Distance, MaxRange: a.def.Range}
		env.ApplyHit(h)
		a.applyStatus(env, ct.Enemy)
	}
	return true
}

// backstab strikes the nearest enemy in a short frontal arc. Striking from
// behind the target forces a critical.
type backstab struct{ base }

func newBackstab(def Definition, sched *clock.Scheduler) *backstab {
	return &backstab{base: newBase(def, sched)}
}

func (a *backstab) CastAbility(env Env, c Caster, aim Aim) bool {
	if !a.hasCharge() {
		return false
	}
	dir := aim.direction(c)
	box := Hitbox{Shape: ShapeArc, Range: a.def.Range, Width: a.def.Width}
	contacts := box.Collect(c.Position, dir, env.Enemies())

	a.spend()
	a.mirror(env, netsync.KindAbility, c, c.Position, dir, 0)

	if len(contacts) == 0 {
		return true
	}
	target := contacts[0].Enemy
	for _, ct := range contacts {
		if ct.Enemy.ID == aim.TargetID {
			target = ct.Enemy
			break
		}
	}
	h := a.hit(c, target.ID, a.def.Damage, c.Position)
	h.Mods.Backstab = combat.IsBehind(c.Position, target.Position, target.Facing)
	env.ApplyHit(h)
	a.applyStatus(env, target)
	return true
}

// smite is a targeted strike on an internal cooldown. When the target had
// RefreshOn active at the moment of impact, the cooldown is refunded.
type smite struct{ base }

func newSmite(def Definition, sched *clock.Scheduler) *smite {
	return &smite{base: newBase(def, sched)}
}

func (a *smite) CastAbility(env Env, c Caster, aim Aim) bool {
	now := env.Now()
	if !a.ready(now) || !a.hasCharge() {
		return false
	}
	target, ok := a.pick(env.Enemies(), c, aim)
	if !ok {
		return false
	}

	a.spend()
	a.startCooldown(now)
	a.mirror(env, netsync.KindAbility, c, target.Position, target.Position.Sub(c.Position).Flatten(), 0)

	out := env.ApplyHit(a.hit(c, target.ID, a.def.Damage, target.Position))
	if a.def.RefreshOn != "" && out.HadStatus(string(a.def.RefreshOn)) {
		a.readyAt = now
	}
	if out.Applied && !out.Killed {
		a.applyStatus(env, target)
	}
	return true
}

// pick prefers the aimed enemy and falls back to the nearest in range.
func (a *smite) pick(enemies []world.Enemy, c Caster, aim Aim) (world.Enemy, bool) {
	box := Hitbox{Shape: ShapeCircle, Range: a.def.Range}
	contacts := box.Collect(c.Position, world.FromHeading(c.Facing), enemies)
	if len(contacts) == 0 {
		return world.Enemy{}, false
	}
	for _, ct := range contacts {
		if ct.Enemy.ID == aim.TargetID {
			return ct.Enemy, true
		}
	}
	return contacts[0].Enemy, true
}
