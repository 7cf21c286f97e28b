package ability

import (
	"arena/internal/game/clock"
	"arena/internal/game/world"
	"arena/internal/netsync"
)

// nova hits everything around the caster and applies its status.
type nova struct{ base }

func newNova(def Definition, sched *clock.Scheduler) *nova {
	return &nova{base: newBase(def, sched)}
}

func (a *nova) CastAbility(env Env, c Caster, aim Aim) bool {
	if !a.hasCharge() {
		return false
	}
	center := aim.point(c)
	box := Hitbox{Shape: ShapeCircle, Range: a.def.Range}
	contacts := box.Collect(center, world.FromHeading(c.Facing), env.Enemies())

	a.spend()
	a.mirror(env, netsync.KindAbility, c, center, world.Vec3{}, a.def.StatusDuration)

	for _, ct := range contacts {
		if a.def.Damage > 0 {
			out := env.ApplyHit(a.hit(c, ct.Enemy.ID, a.def.Damage, center))
			if out.Killed {
				continue
			}
		}
		a.applyStatus(env, ct.Enemy)
	}
	return true
}

// totem places a summoned unit. Only one of each type may exist, so the
// cast is refused while the previous one is alive.
type totem struct{ base }

func newTotem(def Definition, sched *clock.Scheduler) *totem {
	return &totem{base: newBase(def, sched)}
}

func (a *totem) CastAbility(env Env, c Caster, aim Aim) bool {
	if a.def.Summon == "" || !a.hasCharge() || env.HasSummon(a.def.Summon) {
		return false
	}
	pos := aim.point(c)
	if !env.Summon(a.def.Summon, c.ID, pos) {
		return false
	}
	a.spend()
	a.mirror(env, netsync.KindSummon, c, pos, world.Vec3{}, 0)
	return true
}
