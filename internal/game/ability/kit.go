package ability

import (
	"errors"
	"fmt"
	"time"

	"arena/internal/game/charge"
	"arena/internal/game/clock"
	"arena/internal/game/combat"
	"arena/internal/game/projectile"
	"arena/internal/game/world"
)

// Ability is one slot of a kit. Entrypoints are exposed through the
// capability interfaces below; an ability implements the ones its kind
// supports.
type Ability interface {
	Definition() Definition
	State(now time.Time) State
	Reset()
}

// Charger abilities are held and released.
type Charger interface {
	StartCharging(env Env, c Caster) bool
	ReleaseCharge(env Env, c Caster, aim Aim) bool
	Charging() bool
}

// Castable abilities resolve instantly.
type Castable interface {
	CastAbility(env Env, c Caster, aim Aim) bool
}

// Shooter abilities fire one projectile per call.
type Shooter interface {
	ShootProjectile(env Env, c Caster, aim Aim) bool
}

// ProjectileHandler resolves hits of the projectiles an ability spawned.
type ProjectileHandler interface {
	OnProjectileHit(env Env, p *projectile.Projectile, target world.Enemy) combat.HitOutcome
}

// State is the read-only view of an ability for clients.
type State struct {
	ID                string        `json:"id"`
	Kind              Kind          `json:"kind"`
	Available         int           `json:"available"`
	Size              int           `json:"size"`
	NextReady         time.Duration `json:"nextReady,omitempty"`
	Charging          bool          `json:"charging,omitempty"`
	ChargeFraction    float64       `json:"chargeFraction,omitempty"`
	ShotsRemaining    int           `json:"shotsRemaining,omitempty"`
	CooldownRemaining time.Duration `json:"cooldownRemaining,omitempty"`
}

// base holds what every kind shares: the charge pool and the internal
// cooldown deadline.
type base struct {
	def     Definition
	ledger  *charge.Ledger
	readyAt time.Time
}

func newBase(def Definition, sched *clock.Scheduler) base {
	b := base{def: def}
	if def.Charges > 0 {
		b.ledger = charge.NewLedger(sched, def.Charges, def.Cooldown)
	}
	return b
}

func (b *base) Definition() Definition { return b.def }

// Ledger returns the charge pool, or nil when the ability has no cost.
func (b *base) Ledger() *charge.Ledger { return b.ledger }

func (b *base) hasCharge() bool {
	return b.ledger == nil || b.ledger.Available() > 0
}

func (b *base) spend() bool {
	return b.ledger == nil || b.ledger.Consume(1)
}

func (b *base) ready(now time.Time) bool {
	return !now.Before(b.readyAt)
}

func (b *base) startCooldown(now time.Time) {
	if b.def.InternalCooldown > 0 {
		b.readyAt = now.Add(b.def.InternalCooldown)
	}
}

func (b *base) state(now time.Time) State {
	s := State{ID: b.def.ID, Kind: b.def.Kind}
	if b.ledger != nil {
		s.Available = b.ledger.Available()
		s.Size = b.ledger.Size()
		if d, ok := b.ledger.NextReady(); ok {
			s.NextReady = d
		}
	}
	if now.Before(b.readyAt) {
		s.CooldownRemaining = b.readyAt.Sub(now)
	}
	return s
}

func (b *base) State(now time.Time) State { return b.state(now) }

func (b *base) Reset() {
	if b.ledger != nil {
		b.ledger.Reset()
	}
	b.readyAt = time.Time{}
}

func (b *base) hit(c Caster, targetID string, dmg float64, origin world.Vec3) combat.Hit {
	return combat.Hit{
		SourceID:   c.ID,
		SourceKind: combat.SourcePlayer,
		AbilityID:  b.def.ID,
		TargetID:   targetID,
		Base:       combat.LevelScaled(dmg, b.def.DamagePerLevel, c.Level),
		Mods: combat.Modifiers{
			CritChance:     b.def.CritChance,
			CritMultiplier: b.def.CritMultiplier,
		},
		StatusBonus: b.def.StatusBonus,
		ChainOnKill: b.def.ChainOnKill,
		Origin:      origin,
		Style:       combat.StyleNormal,
	}
}

func (b *base) applyStatus(env Env, e world.Enemy) {
	if b.def.Status == "" {
		return
	}
	env.ApplyStatus(e.ID, b.def.Status, b.def.StatusDuration, b.def.StatusMagnitude, e.Position)
}

// New builds the ability for def.
func New(def Definition, sched *clock.Scheduler) (Ability, error) {
	if def.ID == "" {
		return nil, errors.New("ability definition without id")
	}
	switch def.Kind {
	case KindChargedShot:
		return newChargedShot(def, sched), nil
	case KindVolley:
		return newVolley(def, sched), nil
	case KindThrust:
		return newThrust(def, sched), nil
	case KindBackstab:
		return newBackstab(def, sched), nil
	case KindSmite:
		return newSmite(def, sched), nil
	case KindNova:
		return newNova(def, sched), nil
	case KindTotem:
		return newTotem(def, sched), nil
	}
	return nil, fmt.Errorf("ability %q: unknown kind %q", def.ID, def.Kind)
}

// Kit is a caster's set of abilities, addressed by id.
type Kit struct {
	order     []string
	abilities map[string]Ability
}

// NewKit builds every definition. Ids must be unique.
func NewKit(defs []Definition, sched *clock.Scheduler) (*Kit, error) {
	k := &Kit{abilities: make(map[string]Ability, len(defs))}
	for _, def := range defs {
		if _, dup := k.abilities[def.ID]; dup {
			return nil, fmt.Errorf("duplicate ability id %q", def.ID)
		}
		a, err := New(def, sched)
		if err != nil {
			return nil, err
		}
		k.abilities[def.ID] = a
		k.order = append(k.order, def.ID)
	}
	return k, nil
}

// Get returns an ability by id.
func (k *Kit) Get(id string) (Ability, bool) {
	a, ok := k.abilities[id]
	return a, ok
}

// IDs returns ability ids in catalog order.
func (k *Kit) IDs() []string {
	return append([]string(nil), k.order...)
}

// Definitions returns the catalog in order.
func (k *Kit) Definitions() []Definition {
	out := make([]Definition, 0, len(k.order))
	for _, id := range k.order {
		out = append(out, k.abilities[id].Definition())
	}
	return out
}

// StartCharging begins holding a charged ability.
func (k *Kit) StartCharging(id string, env Env, c Caster) bool {
	if ch, ok := k.abilities[id].(Charger); ok {
		return ch.StartCharging(env, c)
	}
	return false
}

// ReleaseCharge fires a held ability.
func (k *Kit) ReleaseCharge(id string, env Env, c Caster, aim Aim) bool {
	if ch, ok := k.abilities[id].(Charger); ok {
		return ch.ReleaseCharge(env, c, aim)
	}
	return false
}

// CastAbility activates an instant ability.
func (k *Kit) CastAbility(id string, env Env, c Caster, aim Aim) bool {
	if ca, ok := k.abilities[id].(Castable); ok {
		return ca.CastAbility(env, c, aim)
	}
	return false
}

// ShootProjectile fires one shot of a projectile ability.
func (k *Kit) ShootProjectile(id string, env Env, c Caster, aim Aim) bool {
	if sh, ok := k.abilities[id].(Shooter); ok {
		return sh.ShootProjectile(env, c, aim)
	}
	return false
}

// OnProjectileHit routes a projectile hit to the ability that fired it.
func (k *Kit) OnProjectileHit(env Env, p *projectile.Projectile, target world.Enemy) (combat.HitOutcome, bool) {
	h, ok := k.abilities[p.AbilityID].(ProjectileHandler)
	if !ok {
		return combat.HitOutcome{}, false
	}
	return h.OnProjectileHit(env, p, target), true
}

// States returns every ability's state in catalog order.
func (k *Kit) States(now time.Time) []State {
	out := make([]State, 0, len(k.order))
	for _, id := range k.order {
		out = append(out, k.abilities[id].State(now))
	}
	return out
}

// Reset restores every ability.
func (k *Kit) Reset() {
	for _, a := range k.abilities {
		a.Reset()
	}
}
