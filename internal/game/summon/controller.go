package summon

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"arena/internal/game/aggro"
	"arena/internal/game/clock"
	"arena/internal/game/combat"
	"arena/internal/game/world"
)

// Destroy reasons.
const (
	ReasonExpired = "expired"
	ReasonKilled  = "killed"
	ReasonReset   = "reset"
)

// Host routes summon attacks through the damage pipeline.
type Host interface {
	ApplyHit(h combat.Hit) combat.HitOutcome
}

// Owner is the caster the units follow.
type Owner struct {
	ID       string
	Position world.Vec3
	Valid    bool
}

// Controller owns every summoned unit. Not safe for concurrent use.
type Controller struct {
	types    map[string]Type
	sched    *clock.Scheduler
	selector *aggro.Selector
	host     Host
	log      *slog.Logger

	units  map[string]*Unit
	nextID uint64
	owner  string

	OnSpawn      func(u *Unit)
	OnDestroy    func(u *Unit, reason string)
	OnTransition func(u *Unit, from, to string)
	OnAttack     func(u *Unit, out combat.HitOutcome)
}

// NewController creates a controller for the given unit catalog.
func NewController(types map[string]Type, sched *clock.Scheduler, selector *aggro.Selector, host Host, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		types:    types,
		sched:    sched,
		selector: selector,
		host:     host,
		log:      logger,
		units:    make(map[string]*Unit),
	}
}

// SetOwner sets the default owner for SpawnIfAbsent.
func (c *Controller) SetOwner(ownerID string) {
	c.owner = ownerID
}

// Types returns the known unit types sorted by name.
func (c *Controller) Types() []Type {
	out := make([]Type, 0, len(c.types))
	for _, t := range c.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Spawn creates a unit of typeName at pos. Only one unit per type may
// exist; a second spawn is refused.
func (c *Controller) Spawn(typeName, ownerID string, pos world.Vec3) (*Unit, bool) {
	t, ok := c.types[typeName]
	if !ok {
		c.log.Warn("unknown summon type", "type", typeName)
		return nil, false
	}
	if c.Has(typeName) {
		return nil, false
	}

	c.nextID++
	id := fmt.Sprintf("%s_%d", typeName, c.nextID)
	u := newUnit(id, ownerID, t, pos, c.sched.Now(), c.transition)
	c.units[id] = u
	c.selector.Register(id, t.Targeting)

	if t.Duration > 0 {
		u.timer = c.sched.After(t.Duration, func() {
			c.Destroy(id, ReasonExpired)
		})
	}

	c.log.Info("summon spawned", "id", id, "type", typeName, "owner", ownerID)
	if c.OnSpawn != nil {
		c.OnSpawn(u)
	}
	return u, true
}

// SpawnIfAbsent spawns for the default owner. It satisfies the chain
// engine's summoner contract.
func (c *Controller) SpawnIfAbsent(typeName string, pos world.Vec3) bool {
	_, ok := c.Spawn(typeName, c.owner, pos)
	return ok
}

func (c *Controller) transition(u *Unit, from, to string) {
	if c.OnTransition != nil {
		c.OnTransition(u, from, to)
	}
}

// Destroy removes a unit. It is also the external death signal.
func (c *Controller) Destroy(id, reason string) bool {
	u, ok := c.units[id]
	if !ok {
		return false
	}
	delete(c.units, id)
	c.selector.Deregister(id)
	if u.timer != 0 {
		c.sched.Cancel(u.timer)
	}

	c.log.Info("summon destroyed", "id", id, "type", u.Type, "reason", reason)
	if c.OnDestroy != nil {
		c.OnDestroy(u, reason)
	}
	return true
}

// Tick updates every unit: target selection, state transition, movement
// and attacks. dt is in seconds.
func (c *Controller) Tick(now time.Time, dt float64, owner Owner, enemies []world.Enemy) {
	for _, id := range c.ids() {
		u, ok := c.units[id]
		if !ok {
			continue
		}
		c.update(u, now, dt, owner, enemies)
	}
}

func (c *Controller) update(u *Unit, now time.Time, dt float64, owner Owner, enemies []world.Enemy) {
	target, found := c.selector.Target(u.ID, u.Position, enemies)
	if !found {
		u.CurrentTargetID = ""
		u.fire(EventDisengage)
		if owner.Valid && u.spec.Speed > 0 {
			if world.Dist2D(u.Position, owner.Position) > u.spec.FollowRange {
				u.Facing = owner.Position.Sub(u.Position).Heading()
				u.Position = world.MoveToward(u.Position, owner.Position, u.spec.Speed*dt)
			}
		}
		return
	}

	u.CurrentTargetID = target.ID
	u.fire(EventEngage)
	u.Facing = target.Position.Sub(u.Position).Heading()

	dist := world.Dist2D(u.Position, target.Position)
	if dist > u.spec.AttackRange {
		if u.spec.Speed > 0 {
			step := u.spec.Speed * dt
			if gap := dist - u.spec.AttackRange; step > gap {
				step = gap
			}
			u.Position = world.MoveToward(u.Position, target.Position, step)
		}
		return
	}

	if !u.canAttack(now) {
		return
	}
	u.LastAttack = now
	u.Attacks++
	out := c.host.ApplyHit(combat.Hit{
		SourceID:   u.ID,
		SourceKind: combat.SourceSummon,
		AbilityID:  u.Type,
		TargetID:   target.ID,
		Base:       u.spec.Damage,
		Mods:       combat.Modifiers{CritChance: u.spec.CritChance},
		Origin:     u.Position,
		Style:      combat.StyleSummon,
	})
	if c.OnAttack != nil {
		c.OnAttack(u, out)
	}
}

func (c *Controller) ids() []string {
	ids := make([]string, 0, len(c.units))
	for id := range c.units {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Has reports whether a unit of typeName exists.
func (c *Controller) Has(typeName string) bool {
	for _, u := range c.units {
		if u.Type == typeName {
			return true
		}
	}
	return false
}

// Get returns a unit by id.
func (c *Controller) Get(id string) (*Unit, bool) {
	u, ok := c.units[id]
	return u, ok
}

// Units returns live units sorted by id.
func (c *Controller) Units() []*Unit {
	out := make([]*Unit, 0, len(c.units))
	for _, id := range c.ids() {
		out = append(out, c.units[id])
	}
	return out
}

// Len returns the number of live units.
func (c *Controller) Len() int {
	return len(c.units)
}

// AppendSnapshots appends render copies to dst.
func (c *Controller) AppendSnapshots(dst []Snapshot) []Snapshot {
	for _, u := range c.Units() {
		dst = append(dst, u.ToSnapshot())
	}
	return dst
}

// Reset destroys every unit.
func (c *Controller) Reset() {
	for _, id := range c.ids() {
		c.Destroy(id, ReasonReset)
	}
}
