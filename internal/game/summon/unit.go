// Package summon drives allied units spawned by abilities and chain kills.
//
// Each unit runs a two-state machine: follow keeps it near its owner,
// combat chases and attacks the target picked by the aggro selector.
package summon

import (
	"context"
	"time"

	"arena/internal/game/aggro"
	"arena/internal/game/clock"
	"arena/internal/game/world"

	"github.com/looplab/fsm"
)

// States and events of the unit state machine.
const (
	StateFollow = "follow"
	StateCombat = "combat"

	EventEngage    = "engage"
	EventDisengage = "disengage"
)

// Type is the catalog entry for a summonable unit.
type Type struct {
	Name           string        `yaml:"name" json:"name"`
	MaxHealth      int           `yaml:"max_health" json:"maxHealth"`
	Speed          float64       `yaml:"speed" json:"speed"`
	FollowRange    float64       `yaml:"follow_range" json:"followRange"`
	AttackRange    float64       `yaml:"attack_range" json:"attackRange"`
	AttackCooldown time.Duration `yaml:"attack_cooldown" json:"attackCooldown"`
	Damage         float64       `yaml:"damage" json:"damage"`
	CritChance     float64       `yaml:"crit_chance" json:"critChance"`
	Duration       time.Duration `yaml:"duration" json:"duration"` // zero lives until destroyed
	Targeting      aggro.Profile `yaml:"targeting" json:"targeting"`
}

// Unit is a live summoned ally.
type Unit struct {
	ID              string
	Type            string
	OwnerID         string
	Position        world.Vec3
	Facing          float64
	Health          int
	MaxHealth       int
	CurrentTargetID string
	SpawnedAt       time.Time
	LastAttack      time.Time
	Attacks         int

	spec  Type
	fsm   *fsm.FSM
	timer clock.TimerID
}

func newUnit(id, ownerID string, t Type, pos world.Vec3, now time.Time, onTransition func(u *Unit, from, to string)) *Unit {
	u := &Unit{
		ID:        id,
		Type:      t.Name,
		OwnerID:   ownerID,
		Position:  pos,
		Health:    t.MaxHealth,
		MaxHealth: t.MaxHealth,
		SpawnedAt: now,
		spec:      t,
	}
	u.fsm = fsm.NewFSM(
		StateFollow,
		fsm.Events{
			{Name: EventEngage, Src: []string{StateFollow}, Dst: StateCombat},
			{Name: EventDisengage, Src: []string{StateCombat}, Dst: StateFollow},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				if onTransition != nil {
					onTransition(u, e.Src, e.Dst)
				}
			},
		},
	)
	return u
}

// State returns the current state name.
func (u *Unit) State() string {
	return u.fsm.Current()
}

// Spec returns the unit's type definition.
func (u *Unit) Spec() Type {
	return u.spec
}

func (u *Unit) fire(event string) {
	if !u.fsm.Can(event) {
		return
	}
	_ = u.fsm.Event(context.Background(), event)
}

func (u *Unit) canAttack(now time.Time) bool {
	return u.LastAttack.IsZero() || now.Sub(u.LastAttack) >= u.spec.AttackCooldown
}

// Snapshot is an immutable copy for readers outside the tick.
type Snapshot struct {
	ID       string     `json:"id"`
	Type     string     `json:"type"`
	Position world.Vec3 `json:"position"`
	Facing   float64    `json:"facing"`
	State    string     `json:"state"`
	TargetID string     `json:"targetId,omitempty"`
	Health   int        `json:"health"`
	Attacks  int        `json:"attacks"`
}

// ToSnapshot copies the unit.
func (u *Unit) ToSnapshot() Snapshot {
	return Snapshot{
		ID:       u.ID,
		Type:     u.Type,
		Position: u.Position,
		Facing:   u.Facing,
		State:    u.State(),
		TargetID: u.CurrentTargetID,
		Health:   u.Health,
		Attacks:  u.Attacks,
	}
}
