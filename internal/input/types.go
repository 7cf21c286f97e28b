// Package input carries control commands from clients to the engine.
//
// Commands arrive on network goroutines, are parsed and rate limited per
// source, and wait in a bounded queue until the engine drains them at the
// start of the next tick. The combat core itself stays single-threaded.
package input

import (
	"strings"
	"time"

	"arena/internal/game/world"
)

// Action names what a command asks the engine to do.
type Action string

const (
	ActionStartCharging Action = "start_charging"
	ActionReleaseCharge Action = "release_charge"
	ActionCast          Action = "cast"
	ActionShoot         Action = "shoot"
	ActionMove          Action = "move"
	ActionLevel         Action = "level"
	ActionFocus         Action = "focus"
	ActionReset         Action = "reset"
)

// aliases maps accepted spellings to canonical actions.
var aliases = map[string]Action{
	"start_charging":   ActionStartCharging,
	"charge":           ActionStartCharging,
	"release_charge":   ActionReleaseCharge,
	"release":          ActionReleaseCharge,
	"cast":             ActionCast,
	"cast_ability":     ActionCast,
	"shoot":            ActionShoot,
	"shoot_projectile": ActionShoot,
	"fire":             ActionShoot,
	"move":             ActionMove,
	"level":            ActionLevel,
	"focus":            ActionFocus,
	"reset":            ActionReset,
	"restart":          ActionReset,
}

// ParseAction normalizes s (case-insensitive, dashes allowed).
func ParseAction(s string) (Action, bool) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	a, ok := aliases[key]
	return a, ok
}

// NeedsAbility reports whether the action targets an ability id.
func (a Action) NeedsAbility() bool {
	switch a {
	case ActionStartCharging, ActionReleaseCharge, ActionCast, ActionShoot:
		return true
	}
	return false
}

// Command is one parsed control request.
type Command struct {
	Source     string      `json:"source,omitempty"`
	Action     Action      `json:"action"`
	AbilityID  string      `json:"ability,omitempty"`
	Direction  *world.Vec3 `json:"direction,omitempty"`
	TargetID   string      `json:"target,omitempty"`
	Point      *world.Vec3 `json:"point,omitempty"`
	Position   *world.Vec3 `json:"position,omitempty"`
	Facing     *float64    `json:"facing,omitempty"`
	Level      int         `json:"level,omitempty"`
	ReceivedAt time.Time   `json:"-"`
}
