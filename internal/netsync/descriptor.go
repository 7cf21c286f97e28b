// Package netsync mirrors locally originated spawns to remote peers.
//
// A Descriptor carries enough data for a peer to rebuild the visual:
// where it started, where it goes, how long it lasts and which ability
// produced it. Delivery is fire-and-forget.
package netsync

import (
	"time"

	"arena/internal/game/world"
)

// Kind of mirrored effect.
type Kind string

const (
	KindProjectile  Kind = "projectile"
	KindAbility     Kind = "ability"
	KindChargeStart Kind = "charge_start"
	KindSummon      Kind = "summon"
	KindChainMark   Kind = "chain_mark"
)

// Descriptor is one mirrored effect.
type Descriptor struct {
	Seq       uint64        `json:"seq" msgpack:"seq"`
	Kind      Kind          `json:"kind" msgpack:"kind"`
	AbilityID string        `json:"abilityId" msgpack:"ability"`
	OwnerID   string        `json:"ownerId" msgpack:"owner"`
	Position  world.Vec3    `json:"position" msgpack:"pos"`
	Direction world.Vec3    `json:"direction" msgpack:"dir"`
	Duration  time.Duration `json:"duration" msgpack:"dur"`
	Speed     float64       `json:"speed,omitempty" msgpack:"spd,omitempty"`
	Range     float64       `json:"range,omitempty" msgpack:"rng,omitempty"`
	At        time.Time     `json:"at" msgpack:"at"`
}
