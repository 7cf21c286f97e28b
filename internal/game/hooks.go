package game

import (
	"time"

	"arena/internal/game/combat"
	"arena/internal/game/status"
	"arena/internal/game/world"
	"arena/internal/netsync"
)

// HitEvent reports one resolved hit to the scene layer, which owns enemy
// health.
type HitEvent struct {
	SourceID   string            `json:"sourceId"`
	SourceKind combat.SourceKind `json:"sourceKind"`
	AbilityID  string            `json:"abilityId"`
	TargetID   string            `json:"targetId"`
	Damage     int               `json:"damage"`
	IsCritical bool              `json:"isCritical"`
	Killed     bool              `json:"killed"`
	Position   world.Vec3        `json:"position"`
	Style      string            `json:"style"`
	Generation int               `json:"generation,omitempty"`
}

// DamageNumber is a floating combat text entry.
type DamageNumber struct {
	TargetID   string     `json:"targetId"`
	Position   world.Vec3 `json:"position"`
	Amount     int        `json:"amount"`
	IsCritical bool       `json:"isCritical"`
	Style      string     `json:"style"`
	SpawnedAt  time.Time  `json:"spawnedAt"`
	Opacity    float64    `json:"opacity"`
}

// Hooks connect the engine to presentation and networking. Every hook is
// optional and runs on the tick goroutine.
type Hooks struct {
	OnHit                 func(HitEvent)
	OnDamageNumberSpawn   func(DamageNumber)
	OnStatusVisualRequest func(status.VisualRequest)
	SendNetworkEffect     func(netsync.Descriptor)
}
