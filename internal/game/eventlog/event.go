// Package eventlog records combat events as newline-delimited JSON for
// post-fight analysis.
package eventlog

import (
	"encoding/json"
	"time"
)

// Type classifies an event.
type Type uint8

const (
	TypeUnknown Type = iota
	TypeAbility
	TypeDamage
	TypeKill
	TypeStatus
	TypeChainMark
	TypeChainStrike
	TypeSummonSpawn
	TypeSummonDestroy
	TypeReset
)

// Version of the event schema.
const Version uint8 = 1

func (t Type) String() string {
	switch t {
	case TypeAbility:
		return "ability"
	case TypeDamage:
		return "damage"
	case TypeKill:
		return "kill"
	case TypeStatus:
		return "status"
	case TypeChainMark:
		return "chain_mark"
	case TypeChainStrike:
		return "chain_strike"
	case TypeSummonSpawn:
		return "summon_spawn"
	case TypeSummonDestroy:
		return "summon_destroy"
	case TypeReset:
		return "reset"
	default:
		return "unknown"
	}
}

// MarshalText writes the type by name.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses a type name. Unknown names map to TypeUnknown.
func (t *Type) UnmarshalText(b []byte) error {
	*t = TypeUnknown
	for c := TypeAbility; c <= TypeReset; c++ {
		if c.String() == string(b) {
			*t = c
			break
		}
	}
	return nil
}

// Event is one log line.
type Event struct {
	Version  uint8           `json:"version"`
	Type     Type            `json:"type"`
	Sequence uint64          `json:"sequence"`
	Tick     uint64          `json:"tick"`
	GameTime time.Duration   `json:"gameTimeNs"`
	Wall     int64           `json:"wall"` // unix nano
	SourceID string          `json:"sourceId,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// AbilityPayload records an activation attempt.
type AbilityPayload struct {
	AbilityID string `json:"abilityId"`
	Action    string `json:"action"`
	Accepted  bool   `json:"accepted"`
}

// DamagePayload records one resolved hit.
type DamagePayload struct {
	TargetID   string  `json:"targetId"`
	AbilityID  string  `json:"abilityId"`
	SourceKind string  `json:"sourceKind"`
	Base       float64 `json:"base"`
	Damage     int     `json:"damage"`
	Critical   bool    `json:"critical"`
	Forced     bool    `json:"forced,omitempty"`
	HealthLeft int     `json:"healthLeft"`
	Boss       bool    `json:"boss,omitempty"`
}

// KillPayload records a killing blow.
type KillPayload struct {
	TargetID   string `json:"targetId"`
	AbilityID  string `json:"abilityId"`
	Generation int    `json:"generation,omitempty"`
}

// StatusPayload records a status application.
type StatusPayload struct {
	TargetID string        `json:"targetId"`
	Kind     string        `json:"kind"`
	Duration time.Duration `json:"durationNs"`
}

// ChainPayload records a chain mark or strike.
type ChainPayload struct {
	TargetID   string `json:"targetId"`
	Generation int    `json:"generation"`
	Damage     int    `json:"damage,omitempty"`
}

// SummonPayload records a summon spawning or leaving.
type SummonPayload struct {
	UnitID string `json:"unitId"`
	Type   string `json:"type"`
	Reason string `json:"reason,omitempty"`
}

// NewEvent builds an event. A payload that fails to marshal is dropped.
func NewEvent(t Type, tick uint64, gameTime time.Duration, sourceID string, payload any) Event {
	var raw json.RawMessage
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			raw = data
		}
	}
	return Event{
		Version:  Version,
		Type:     t,
		Tick:     tick,
		GameTime: gameTime,
		Wall:     time.Now().UnixNano(),
		SourceID: sourceID,
		Payload:  raw,
	}
}
