package summon

import (
	"time"

	"arena/internal/game/aggro"
)

// DefaultTypes returns the built-in unit catalog: the wraith raised by
// chain kills and the stationary totem.
func DefaultTypes() map[string]Type {
	return map[string]Type{
		"wraith": {
			Name:           "wraith",
			MaxHealth:      200,
			Speed:          6,
			FollowRange:    3,
			AttackRange:    1.8,
			AttackCooldown: 1200 * time.Millisecond,
			Damage:         89,
			CritChance:     0.05,
			Duration:       20 * time.Second,
			Targeting: aggro.Profile{
				Mode:           aggro.ModeNearest,
				Range:          15,
				SwitchInterval: 4 * time.Second,
			},
		},
		"totem": {
			Name:           "totem",
			MaxHealth:      400,
			AttackRange:    6,
			AttackCooldown: 1500 * time.Millisecond,
			Damage:         35,
			Duration:       15 * time.Second,
			Targeting: aggro.Profile{
				Mode:           aggro.ModeRandomInRange,
				Range:          6,
				SwitchInterval: aggro.MinSwitchInterval,
			},
		},
	}
}
