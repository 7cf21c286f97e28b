// Package ability implements the activation entrypoints of a caster's kit:
// StartCharging, ReleaseCharge, CastAbility and ShootProjectile.
//
// Entrypoints return whether the action was accepted. Running out of
// charges or being on internal cooldown is a silent false, never an error.
package ability

import (
	"math"
	"time"

	"arena/internal/game/status"
)

// Kind selects the behavior of an ability.
type Kind string

const (
	KindChargedShot Kind = "charged_shot"
	KindVolley      Kind = "volley"
	KindThrust      Kind = "thrust"
	KindBackstab    Kind = "backstab"
	KindSmite       Kind = "smite"
	KindNova        Kind = "nova"
	KindTotem       Kind = "totem"
)

// Definition is one catalog entry. Fields a kind does not use are ignored.
type Definition struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	Kind Kind   `yaml:"kind" json:"kind"`

	// Charge pool. Zero charges means the ability has no charge cost.
	Charges        int           `yaml:"charges" json:"charges"`
	Cooldown       time.Duration `yaml:"cooldown" json:"cooldown"`
	ShotsPerCharge int           `yaml:"shots_per_charge" json:"shotsPerCharge,omitempty"`

	// InternalCooldown gates recasts independently of charges.
	InternalCooldown time.Duration `yaml:"internal_cooldown" json:"internalCooldown,omitempty"`
	// RefreshOn resets the internal cooldown when the target had this
	// status at the moment of impact.
	RefreshOn status.Kind `yaml:"refresh_on" json:"refreshOn,omitempty"`

	Damage         float64 `yaml:"damage" json:"damage"`
	DamagePerLevel float64 `yaml:"damage_per_level" json:"damagePerLevel,omitempty"`

	// Channel-release scaling.
	MinDamage     float64       `yaml:"min_damage" json:"minDamage,omitempty"`
	MaxDamage     float64       `yaml:"max_damage" json:"maxDamage,omitempty"`
	MinRange      float64       `yaml:"min_range" json:"minRange,omitempty"`
	MaxRange      float64       `yaml:"max_range" json:"maxRange,omitempty"`
	MaxChargeTime time.Duration `yaml:"max_charge_time" json:"maxChargeTime,omitempty"`

	// Reach and shape. Width is the half-width of a line or the full
	// angle of an arc in radians.
	Range float64 `yaml:"range" json:"range"`
	Width float64 `yaml:"width" json:"width,omitempty"`

	// Projectiles.
	Speed     float64       `yaml:"speed" json:"speed,omitempty"`
	Piercing  bool          `yaml:"piercing" json:"piercing,omitempty"`
	HitRadius float64       `yaml:"hit_radius" json:"hitRadius,omitempty"`
	Fade      time.Duration `yaml:"fade" json:"fade,omitempty"`

	CritChance     float64            `yaml:"crit_chance" json:"critChance,omitempty"`
	CritMultiplier float64            `yaml:"crit_multiplier" json:"critMultiplier,omitempty"`
	StatusBonus    map[string]float64 `yaml:"status_bonus" json:"statusBonus,omitempty"`

	// Status applied to every enemy hit.
	Status          status.Kind   `yaml:"status" json:"status,omitempty"`
	StatusDuration  time.Duration `yaml:"status_duration" json:"statusDuration,omitempty"`
	StatusMagnitude float64       `yaml:"status_magnitude" json:"statusMagnitude,omitempty"`

	Summon      string `yaml:"summon" json:"summon,omitempty"`
	ChainOnKill bool   `yaml:"chain_on_kill" json:"chainOnKill,omitempty"`
}

// DefaultCatalog returns the built-in kit.
func DefaultCatalog() []Definition {
	return []Definition{
		{
			ID: "longbow", Name: "Longbow", Kind: KindChargedShot,
			Charges: 3, Cooldown: 4 * time.Second,
			MinDamage: 120, MaxDamage: 360,
			MinRange: 5, MaxRange: 20,
			MaxChargeTime: 2 * time.Second,
			Speed:         30,
			CritChance:    0.1,
			StatusBonus:   map[string]float64{"freeze": 3},
			ChainOnKill:   true,
		},
		{
			ID: "volley", Name: "Volley", Kind: KindVolley,
			Charges: 2, Cooldown: 6 * time.Second, ShotsPerCharge: 3,
			Damage: 45, Range: 18, Speed: 24, Piercing: true,
			CritChance: 0.15,
		},
		{
			ID: "glaive", Name: "Glaive Thrust", Kind: KindThrust,
			Charges: 2, Cooldown: 3 * time.Second,
			Damage: 90, Range: 4, Width: 0.6,
		},
		{
			ID: "dagger", Name: "Backstab", Kind: KindBackstab,
			Charges: 1, Cooldown: 2 * time.Second,
			Damage: 70, Range: 2, Width: 2 * math.Pi / 3,
			CritChance: 0.05,
		},
		{
			ID: "smite", Name: "Smite", Kind: KindSmite,
			InternalCooldown: 6 * time.Second, RefreshOn: status.Stun,
			Damage: 120, Range: 8,
			StatusBonus: map[string]float64{"stun": 2},
			ChainOnKill: true,
		},
		{
			ID: "concussion", Name: "Concussion", Kind: KindNova,
			Charges: 1, Cooldown: 8 * time.Second,
			Damage: 20, Range: 4,
			Status: status.Stun, StatusDuration: 1500 * time.Millisecond,
		},
		{
			ID: "frost_nova", Name: "Frost Nova", Kind: KindNova,
			Charges: 1, Cooldown: 12 * time.Second,
			Damage: 10, Range: 5,
			Status: status.Freeze, StatusDuration: 2 * time.Second,
		},
		{
			ID: "tar_trap", Name: "Tar Trap", Kind: KindNova,
			Charges: 2, Cooldown: 5 * time.Second,
			Range: 3,
			Status: status.Slow, StatusDuration: 3 * time.Second, StatusMagnitude: 0.5,
		},
		{
			ID: "totem", Name: "Spirit Totem", Kind: KindTotem,
			Charges: 1, Cooldown: 20 * time.Second,
			Summon: "totem",
		},
	}
}
