package game

import (
	"time"

	"arena/internal/game/ability"
	"arena/internal/game/chain"
	"arena/internal/game/combat"
	"arena/internal/game/projectile"
	"arena/internal/game/summon"
	"arena/internal/game/world"
)

// Bounds is the region covered by the enemy grid.
type Bounds struct {
	MinX     float64 `yaml:"min_x" json:"minX"`
	MinZ     float64 `yaml:"min_z" json:"minZ"`
	Width    float64 `yaml:"width" json:"width"`
	Depth    float64 `yaml:"depth" json:"depth"`
	CellSize float64 `yaml:"cell_size" json:"cellSize"`
}

// Limits caps what a snapshot carries.
type Limits struct {
	MaxEnemies       int
	MaxProjectiles   int
	MaxSummons       int
	MaxDamageNumbers int
	MaxChainTargets  int
}

// DefaultLimits are sized for a single arena.
var DefaultLimits = Limits{
	MaxEnemies:       256,
	MaxProjectiles:   128,
	MaxSummons:       16,
	MaxDamageNumbers: 64,
	MaxChainTargets:  32,
}

// Config assembles an Engine.
type Config struct {
	TickRate int

	CasterID       string
	CasterPosition world.Vec3
	CasterLevel    int

	Abilities   []ability.Definition
	Summons     map[string]summon.Type
	Chain       chain.Config
	Projectiles projectile.Config

	BossReduction      float64       // fraction of summon damage a boss takes
	SweepInterval      time.Duration // status sweep period
	DamageNumberLife   time.Duration
	DamageNumberRise   float64 // units per second
	FocusDuration      time.Duration
	TargetClaim        time.Duration // aimed enemies are off limits to chain marks this long
	MaxCommandsPerTick int
	OutboxSize         int

	Bounds Bounds
	Limits Limits

	// Roller drives critical rolls. Nil uses math/rand.
	Roller combat.Roller
}

// DefaultConfig returns the stock arena tuning.
func DefaultConfig() Config {
	return Config{
		TickRate:           30,
		CasterID:           "hero",
		CasterLevel:        1,
		Abilities:          ability.DefaultCatalog(),
		Summons:            summon.DefaultTypes(),
		Chain:              chain.DefaultConfig(),
		Projectiles:        projectile.DefaultConfig(),
		BossReduction:      combat.BossMinionReduction,
		SweepInterval:      time.Second,
		DamageNumberLife:   time.Second,
		DamageNumberRise:   1.5,
		FocusDuration:      5 * time.Second,
		TargetClaim:        time.Second,
		MaxCommandsPerTick: 64,
		Bounds:             Bounds{MinX: -60, MinZ: -60, Width: 120, Depth: 120, CellSize: 5},
		Limits:             DefaultLimits,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.TickRate <= 0 {
		c.TickRate = def.TickRate
	}
	if c.CasterID == "" {
		c.CasterID = def.CasterID
	}
	if c.CasterLevel < 1 {
		c.CasterLevel = def.CasterLevel
	}
	if c.Abilities == nil {
		c.Abilities = def.Abilities
	}
	if c.Summons == nil {
		c.Summons = def.Summons
	}
	if c.BossReduction <= 0 {
		c.BossReduction = def.BossReduction
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = def.SweepInterval
	}
	if c.DamageNumberLife <= 0 {
		c.DamageNumberLife = def.DamageNumberLife
	}
	if c.FocusDuration <= 0 {
		c.FocusDuration = def.FocusDuration
	}
	if c.TargetClaim <= 0 {
		c.TargetClaim = def.TargetClaim
	}
	if c.MaxCommandsPerTick <= 0 {
		c.MaxCommandsPerTick = def.MaxCommandsPerTick
	}
	if c.Bounds.Width <= 0 || c.Bounds.Depth <= 0 {
		c.Bounds = def.Bounds
	}
	if c.Limits == (Limits{}) {
		c.Limits = def.Limits
	}
	return c
}
