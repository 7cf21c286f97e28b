package config

import (
	"arena/internal/game"
	"arena/internal/input"
	"arena/internal/sandbox"
)

// Game assembles the engine configuration from these settings and the
// catalog.
func (c EngineConfig) Game(cat Catalog) game.Config {
	gc := game.DefaultConfig()
	gc.TickRate = c.TickRate
	gc.CasterLevel = c.CasterLevel
	gc.BossReduction = c.BossReduction
	gc.SweepInterval = c.SweepInterval
	gc.Abilities = cat.Abilities
	gc.Summons = cat.SummonTypes()
	gc.Chain = cat.Chain
	return gc
}

// Sandbox returns the scene layer configuration.
func (c ArenaConfig) Sandbox() sandbox.Config {
	sc := sandbox.DefaultConfig()
	sc.WaveSize = c.WaveSize
	sc.BossEvery = c.BossEvery
	sc.Seed = c.Seed
	return sc
}

// Queue returns the command queue configuration.
func (c InputConfig) Queue() input.QueueConfig {
	return input.QueueConfig{
		BufferSize: c.BufferSize,
		RateLimit: input.RateLimitConfig{
			PerSecond: c.PerSecond,
			Burst:     c.Burst,
			IdleTTL:   c.IdleTTL,
		},
	}
}
