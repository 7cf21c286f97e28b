package combat

import (
	"math"
	"testing"
	"time"

	"arena/internal/game/world"

	"github.com/stretchr/testify/assert"
)

type fixedRoll float64

func (f fixedRoll) Float64() float64 { return float64(f) }

// TestChargeScalingScenario covers the 1.0s of 2.0s release
func TestChargeScalingScenario(t *testing.T) {
	dmg := ChargeScaling{Min: 120, Max: 360, ChargeTime: time.Second, MaxChargeTime: 2 * time.Second}
	rng := ChargeScaling{Min: 5, Max: 20, ChargeTime: time.Second, MaxChargeTime: 2 * time.Second}

	assert.Equal(t, 240.0, dmg.Value())
	assert.Equal(t, 12.5, rng.Value())

	c := New(fixedRoll(0.99))
	res := c.Compute(0, Modifiers{Scaling: &dmg})
	assert.Equal(t, 240, res.Damage)
	assert.False(t, res.IsCritical)
}

// TestChargeScalingEndpointsAndMonotonic verifies clamping and ordering
func TestChargeScalingEndpointsAndMonotonic(t *testing.T) {
	max := 2 * time.Second
	tests := []struct {
		name   string
		charge time.Duration
		want   float64
	}{
		{"zero", 0, 120},
		{"negative clamps to min", -time.Second, 120},
		{"full", max, 360},
		{"over clamps to max", 5 * time.Second, 360},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ChargeScaling{Min: 120, Max: 360, ChargeTime: tt.charge, MaxChargeTime: max}
			assert.Equal(t, tt.want, s.Value())
		})
	}

	prev := -1.0
	for ms := 0; ms <= 2500; ms += 100 {
		v := ChargeScaling{Min: 120, Max: 360, ChargeTime: time.Duration(ms) * time.Millisecond, MaxChargeTime: max}.Value()
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}
}

// TestTipHitGuarantee verifies a tip hit is always critical and exactly double
func TestTipHitGuarantee(t *testing.T) {
	c := New(fixedRoll(0.99))

	normal := c.Compute(90, Modifiers{Tip: &TipZone{HitDistance: 1, MaxRange: 4}})
	tip := c.Compute(90, Modifiers{Tip: &TipZone{HitDistance: 3.2, MaxRange: 4}})

	assert.False(t, normal.IsCritical)
	assert.True(t, tip.IsCritical)
	assert.True(t, tip.TipHit)
	assert.Equal(t, normal.Damage*2, tip.Damage)

	edge := c.Compute(90, Modifiers{Tip: &TipZone{HitDistance: 0.725 * 4, MaxRange: 4}})
	assert.True(t, edge.TipHit, "threshold is inclusive")
}

func TestForcedCritSkipsRandomRoll(t *testing.T) {
	c := New(fixedRoll(0))

	res := c.Compute(100, Modifiers{Backstab: true, CritChance: 1, CritMultiplier: 3})
	assert.Equal(t, 200, res.Damage, "forced critical doubles once and skips the roll")
	assert.True(t, res.Forced)

	both := c.Compute(100, Modifiers{Backstab: true, Tip: &TipZone{HitDistance: 4, MaxRange: 4}})
	assert.Equal(t, 200, both.Damage, "forced criticals do not stack")
}

func TestRandomCrit(t *testing.T) {
	hit := New(fixedRoll(0.05)).Compute(50, Modifiers{CritChance: 0.1, CritMultiplier: 2.5})
	assert.True(t, hit.IsCritical)
	assert.Equal(t, 125, hit.Damage)

	miss := New(fixedRoll(0.5)).Compute(50, Modifiers{CritChance: 0.1})
	assert.False(t, miss.IsCritical)
	assert.Equal(t, 50, miss.Damage)
}

// TestStatusMultiplierScenario covers the stunned 120 -> 240 hit
func TestStatusMultiplierScenario(t *testing.T) {
	c := New(fixedRoll(0.99))
	assert.Equal(t, 240, c.Compute(120, Modifiers{StatusMultiplier: 2}).Damage)
	assert.Equal(t, 360, c.Compute(120, Modifiers{StatusMultiplier: 3}).Damage)
}

// TestBossReductionScenario covers the floored 89 -> 44 summon hit
func TestBossReductionScenario(t *testing.T) {
	c := New(fixedRoll(0.99))
	assert.Equal(t, 44, c.Compute(89, Modifiers{BossReduction: BossMinionReduction}).Damage)
}

func TestModifierOrder(t *testing.T) {
	c := New(fixedRoll(0.99))
	res := c.Compute(0, Modifiers{
		Scaling:          &ChargeScaling{Min: 100, Max: 100},
		Backstab:         true,
		StatusMultiplier: 2,
		BossReduction:    0.5,
	})
	// 100 -> x2 forced -> x2 status -> x0.5 boss
	assert.Equal(t, 200, res.Damage)
}

func TestLevelScaled(t *testing.T) {
	assert.Equal(t, 150.0, LevelScaled(150, 25, 1))
	assert.Equal(t, 200.0, LevelScaled(150, 25, 3))
	assert.Equal(t, 150.0, LevelScaled(150, 25, 0))
}

func TestRelativePosition(t *testing.T) {
	target := world.V(0, 0)
	facing := 0.0 // +X

	tests := []struct {
		name     string
		attacker world.Vec3
		want     Position
	}{
		{"behind", world.V(-2, 0), PositionBack},
		{"behind offset", world.V(-2, 0.5), PositionBack},
		{"front", world.V(2, 0), PositionFront},
		{"side", world.V(0, 2), PositionSide},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RelativePosition(tt.attacker, target, facing))
		})
	}
	assert.True(t, IsBehind(world.V(-1, 0), target, facing))
}

func TestRelativePositionWithUnboundedFacing(t *testing.T) {
	attacker, target := world.V(-1, 0), world.V(0, 0)

	assert.Equal(t, PositionBack, RelativePosition(attacker, target, math.Inf(1)))
	assert.Equal(t, PositionBack, RelativePosition(attacker, target, 2*math.Pi*1e9))
	assert.Equal(t, PositionFront, RelativePosition(attacker, target, math.Pi+2*math.Pi*1e6))
}
