// Package combat computes hit damage from a base value and the modifiers
// that apply to a single hit.
//
// Modifiers are applied in a fixed order:
//
//  1. charge-time scaling (replaces the base value)
//  2. forced critical: tip-hit zone or backstab, doubling once
//  3. random critical roll, skipped when the hit is already critical
//  4. status multiplier of the target (stunned, frozen)
//  5. boss reduction for minion-sourced hits
//
// The result is floored to a whole number.
package combat

import (
	"math"
	"math/rand/v2"
	"time"
)

// Default tuning.
const (
	TipHitThreshold     = 0.725 // fraction of max range that counts as a tip hit
	ForcedCritMult      = 2.0
	DefaultCritMult     = 2.0
	BossMinionReduction = 0.5 // boss takes this fraction of minion damage
)

// Roller supplies uniform values in [0, 1).
type Roller interface {
	Float64() float64
}

// ChargeScaling interpolates linearly between Min and Max by charge time.
type ChargeScaling struct {
	Min, Max      float64
	ChargeTime    time.Duration
	MaxChargeTime time.Duration
}

// Fraction returns the clamped charge fraction in [0, 1].
func (s ChargeScaling) Fraction() float64 {
	if s.MaxChargeTime <= 0 {
		return 1
	}
	f := float64(s.ChargeTime) / float64(s.MaxChargeTime)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Value returns min + (max-min) * fraction.
func (s ChargeScaling) Value() float64 {
	return s.Min + (s.Max-s.Min)*s.Fraction()
}

// TipZone describes where along a reach-limited attack the hit landed.
type TipZone struct {
	HitDistance float64
	MaxRange    float64
	Threshold   float64 // defaults to TipHitThreshold
}

// IsTip reports whether the hit is at or beyond the threshold.
func (z TipZone) IsTip() bool {
	if z.MaxRange <= 0 {
		return false
	}
	th := z.Threshold
	if th <= 0 {
		th = TipHitThreshold
	}
	return z.HitDistance >= th*z.MaxRange
}

// Modifiers collects everything that can change one hit's damage.
// Zero values mean "not applicable".
type Modifiers struct {
	Scaling          *ChargeScaling
	Tip              *TipZone
	Backstab         bool
	CritChance       float64
	CritMultiplier   float64
	StatusMultiplier float64
	BossReduction    float64 // fraction of damage kept, e.g. 0.5
}

// Result is the outcome of one damage computation.
type Result struct {
	Damage     int  `json:"damage"`
	IsCritical bool `json:"isCritical"`
	Forced     bool `json:"forced"`
	TipHit     bool `json:"tipHit"`
	Backstab   bool `json:"backstab"`
}

// Calculator computes damage. The zero value is not usable; use New.
type Calculator struct {
	rng Roller
}

// New creates a calculator using rng for critical rolls.
// A nil rng uses the global math/rand source.
func New(rng Roller) *Calculator {
	if rng == nil {
		rng = globalRoller{}
	}
	return &Calculator{rng: rng}
}

type globalRoller struct{}

func (globalRoller) Float64() float64 { return rand.Float64() }

// Compute applies m to base.
func (c *Calculator) Compute(base float64, m Modifiers) Result {
	var res Result
	v := base

	if m.Scaling != nil {
		v = m.Scaling.Value()
	}

	if m.Tip != nil && m.Tip.IsTip() {
		res.TipHit = true
	}
	if m.Backstab {
		res.Backstab = true
	}
	if res.TipHit || res.Backstab {
		v *= ForcedCritMult
		res.IsCritical = true
		res.Forced = true
	}

	if !res.IsCritical && m.CritChance > 0 && c.rng.Float64() < m.CritChance {
		mult := m.CritMultiplier
		if mult <= 0 {
			mult = DefaultCritMult
		}
		v *= mult
		res.IsCritical = true
	}

	if m.StatusMultiplier > 0 {
		v *= m.StatusMultiplier
	}

	if m.BossReduction > 0 {
		v *= m.BossReduction
	}

	if v < 0 {
		v = 0
	}
	res.Damage = int(math.Floor(v))
	return res
}

// LevelScaled returns base + perLevel*(level-1). Levels below 1 count as 1.
func LevelScaled(base, perLevel float64, level int) float64 {
	if level < 1 {
		level = 1
	}
	return base + perLevel*float64(level-1)
}
