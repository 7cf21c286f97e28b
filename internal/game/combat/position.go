package combat

import (
	"math"

	"arena/internal/game/world"
)

// Position is where an attacker stands relative to the target's facing.
type Position int

const (
	PositionFront Position = iota
	PositionSide
	PositionBack
)

func (p Position) String() string {
	switch p {
	case PositionBack:
		return "back"
	case PositionSide:
		return "side"
	default:
		return "front"
	}
}

// RelativePosition classifies attacker against a target facing targetFacing
// (radians, ground plane).
//
// The heading from attacker to target is compared with the target's
// facing: within 45 degrees the attacker is behind, within 135 to the side.
func RelativePosition(attacker, target world.Vec3, targetFacing float64) Position {
	headingTo := target.Sub(attacker).Heading()
	diff := math.Abs(world.NormalizeAngle(targetFacing - headingTo))

	switch {
	case diff < math.Pi/4:
		return PositionBack
	case diff <= 3*math.Pi/4:
		return PositionSide
	default:
		return PositionFront
	}
}

// IsBehind is shorthand for RelativePosition == PositionBack.
func IsBehind(attacker, target world.Vec3, targetFacing float64) bool {
	return RelativePosition(attacker, target, targetFacing) == PositionBack
}
