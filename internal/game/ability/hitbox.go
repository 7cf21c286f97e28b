package ability

import (
	"math"
	"sort"

	"arena/internal/game/world"
)

// Shape is the collision shape of a melee or area ability.
type Shape int

const (
	ShapeCircle Shape = iota // everything within Range
	ShapeArc                 // sweep of Width radians centered on the facing
	ShapeLine                // thrust of half-width Width along the facing
)

// Hitbox is an O(1) per-target test on the ground plane.
type Hitbox struct {
	Shape Shape
	Range float64
	Width float64
}

// Contact is an enemy inside a hitbox with its distance along the attack.
type Contact struct {
	Enemy    world.Enemy
	Distance float64
}

// Test reports whether target is inside the hitbox cast from origin along
// dir, and how far along the attack it sits.
func (h Hitbox) Test(origin, dir, target world.Vec3) (float64, bool) {
	delta := target.Sub(origin)
	dist := math.Hypot(delta.X, delta.Z)
	if dist > h.Range {
		return 0, false
	}

	switch h.Shape {
	case ShapeCircle:
		return dist, true

	case ShapeArc:
		if dist == 0 {
			return 0, true
		}
		diff := world.NormalizeAngle(delta.Heading() - dir.Heading())
		half := h.Width / 2
		return dist, diff >= -half && diff <= half

	case ShapeLine:
		// distance along the thrust and off its axis
		along := delta.X*dir.X + delta.Z*dir.Z
		lateral := math.Abs(delta.X*dir.Z - delta.Z*dir.X)
		if along < 0 || along > h.Range {
			return 0, false
		}
		return along, lateral <= h.Width
	}
	return 0, false
}

// Collect returns the live enemies inside the hitbox, nearest first.
func (h Hitbox) Collect(origin, dir world.Vec3, enemies []world.Enemy) []Contact {
	dir = dir.Flatten()
	var out []Contact
	for _, e := range enemies {
		if !e.Alive() {
			continue
		}
		if d, ok := h.Test(origin, dir, e.Position); ok {
			out = append(out, Contact{Enemy: e, Distance: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out
}
