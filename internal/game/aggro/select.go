// Package aggro picks targets for AI-controlled allies.
//
// Selection only ever considers enemies that are alive and not in their
// death animation. The Selector keeps each actor's current target until it
// becomes invalid or the actor's switch timer forces a re-evaluation.
package aggro

import (
	"math"

	"arena/internal/game/world"
)

// Roller supplies random indexes.
type Roller interface {
	IntN(n int) int
}

// Nearest returns the closest valid enemy to pos on the ground plane.
// maxRange <= 0 means unlimited. When exclude names an enemy and another
// valid candidate exists, the excluded one is skipped.
func Nearest(pos world.Vec3, enemies []world.Enemy, maxRange float64, exclude string) (world.Enemy, bool) {
	best, found := nearest(pos, enemies, maxRange, exclude)
	if !found && exclude != "" {
		return nearest(pos, enemies, maxRange, "")
	}
	return best, found
}

func nearest(pos world.Vec3, enemies []world.Enemy, maxRange float64, exclude string) (world.Enemy, bool) {
	var best world.Enemy
	found := false
	minDist := math.MaxFloat64
	limit := math.MaxFloat64
	if maxRange > 0 {
		limit = maxRange * maxRange
	}

	for _, e := range enemies {
		if !e.Alive() || e.ID == exclude {
			continue
		}
		d := world.DistSq2D(pos, e.Position)
		if d > limit {
			continue
		}
		if d < minDist {
			minDist = d
			best = e
			found = true
		}
	}
	return best, found
}

// RandomInRange picks uniformly among valid enemies within maxRange.
// The exclusion rule matches Nearest.
func RandomInRange(pos world.Vec3, enemies []world.Enemy, maxRange float64, exclude string, rng Roller) (world.Enemy, bool) {
	candidates := inRange(pos, enemies, maxRange, exclude)
	if len(candidates) == 0 && exclude != "" {
		candidates = inRange(pos, enemies, maxRange, "")
	}
	if len(candidates) == 0 {
		return world.Enemy{}, false
	}
	return candidates[rng.IntN(len(candidates))], true
}

func inRange(pos world.Vec3, enemies []world.Enemy, maxRange float64, exclude string) []world.Enemy {
	var out []world.Enemy
	limit := maxRange * maxRange
	for _, e := range enemies {
		if !e.Alive() || e.ID == exclude {
			continue
		}
		if maxRange > 0 && world.DistSq2D(pos, e.Position) > limit {
			continue
		}
		out = append(out, e)
	}
	return out
}
