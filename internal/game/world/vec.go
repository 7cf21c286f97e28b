// Package world defines the contract between the combat core and the
// host's scene layer: positions, the per-tick enemy snapshot, and the live
// lookup used to re-validate deferred work.
package world

import "math"

// Vec3 is a position or direction in world space.
// Y is height; combat checks use the X/Z ground plane.
type Vec3 struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
}

// V is shorthand for a ground-plane vector at height zero.
func V(x, z float64) Vec3 {
	return Vec3{X: x, Z: z}
}

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Dist2D returns the ground-plane distance between two points.
func Dist2D(a, b Vec3) float64 {
	dx := a.X - b.X
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dz*dz)
}

// DistSq2D avoids the square root for comparisons.
func DistSq2D(a, b Vec3) float64 {
	dx := a.X - b.X
	dz := a.Z - b.Z
	return dx*dx + dz*dz
}

// Flatten returns the ground-plane unit vector of v.
// A zero vector stays zero.
func (v Vec3) Flatten() Vec3 {
	l := math.Sqrt(v.X*v.X + v.Z*v.Z)
	if l == 0 {
		return Vec3{}
	}
	return Vec3{X: v.X / l, Z: v.Z / l}
}

// Heading returns the ground-plane angle of v in radians.
func (v Vec3) Heading() float64 {
	return math.Atan2(v.Z, v.X)
}

// FromHeading builds a ground-plane unit vector.
func FromHeading(angle float64) Vec3 {
	return Vec3{X: math.Cos(angle), Z: math.Sin(angle)}
}

// MoveToward steps from toward target by at most step, never overshooting.
func MoveToward(from, target Vec3, step float64) Vec3 {
	d := Dist2D(from, target)
	if d <= step || d == 0 {
		return Vec3{X: target.X, Y: from.Y, Z: target.Z}
	}
	dir := target.Sub(from).Flatten()
	return Vec3{X: from.X + dir.X*step, Y: from.Y, Z: from.Z + dir.Z*step}
}

// NormalizeAngle wraps an angle into [-Pi, Pi]. Infinite and NaN angles
// become 0.
func NormalizeAngle(a float64) float64 {
	if math.IsInf(a, 0) || math.IsNaN(a) {
		return 0
	}
	return math.Remainder(a, 2*math.Pi)
}
