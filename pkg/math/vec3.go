// Package math provides the vector type used for mesh vertices.
package math

import (
	gomath "math"

	"seehuhn.de/go/geom/vec"
)

// Vec3 is a 3D point in single precision, the precision mesh files store.
type Vec3 struct {
	X, Y, Z float32
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Dot returns the dot product.
func (v Vec3) Dot(other Vec3) float32 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross returns the cross product.
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		v.Y*other.Z - v.Z*other.Y,
		v.Z*other.X - v.X*other.Z,
		v.X*other.Y - v.Y*other.X,
	}
}

// Length returns the magnitude, computed in double precision.
func (v Vec3) Length() float64 {
	x, y, z := float64(v.X), float64(v.Y), float64(v.Z)
	return gomath.Sqrt(x*x + y*y + z*z)
}

// Min returns the component-wise minimum of v and other.
func (v Vec3) Min(other Vec3) Vec3 {
	return Vec3{min(v.X, other.X), min(v.Y, other.Y), min(v.Z, other.Z)}
}

// Max returns the component-wise maximum of v and other.
func (v Vec3) Max(other Vec3) Vec3 {
	return Vec3{max(v.X, other.X), max(v.Y, other.Y), max(v.Z, other.Z)}
}

// IsFinite reports whether no component is NaN or infinite.
func (v Vec3) IsFinite() bool {
	for _, c := range [3]float32{v.X, v.Y, v.Z} {
		f := float64(c)
		if gomath.IsNaN(f) || gomath.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// LerpZ returns the point of the segment v→other lying at height z.
// The caller must make sure v.Z != other.Z.
func (v Vec3) LerpZ(other Vec3, z float32) Vec3 {
	k := (z - v.Z) / (other.Z - v.Z)
	return Vec3{
		X: (other.X-v.X)*k + v.X,
		Y: (other.Y-v.Y)*k + v.Y,
		Z: z,
	}
}

// XY drops the Z component.
func (v Vec3) XY() vec.Vec2 {
	return vec.Vec2{X: float64(v.X), Y: float64(v.Y)}
}
