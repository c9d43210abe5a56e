package mesh

import (
	gomath "math"

	"github.com/Faultbox/layerslice/pkg/math"
)

// BoundingBox is an axis-aligned box. The zero value is not useful; start
// from NewBoundingBox, which is inverted on every axis so that the first
// Update sets both ends.
type BoundingBox struct {
	Min math.Vec3
	Max math.Vec3
}

// NewBoundingBox returns the empty box (+Inf, -Inf) on each axis.
func NewBoundingBox() BoundingBox {
	inf := float32(gomath.Inf(1))
	return BoundingBox{
		Min: math.Vec3{X: inf, Y: inf, Z: inf},
		Max: math.Vec3{X: -inf, Y: -inf, Z: -inf},
	}
}

// Update grows the box to contain v.
func (b *BoundingBox) Update(v math.Vec3) {
	b.Min = b.Min.Min(v)
	b.Max = b.Max.Max(v)
}

// Valid reports whether Min <= Max on every axis, which holds once at
// least one vertex has been seen.
func (b BoundingBox) Valid() bool {
	return b.Min.X <= b.Max.X && b.Min.Y <= b.Max.Y && b.Min.Z <= b.Max.Z
}

// Extent returns Max - Min.
func (b BoundingBox) Extent() math.Vec3 {
	return b.Max.Sub(b.Min)
}

// Width is the layer width in pixels: the X extent rounded up.
func (b BoundingBox) Width() int {
	return int(gomath.Ceil(float64(b.Max.X - b.Min.X)))
}

// Height is the layer height in pixels: the Y extent rounded up.
func (b BoundingBox) Height() int {
	return int(gomath.Ceil(float64(b.Max.Y - b.Min.Y)))
}

// Depth is the Z extent rounded up.
func (b BoundingBox) Depth() int {
	return int(gomath.Ceil(float64(b.Max.Z - b.Min.Z)))
}

// Bounds scans every vertex of m once.
func Bounds(m *Mesh) (BoundingBox, error) {
	bb := NewBoundingBox()
	for _, v := range m.Vertices {
		bb.Update(v)
	}
	if !bb.Valid() {
		return bb, ErrEmptyMesh
	}
	return bb, nil
}
