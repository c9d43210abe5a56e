// Package mesh holds the indexed triangle mesh the slicer consumes.
package mesh

import (
	"errors"
	"fmt"

	"github.com/Faultbox/layerslice/pkg/math"
)

// Mesh errors.
var (
	ErrEmptyMesh    = errors.New("empty mesh")
	ErrInvalidIndex = errors.New("triangle references a missing vertex")
	ErrNonFinite    = errors.New("vertex coordinate is not finite")
)

// Triangle holds three vertex indices in source order.
type Triangle [3]int

// Mesh is an ordered vertex list plus triangles indexing into it.
// It is read-only once loaded, apart from a single call to Normalize.
type Mesh struct {
	Vertices  []math.Vec3
	Triangles []Triangle
}

// Corners returns the three vertices of t.
func (m *Mesh) Corners(t Triangle) [3]math.Vec3 {
	return [3]math.Vec3{m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]}
}

// ZRange returns the lowest and highest vertex Z of t.
func (m *Mesh) ZRange(t Triangle) (lo, hi float32) {
	c := m.Corners(t)
	return min(c[0].Z, c[1].Z, c[2].Z), max(c[0].Z, c[1].Z, c[2].Z)
}

// Validate checks that the mesh has finite vertices and that every
// triangle index points at one of them. Geometry itself (manifoldness, orientation) is
// not checked.
func (m *Mesh) Validate() error {
	if len(m.Vertices) == 0 {
		return ErrEmptyMesh
	}
	for i, v := range m.Vertices {
		if !v.IsFinite() {
			return fmt.Errorf("vertex %d %v: %w", i, v, ErrNonFinite)
		}
	}
	for i, t := range m.Triangles {
		for _, idx := range t {
			if idx < 0 || idx >= len(m.Vertices) {
				return fmt.Errorf("triangle %d: index %d of %d: %w", i, idx, len(m.Vertices), ErrInvalidIndex)
			}
		}
	}
	return nil
}

// Normalize translates the mesh in place so that its bounding box starts at
// the origin, and returns the bounding box measured before the shift.
func (m *Mesh) Normalize() (BoundingBox, error) {
	bb, err := Bounds(m)
	if err != nil {
		return bb, err
	}
	for i := range m.Vertices {
		m.Vertices[i] = m.Vertices[i].Sub(bb.Min)
	}
	return bb, nil
}

// Clone returns a deep copy of m.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		Vertices:  append([]math.Vec3(nil), m.Vertices...),
		Triangles: append([]Triangle(nil), m.Triangles...),
	}
}
