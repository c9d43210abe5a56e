// Package primitive builds test meshes from sdfx solids.
package primitive

import (
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/Faultbox/layerslice/pkg/math"
	"github.com/Faultbox/layerslice/pkg/mesh"
)

// DefaultCells is the marching cubes resolution along the longest axis.
const DefaultCells = 100

// Box returns a box of size x*y*z with its minimum corner at the origin.
func Box(x, y, z float64) (sdf.SDF3, error) {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		return nil, fmt.Errorf("box: %w", err)
	}
	// sdf.Box3D is centered on the origin.
	return sdf.Transform3D(s, sdf.Translate3d(v3.Vec{X: x / 2, Y: y / 2, Z: z / 2})), nil
}

// Cylinder returns an upright cylinder standing on the XY plane.
func Cylinder(height, radius float64) (sdf.SDF3, error) {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, fmt.Errorf("cylinder: %w", err)
	}
	return sdf.Transform3D(s, sdf.Translate3d(v3.Vec{X: radius, Y: radius, Z: height / 2})), nil
}

// Tube returns a cylinder with a coaxial hole, standing on the XY plane.
func Tube(height, outer, inner float64) (sdf.SDF3, error) {
	if inner >= outer {
		return nil, fmt.Errorf("tube: inner radius %g must be below outer radius %g", inner, outer)
	}
	o, err := Cylinder(height, outer)
	if err != nil {
		return nil, err
	}
	// The hole is taller than the tube so that no cap face is shared.
	hole, err := sdf.Cylinder3D(height*2, inner, 0)
	if err != nil {
		return nil, fmt.Errorf("tube: %w", err)
	}
	hole = sdf.Transform3D(hole, sdf.Translate3d(v3.Vec{X: outer, Y: outer, Z: height / 2}))
	return sdf.Difference3D(o, hole), nil
}

// Tessellate renders s with marching cubes and welds the triangle soup into
// an indexed mesh.
func Tessellate(s sdf.SDF3, cells int) *mesh.Mesh {
	if cells < 1 {
		cells = DefaultCells
	}
	triangles := render.ToTriangles(s, render.NewMarchingCubesUniform(cells))

	m := &mesh.Mesh{Triangles: make([]mesh.Triangle, 0, len(triangles))}
	index := make(map[math.Vec3]int)
	for _, tri := range triangles {
		var t mesh.Triangle
		for j := 0; j < 3; j++ {
			v := math.Vec3{X: float32(tri[j].X), Y: float32(tri[j].Y), Z: float32(tri[j].Z)}
			i, ok := index[v]
			if !ok {
				i = len(m.Vertices)
				m.Vertices = append(m.Vertices, v)
				index[v] = i
			}
			t[j] = i
		}
		if t[0] == t[1] || t[1] == t[2] || t[0] == t[2] {
			continue
		}
		m.Triangles = append(m.Triangles, t)
	}
	return m
}

// Generate builds and tessellates a named primitive. dims are interpreted
// per kind: box takes x, y, z; cylinder takes height, radius; tube takes
// height, outer radius, inner radius.
func Generate(kind string, dims []float64, cells int) (*mesh.Mesh, error) {
	need := map[string]int{"box": 3, "cylinder": 2, "tube": 3}
	n, ok := need[kind]
	if !ok {
		return nil, fmt.Errorf("unknown primitive %q", kind)
	}
	if len(dims) < n {
		return nil, fmt.Errorf("%s needs %d dimensions, got %d", kind, n, len(dims))
	}
	for _, d := range dims[:n] {
		if d <= 0 {
			return nil, fmt.Errorf("%s: dimensions must be positive, got %v", kind, dims[:n])
		}
	}

	var s sdf.SDF3
	var err error
	switch kind {
	case "box":
		s, err = Box(dims[0], dims[1], dims[2])
	case "cylinder":
		s, err = Cylinder(dims[0], dims[1])
	case "tube":
		s, err = Tube(dims[0], dims[1], dims[2])
	}
	if err != nil {
		return nil, err
	}
	return Tessellate(s, cells), nil
}
