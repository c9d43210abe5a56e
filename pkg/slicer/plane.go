package slicer

import (
	"fmt"
	gomath "math"

	"seehuhn.de/go/geom/vec"

	"github.com/Faultbox/layerslice/pkg/math"
	"github.com/Faultbox/layerslice/pkg/mesh"
)

// Segment is a directed contour edge in the cutting plane. The direction
// carries the winding contribution used by Fill.
type Segment struct {
	A, B vec.Vec2
}

// TriplePolicy decides what a triangle contributes when all three of its
// edges produce an intersection point. With the Z sweep's draining rule
// this only happens for a triangle lying flat in a plane that is sliced
// directly through IntersectTriangle.
type TriplePolicy int

const (
	// TripleLoop connects the three points into a closed ring of three
	// segments.
	TripleLoop TriplePolicy = iota
	// TripleDrop ignores the triangle.
	TripleDrop
)

// String returns the config spelling of the policy.
func (p TriplePolicy) String() string {
	switch p {
	case TripleLoop:
		return "loop"
	case TripleDrop:
		return "drop"
	default:
		return fmt.Sprintf("TriplePolicy(%d)", int(p))
	}
}

// ParseTriplePolicy parses "loop" or "drop".
func ParseTriplePolicy(s string) (TriplePolicy, error) {
	switch s {
	case "loop", "":
		return TripleLoop, nil
	case "drop":
		return TripleDrop, nil
	default:
		return 0, fmt.Errorf("unknown triple point policy %q", s)
	}
}

// anchorIndex picks the corner the edge walk starts from: the highest
// vertex, or the vertex after it when that one lies exactly on the plane.
func anchorIndex(tri [3]math.Vec3, z float32) int {
	best := 0
	top := float32(gomath.Inf(-1))
	for i, v := range tri {
		if v.Z > top {
			top = v.Z
			best = i
		}
	}
	if next := (best + 1) % 3; tri[next].Z == z {
		return next
	}
	return best
}

// crossing interpolates the strictly straddling edge a-b at height z. The
// endpoints are ordered by height first so that the two triangles sharing
// an edge compute bit-identical points.
func crossing(a, b math.Vec3, z float32) math.Vec3 {
	if a.Z > b.Z {
		a, b = b, a
	}
	return a.LerpZ(b, z)
}

// IntersectTriangle returns the points where the plane at height z meets
// the edges of tri, walking the edges anchor → next → next2 → anchor.
// A vertex on the plane is returned as is; an edge strictly crossing the
// plane yields its interpolated point. The result has 0 to 3 points.
func IntersectTriangle(tri [3]math.Vec3, z float32) []math.Vec3 {
	anchor := anchorIndex(tri, z)
	points := make([]math.Vec3, 0, 3)
	for k := range 3 {
		a := tri[(anchor+k)%3]
		b := tri[(anchor+k+1)%3]
		switch {
		case a.Z == z:
			points = append(points, a)
		case (a.Z < z && z < b.Z) || (a.Z > z && z > b.Z):
			points = append(points, crossing(a, b, z))
		}
	}
	return points
}

// TriangleSegments turns the output of IntersectTriangle into contour
// segments. Two points make one segment; three are handled by policy;
// anything else contributes nothing.
func TriangleSegments(points []math.Vec3, policy TriplePolicy) []Segment {
	switch len(points) {
	case 2:
		return []Segment{{A: points[0].XY(), B: points[1].XY()}}
	case 3:
		if policy == TripleDrop {
			return nil
		}
		segs := make([]Segment, 3)
		for i := range segs {
			segs[i] = Segment{A: points[i].XY(), B: points[(i+1)%3].XY()}
		}
		return segs
	default:
		return nil
	}
}

// PlaneSegments slices every triangle at height z and collects the
// resulting contour.
func PlaneSegments(vertices []math.Vec3, triangles []mesh.Triangle, z float32, policy TriplePolicy) []Segment {
	var segs []Segment
	for _, t := range triangles {
		tri := [3]math.Vec3{vertices[t[0]], vertices[t[1]], vertices[t[2]]}
		segs = append(segs, TriangleSegments(IntersectTriangle(tri, z), policy)...)
	}
	return segs
}
