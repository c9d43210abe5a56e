package slicer

import (
	"sort"
	"sync"

	"github.com/Faultbox/layerslice/pkg/math"
	"github.com/Faultbox/layerslice/pkg/mesh"
)

// boxMesh returns an axis-aligned box with outward-facing triangles and
// its minimum corner at origin.
func boxMesh(origin math.Vec3, w, d, h float32) *mesh.Mesh {
	m := &mesh.Mesh{}
	for k := range 2 {
		for j := range 2 {
			for i := range 2 {
				m.Vertices = append(m.Vertices, origin.Add(math.Vec3{
					X: w * float32(i),
					Y: d * float32(j),
					Z: h * float32(k),
				}))
			}
		}
	}
	m.Triangles = []mesh.Triangle{
		{0, 2, 3}, {0, 3, 1}, // bottom
		{4, 5, 7}, {4, 7, 6}, // top
		{0, 1, 5}, {0, 5, 4}, // front
		{2, 6, 7}, {2, 7, 3}, // back
		{0, 4, 6}, {0, 6, 2}, // left
		{1, 3, 7}, {1, 7, 5}, // right
	}
	return m
}

// pyramidMesh returns a square pyramid with a 6x6 base and apex at height 6.
func pyramidMesh() *mesh.Mesh {
	return &mesh.Mesh{
		Vertices: []math.Vec3{
			{X: 0, Y: 0, Z: 0},
			{X: 6, Y: 0, Z: 0},
			{X: 6, Y: 6, Z: 0},
			{X: 0, Y: 6, Z: 0},
			{X: 3, Y: 3, Z: 6},
		},
		Triangles: []mesh.Triangle{
			{0, 3, 2}, {0, 2, 1},
			{0, 1, 4}, {1, 2, 4}, {2, 3, 4}, {3, 0, 4},
		},
	}
}

// merge concatenates meshes into one with several shells.
func merge(meshes ...*mesh.Mesh) *mesh.Mesh {
	out := &mesh.Mesh{}
	for _, m := range meshes {
		base := len(out.Vertices)
		out.Vertices = append(out.Vertices, m.Vertices...)
		for _, t := range m.Triangles {
			out.Triangles = append(out.Triangles, mesh.Triangle{t[0] + base, t[1] + base, t[2] + base})
		}
	}
	return out
}

// collector is an in-package Sink keeping every layer by index.
type collector struct {
	mu     sync.Mutex
	layers map[int]*Layer
}

func newCollector() *collector {
	return &collector{layers: make(map[int]*Layer)}
}

func (c *collector) WriteLayer(l *Layer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.layers[l.Index] = l
	return nil
}

func (c *collector) sorted() []*Layer {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Layer, 0, len(c.layers))
	for _, l := range c.layers {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}
