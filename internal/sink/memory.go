package sink

import (
	"maps"
	"slices"
	"sync"

	"github.com/Faultbox/layerslice/pkg/slicer"
)

// Memory keeps every layer it receives, keyed by index.
type Memory struct {
	mu     sync.Mutex
	layers map[int]*slicer.Layer
}

// NewMemory returns an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{layers: make(map[int]*slicer.Layer)}
}

// WriteLayer stores l, replacing any layer with the same index.
func (m *Memory) WriteLayer(l *slicer.Layer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.layers[l.Index] = l
	return nil
}

// Len returns the number of stored layers.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.layers)
}

// Layer returns the layer with the given index, or nil.
func (m *Memory) Layer(index int) *slicer.Layer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.layers[index]
}

// Layers returns the stored layers ordered by index.
func (m *Memory) Layers() []*slicer.Layer {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*slicer.Layer, 0, len(m.layers))
	for _, i := range slices.Sorted(maps.Keys(m.layers)) {
		out = append(out, m.layers[i])
	}
	return out
}
