package slicer

import (
	"cmp"
	"fmt"
	"iter"
	"maps"
	"slices"

	"github.com/Faultbox/layerslice/pkg/mesh"
)

// EventKind tells whether a sweep event opens or closes an interval.
type EventKind uint8

const (
	Start EventKind = iota
	End
)

// String returns "start" or "end".
func (k EventKind) String() string {
	switch k {
	case Start:
		return "start"
	case End:
		return "end"
	default:
		return fmt.Sprintf("EventKind(%d)", k)
	}
}

// ZEvent marks where a triangle enters (at its lowest vertex) or leaves
// (at its highest vertex) the set of triangles cut by the sweep plane.
type ZEvent struct {
	Z        float32
	Kind     EventKind
	Triangle int
}

// BuildEvents returns two events per triangle of m, stably sorted by Z.
// Events at equal Z keep their construction order, so a triangle's Start
// always precedes its End.
func BuildEvents(m *mesh.Mesh) []ZEvent {
	events := make([]ZEvent, 0, 2*len(m.Triangles))
	for i, t := range m.Triangles {
		lo, hi := m.ZRange(t)
		events = append(events,
			ZEvent{Z: lo, Kind: Start, Triangle: i},
			ZEvent{Z: hi, Kind: End, Triangle: i},
		)
	}
	slices.SortStableFunc(events, func(a, b ZEvent) int {
		return cmp.Compare(a.Z, b.Z)
	})
	return events
}

// ActiveSet is the set of intervals open at the current sweep position.
// It is owned by a single sweep and not safe for concurrent use.
type ActiveSet struct {
	members map[int]struct{}
}

// NewActiveSet returns an empty set.
func NewActiveSet() *ActiveSet {
	return &ActiveSet{members: make(map[int]struct{})}
}

// Insert adds i and reports whether it was absent.
func (s *ActiveSet) Insert(i int) bool {
	if _, ok := s.members[i]; ok {
		return false
	}
	s.members[i] = struct{}{}
	return true
}

// Remove deletes i and reports whether it was present.
func (s *ActiveSet) Remove(i int) bool {
	if _, ok := s.members[i]; !ok {
		return false
	}
	delete(s.members, i)
	return true
}

// Contains reports whether i is open.
func (s *ActiveSet) Contains(i int) bool {
	_, ok := s.members[i]
	return ok
}

// Len returns the number of open intervals.
func (s *ActiveSet) Len() int {
	return len(s.members)
}

// All iterates the members in no particular order.
func (s *ActiveSet) All() iter.Seq[int] {
	return maps.Keys(s.members)
}

// Snapshot returns the members in ascending order.
func (s *ActiveSet) Snapshot() []int {
	return slices.Sorted(maps.Keys(s.members))
}

// apply opens or closes the interval an event refers to.
func (s *ActiveSet) apply(kind EventKind, i int) error {
	switch kind {
	case Start:
		if !s.Insert(i) {
			return fmt.Errorf("%d opened twice", i)
		}
	case End:
		if !s.Remove(i) {
			return fmt.Errorf("%d closed while not open", i)
		}
	default:
		return fmt.Errorf("%d has unknown event kind %v", i, kind)
	}
	return nil
}

// Plane is one cutting plane produced by the Z sweep: its position in the
// stack, its height and the sorted indices of the triangles it cuts.
type Plane struct {
	Index     int
	Z         float32
	Triangles []int
}

// Sweep walks the sorted events upwards from Z = 0 in increments of step
// and calls emit once per plane, in increasing order.
//
// Before plane p is emitted every event with Z <= p is applied, so the
// plane sees exactly the triangles with minZ <= p < maxZ. Triangles that
// start and end at the same height never appear. The sweep stops when the
// last event has been applied. An error returned by emit stops the sweep
// and is returned unchanged.
func Sweep(events []ZEvent, step float32, emit func(Plane) error) error {
	if !validStep(step) {
		return fmt.Errorf("%w: %v", ErrInvalidStep, step)
	}

	active := NewActiveSet()
	index := 0
	var p float32
	for i := 0; i < len(events); {
		ev := events[i]
		switch {
		case ev.Z > p:
			plane := Plane{Index: index, Z: p, Triangles: active.Snapshot()}
			if err := emit(plane); err != nil {
				return err
			}
			index++
			// Plane heights are exact multiples of step.
			p = float32(index) * step
		case ev.Z <= p:
			if err := active.apply(ev.Kind, ev.Triangle); err != nil {
				return &InvariantError{
					Stage:  "z-sweep",
					Coord:  float64(p),
					Detail: fmt.Sprintf("event %d: triangle %v", i, err),
				}
			}
			i++
		default:
			return &InvariantError{
				Stage:  "z-sweep",
				Coord:  float64(p),
				Detail: fmt.Sprintf("event %d has incomparable z=%v", i, ev.Z),
			}
		}
	}
	return nil
}
