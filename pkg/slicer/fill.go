package slicer

import (
	"cmp"
	"fmt"
	gomath "math"
	"slices"
)

// LineEvent opens or closes a contour segment during the X sweep.
type LineEvent struct {
	X       float64
	Kind    EventKind
	Segment int
}

// BuildLineEvents returns a Start at the lower X and an End at the higher
// X of every segment, stably sorted by X. Vertical segments are left out:
// they never span an integer column.
func BuildLineEvents(segs []Segment) []LineEvent {
	events := make([]LineEvent, 0, 2*len(segs))
	for i, s := range segs {
		lo, hi := s.A.X, s.B.X
		if lo == hi {
			continue
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		events = append(events,
			LineEvent{X: lo, Kind: Start, Segment: i},
			LineEvent{X: hi, Kind: End, Segment: i},
		)
	}
	slices.SortStableFunc(events, func(a, b LineEvent) int {
		return cmp.Compare(a.X, b.X)
	})
	return events
}

// yCrossing is where an active segment meets the current column, with the
// winding contribution of its direction.
type yCrossing struct {
	y    float64
	sign int
}

// crossingAt evaluates s at column x. Left-to-right segments count +1,
// right-to-left ones -1.
func crossingAt(s Segment, x float64) yCrossing {
	k := (x - s.A.X) / (s.B.X - s.A.X)
	c := yCrossing{y: (s.B.Y-s.A.Y)*k + s.A.Y, sign: 1}
	if s.A.X > s.B.X {
		c.sign = -1
	}
	return c
}

// Fill rasterizes the closed contour segs into layer using the nonzero
// winding rule.
//
// Columns are visited from x = 0. Before column x is painted, every line
// event with X <= x is applied. The Y crossings of the active segments are
// then sorted and walked upwards with a running winding number; rows
// [yPrev, round(y)) are filled wherever the winding is nonzero. A column
// whose winding does not return to zero means the contour is not closed,
// and Fill stops with an *InvariantError.
func Fill(segs []Segment, layer *Layer) error {
	events := BuildLineEvents(segs)
	active := NewActiveSet()
	var crossings []yCrossing

	x := 0
	for j := 0; j < len(events); {
		ev := events[j]
		fx := float64(x)
		switch {
		case ev.X > fx:
			crossings = crossings[:0]
			for i := range active.All() {
				crossings = append(crossings, crossingAt(segs[i], fx))
			}
			slices.SortFunc(crossings, func(a, b yCrossing) int {
				if c := cmp.Compare(a.y, b.y); c != 0 {
					return c
				}
				return cmp.Compare(a.sign, b.sign)
			})

			winding, yPrev := 0, 0
			for _, c := range crossings {
				y := int(gomath.Round(c.y))
				if winding != 0 {
					layer.FillSpan(x, yPrev, y)
				}
				winding += c.sign
				yPrev = y
			}
			if winding != 0 {
				return &InvariantError{
					Stage:  "scanline",
					Coord:  fx,
					Detail: fmt.Sprintf("winding residual %d after %d crossings", winding, len(crossings)),
				}
			}
			x++
		case ev.X <= fx:
			if err := active.apply(ev.Kind, ev.Segment); err != nil {
				return &InvariantError{
					Stage:  "scanline",
					Coord:  fx,
					Detail: fmt.Sprintf("line event %d: segment %v", j, err),
				}
			}
			j++
		default:
			return &InvariantError{
				Stage:  "scanline",
				Coord:  fx,
				Detail: fmt.Sprintf("line event %d has incomparable x=%v", j, ev.X),
			}
		}
	}
	return nil
}
