// Package slicer cuts a triangle mesh into binary raster layers, one per
// horizontal plane at a fixed step.
//
// A Z sweep over per-triangle start/end events yields, for every plane,
// the triangles it cuts. Each plane is then processed independently on a
// worker pool: its triangles are intersected with the plane into directed
// contour segments, and an X sweep fills the contour interior column by
// column with the nonzero winding rule. Finished layers go to a Sink.
package slicer

import (
	"context"
	"fmt"
	gomath "math"
	"runtime"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/layerslice/pkg/mesh"
)

// DefaultQueueDepth bounds the number of planes waiting for a worker.
const DefaultQueueDepth = 16

// Options configure Slice.
type Options struct {
	Step       float32      // distance between planes, > 0
	Workers    int          // worker pool size; NumCPU when < 1
	QueueDepth int          // pending units before Submit blocks; DefaultQueueDepth when < 1
	Triple     TriplePolicy // contribution of triangles with three plane hits
	Logger     *zap.Logger  // nil disables logging
}

// DefaultOptions returns one plane per unit height on all CPUs.
func DefaultOptions() Options {
	return Options{
		Step:       1,
		Workers:    runtime.NumCPU(),
		QueueDepth: DefaultQueueDepth,
		Triple:     TripleLoop,
	}
}

func (o Options) withDefaults() Options {
	if o.Workers < 1 {
		o.Workers = runtime.NumCPU()
	}
	if o.QueueDepth < 1 {
		o.QueueDepth = DefaultQueueDepth
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

func validStep(step float32) bool {
	return step > 0 && !gomath.IsInf(float64(step), 1)
}

// prepare checks the input, normalizes m in place and builds the sorted
// Z events.
func prepare(m *mesh.Mesh, step float32) (mesh.BoundingBox, []ZEvent, error) {
	if !validStep(step) {
		return mesh.BoundingBox{}, nil, fmt.Errorf("%w: %v", ErrInvalidStep, step)
	}
	if err := m.Validate(); err != nil {
		return mesh.BoundingBox{}, nil, err
	}
	bb, err := m.Normalize()
	if err != nil {
		return bb, nil, err
	}
	events := BuildEvents(m)
	if len(events) != 2*len(m.Triangles) {
		return bb, nil, &InvariantError{
			Stage:  "z-sweep",
			Detail: fmt.Sprintf("%d events for %d triangles", len(events), len(m.Triangles)),
		}
	}
	return bb, events, nil
}

// Plan normalizes m in place and returns the planes Slice would rasterize,
// without rasterizing them.
func Plan(m *mesh.Mesh, step float32) ([]Plane, mesh.BoundingBox, error) {
	bb, events, err := prepare(m, step)
	if err != nil {
		return nil, bb, err
	}
	var planes []Plane
	err = Sweep(events, step, func(p Plane) error {
		planes = append(planes, p)
		return nil
	})
	return planes, bb, err
}

// Slice normalizes m in place, sweeps it bottom to top and hands one layer
// per plane to sink. The sweep runs on the calling goroutine; layers are
// produced concurrently and reach the sink in no particular order.
//
// Invalid input (non-positive step, empty or malformed mesh) is reported
// before anything is scheduled; see IsInputError. A layer that fails does
// not stop the others: Slice waits for every submitted layer and then
// returns an error wrapping ErrIncomplete and one *LayerError per failure.
// Cancelling ctx stops the submission of further planes.
func Slice(ctx context.Context, m *mesh.Mesh, sink Sink, opts Options) (Report, error) {
	opts = opts.withDefaults()
	log := opts.Logger

	bb, events, err := prepare(m, opts.Step)
	if err != nil {
		return Report{Bounds: bb}, err
	}
	width, height := bb.Width(), bb.Height()
	log.Info("slicing mesh",
		zap.Int("vertices", len(m.Vertices)),
		zap.Int("triangles", len(m.Triangles)),
		zap.Int("events", len(events)),
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Float32("depth", bb.Extent().Z),
		zap.Float32("step", opts.Step),
		zap.Int("workers", opts.Workers),
	)

	sched := NewScheduler(sink, width, height, opts)
	sweepErr := Sweep(events, opts.Step, func(p Plane) error {
		log.Debug("plane",
			zap.Int("layer", p.Index),
			zap.Float32("z", p.Z),
			zap.Int("triangles", len(p.Triangles)),
		)
		return sched.Submit(ctx, m, p)
	})
	report, err := sched.Wait()
	report.Bounds = bb

	log.Info("slicing finished",
		zap.Int("layers", report.Planes),
		zap.Int("written", report.Written),
		zap.Int("failed", len(report.Failed)),
	)
	if sweepErr != nil {
		return report, multierr.Append(sweepErr, err)
	}
	return report, err
}
