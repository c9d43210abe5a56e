package slicer

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/layerslice/pkg/math"
	"github.com/Faultbox/layerslice/pkg/mesh"
)

// Sink receives finished layers. WriteLayer is called from several
// workers at once, so implementations must be safe for concurrent use.
// The layer is not touched by the slicer after it has been handed over.
type Sink interface {
	WriteLayer(layer *Layer) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(layer *Layer) error

// WriteLayer calls f(layer).
func (f SinkFunc) WriteLayer(layer *Layer) error {
	return f(layer)
}

// Report summarizes a slicing run.
type Report struct {
	Planes  int              // work units submitted
	Written int              // layers accepted by the sink
	Failed  []int            // indices of layers that failed, ascending
	Bounds  mesh.BoundingBox // mesh bounds before normalization
}

// workUnit is everything one worker needs for one plane. Its vertices are
// a private copy, so workers never read the shared mesh.
type workUnit struct {
	plane     Plane
	vertices  []math.Vec3
	triangles []mesh.Triangle
	layer     *Layer
}

// newWorkUnit copies the triangles of p, re-indexed onto a compact copy of
// the vertices they reference.
func newWorkUnit(m *mesh.Mesh, p Plane, width, height int) *workUnit {
	u := &workUnit{
		plane:     Plane{Index: p.Index, Z: p.Z},
		triangles: make([]mesh.Triangle, 0, len(p.Triangles)),
		layer:     NewLayer(p.Index, p.Z, width, height),
	}
	local := make(map[int]int, len(p.Triangles))
	for _, ti := range p.Triangles {
		var t mesh.Triangle
		for k, vi := range m.Triangles[ti] {
			li, ok := local[vi]
			if !ok {
				li = len(u.vertices)
				u.vertices = append(u.vertices, m.Vertices[vi])
				local[vi] = li
			}
			t[k] = li
		}
		u.triangles = append(u.triangles, t)
	}
	return u
}

// Scheduler runs work units on a fixed pool of workers fed by a bounded
// queue. Submit and Wait must be called from a single goroutine.
type Scheduler struct {
	sink          Sink
	policy        TriplePolicy
	width, height int
	log           *zap.Logger

	queue  chan *workUnit
	wg     sync.WaitGroup
	closed bool

	mu     sync.Mutex
	report Report
	errs   error
}

// NewScheduler starts opts.Workers workers producing width x height layers
// into sink.
func NewScheduler(sink Sink, width, height int, opts Options) *Scheduler {
	opts = opts.withDefaults()
	s := &Scheduler{
		sink:   sink,
		policy: opts.Triple,
		width:  width,
		height: height,
		log:    opts.Logger,
		queue:  make(chan *workUnit, opts.QueueDepth),
	}
	s.wg.Add(opts.Workers)
	for range opts.Workers {
		go s.worker()
	}
	return s
}

// Submit packages plane p of m and queues it. It blocks while the queue
// is full and returns ctx.Err() if ctx ends first.
func (s *Scheduler) Submit(ctx context.Context, m *mesh.Mesh, p Plane) error {
	if s.closed {
		return ErrSchedulerClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	u := newWorkUnit(m, p, s.width, s.height)
	select {
	case s.queue <- u:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.mu.Lock()
	s.report.Planes++
	s.mu.Unlock()
	return nil
}

// Wait stops admission and blocks until every submitted unit has
// finished. The error combines every per-layer failure.
func (s *Scheduler) Wait() (Report, error) {
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	report := s.report
	report.Failed = slices.Clone(s.report.Failed)
	slices.Sort(report.Failed)
	if s.errs != nil {
		return report, fmt.Errorf("%w: %d of %d failed: %w", ErrIncomplete, len(report.Failed), report.Planes, s.errs)
	}
	return report, nil
}

func (s *Scheduler) worker() {
	defer s.wg.Done()
	for u := range s.queue {
		s.finish(u, s.process(u))
	}
}

// process slices, fills and emits one plane.
func (s *Scheduler) process(u *workUnit) error {
	segs := PlaneSegments(u.vertices, u.triangles, u.plane.Z, s.policy)
	if err := Fill(segs, u.layer); err != nil {
		return err
	}
	s.log.Debug("layer filled",
		zap.Int("layer", u.plane.Index),
		zap.Float32("z", u.plane.Z),
		zap.Int("triangles", len(u.triangles)),
		zap.Int("segments", len(segs)),
		zap.Int("filled", u.layer.Filled()),
	)
	return s.sink.WriteLayer(u.layer)
}

func (s *Scheduler) finish(u *workUnit, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		s.report.Written++
		return
	}
	s.log.Warn("layer failed",
		zap.Int("layer", u.plane.Index),
		zap.Float32("z", u.plane.Z),
		zap.Error(err),
	)
	s.report.Failed = append(s.report.Failed, u.plane.Index)
	s.errs = multierr.Append(s.errs, &LayerError{Index: u.plane.Index, Z: u.plane.Z, Err: err})
}
