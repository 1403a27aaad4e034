package sim

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/ballsim/internal/diagnostics"
	"github.com/san-kum/ballsim/internal/dynamo"
	"github.com/san-kum/ballsim/internal/physics"
)

// Engine owns the bodies and drives one worker goroutine per body. Every
// frame is split by two barrier rendezvous: all workers finish computing
// collisions before any body moves, and all bodies finish moving before any
// worker computes the next frame.
type Engine struct {
	cfg    Config
	sink   diagnostics.Sink
	logger *zap.Logger
	rng    *rand.Rand
	now    func() time.Time

	mu       sync.Mutex
	started  bool
	disposed bool
	bodies   []*physics.Body
	barrier  *Barrier
	group    *errgroup.Group

	obsMu     sync.RWMutex
	observers []FrameObserver

	frames     atomic.Uint64
	collisions atomic.Uint64
}

type Option func(*Engine)

// WithSink routes one diagnostics line per body per frame to s.
func WithSink(s diagnostics.Sink) Option {
	return func(e *Engine) { e.sink = s }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithRand fixes the random source used to generate bodies.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithClock overrides the timestamp source of diagnostics records.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:    cfg,
		sink:   diagnostics.Nop{},
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return e
}

func (e *Engine) Config() Config { return e.cfg }

// AddObserver registers o to receive a snapshot after every completed frame.
// Observers run inside the barrier release and must not block. A panicking
// observer faults the worker that ran it.
func (e *Engine) AddObserver(o FrameObserver) {
	e.obsMu.Lock()
	e.observers = append(e.observers, o)
	e.obsMu.Unlock()
}

// Start creates count random bodies, reports each one to onCreated in
// creation order and then launches one worker per body.
func (e *Engine) Start(count int, onCreated CreatedFunc) error {
	if e.isDisposed() {
		return dynamo.ErrAlreadyDisposed
	}
	if count < 0 || count > e.cfg.MaxBodies {
		return fmt.Errorf("%w: body count %d outside [0, %d]", dynamo.ErrInvalidArgument, count, e.cfg.MaxBodies)
	}
	return e.start(onCreated, func() ([]physics.Spec, error) {
		return randomSpecs(e.rng, e.cfg, count), nil
	})
}

// StartBodies is Start with caller-supplied bodies.
func (e *Engine) StartBodies(specs []physics.Spec, onCreated CreatedFunc) error {
	if e.isDisposed() {
		return dynamo.ErrAlreadyDisposed
	}
	if len(specs) > e.cfg.MaxBodies {
		return fmt.Errorf("%w: body count %d exceeds %d", dynamo.ErrInvalidArgument, len(specs), e.cfg.MaxBodies)
	}
	return e.start(onCreated, func() ([]physics.Spec, error) {
		for i, s := range specs {
			if err := s.Validate(e.cfg.Arena); err != nil {
				return nil, fmt.Errorf("body %d: %w", i, err)
			}
		}
		return specs, nil
	})
}

func (e *Engine) start(onCreated CreatedFunc, build func() ([]physics.Spec, error)) error {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return dynamo.ErrAlreadyDisposed
	}
	if onCreated == nil {
		e.mu.Unlock()
		return fmt.Errorf("%w: nil creation callback", dynamo.ErrInvalidArgument)
	}
	if e.started {
		e.mu.Unlock()
		return fmt.Errorf("%w: engine already started", dynamo.ErrInvalidArgument)
	}
	if err := e.cfg.Validate(); err != nil {
		e.mu.Unlock()
		return err
	}
	specs, err := build()
	if err != nil {
		e.mu.Unlock()
		return err
	}

	bodies := make([]*physics.Body, len(specs))
	for i, s := range specs {
		bodies[i] = physics.NewBody(i, s)
	}
	e.bodies = bodies
	e.started = true
	e.mu.Unlock()

	// Callbacks run unlocked so they may query the engine.
	for i, b := range bodies {
		onCreated(specs[i].Position, b, specs[i].Diameter)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return dynamo.ErrAlreadyDisposed
	}

	e.barrier = NewBarrier(len(bodies))
	e.group = &errgroup.Group{}
	for _, b := range bodies {
		w := &worker{engine: e, body: b, bodies: bodies, barrier: e.barrier}
		e.group.Go(w.run)
	}

	e.logger.Info("engine started",
		zap.Int("bodies", len(bodies)),
		zap.Float64("width", e.cfg.Arena.Width),
		zap.Float64("height", e.cfg.Arena.Height),
		zap.Duration("frame_interval", e.cfg.FrameInterval),
	)
	return nil
}

// Dispose stops every worker, waits for all of them to exit and discards
// the bodies. It returns the first worker fault, if any. A second call fails
// with [dynamo.ErrAlreadyDisposed].
func (e *Engine) Dispose() error {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return dynamo.ErrAlreadyDisposed
	}
	e.disposed = true
	barrier, group := e.barrier, e.group
	e.mu.Unlock()

	var err error
	if barrier != nil {
		barrier.Stop(nil)
	}
	if group != nil {
		err = group.Wait()
	}

	e.mu.Lock()
	e.bodies = nil
	e.mu.Unlock()

	if err != nil {
		e.logger.Error("engine disposed after worker fault", zap.Error(err), zap.Uint64("frames", e.frames.Load()))
		return err
	}
	e.logger.Info("engine disposed",
		zap.Uint64("frames", e.frames.Load()),
		zap.Uint64("collisions", e.collisions.Load()),
	)
	return nil
}

func (e *Engine) isDisposed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.disposed
}

func (e *Engine) Body(id int) (*physics.Body, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.disposed {
		return nil, dynamo.ErrAlreadyDisposed
	}
	if !e.started {
		return nil, dynamo.ErrNotStarted
	}
	if id < 0 || id >= len(e.bodies) {
		return nil, fmt.Errorf("%w: %d", dynamo.ErrUnknownBody, id)
	}
	return e.bodies[id], nil
}

func (e *Engine) BodyCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.bodies)
}

// MoveBody applies one frame of movement to body id.
func (e *Engine) MoveBody(id int) error {
	b, err := e.Body(id)
	if err != nil {
		return err
	}
	e.move(b)
	return nil
}

// Done returns a channel closed once the workers have been told to stop,
// either by Dispose or by a worker fault. It is nil before Start.
func (e *Engine) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.barrier == nil {
		return nil
	}
	return e.barrier.Done()
}

// Frame returns the number of completed frames.
func (e *Engine) Frame() uint64 { return e.frames.Load() }

// Collisions returns the number of resolved pairwise impacts.
func (e *Engine) Collisions() uint64 { return e.collisions.Load() }

// Snapshot copies the state of every body. Outside of a frame observer the
// copies may straddle a frame boundary.
func (e *Engine) Snapshot() []physics.State {
	e.mu.Lock()
	bodies := e.bodies
	e.mu.Unlock()

	return snapshot(bodies)
}

// computeCollisions runs the per-frame collision pass for body a: wall
// reflection first, then every other body in index order.
func (e *Engine) computeCollisions(a *physics.Body, bodies []*physics.Body) {
	a.Reflect(e.cfg.Arena)
	for _, b := range bodies {
		if b == a {
			continue
		}
		if c := physics.Collide(a, b, e.cfg.Epsilon); c.Resolved {
			e.collisions.Add(1)
		}
	}
}

func (e *Engine) move(b *physics.Body) {
	st := b.Advance(e.cfg.Arena)
	e.sink.Log(diagnostics.Record{
		Time:     e.now(),
		ID:       st.ID,
		Position: st.Position,
		Velocity: st.Velocity,
	}.String())
}

// completeFrame runs in the last worker released from the second barrier.
func (e *Engine) completeFrame(bodies []*physics.Body) {
	n := e.frames.Add(1)

	e.obsMu.RLock()
	observers := e.observers
	e.obsMu.RUnlock()
	if len(observers) == 0 {
		return
	}

	f := Frame{Number: n, Bodies: snapshot(bodies)}
	for _, o := range observers {
		o.OnFrame(f)
	}
}

func snapshot(bodies []*physics.Body) []physics.State {
	out := make([]physics.State, len(bodies))
	for i, b := range bodies {
		out[i] = b.Snapshot()
	}
	return out
}
