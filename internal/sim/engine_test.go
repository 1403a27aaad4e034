package sim_test

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/ballsim/internal/diagnostics"
	"github.com/san-kum/ballsim/internal/dynamo"
	"github.com/san-kum/ballsim/internal/metrics"
	"github.com/san-kum/ballsim/internal/physics"
	"github.com/san-kum/ballsim/internal/sim"
)

type frameLog struct {
	mu     sync.Mutex
	frames []sim.Frame
}

func (l *frameLog) OnFrame(f sim.Frame) {
	l.mu.Lock()
	l.frames = append(l.frames, f)
	l.mu.Unlock()
}

func (l *frameLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.frames)
}

func (l *frameLog) all() []sim.Frame {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]sim.Frame(nil), l.frames...)
}

type memorySink struct {
	mu    sync.Mutex
	lines []string
}

func (s *memorySink) Log(line string) {
	s.mu.Lock()
	s.lines = append(s.lines, line)
	s.mu.Unlock()
}

func (s *memorySink) Close() error { return nil }

func (s *memorySink) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

func ignore(dynamo.Vector, *physics.Body, float64) {}

func testConfig() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.FrameInterval = time.Millisecond
	return cfg
}

func disposeWithin(e *sim.Engine, d time.Duration) error {
	done := make(chan error, 1)
	go func() { done <- e.Dispose() }()
	select {
	case err := <-done:
		return err
	case <-time.After(d):
		Fail("Dispose did not return in time")
		return nil
	}
}

var _ = Describe("Engine", func() {
	var (
		engine *sim.Engine
		frames *frameLog
	)

	BeforeEach(func() {
		engine = sim.New(testConfig(), sim.WithRand(rand.New(rand.NewSource(1))))
		frames = &frameLog{}
		engine.AddObserver(frames)
	})

	Describe("lifecycle", func() {
		It("creates nothing for zero bodies and disposes without blocking", func() {
			calls := 0
			Expect(engine.Start(0, func(dynamo.Vector, *physics.Body, float64) { calls++ })).To(Succeed())
			Expect(calls).To(BeZero())
			Expect(engine.BodyCount()).To(BeZero())
			Expect(disposeWithin(engine, time.Second)).To(Succeed())
			Expect(frames.count()).To(BeZero())
		})

		It("rejects invalid arguments before mutating state", func() {
			_, err := engine.Body(0)
			Expect(err).To(MatchError(dynamo.ErrNotStarted))

			Expect(engine.Start(-1, ignore)).To(MatchError(dynamo.ErrInvalidArgument))
			Expect(engine.Start(sim.DefaultMaxBodies+1, ignore)).To(MatchError(dynamo.ErrInvalidArgument))
			Expect(engine.Start(3, nil)).To(MatchError(dynamo.ErrInvalidArgument))
			Expect(engine.BodyCount()).To(BeZero())

			Expect(engine.Start(2, ignore)).To(Succeed())
			Expect(engine.Start(2, ignore)).To(MatchError(dynamo.ErrInvalidArgument))
			Expect(engine.Dispose()).To(Succeed())
		})

		It("fails with AlreadyDisposed after Dispose", func() {
			Expect(engine.Dispose()).To(Succeed())
			Expect(engine.Dispose()).To(MatchError(dynamo.ErrAlreadyDisposed))
			Expect(engine.Start(1, ignore)).To(MatchError(dynamo.ErrAlreadyDisposed))
			Expect(engine.Start(-1, ignore)).To(MatchError(dynamo.ErrAlreadyDisposed))
			Expect(engine.Start(1, nil)).To(MatchError(dynamo.ErrAlreadyDisposed))
			Expect(engine.StartBodies(make([]physics.Spec, sim.DefaultMaxBodies+1), ignore)).To(MatchError(dynamo.ErrAlreadyDisposed))

			_, err := engine.Body(0)
			Expect(err).To(MatchError(dynamo.ErrAlreadyDisposed))
		})

		It("reports every body in creation order before returning", func() {
			cfg := testConfig()
			var ids []int
			err := engine.Start(12, func(pos dynamo.Vector, b *physics.Body, d float64) {
				ids = append(ids, b.ID())
				Expect(d).To(Equal(b.Diameter()))
				Expect(pos).To(Equal(b.Position()))
				Expect(cfg.Arena.Fits(pos, d/2)).To(BeTrue())
				Expect(b.Velocity().X).NotTo(BeZero())
				Expect(b.Velocity().Y).NotTo(BeZero())
				Expect(b.Mass()).To(BeNumerically("~", physics.MassFor(d, cfg.Density), 1e-12))
			})
			Expect(err).To(Succeed())
			Expect(ids).To(Equal([]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}))
			Expect(engine.BodyCount()).To(Equal(12))

			_, err = engine.Body(12)
			Expect(err).To(MatchError(dynamo.ErrUnknownBody))
			Expect(engine.Dispose()).To(Succeed())
			Expect(engine.BodyCount()).To(BeZero())
		})

		It("rejects body specs that do not fit the arena", func() {
			specs := []physics.Spec{{Position: dynamo.V(1, 1), Velocity: dynamo.V(1, 1), Diameter: 20, Mass: 1}}
			Expect(engine.StartBodies(specs, ignore)).To(MatchError(dynamo.ErrInvalidArgument))
		})
	})

	Describe("physics", func() {
		It("swaps the velocities of equal masses colliding head on", func() {
			specs := []physics.Spec{
				{Position: dynamo.V(100, 300), Velocity: dynamo.V(1, 0), Diameter: 20, Mass: 1},
				{Position: dynamo.V(120, 300), Velocity: dynamo.V(-1, 0), Diameter: 20, Mass: 1},
			}
			Expect(engine.StartBodies(specs, ignore)).To(Succeed())
			Eventually(frames.count, time.Second).Should(BeNumerically(">=", 3))
			Expect(engine.Dispose()).To(Succeed())

			got := frames.all()
			// The touching pair would interpenetrate on the first move, so frame 1
			// resolves the impact and both bodies move apart.
			Expect(got[0].Bodies[0].Velocity).To(Equal(dynamo.V(-1, 0)))
			Expect(got[0].Bodies[1].Velocity).To(Equal(dynamo.V(1, 0)))
			Expect(got[0].Bodies[0].Position).To(Equal(dynamo.V(99, 300)))
			Expect(got[0].Bodies[1].Position).To(Equal(dynamo.V(121, 300)))
			Expect(got[1].Bodies[0].Velocity).To(Equal(dynamo.V(-1, 0)))
			Expect(engine.Collisions()).To(Equal(uint64(1)))
		})

		It("reflects a body off the wall and keeps it on the wall for that frame", func() {
			specs := []physics.Spec{{Position: dynamo.V(10, 300), Velocity: dynamo.V(-1, 0), Diameter: 20, Mass: 1}}
			Expect(engine.StartBodies(specs, ignore)).To(Succeed())
			Eventually(frames.count, time.Second).Should(BeNumerically(">=", 1))
			Expect(engine.Dispose()).To(Succeed())

			first := frames.all()[0].Bodies[0]
			Expect(first.Velocity).To(Equal(dynamo.V(1, 0)))
			Expect(first.Position.X).To(Equal(10.0))
		})

		It("conserves momentum for an isolated colliding pair", func() {
			specs := []physics.Spec{
				{Position: dynamo.V(300, 300), Velocity: dynamo.V(1.5, 0.25), Diameter: 40, Mass: physics.MassFor(40, 10)},
				{Position: dynamo.V(345, 310), Velocity: dynamo.V(-0.5, 0), Diameter: 20, Mass: physics.MassFor(20, 10)},
			}
			Expect(engine.StartBodies(specs, ignore)).To(Succeed())
			Eventually(frames.count, 2*time.Second).Should(BeNumerically(">=", 40))
			Expect(engine.Dispose()).To(Succeed())

			p0 := metrics.Momentum(frames.all()[0].Bodies)
			for _, f := range frames.all()[:40] {
				p := metrics.Momentum(f.Bodies)
				Expect(p.Sub(p0).Len()).To(BeNumerically("<", 1e-9*p0.Len()), "frame %d", f.Number)
			}
			Expect(engine.Collisions()).To(BeNumerically(">=", 1))
		})

		It("never lets an approaching pair interpenetrate after a move", func() {
			specs := []physics.Spec{
				{Position: dynamo.V(200, 300), Velocity: dynamo.V(2, 0), Diameter: 30, Mass: 1},
				{Position: dynamo.V(260, 300), Velocity: dynamo.V(-2, 0), Diameter: 30, Mass: 1},
			}
			Expect(engine.StartBodies(specs, ignore)).To(Succeed())
			Eventually(frames.count, 2*time.Second).Should(BeNumerically(">=", 60))
			Expect(engine.Dispose()).To(Succeed())

			for _, f := range frames.all() {
				Expect(metrics.MaxPenetration(f.Bodies)).To(BeNumerically("<=", 1e-9), "frame %d", f.Number)
			}
			Expect(engine.Collisions()).To(Equal(uint64(1)))
		})

		It("bounds penetration by one frame of travel for a crowd of random bodies", func() {
			cfg := testConfig()
			cfg.FrameInterval = 0
			engine = sim.New(cfg, sim.WithRand(rand.New(rand.NewSource(7))))

			var (
				mu    sync.Mutex
				worst float64
				seen  int
			)
			engine.AddObserver(sim.FrameObserverFunc(func(f sim.Frame) {
				p := metrics.MaxPenetration(f.Bodies)
				mu.Lock()
				worst = max(worst, p)
				seen++
				mu.Unlock()
			}))
			observed := func() int {
				mu.Lock()
				defer mu.Unlock()
				return seen
			}

			Expect(engine.Start(60, ignore)).To(Succeed())
			Eventually(observed, 10*time.Second).Should(BeNumerically(">=", 500))
			Expect(disposeWithin(engine, 2*time.Second)).To(Succeed())

			mu.Lock()
			defer mu.Unlock()
			Expect(worst).To(BeNumerically("<=", 2*cfg.MaxSpeed*math.Sqrt2))
			Expect(engine.Collisions()).To(BeNumerically(">", 0))
		})

		It("keeps every body inside the arena on every frame", func() {
			cfg := testConfig()
			Expect(engine.Start(25, ignore)).To(Succeed())
			Eventually(frames.count, 5*time.Second).Should(BeNumerically(">=", 100))
			Expect(engine.Dispose()).To(Succeed())

			for _, f := range frames.all() {
				Expect(metrics.Escaped(cfg.Arena, f.Bodies)).To(BeEmpty(), "frame %d", f.Number)
			}
		})
	})

	Describe("synchronization", func() {
		It("moves all bodies in lockstep", func() {
			const n = 8
			moves := make([]atomic.Int64, n)
			var violations atomic.Int64

			err := engine.Start(n, func(_ dynamo.Vector, b *physics.Body, _ float64) {
				id := b.ID()
				b.OnMove(func(dynamo.Vector) {
					k := moves[id].Add(1)
					for j := range moves {
						if m := moves[j].Load(); m < k-1 || m > k {
							violations.Add(1)
						}
					}
				})
			})
			Expect(err).To(Succeed())
			Eventually(frames.count, 5*time.Second).Should(BeNumerically(">=", 50))
			Expect(engine.Dispose()).To(Succeed())

			Expect(violations.Load()).To(BeZero())
			for _, f := range frames.all() {
				Expect(f.Bodies).To(HaveLen(n))
			}
		})

		It("terminates overlapping bodies with identical velocities", func() {
			cfg := testConfig()
			cfg.FrameInterval = 0
			engine = sim.New(cfg)
			engine.AddObserver(frames)

			specs := make([]physics.Spec, 6)
			for i := range specs {
				specs[i] = physics.Spec{Position: dynamo.V(300+float64(i)*2, 300), Velocity: dynamo.V(1, 1), Diameter: 30, Mass: 1}
			}
			Expect(engine.StartBodies(specs, ignore)).To(Succeed())
			Eventually(frames.count, 5*time.Second).Should(BeNumerically(">=", 200))
			Expect(disposeWithin(engine, 2*time.Second)).To(Succeed())
		})

		It("writes one diagnostics line per body per frame", func() {
			sink := &memorySink{}
			engine = sim.New(testConfig(), sim.WithSink(sink))
			engine.AddObserver(frames)

			Expect(engine.Start(4, ignore)).To(Succeed())
			Eventually(frames.count, time.Second).Should(BeNumerically(">=", 5))
			Expect(engine.Dispose()).To(Succeed())

			lines := sink.snapshot()
			Expect(len(lines)).To(BeNumerically(">=", 4*frames.count()))

			rec, err := diagnostics.ParseRecord(lines[0])
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.ID).To(BeNumerically("<", 4))
		})

		It("propagates a worker fault to Dispose instead of hanging", func() {
			err := engine.Start(5, func(_ dynamo.Vector, b *physics.Body, _ float64) {
				if b.ID() == 3 {
					b.OnMove(func(dynamo.Vector) { panic("handler exploded") })
				}
			})
			Expect(err).To(Succeed())

			// The faulting frame never completes.
			Eventually(engine.Done(), 2*time.Second).Should(BeClosed())
			Expect(engine.Frame()).To(BeZero())

			err = disposeWithin(engine, 2*time.Second)
			var fault *dynamo.WorkerFault
			Expect(errors.As(err, &fault)).To(BeTrue())
			Expect(fault.ID).To(Equal(3))
			Expect(fault.Phase).To(Equal(dynamo.PhaseMoving))
			Expect(fault.Value).To(Equal("handler exploded"))
		})

		It("propagates a panicking frame observer to Dispose", func() {
			engine.AddObserver(sim.FrameObserverFunc(func(f sim.Frame) {
				if f.Number == 2 {
					panic("observer exploded")
				}
			}))
			Expect(engine.Start(3, ignore)).To(Succeed())

			Eventually(engine.Done(), 2*time.Second).Should(BeClosed())
			Expect(engine.Frame()).To(Equal(uint64(2)))

			err := disposeWithin(engine, 2*time.Second)
			var fault *dynamo.WorkerFault
			Expect(errors.As(err, &fault)).To(BeTrue())
			Expect(fault.ID).To(BeNumerically("<", 3))
			Expect(fault.Phase).To(Equal(dynamo.PhaseObserving))
			Expect(fault.Value).To(Equal("observer exploded"))

			// Observers registered before the faulting one still saw frame 2.
			Expect(frames.count()).To(Equal(2))
		})
	})

	It("moves a body on demand through MoveBody", func() {
		specs := []physics.Spec{{Position: dynamo.V(100, 100), Velocity: dynamo.V(1, 1), Diameter: 20, Mass: 1}}
		Expect(engine.StartBodies(specs, ignore)).To(Succeed())
		Expect(engine.MoveBody(0)).To(Succeed())
		Expect(engine.MoveBody(1)).To(MatchError(dynamo.ErrUnknownBody))
		Expect(engine.Dispose()).To(Succeed())
		Expect(engine.MoveBody(0)).To(MatchError(dynamo.ErrAlreadyDisposed))
	})
})
