package sim

import (
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/ballsim/internal/dynamo"
	"github.com/san-kum/ballsim/internal/physics"
)

// worker drives a single body through
// computing -> barrier -> moving -> barrier -> sleeping until the barrier stops.
type worker struct {
	engine  *Engine
	body    *physics.Body
	bodies  []*physics.Body
	barrier *Barrier
}

func (w *worker) run() error {
	release := func() { w.engine.completeFrame(w.bodies) }

	for !w.barrier.Stopped() {
		start := time.Now()

		if err := w.guard(dynamo.PhaseComputing, func() { w.engine.computeCollisions(w.body, w.bodies) }); err != nil {
			return err
		}
		if w.barrier.Await(nil) != nil {
			return nil
		}

		if err := w.guard(dynamo.PhaseMoving, func() { w.engine.move(w.body) }); err != nil {
			return err
		}
		// The last arriver runs the frame observers inside Await.
		var stopped error
		if err := w.guard(dynamo.PhaseObserving, func() { stopped = w.barrier.Await(release) }); err != nil {
			return err
		}
		if stopped != nil {
			return nil
		}

		w.pace(start)
	}
	return nil
}

// guard turns a panic in fn into a WorkerFault and stops the barrier with it
// so that peers blocked in Await are released.
func (w *worker) guard(phase dynamo.Phase, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fault := &dynamo.WorkerFault{ID: w.body.ID(), Phase: phase, Value: r}
			w.engine.logger.Error("worker fault",
				zap.Int("body", fault.ID),
				zap.String("phase", string(phase)),
				zap.Any("panic", r),
			)
			w.barrier.Stop(fault)
			err = fault
		}
	}()
	fn()
	return nil
}

// pace sleeps for what is left of the frame interval. Overrun frames do not
// sleep and are not caught up.
func (w *worker) pace(start time.Time) {
	d := w.engine.cfg.FrameInterval - time.Since(start)
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-w.barrier.Done():
	}
}
