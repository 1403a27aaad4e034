package sim

import (
	"sync"

	"github.com/san-kum/ballsim/internal/dynamo"
)

// Barrier is a reusable rendezvous for a fixed number of parties. The last
// party to arrive resets the counter, runs its release hook and wakes every
// waiter. Stop releases all current and future waiters with an error.
type Barrier struct {
	mu         sync.Mutex
	cond       *sync.Cond
	parties    int
	count      int
	generation uint64
	stopped    bool
	err        error
	done       chan struct{}
}

func NewBarrier(parties int) *Barrier {
	b := &Barrier{parties: parties, done: make(chan struct{})}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Await blocks until all parties have arrived. onRelease, when non-nil, runs
// in the last arriving party before anyone is released; it must not call
// back into the barrier. If onRelease panics the count is already reset and
// the generation is not advanced, so waiters stay blocked until Stop.
func (b *Barrier) Await(onRelease func()) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return b.err
	}

	gen := b.generation
	b.count++
	if b.count == b.parties {
		b.count = 0
		if onRelease != nil {
			onRelease()
		}
		b.generation++
		b.cond.Broadcast()
		return nil
	}

	for gen == b.generation && !b.stopped {
		b.cond.Wait()
	}
	if gen == b.generation {
		return b.err
	}
	return nil
}

// Stop releases every waiter. The first non-nil cause is kept and returned
// from later Await calls; a nil cause means [dynamo.ErrBarrierStopped].
func (b *Barrier) Stop(cause error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return
	}
	if cause == nil {
		cause = dynamo.ErrBarrierStopped
	}
	b.stopped = true
	b.err = cause
	close(b.done)
	b.cond.Broadcast()
}

func (b *Barrier) Stopped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stopped
}

// Err returns the stop cause, or nil while the barrier is running.
func (b *Barrier) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Done is closed by Stop.
func (b *Barrier) Done() <-chan struct{} { return b.done }

// Generation counts completed rendezvous.
func (b *Barrier) Generation() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.generation
}
