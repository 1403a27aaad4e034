package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for engine operations.
var (
	// ErrAlreadyDisposed indicates an operation on a disposed engine.
	ErrAlreadyDisposed = errors.New("dynamo: engine already disposed")

	// ErrInvalidArgument indicates a precondition violation such as a nil
	// callback or a negative body count.
	ErrInvalidArgument = errors.New("dynamo: invalid argument")

	// ErrNotStarted indicates an operation that requires Start to have run.
	ErrNotStarted = errors.New("dynamo: engine not started")

	// ErrUnknownBody indicates a body id outside the engine's collection.
	ErrUnknownBody = errors.New("dynamo: unknown body id")

	// ErrBarrierStopped is returned to barrier waiters released by a stop.
	ErrBarrierStopped = errors.New("dynamo: barrier stopped")
)

// Phase names the worker state in which a fault happened.
type Phase string

const (
	PhaseComputing Phase = "computing"
	PhaseMoving    Phase = "moving"
	PhaseObserving Phase = "observing"
)

// WorkerFault wraps a panic recovered inside a body worker.
type WorkerFault struct {
	ID    int
	Phase Phase
	Value any
}

func (e *WorkerFault) Error() string {
	return fmt.Sprintf("dynamo: worker %d faulted while %s: %v", e.ID, e.Phase, e.Value)
}

// Unwrap exposes the panic value when it was itself an error.
func (e *WorkerFault) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
