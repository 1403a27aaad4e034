// Package dynamo provides the core value types shared by the simulation.
//
// The package defines the primitives every other layer builds on:
//
//   - [Vector]: immutable 2D value used for positions and velocities
//   - [WorkerFault]: a recovered panic raised inside a body worker
//   - sentinel errors for engine lifecycle violations
//
// # Errors
//
// Lifecycle errors are programmer errors and are never retried:
//
//	if err := engine.Dispose(); errors.Is(err, dynamo.ErrAlreadyDisposed) {
//	    // Dispose was called twice
//	}
package dynamo
