// Package physics provides the bodies and collision math of the ball arena.
//
// Each simulated ball is a [Body] guarded by its own mutex. The package owns
// every operation that touches body state:
//
//   - [Arena]: boundary reflection and containment
//   - [Body.Reflect]: per-axis wall bounce planned for the next move
//   - [Body.Advance]: applies one frame of velocity and notifies handlers
//   - [Collide]: pairwise elastic response and overlap correction, checked
//     against both the current and the post-move centers
//
// # Lock Ordering
//
// [Collide] locks two bodies at once, always in ascending body id order:
//
//	physics.Collide(bodies[j], bodies[i], physics.DefaultEpsilon) // locks min(i, j) first
//
// No function in this package holds more than two body locks.
package physics
