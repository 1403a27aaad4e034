package physics

import (
	"math"

	"github.com/san-kum/ballsim/internal/dynamo"
)

// Arena is the rectangle [0, Width] x [0, Height] that contains every body.
type Arena struct {
	Width  float64
	Height float64
}

// Reflection records which axes bounce off a wall in the current frame and
// the boundary coordinate each bouncing axis is clamped to.
type Reflection struct {
	X      bool
	Y      bool
	Target dynamo.Vector
}

func (r Reflection) Any() bool { return r.X || r.Y }

// Fits reports whether a circle of radius r centered at pos lies inside the arena.
func (a Arena) Fits(pos dynamo.Vector, r float64) bool {
	return pos.X >= r && pos.X <= a.Width-r && pos.Y >= r && pos.Y <= a.Height-r
}

// Clamp moves pos onto the nearest point where a circle of radius r fits.
func (a Arena) Clamp(pos dynamo.Vector, r float64) dynamo.Vector {
	return dynamo.V(clamp(pos.X, r, a.Width-r), clamp(pos.Y, r, a.Height-r))
}

// Reflect negates each velocity component whose next position would leave
// the arena. Both axes may reflect in the same frame near a corner.
func (a Arena) Reflect(pos, vel dynamo.Vector, r float64) (dynamo.Vector, Reflection) {
	next := pos.Add(vel)
	var ref Reflection

	switch {
	case next.X < r:
		ref.X, ref.Target.X = true, r
	case next.X > a.Width-r:
		ref.X, ref.Target.X = true, a.Width-r
	}
	switch {
	case next.Y < r:
		ref.Y, ref.Target.Y = true, r
	case next.Y > a.Height-r:
		ref.Y, ref.Target.Y = true, a.Height-r
	}

	if ref.X {
		vel = vel.WithX(-vel.X)
	}
	if ref.Y {
		vel = vel.WithY(-vel.Y)
	}
	return vel, ref
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return (lo + hi) / 2
	}
	return math.Max(lo, math.Min(hi, v))
}
