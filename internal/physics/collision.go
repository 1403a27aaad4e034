package physics

import (
	"github.com/san-kum/ballsim/internal/dynamo"
)

// DefaultEpsilon is added to every overlap correction so corrected pairs end
// strictly apart.
const DefaultEpsilon = 1e-3

// Contact describes the outcome of one pairwise check.
type Contact struct {
	Overlap  float64
	Resolved bool
}

func (c Contact) Touching() bool { return c.Overlap > 0 }

// Elastic resolves a 1-D elastic impact along the line of centers of a and b.
// Tangential components pass through unchanged. When the pair is already
// separating (closing speed <= 0) or the centers coincide, the velocities are
// returned as given and ok is false.
func Elastic(a, b State) (va, vb dynamo.Vector, ok bool) {
	d := b.Position.Sub(a.Position)
	dist := d.Len()
	if dist == 0 {
		return a.Velocity, b.Velocity, false
	}
	n := d.Scale(1 / dist)

	an := a.Velocity.Dot(n)
	bn := b.Velocity.Dot(n)
	if an-bn <= 0 {
		return a.Velocity, b.Velocity, false
	}

	total := a.Mass + b.Mass
	an2 := (an*(a.Mass-b.Mass) + 2*b.Mass*bn) / total
	bn2 := (bn*(b.Mass-a.Mass) + 2*a.Mass*an) / total

	return a.Velocity.Add(n.Scale(an2 - an)), b.Velocity.Add(n.Scale(bn2 - bn)), true
}

// Separate returns the displacements that push an overlapping pair apart
// along the line of centers, each weighted by the other body's share of the
// total mass. overlap is zero when the pair does not interpenetrate.
func Separate(a, b State, epsilon float64) (da, db dynamo.Vector, overlap float64) {
	d := b.Position.Sub(a.Position)
	dist := d.Len()
	minDist := a.Radius() + b.Radius()
	if dist <= 0 || dist >= minDist {
		return dynamo.Vector{}, dynamo.Vector{}, 0
	}

	n := d.Scale(1 / dist)
	overlap = minDist - dist + epsilon
	total := a.Mass + b.Mass

	da = n.Scale(-overlap * b.Mass / total)
	db = n.Scale(overlap * a.Mass / total)
	return da, db, minDist - dist
}

// Collide checks a against b and, when they interpenetrate, applies the
// elastic response to both velocities and pushes both positions apart. It
// then looks one move ahead: a pair that would interpenetrate after Advance
// is resolved now, and pushed apart so the post-move centers are separated.
// The pair is locked in ascending id order.
func Collide(a, b *Body, epsilon float64) Contact {
	if a == b {
		return Contact{}
	}

	unlock := lockPair(a, b)
	defer unlock()

	var c Contact
	sa, sb := a.stateLocked(), b.stateLocked()
	if da, db, overlap := Separate(sa, sb, epsilon); overlap > 0 {
		c.Overlap = overlap
		c.Resolved = impact(a, b, sa, sb)
		a.position = a.position.Add(da)
		b.position = b.position.Add(db)
	}

	_, _, ahead := Separate(a.aheadLocked(), b.aheadLocked(), epsilon)
	if ahead == 0 {
		return c
	}
	c.Overlap = max(c.Overlap, ahead)
	if !c.Resolved {
		c.Resolved = impact(a, b, a.stateLocked(), b.stateLocked())
	}
	if da, db, overlap := Separate(a.aheadLocked(), b.aheadLocked(), epsilon); overlap > 0 {
		da, db = unpin(da, db, a.reflection, b.reflection)
		a.position = a.position.Add(da)
		b.position = b.position.Add(db)
	}
	return c
}

// unpin hands the share of a correction that falls on an axis pinned to a
// wall by this frame's reflection over to the other body.
func unpin(da, db dynamo.Vector, ra, rb Reflection) (dynamo.Vector, dynamo.Vector) {
	switch {
	case rb.X && !ra.X:
		da, db = da.WithX(da.X-db.X), db.WithX(0)
	case ra.X && !rb.X:
		da, db = da.WithX(0), db.WithX(db.X-da.X)
	}
	switch {
	case rb.Y && !ra.Y:
		da, db = da.WithY(da.Y-db.Y), db.WithY(0)
	case ra.Y && !rb.Y:
		da, db = da.WithY(0), db.WithY(db.Y-da.Y)
	}
	return da, db
}

// impact writes the elastic response for a closing pair. Both locks are held.
func impact(a, b *Body, sa, sb State) bool {
	va, vb, ok := Elastic(sa, sb)
	if ok {
		a.velocity, b.velocity = va, vb
	}
	return ok
}

// lockPair locks the lower id first and returns the matching unlock.
func lockPair(a, b *Body) func() {
	first, second := a, b
	if b.id < a.id {
		first, second = b, a
	}
	first.mu.Lock()
	second.mu.Lock()
	return func() {
		second.mu.Unlock()
		first.mu.Unlock()
	}
}
