package physics

import (
	"fmt"
	"math"
	"sync"

	"github.com/san-kum/ballsim/internal/dynamo"
)

// MoveHandler receives the new position of a body after every committed move.
type MoveHandler func(position dynamo.Vector)

// Spec describes a body to create.
type Spec struct {
	Position dynamo.Vector
	Velocity dynamo.Vector
	Diameter float64
	Mass     float64
}

// State is a consistent copy of a body taken under its lock.
type State struct {
	ID       int
	Position dynamo.Vector
	Velocity dynamo.Vector
	Diameter float64
	Mass     float64
}

func (s State) Radius() float64 { return s.Diameter / 2 }

// MassFor derives a body mass from its diameter: pi*d^2 / (4*density).
func MassFor(diameter, density float64) float64 {
	return math.Pi * diameter * diameter / (4 * density)
}

// Validate checks that the spec describes a non-degenerate body inside arena.
func (s Spec) Validate(arena Arena) error {
	if !(s.Diameter > 0) || !(s.Mass > 0) {
		return fmt.Errorf("%w: diameter %.3f and mass %.3f must be positive", dynamo.ErrInvalidArgument, s.Diameter, s.Mass)
	}
	if !s.Position.IsValid() || !s.Velocity.IsValid() {
		return fmt.Errorf("%w: non-finite position or velocity", dynamo.ErrInvalidArgument)
	}
	if !arena.Fits(s.Position, s.Diameter/2) {
		return fmt.Errorf("%w: body at %v with diameter %.1f does not fit the arena", dynamo.ErrInvalidArgument, s.Position, s.Diameter)
	}
	return nil
}

// Body is a circular ball. Diameter and mass never change; position and
// velocity are only touched while mu is held.
type Body struct {
	id       int
	diameter float64
	mass     float64

	mu         sync.Mutex
	position   dynamo.Vector
	velocity   dynamo.Vector
	reflection Reflection

	handlersMu sync.RWMutex
	handlers   []MoveHandler
}

func NewBody(id int, spec Spec) *Body {
	return &Body{
		id:       id,
		diameter: spec.Diameter,
		mass:     spec.Mass,
		position: spec.Position,
		velocity: spec.Velocity,
	}
}

func (b *Body) ID() int           { return b.id }
func (b *Body) Diameter() float64 { return b.diameter }
func (b *Body) Radius() float64   { return b.diameter / 2 }
func (b *Body) Mass() float64     { return b.mass }

// OnMove registers h to run after every committed move of b.
func (b *Body) OnMove(h MoveHandler) {
	b.handlersMu.Lock()
	b.handlers = append(b.handlers, h)
	b.handlersMu.Unlock()
}

func (b *Body) Position() dynamo.Vector {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.position
}

func (b *Body) Velocity() dynamo.Vector {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.velocity
}

func (b *Body) SetVelocity(v dynamo.Vector) {
	b.mu.Lock()
	b.velocity = v
	b.mu.Unlock()
}

func (b *Body) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked()
}

// Move displaces the body by delta and notifies handlers.
func (b *Body) Move(delta dynamo.Vector) {
	b.mu.Lock()
	b.position = b.position.Add(delta)
	pos := b.position
	b.mu.Unlock()

	b.notify(pos)
}

// Reflect plans the wall bounce for the coming move: any axis whose next
// position leaves the arena gets its velocity negated and is clamped to the
// wall by Advance.
func (b *Body) Reflect(arena Arena) Reflection {
	b.mu.Lock()
	defer b.mu.Unlock()

	vel, ref := arena.Reflect(b.position, b.velocity, b.Radius())
	b.velocity = vel
	b.reflection = ref
	return ref
}

// Advance applies one frame of velocity. Axes that reflected this frame land
// on the wall instead. The result is always clamped into the arena.
func (b *Body) Advance(arena Arena) State {
	b.mu.Lock()
	delta := b.velocity
	if b.reflection.X {
		delta = delta.WithX(b.reflection.Target.X - b.position.X)
	}
	if b.reflection.Y {
		delta = delta.WithY(b.reflection.Target.Y - b.position.Y)
	}
	b.reflection = Reflection{}
	b.position = arena.Clamp(b.position.Add(delta), b.Radius())
	st := b.stateLocked()
	b.mu.Unlock()

	b.notify(st.Position)
	return st
}

// aheadLocked is the state Advance would commit with the current velocity
// and reflection plan, ignoring the final arena clamp.
func (b *Body) aheadLocked() State {
	st := b.stateLocked()
	st.Position = st.Position.Add(st.Velocity)
	if b.reflection.X {
		st.Position = st.Position.WithX(b.reflection.Target.X)
	}
	if b.reflection.Y {
		st.Position = st.Position.WithY(b.reflection.Target.Y)
	}
	return st
}

func (b *Body) stateLocked() State {
	return State{
		ID:       b.id,
		Position: b.position,
		Velocity: b.velocity,
		Diameter: b.diameter,
		Mass:     b.mass,
	}
}

// notify runs outside mu so handlers may read the body.
func (b *Body) notify(pos dynamo.Vector) {
	b.handlersMu.RLock()
	handlers := b.handlers
	b.handlersMu.RUnlock()

	for _, h := range handlers {
		h(pos)
	}
}
