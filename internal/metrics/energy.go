package metrics

import (
	"math"

	"github.com/san-kum/ballsim/internal/dynamo"
	"github.com/san-kum/ballsim/internal/physics"
	"github.com/san-kum/ballsim/internal/sim"
)

// KineticEnergy sums 1/2*m*|v|^2 over states.
func KineticEnergy(states []physics.State) float64 {
	e := 0.0
	for _, s := range states {
		e += 0.5 * s.Mass * s.Velocity.Dot(s.Velocity)
	}
	return e
}

// Momentum sums m*v over states.
func Momentum(states []physics.State) dynamo.Vector {
	var p dynamo.Vector
	for _, s := range states {
		p = p.Add(s.Velocity.Scale(s.Mass))
	}
	return p
}

type Energy struct {
	name    string
	current float64
	samples int
}

func NewEnergy() *Energy {
	return &Energy{name: "energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(f sim.Frame) {
	e.current = KineticEnergy(f.Bodies)
	e.samples++
}

func (e *Energy) Value() float64 { return e.current }

func (e *Energy) Reset() {
	e.current = 0
	e.samples = 0
}

// EnergyDrift tracks the largest relative change of kinetic energy from the
// first observed frame.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(f sim.Frame) {
	energy := KineticEnergy(f.Bodies)
	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
