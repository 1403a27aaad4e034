package metrics

import (
	"math"

	"github.com/san-kum/ballsim/internal/physics"
	"github.com/san-kum/ballsim/internal/sim"
)

// MaxPenetration returns the deepest pairwise interpenetration in states.
func MaxPenetration(states []physics.State) float64 {
	worst := 0.0
	for i := range states {
		for j := i + 1; j < len(states); j++ {
			d := states[j].Position.Sub(states[i].Position).Len()
			worst = math.Max(worst, states[i].Radius()+states[j].Radius()-d)
		}
	}
	return worst
}

// Escaped returns the ids of bodies that do not fit the arena.
func Escaped(arena physics.Arena, states []physics.State) []int {
	var out []int
	for _, s := range states {
		if !arena.Fits(s.Position, s.Radius()) {
			out = append(out, s.ID)
		}
	}
	return out
}

// Containment is the fraction of frames in which every body fit the arena.
type Containment struct {
	name       string
	arena      physics.Arena
	violations int
	samples    int
}

func NewContainment(arena physics.Arena) *Containment {
	return &Containment{
		name:  "containment",
		arena: arena,
	}
}

func (c *Containment) Name() string { return c.name }

func (c *Containment) Observe(f sim.Frame) {
	c.samples++
	if len(Escaped(c.arena, f.Bodies)) > 0 {
		c.violations++
	}
}

func (c *Containment) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

func (c *Containment) Reset() {
	c.violations = 0
	c.samples = 0
}

// Penetration is the deepest overlap seen at the end of any frame.
type Penetration struct {
	name  string
	worst float64
}

func NewPenetration() *Penetration {
	return &Penetration{name: "max_penetration"}
}

func (p *Penetration) Name() string { return p.name }

func (p *Penetration) Observe(f sim.Frame) {
	p.worst = math.Max(p.worst, MaxPenetration(f.Bodies))
}

func (p *Penetration) Value() float64 { return p.worst }

func (p *Penetration) Reset() { p.worst = 0 }
