package dynamo

import (
	"fmt"
	"math"
)

// Vector is an immutable 2D value. Every operation returns a new Vector.
type Vector struct {
	X float64
	Y float64
}

func V(x, y float64) Vector { return Vector{X: x, Y: y} }

func (v Vector) Add(o Vector) Vector { return Vector{X: v.X + o.X, Y: v.Y + o.Y} }

func (v Vector) Sub(o Vector) Vector { return Vector{X: v.X - o.X, Y: v.Y - o.Y} }

func (v Vector) Scale(f float64) Vector { return Vector{X: v.X * f, Y: v.Y * f} }

func (v Vector) Dot(o Vector) float64 { return v.X*o.X + v.Y*o.Y }

func (v Vector) Len() float64 { return math.Hypot(v.X, v.Y) }

// WithX returns a copy of v with X replaced.
func (v Vector) WithX(x float64) Vector { return Vector{X: x, Y: v.Y} }

// WithY returns a copy of v with Y replaced.
func (v Vector) WithY(y float64) Vector { return Vector{X: v.X, Y: y} }

func (v Vector) IsValid() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) && !math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

func (v Vector) String() string {
	return fmt.Sprintf("(%.3f, %.3f)", v.X, v.Y)
}
