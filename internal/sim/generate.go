package sim

import (
	"math/rand"

	"github.com/san-kum/ballsim/internal/dynamo"
	"github.com/san-kum/ballsim/internal/physics"
)

// placementAttempts bounds the redraws spent looking for a free spot. A body
// that finds none keeps its last draw and is separated by the first frame.
const placementAttempts = 64

// randomSpecs draws count bodies that fit the arena and are all moving. Each
// body is placed clear of the ones drawn before it when the arena has room.
func randomSpecs(rng *rand.Rand, cfg Config, count int) []physics.Spec {
	specs := make([]physics.Spec, count)
	for i := range specs {
		d := float64(cfg.MinDiameter + rng.Intn(cfg.MaxDiameter-cfg.MinDiameter+1))
		r := d / 2

		var pos dynamo.Vector
		for attempt := 0; attempt < placementAttempts; attempt++ {
			pos = dynamo.V(
				r+rng.Float64()*(cfg.Arena.Width-d),
				r+rng.Float64()*(cfg.Arena.Height-d),
			)
			if placeable(specs[:i], pos, r) {
				break
			}
		}

		specs[i] = physics.Spec{
			Position: pos,
			Velocity: randomVelocity(rng, cfg.MaxSpeed),
			Diameter: d,
			Mass:     physics.MassFor(d, cfg.Density),
		}
	}
	return specs
}

func placeable(placed []physics.Spec, pos dynamo.Vector, r float64) bool {
	for _, s := range placed {
		if pos.Sub(s.Position).Len() < r+s.Diameter/2 {
			return false
		}
	}
	return true
}

// randomVelocity resamples until both components are non-zero.
func randomVelocity(rng *rand.Rand, maxSpeed float64) dynamo.Vector {
	for {
		v := dynamo.V((rng.Float64()*2-1)*maxSpeed, (rng.Float64()*2-1)*maxSpeed)
		if v.X != 0 && v.Y != 0 {
			return v
		}
	}
}
