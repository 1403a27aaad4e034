package analysis

import "github.com/san-kum/ballsim/internal/diagnostics"

// Field extracts one value from a diagnostics record.
type Field func(diagnostics.Record) float64

var (
	PositionX Field = func(r diagnostics.Record) float64 { return r.Position.X }
	PositionY Field = func(r diagnostics.Record) float64 { return r.Position.Y }
	Speed     Field = func(r diagnostics.Record) float64 { return r.Velocity.Len() }
)

// Series collects field for body id in log order.
func Series(records []diagnostics.Record, id int, field Field) []float64 {
	var out []float64
	for _, r := range records {
		if r.ID == id {
			out = append(out, field(r))
		}
	}
	return out
}

// WallHits counts the samples at which the sign of the series' slope flips,
// which for a position series is one per bounce.
func WallHits(series []float64) int {
	hits := 0
	prev := 0.0
	for i := 1; i < len(series); i++ {
		d := series[i] - series[i-1]
		if d == 0 {
			continue
		}
		if prev != 0 && (d > 0) != (prev > 0) {
			hits++
		}
		prev = d
	}
	return hits
}
