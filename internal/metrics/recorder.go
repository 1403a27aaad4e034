package metrics

import (
	"sync"

	"github.com/san-kum/ballsim/internal/sim"
)

type Metric interface {
	Name() string
	Observe(f sim.Frame)
	Value() float64
	Reset()
}

// Recorder is a frame observer that feeds metrics and keeps a bounded
// history of kinetic energy and the latest frame.
type Recorder struct {
	mu       sync.Mutex
	metrics  []Metric
	history  []float64
	capacity int
	last     sim.Frame
}

func NewRecorder(capacity int, metrics ...Metric) *Recorder {
	return &Recorder{
		metrics:  metrics,
		history:  make([]float64, 0, capacity),
		capacity: capacity,
	}
}

// Default returns the metrics every run reports.
func Default(cfg sim.Config) []Metric {
	return []Metric{
		NewEnergy(),
		NewEnergyDrift(),
		NewContainment(cfg.Arena),
		NewPenetration(),
	}
}

func (r *Recorder) OnFrame(f sim.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.metrics {
		m.Observe(f)
	}
	if r.capacity > 0 {
		if len(r.history) == r.capacity {
			copy(r.history, r.history[1:])
			r.history = r.history[:r.capacity-1]
		}
		r.history = append(r.history, KineticEnergy(f.Bodies))
	}
	r.last = f
}

// Last returns the most recent frame.
func (r *Recorder) Last() sim.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// History returns a copy of the kinetic energy history, oldest first.
func (r *Recorder) History() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float64, len(r.history))
	copy(out, r.history)
	return out
}

// Values returns each metric value keyed by name.
func (r *Recorder) Values() map[string]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]float64, len(r.metrics))
	for _, m := range r.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.metrics {
		m.Reset()
	}
	r.history = r.history[:0]
	r.last = sim.Frame{}
}
