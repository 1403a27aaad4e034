package dynamo

import (
	"errors"
	"math"
	"testing"
)

func TestVector_Arithmetic(t *testing.T) {
	a := V(1, 2)
	b := V(4, 6)

	if got := a.Add(b); got != V(5, 8) {
		t.Errorf("Add failed: got %v", got)
	}
	if got := b.Sub(a); got != V(3, 4) {
		t.Errorf("Sub failed: got %v", got)
	}
	if got := a.Scale(2); got != V(2, 4) {
		t.Errorf("Scale failed: got %v", got)
	}
	if got := a.Dot(b); got != 16 {
		t.Errorf("Dot failed: got %v", got)
	}
	if got := b.Sub(a).Len(); math.Abs(got-5) > 1e-12 {
		t.Errorf("Len failed: got %v", got)
	}
	if a != V(1, 2) {
		t.Error("operations mutated the receiver")
	}
}

func TestVector_With(t *testing.T) {
	v := V(1, 2)
	if got := v.WithX(7); got != V(7, 2) {
		t.Errorf("WithX failed: got %v", got)
	}
	if got := v.WithY(7); got != V(1, 7) {
		t.Errorf("WithY failed: got %v", got)
	}
}

func TestVector_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		v     Vector
		valid bool
	}{
		{"zero", V(0, 0), true},
		{"normal", V(-3, 4), true},
		{"NaN x", V(math.NaN(), 0), false},
		{"Inf y", V(0, math.Inf(-1)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestWorkerFault(t *testing.T) {
	cause := errors.New("boom")
	err := error(&WorkerFault{ID: 3, Phase: PhaseMoving, Value: cause})

	expected := "dynamo: worker 3 faulted while moving: boom"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, cause) {
		t.Error("expected fault to unwrap to its cause")
	}

	var fault *WorkerFault
	if !errors.As(err, &fault) || fault.ID != 3 {
		t.Error("expected errors.As to recover the fault")
	}

	plain := &WorkerFault{ID: 1, Phase: PhaseComputing, Value: "text"}
	if plain.Unwrap() != nil {
		t.Error("non-error panic value should not unwrap")
	}
}
