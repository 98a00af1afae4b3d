package player

import "testing"

func TestSpeedDefaults(t *testing.T) {
	sc := NewSpeedController()
	if got := sc.Speed(); got != 1.0 {
		t.Errorf("default speed = %v, want 1.0", got)
	}
}

func TestSetSpeedSnapsToNearestStep(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.5, 0.5},
		{0.6, 0.5},
		{0.7, 0.75},
		{1.0, 1.0},
		{1.1, 1.0},
		{1.2, 1.25},
		{1.6, 1.5},
		{1.9, 2.0},
		{2.0, 2.0},
	}
	for _, tt := range tests {
		sc := NewSpeedController()
		if err := sc.SetSpeed(tt.in); err != nil {
			t.Errorf("SetSpeed(%v) failed: %v", tt.in, err)
			continue
		}
		if got := sc.Speed(); got != tt.want {
			t.Errorf("SetSpeed(%v) snapped to %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetSpeedRejectsOutOfRange(t *testing.T) {
	sc := NewSpeedController()
	for _, speed := range []float64{0.4, 2.1, -1, 0} {
		if err := sc.SetSpeed(speed); err == nil {
			t.Errorf("SetSpeed(%v) should fail", speed)
		}
	}
	if got := sc.Speed(); got != 1.0 {
		t.Errorf("speed after rejected sets = %v, want 1.0", got)
	}
}

func TestStepBounds(t *testing.T) {
	sc := NewSpeedController()

	// Step all the way up.
	for i := 0; i < 10; i++ {
		sc.Faster() //nolint:errcheck
	}
	if got := sc.Speed(); got != 2.0 {
		t.Errorf("max speed = %v, want 2.0", got)
	}
	if _, err := sc.Faster(); err == nil {
		t.Error("Faster at max should error")
	}

	// And all the way down.
	for i := 0; i < 10; i++ {
		sc.Slower() //nolint:errcheck
	}
	if got := sc.Speed(); got != 0.5 {
		t.Errorf("min speed = %v, want 0.5", got)
	}
	if _, err := sc.Slower(); err == nil {
		t.Error("Slower at min should error")
	}
}

func TestReset(t *testing.T) {
	sc := NewSpeedController()
	if err := sc.SetSpeed(2.0); err != nil {
		t.Fatalf("SetSpeed failed: %v", err)
	}
	sc.Reset()
	if got := sc.Speed(); got != 1.0 {
		t.Errorf("speed after Reset = %v, want 1.0", got)
	}
}

func TestCustomSteps(t *testing.T) {
	sc := NewSpeedControllerWithSteps([]float64{0.8, 1.0, 1.2})
	if got := sc.Speed(); got != 1.0 {
		t.Errorf("default on custom steps = %v, want 1.0", got)
	}
	if err := sc.SetSpeed(1.15); err != nil {
		t.Fatalf("SetSpeed failed: %v", err)
	}
	if got := sc.Speed(); got != 1.2 {
		t.Errorf("snapped to %v, want 1.2", got)
	}
	if got := len(sc.Steps()); got != 3 {
		t.Errorf("steps len = %d, want 3", got)
	}
}
