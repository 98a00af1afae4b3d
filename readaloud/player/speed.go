package player

import (
	"fmt"
	"math"
	"sync"
)

// Speed presets
var (
	DefaultSpeedSteps = []float64{0.5, 0.75, 1.0, 1.25, 1.5, 2.0}
	DefaultSpeed      = 1.0
	MinSpeed          = 0.5
	MaxSpeed          = 2.0
)

// SpeedController manages playback speed with discrete steps. Discrete
// steps keep the word timing tables reusable: the estimator scales its
// speech rate by the same factor the audio output uses.
type SpeedController struct {
	mu      sync.RWMutex
	current float64
	steps   []float64
	index   int
}

// NewSpeedController creates a speed controller with the default steps.
func NewSpeedController() *SpeedController {
	return NewSpeedControllerWithSteps(DefaultSpeedSteps)
}

// NewSpeedControllerWithSteps creates a speed controller with custom steps.
func NewSpeedControllerWithSteps(steps []float64) *SpeedController {
	if len(steps) == 0 {
		steps = DefaultSpeedSteps
	}

	defaultIndex := 0
	for i, s := range steps {
		if math.Abs(s-DefaultSpeed) < 0.001 {
			defaultIndex = i
			break
		}
	}

	return &SpeedController{
		current: steps[defaultIndex],
		steps:   steps,
		index:   defaultIndex,
	}
}

// Speed returns the current speed setting.
func (sc *SpeedController) Speed() float64 {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.current
}

// SetSpeed snaps speed to the nearest discrete step.
func (sc *SpeedController) SetSpeed(speed float64) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if speed < MinSpeed || speed > MaxSpeed {
		return fmt.Errorf("speed %.2f out of range [%.2f, %.2f]", speed, MinSpeed, MaxSpeed)
	}

	nearest := 0
	minDiff := math.MaxFloat64
	for i, s := range sc.steps {
		if diff := math.Abs(s - speed); diff < minDiff {
			minDiff = diff
			nearest = i
		}
	}

	sc.index = nearest
	sc.current = sc.steps[nearest]
	return nil
}

// Faster moves to the next speed step.
func (sc *SpeedController) Faster() (float64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.index >= len(sc.steps)-1 {
		return sc.current, fmt.Errorf("already at maximum speed")
	}
	sc.index++
	sc.current = sc.steps[sc.index]
	return sc.current, nil
}

// Slower moves to the previous speed step.
func (sc *SpeedController) Slower() (float64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.index <= 0 {
		return sc.current, fmt.Errorf("already at minimum speed")
	}
	sc.index--
	sc.current = sc.steps[sc.index]
	return sc.current, nil
}

// Reset returns to the default speed.
func (sc *SpeedController) Reset() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	for i, s := range sc.steps {
		if math.Abs(s-DefaultSpeed) < 0.001 {
			sc.index = i
			sc.current = s
			return
		}
	}
	sc.index = 0
	sc.current = sc.steps[0]
}

// Steps returns the available speed steps.
func (sc *SpeedController) Steps() []float64 {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	out := make([]float64, len(sc.steps))
	copy(out, sc.steps)
	return out
}
