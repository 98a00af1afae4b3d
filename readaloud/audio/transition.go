package audio

import (
	"math"
	"time"
)

// Curve shapes the crossfade gain ramp. Both curves are retained as
// configuration options; exponential is the default.
type Curve int

const (
	// CurveExponential ramps gain exponentially, which tracks perceived
	// loudness more closely than a linear ramp.
	CurveExponential Curve = iota
	// CurveLinear ramps gain linearly.
	CurveLinear
)

// ParseCurve maps a config string to a Curve.
func ParseCurve(s string) Curve {
	if s == "linear" {
		return CurveLinear
	}
	return CurveExponential
}

// String returns the config name of the curve.
func (c Curve) String() string {
	if c == CurveLinear {
		return "linear"
	}
	return "exponential"
}

// expCurveK controls the steepness of the exponential ramp.
const expCurveK = 3.0

// Gain returns the incoming handle's gain for ramp progress in [0,1].
// The outgoing handle uses Gain(1-progress), keeping the pair symmetric.
func (c Curve) Gain(progress float64) float64 {
	if progress <= 0 {
		return 0
	}
	if progress >= 1 {
		return 1
	}
	if c == CurveLinear {
		return progress
	}
	return (math.Exp(expCurveK*progress) - 1) / (math.Exp(expCurveK) - 1)
}

// transition tracks one in-flight crossfade between two pooled handles.
type transition struct {
	currentID string
	nextID    string
	ramping   bool
	rampStart time.Time
	// abrupt is set when the gain stage is unavailable and the switch must
	// degrade to pause-then-play at the end of the current handle.
	abrupt bool
}
