package audio

import (
	"math"
	"testing"
)

func TestCurveGainEndpoints(t *testing.T) {
	for _, curve := range []Curve{CurveExponential, CurveLinear} {
		if got := curve.Gain(0); got != 0 {
			t.Errorf("%v.Gain(0) = %v, want 0", curve, got)
		}
		if got := curve.Gain(1); got != 1 {
			t.Errorf("%v.Gain(1) = %v, want 1", curve, got)
		}
		if got := curve.Gain(-0.5); got != 0 {
			t.Errorf("%v.Gain(-0.5) = %v, want 0", curve, got)
		}
		if got := curve.Gain(1.5); got != 1 {
			t.Errorf("%v.Gain(1.5) = %v, want 1", curve, got)
		}
	}
}

func TestCurveGainMonotonic(t *testing.T) {
	for _, curve := range []Curve{CurveExponential, CurveLinear} {
		prev := -1.0
		for p := 0.0; p <= 1.0; p += 0.05 {
			g := curve.Gain(p)
			if g < prev {
				t.Fatalf("%v.Gain not monotonic at %v: %v < %v", curve, p, g, prev)
			}
			prev = g
		}
	}
}

func TestLinearGainMidpoint(t *testing.T) {
	if got := CurveLinear.Gain(0.5); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("CurveLinear.Gain(0.5) = %v, want 0.5", got)
	}
}

func TestExponentialGainStartsBelowLinear(t *testing.T) {
	if exp, lin := CurveExponential.Gain(0.5), CurveLinear.Gain(0.5); exp >= lin {
		t.Errorf("exponential midpoint gain %v should be below linear %v", exp, lin)
	}
}

func TestCrossfadePairSumsNearUnityAtEdges(t *testing.T) {
	// Outgoing gain is Gain(1-p); at the edges the pair must hand off
	// completely.
	for _, curve := range []Curve{CurveExponential, CurveLinear} {
		if got := curve.Gain(0) + curve.Gain(1); got != 1 {
			t.Errorf("%v edge pair sum = %v, want 1", curve, got)
		}
	}
}

func TestParseCurve(t *testing.T) {
	tests := []struct {
		in   string
		want Curve
	}{
		{"linear", CurveLinear},
		{"exponential", CurveExponential},
		{"", CurveExponential},
		{"bogus", CurveExponential},
	}
	for _, tt := range tests {
		if got := ParseCurve(tt.in); got != tt.want {
			t.Errorf("ParseCurve(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if got := ParseCurve(tt.want.String()); got != tt.want {
			t.Errorf("ParseCurve round trip failed for %v", tt.want)
		}
	}
}
