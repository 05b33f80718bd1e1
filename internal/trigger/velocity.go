package trigger

import "math"

// Curve shape constants. EXP curves compress soft hits and expand hard ones,
// LOG curves do the opposite; the second variant of each is the stronger one.
const (
	exp1Shape = 2.0
	exp2Shape = 4.0
	log1Shape = 4.0
	log2Shape = 9.0
)

// peakAmplitude returns the largest rectified sample in the window.
func peakAmplitude(window []float64) float64 {
	peak := 0.0
	for _, s := range window {
		if r := math.Abs(s); r > peak {
			peak = r
		}
	}
	return peak
}

// applyCurve maps a normalized amplitude through the selected curve. All
// curves are monotonic and map [0,1] onto [0,1].
func applyCurve(c CurveType, x float64) float64 {
	switch c {
	case CurveExp1:
		return math.Expm1(exp1Shape*x) / math.Expm1(exp1Shape)
	case CurveExp2:
		return math.Expm1(exp2Shape*x) / math.Expm1(exp2Shape)
	case CurveLog1:
		return math.Log1p(log1Shape*x) / math.Log1p(log1Shape)
	case CurveLog2:
		return math.Log1p(log2Shape*x) / math.Log1p(log2Shape)
	default:
		return x
	}
}

// velocityFromPeak maps a peak amplitude through the pad's calibrated curve
// to a MIDI velocity. Accepted hits never map below 1: an onset strong
// enough to fire the detector must produce an audible note.
func velocityFromPeak(peak float64, cal *CalibrationProfile) uint8 {
	norm := peak / cal.Sensitivity
	if norm > 1 {
		norm = 1
	}
	if norm < 0 {
		norm = 0
	}
	v := 1 + int(applyCurve(cal.Curve, norm)*126+0.5)
	if v > 127 {
		v = 127
	}
	return uint8(v)
}
