package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPeakAmplitude(t *testing.T) {
	assert.Equal(t, 0.0, peakAmplitude(nil))
	assert.Equal(t, 0.8, peakAmplitude([]float64{0.1, -0.8, 0.3}))
}

func TestVelocityBounds(t *testing.T) {
	cal := DefaultCalibration(PadPD8)
	cal.Sensitivity = 1.0

	for _, curve := range []CurveType{CurveLinear, CurveExp1, CurveExp2, CurveLog1, CurveLog2} {
		cal.Curve = curve
		assert.Equal(t, uint8(1), velocityFromPeak(0, &cal), "curve %s floor", curve)
		assert.Equal(t, uint8(127), velocityFromPeak(1.0, &cal), "curve %s ceiling", curve)
		assert.Equal(t, uint8(127), velocityFromPeak(2.0, &cal), "curve %s clamps overdrive", curve)
	}
}

func TestVelocityMonotonic(t *testing.T) {
	cal := DefaultCalibration(PadPD8)
	cal.Sensitivity = 1.0

	for _, curve := range []CurveType{CurveLinear, CurveExp1, CurveExp2, CurveLog1, CurveLog2} {
		cal.Curve = curve
		prev := uint8(0)
		for peak := 0.0; peak <= 1.0; peak += 0.01 {
			v := velocityFromPeak(peak, &cal)
			assert.GreaterOrEqual(t, v, prev, "curve %s at peak %v", curve, peak)
			prev = v
		}
	}
}

func TestVelocityLinearMapping(t *testing.T) {
	cal := DefaultCalibration(PadPD8)
	cal.Sensitivity = 1.0
	cal.Curve = CurveLinear

	// 80% of full scale through the linear curve.
	assert.Equal(t, uint8(1+101), velocityFromPeak(0.8, &cal))
}

func TestVelocityCurveShapes(t *testing.T) {
	cal := DefaultCalibration(PadPD8)
	cal.Sensitivity = 1.0

	// At mid scale: log curves lift soft hits, exp curves compress them.
	cal.Curve = CurveLinear
	lin := velocityFromPeak(0.5, &cal)
	cal.Curve = CurveLog1
	log1 := velocityFromPeak(0.5, &cal)
	cal.Curve = CurveExp1
	exp1 := velocityFromPeak(0.5, &cal)

	assert.Greater(t, log1, lin)
	assert.Less(t, exp1, lin)
}

func TestVelocityDeterministic(t *testing.T) {
	cal := DefaultCalibration(PadPD120)
	for i := 0; i < 10; i++ {
		assert.Equal(t, velocityFromPeak(0.42, &cal), velocityFromPeak(0.42, &cal))
	}
}

func TestVelocitySensitivityScaling(t *testing.T) {
	cal := DefaultCalibration(PadPD8)
	cal.Curve = CurveLinear

	cal.Sensitivity = 0.5
	assert.Equal(t, uint8(127), velocityFromPeak(0.5, &cal),
		"peak at sensitivity maps to full velocity")
}
