package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMaskCalibration() CalibrationProfile {
	cal := DefaultCalibration(PadPD8)
	cal.Threshold = 0.2
	cal.MaskMs = 10
	cal.DecayMs = 30
	cal.DecayMaxMs = 100
	cal.DecayFactor = 0.7
	return cal
}

func TestMaskControllerInitialState(t *testing.T) {
	cal := testMaskCalibration()
	m := newMaskController(&cal, testRate)

	assert.Equal(t, MaskIdle, m.State())
	assert.True(t, m.canDetect())
	assert.Equal(t, 0.0, m.boost())
}

func TestMaskControllerTriggerToMasked(t *testing.T) {
	cal := testMaskCalibration()
	m := newMaskController(&cal, testRate)

	m.trigger(0)
	assert.Equal(t, MaskTriggered, m.State())
	assert.False(t, m.canDetect())

	m.maskFrom(16, 0.8)
	assert.Equal(t, MaskMasked, m.State())
	assert.False(t, m.canDetect())
}

func TestMaskControllerMaskDuration(t *testing.T) {
	cal := testMaskCalibration()
	m := newMaskController(&cal, testRate)
	m.trigger(0)
	m.maskFrom(0, 0.8)

	// 10 ms at 8 kHz is 80 samples. One sample short, still masked.
	var idx uint64
	for idx = 1; idx < 80; idx++ {
		m.advance(idx, cal.Threshold)
		require.Equal(t, MaskMasked, m.State(), "sample %d", idx)
	}

	m.advance(80, cal.Threshold)
	assert.Equal(t, MaskDecaying, m.State())
	assert.True(t, m.canDetect(), "onset evaluation resumes while decaying")
}

func TestMaskControllerDecayElevation(t *testing.T) {
	cal := testMaskCalibration()
	m := newMaskController(&cal, testRate)
	m.trigger(0)
	m.maskFrom(0, 0.8)

	var idx uint64
	for idx = 1; m.State() != MaskDecaying; idx++ {
		m.advance(idx, cal.Threshold)
	}

	first := m.boost()
	assert.Greater(t, first, 0.4, "elevation starts near peak*factor")

	// The elevation must decay monotonically toward zero.
	prev := first
	for i := 0; i < 200 && m.State() == MaskDecaying; i++ {
		m.advance(idx, cal.Threshold)
		idx++
		assert.LessOrEqual(t, m.boost(), prev)
		prev = m.boost()
	}
}

func TestMaskControllerDecayToIdle(t *testing.T) {
	cal := testMaskCalibration()
	m := newMaskController(&cal, testRate)
	m.trigger(0)
	m.maskFrom(0, 0.8)

	// Run well past mask + max decay time.
	for idx := uint64(1); idx < msToSamples(cal.MaskMs+cal.DecayMaxMs, testRate)+10; idx++ {
		m.advance(idx, cal.Threshold)
	}
	assert.Equal(t, MaskIdle, m.State())
	assert.Equal(t, 0.0, m.boost())
}

func TestMaskControllerSoftHitShortGuard(t *testing.T) {
	cal := testMaskCalibration()
	hard := newMaskController(&cal, testRate)
	soft := newMaskController(&cal, testRate)

	hard.trigger(0)
	hard.maskFrom(0, 0.9)
	soft.trigger(0)
	soft.maskFrom(0, 0.1)

	var idx uint64
	for idx = 1; hard.State() != MaskDecaying; idx++ {
		hard.advance(idx, cal.Threshold)
		soft.advance(idx, cal.Threshold)
	}
	assert.Greater(t, hard.boost(), soft.boost(),
		"hard hits get a higher decaying guard than soft hits")
}

func TestMaskControllerRetunePreservesState(t *testing.T) {
	cal := testMaskCalibration()
	m := newMaskController(&cal, testRate)
	m.trigger(0)
	m.maskFrom(0, 0.8)

	cal.MaskMs = 20
	m.retune(&cal, testRate)
	assert.Equal(t, MaskMasked, m.State())

	// The longer mask applies immediately: not yet elapsed at 12 ms.
	m.advance(msToSamples(12, testRate), cal.Threshold)
	assert.Equal(t, MaskMasked, m.State())
	m.advance(msToSamples(20, testRate), cal.Threshold)
	assert.Equal(t, MaskDecaying, m.State())
}

func TestMaskStateString(t *testing.T) {
	assert.Equal(t, "idle", MaskIdle.String())
	assert.Equal(t, "triggered", MaskTriggered.String())
	assert.Equal(t, "masked", MaskMasked.String())
	assert.Equal(t, "decaying", MaskDecaying.String())
}
