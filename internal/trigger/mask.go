package trigger

import "math"

// MaskState is the per-pad retrigger suppression state.
type MaskState int

const (
	// MaskIdle means onset evaluation runs at the nominal threshold.
	MaskIdle MaskState = iota
	// MaskTriggered means an onset fired and the hit is being analyzed.
	MaskTriggered
	// MaskMasked means all onset evaluation is suppressed outright.
	MaskMasked
	// MaskDecaying means evaluation runs against an elevated threshold that
	// decays back toward nominal, tracking the pad's mechanical ring-down.
	MaskDecaying
)

func (s MaskState) String() string {
	switch s {
	case MaskIdle:
		return "idle"
	case MaskTriggered:
		return "triggered"
	case MaskMasked:
		return "masked"
	case MaskDecaying:
		return "decaying"
	}
	return "unknown"
}

// Below this fraction of the nominal threshold the elevation is treated as
// fully decayed.
const decayEpsilon = 0.05

// maskController is the per-pad state machine guarding against
// double-triggers. Every transition is driven by the pad's sample clock, so
// replaying a sample stream yields identical behaviour regardless of
// scheduling.
type maskController struct {
	state     MaskState
	enteredAt uint64 // sample index of the last state change

	maskSamples     uint64
	decayMaxSamples uint64
	decayCoef       float64 // per-sample multiplier on the threshold elevation
	decayFactor     float64

	elevation float64 // current threshold boost while decaying
	pending   float64 // elevation to install when the mask elapses
}

func newMaskController(cal *CalibrationProfile, sampleRate int) *maskController {
	m := &maskController{}
	m.retune(cal, sampleRate)
	return m
}

// retune recomputes the sample-clock constants after a calibration swap.
// The current state is preserved; only the timing of future transitions
// changes.
func (m *maskController) retune(cal *CalibrationProfile, sampleRate int) {
	m.maskSamples = msToSamples(cal.MaskMs, sampleRate)
	m.decayMaxSamples = msToSamples(cal.DecayMaxMs, sampleRate)
	m.decayFactor = cal.DecayFactor
	if cal.DecayMs > 0 {
		m.decayCoef = math.Exp(-1000.0 / (cal.DecayMs * float64(sampleRate)))
	} else {
		m.decayCoef = 0
	}
}

func msToSamples(ms float64, sampleRate int) uint64 {
	if ms <= 0 {
		return 0
	}
	return uint64(ms * float64(sampleRate) / 1000.0)
}

// State returns the current mask state.
func (m *maskController) State() MaskState { return m.state }

// canDetect reports whether onset evaluation may run this tick.
func (m *maskController) canDetect() bool {
	return m.state == MaskIdle || m.state == MaskDecaying
}

// boost returns the current threshold elevation; zero outside Decaying.
func (m *maskController) boost() float64 {
	if m.state != MaskDecaying {
		return 0
	}
	return m.elevation
}

// advance performs the timed transitions for the given sample index. It must
// be called exactly once per tick, before onset evaluation. nominal is the
// pad's configured threshold, used to decide when the elevation has decayed
// back to insignificance.
func (m *maskController) advance(idx uint64, nominal float64) {
	switch m.state {
	case MaskMasked:
		if idx-m.enteredAt >= m.maskSamples {
			m.state = MaskDecaying
			m.enteredAt = idx
			m.elevation = m.pending
		}
	case MaskDecaying:
		m.elevation *= m.decayCoef
		if m.elevation <= nominal*decayEpsilon || idx-m.enteredAt >= m.decayMaxSamples {
			m.state = MaskIdle
			m.enteredAt = idx
			m.elevation = 0
		}
	}
}

// trigger moves Idle/Decaying to Triggered when an onset fires.
func (m *maskController) trigger(idx uint64) {
	m.state = MaskTriggered
	m.enteredAt = idx
}

// maskFrom moves Triggered to Masked once the hit event is emitted. peak is
// the hit's peak amplitude; the decaying threshold elevation is scaled from
// it so hard hits are guarded longer than soft ones.
func (m *maskController) maskFrom(idx uint64, peak float64) {
	m.state = MaskMasked
	m.enteredAt = idx
	m.pending = peak * m.decayFactor
}
