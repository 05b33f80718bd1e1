package trigger

// PadType identifies a supported pad hardware model. The preset table below
// seeds per-pad calibration; users tune from there.
type PadType string

const (
	PadPD120 PadType = "PD120" // 12" mesh snare, dual piezo, positional sensing
	PadPD80R PadType = "PD80R" // 8" mesh with rim switch
	PadPD8   PadType = "PD8"   // 8" rubber dual-zone
	PadKD7   PadType = "KD7"   // kick trigger, single piezo
	PadCY8   PadType = "CY8"   // 8" cymbal, dual-zone
	PadTP80  PadType = "TP80"  // single-zone rubber tom
)

// CurveType selects the velocity mapping curve.
type CurveType string

const (
	CurveLinear CurveType = "LINEAR"
	CurveExp1   CurveType = "EXP1"
	CurveExp2   CurveType = "EXP2"
	CurveLog1   CurveType = "LOG1"
	CurveLog2   CurveType = "LOG2"
)

// CalibrationProfile holds the per-pad tunable constants of the detection
// pipeline. All amplitudes are full-scale normalized (1.0 = sensor maximum),
// all times are in milliseconds so they convert exactly to sample counts at
// the configured rate. The core treats a profile as read-only; updates are
// applied through an atomic swap between sample ticks.
type CalibrationProfile struct {
	// Onset detection
	Threshold   float64 `json:"threshold"`    // required envelope rise above the noise floor
	MinSlope    float64 `json:"min_slope"`    // minimum per-sample rise for a transient attack
	MaskMs      float64 `json:"mask_ms"`      // hard retrigger mask after a hit
	DecayMs     float64 `json:"decay_ms"`     // elevated-threshold decay time constant
	DecayMaxMs  float64 `json:"decay_max_ms"` // upper bound on the decaying phase
	DecayFactor float64 `json:"decay_factor"` // elevated threshold = hit peak * factor
	SpikeReject bool    `json:"spike_reject"` // median-of-three ADC spike suppression

	// Velocity
	Sensitivity float64   `json:"sensitivity"` // peak amplitude mapped to velocity 127
	Curve       CurveType `json:"curve"`
	ScanMs      float64   `json:"scan_ms"` // post-onset peak-search window

	// Rim / second zone (dual-sensor pads)
	RimThreshold float64 `json:"rim_threshold"` // secondary/primary peak ratio for a rim strike

	// Positional sensing
	PositionalSensing bool    `json:"positional_sensing"`
	PosThreshold      float64 `json:"pos_threshold"` // minimum peak for a position estimate
	PosLow            float64 `json:"pos_low"`       // metric value mapping to position 0.0
	PosHigh           float64 `json:"pos_high"`      // metric value mapping to position 1.0
	PosDefault        float64 `json:"pos_default"`   // fallback position (pad center)
}

// PadConfig describes one physical pad: identity, sensor topology, MIDI
// mapping and calibration.
type PadConfig struct {
	ID          int                `json:"id"`
	Name        string             `json:"name"`
	Type        PadType            `json:"type"`
	Sensors     int                `json:"sensors"` // 1 or 2
	Note        uint8              `json:"note"`
	RimNote     uint8              `json:"rim_note,omitempty"`
	Channel     uint8              `json:"channel"`
	Calibration CalibrationProfile `json:"calibration"`
}

// DefaultCalibration returns the factory preset for a pad type. Unknown
// types get the PD8 preset, the most conservative of the family.
func DefaultCalibration(t PadType) CalibrationProfile {
	cal := CalibrationProfile{
		Threshold:    0.04,
		MinSlope:     0.002,
		MaskMs:       10,
		DecayMs:      30,
		DecayMaxMs:   250,
		DecayFactor:  0.7,
		Sensitivity:  0.9,
		Curve:        CurveLinear,
		ScanMs:       2.5,
		RimThreshold: 1.6,
		PosThreshold: 0.08,
		PosLow:       0.1,
		PosHigh:      0.9,
		PosDefault:   0.5,
	}
	switch t {
	case PadPD120:
		cal.PositionalSensing = true
		cal.ScanMs = 3
	case PadPD80R:
		cal.PositionalSensing = true
		cal.RimThreshold = 1.4
	case PadKD7:
		// Kick towers ring long and hard; mask longer, decay slower.
		cal.Threshold = 0.06
		cal.MaskMs = 16
		cal.DecayMs = 60
		cal.SpikeReject = true
	case PadCY8:
		cal.Threshold = 0.05
		cal.DecayMaxMs = 400
	case PadTP80:
		cal.Sensitivity = 0.8
	}
	return cal
}
