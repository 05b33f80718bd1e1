package trigger

import (
	"errors"
	"fmt"
)

// Validation errors
var (
	ErrInvalidThreshold   = errors.New("invalid detection threshold")
	ErrInvalidSensitivity = errors.New("invalid sensitivity")
	ErrInvalidMaskTime    = errors.New("invalid mask time")
	ErrInvalidDecay       = errors.New("invalid decay settings")
	ErrInvalidScanTime    = errors.New("invalid scan time")
	ErrInvalidCurve       = errors.New("invalid velocity curve")
	ErrInvalidPosition    = errors.New("invalid positional settings")
	ErrInvalidSensors     = errors.New("invalid sensor count")
	ErrInvalidSampleRate  = errors.New("invalid sample rate")
	ErrInvalidPadID       = errors.New("invalid pad id")
	ErrUnknownPad         = errors.New("unknown pad")
	ErrDuplicatePad       = errors.New("duplicate pad id")
)

// ValidateSampleRate checks the engine sample rate. The pipeline is designed
// for the 4-8 kHz range of piezo trigger sampling; anything in 1-48 kHz is
// accepted so synthetic tests can run faster or slower.
func ValidateSampleRate(rate int) error {
	if rate < 1000 || rate > 48000 {
		return fmt.Errorf("%w: %d Hz", ErrInvalidSampleRate, rate)
	}
	return nil
}

// ValidateCalibration rejects profiles the detection pipeline cannot run
// with. The core assumes every installed profile passed this check.
func ValidateCalibration(cal CalibrationProfile) error {
	if cal.Threshold <= 0 || cal.Threshold >= 1 {
		return fmt.Errorf("%w: threshold %v", ErrInvalidThreshold, cal.Threshold)
	}
	if cal.MinSlope < 0 {
		return fmt.Errorf("%w: min slope %v", ErrInvalidThreshold, cal.MinSlope)
	}
	if cal.Sensitivity <= 0 || cal.Sensitivity > 1 {
		return fmt.Errorf("%w: sensitivity %v", ErrInvalidSensitivity, cal.Sensitivity)
	}
	if cal.MaskMs < 0 {
		return fmt.Errorf("%w: mask %vms", ErrInvalidMaskTime, cal.MaskMs)
	}
	if cal.DecayMs < 0 || cal.DecayMaxMs < 0 || cal.DecayFactor < 0 {
		return fmt.Errorf("%w: decay %vms max %vms factor %v",
			ErrInvalidDecay, cal.DecayMs, cal.DecayMaxMs, cal.DecayFactor)
	}
	if cal.ScanMs <= 0 {
		return fmt.Errorf("%w: scan %vms", ErrInvalidScanTime, cal.ScanMs)
	}
	switch cal.Curve {
	case CurveLinear, CurveExp1, CurveExp2, CurveLog1, CurveLog2:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCurve, cal.Curve)
	}
	if cal.PositionalSensing {
		if cal.PosHigh <= cal.PosLow {
			return fmt.Errorf("%w: range [%v, %v]", ErrInvalidPosition, cal.PosLow, cal.PosHigh)
		}
		if cal.PosDefault < 0 || cal.PosDefault > 1 {
			return fmt.Errorf("%w: default %v", ErrInvalidPosition, cal.PosDefault)
		}
		if cal.PosThreshold < 0 {
			return fmt.Errorf("%w: threshold %v", ErrInvalidPosition, cal.PosThreshold)
		}
	}
	return nil
}

// ValidatePadConfig checks a full pad description.
func ValidatePadConfig(cfg PadConfig) error {
	if cfg.ID < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPadID, cfg.ID)
	}
	if cfg.Sensors != 1 && cfg.Sensors != 2 {
		return fmt.Errorf("%w: pad %d has %d sensors", ErrInvalidSensors, cfg.ID, cfg.Sensors)
	}
	if cfg.Sensors == 2 && cfg.Calibration.RimThreshold <= 0 {
		return fmt.Errorf("%w: pad %d rim threshold %v",
			ErrInvalidThreshold, cfg.ID, cfg.Calibration.RimThreshold)
	}
	if err := ValidateCalibration(cfg.Calibration); err != nil {
		return fmt.Errorf("pad %d: %w", cfg.ID, err)
	}
	return nil
}
