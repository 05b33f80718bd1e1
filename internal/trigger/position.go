package trigger

import "math"

// Spectral balance split frequency. Strikes near the sensor carry more
// high-frequency energy than strikes at the pad edge, so the ratio of energy
// above and below this corner is a usable distance proxy on single-sensor
// mesh pads.
const posSplitHz = 500.0

// normalizePosition maps a raw position metric through the calibrated range
// onto [0,1].
func normalizePosition(metric float64, cal *CalibrationProfile) float64 {
	pos := (metric - cal.PosLow) / (cal.PosHigh - cal.PosLow)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos
}

// positionFromRatio estimates the strike position on a dual-sensor pad from
// the peak amplitudes of the primary and secondary sensors over the
// post-onset window. Equal peaks land in the middle of the metric range
// (position 0.5 with a symmetric calibration). Signals too weak for a
// reliable ratio fall back to the calibrated default.
func positionFromRatio(priPeak, secPeak float64, cal *CalibrationProfile) float64 {
	if priPeak+secPeak < cal.PosThreshold {
		return cal.PosDefault
	}
	return normalizePosition(secPeak/(priPeak+secPeak), cal)
}

// bandSplitter is a one-pole lowpass used to split the post-onset window
// into low- and high-band energy for spectral position sensing.
type bandSplitter struct {
	alpha float64
	low   float64
}

func newBandSplitter(sampleRate int) *bandSplitter {
	return &bandSplitter{
		alpha: 1 - math.Exp(-2*math.Pi*posSplitHz/float64(sampleRate)),
	}
}

// balance returns high-band energy over total energy for the window, or -1
// when the window carries no energy.
func (f *bandSplitter) balance(window []float64) float64 {
	f.low = 0
	var lowE, highE float64
	for _, s := range window {
		f.low += f.alpha * (s - f.low)
		high := s - f.low
		lowE += f.low * f.low
		highE += high * high
	}
	total := lowE + highE
	if total <= 0 {
		return -1
	}
	return highE / total
}

// positionFromSpectrum estimates the strike position on a single-sensor pad
// from the spectral balance of the post-onset window. Weak or empty windows
// fall back to the calibrated default.
func positionFromSpectrum(window []float64, peak float64, sampleRate int, cal *CalibrationProfile) float64 {
	if peak < cal.PosThreshold || len(window) == 0 {
		return cal.PosDefault
	}
	split := newBandSplitter(sampleRate)
	balance := split.balance(window)
	if balance < 0 {
		return cal.PosDefault
	}
	// More high-frequency content means the strike landed closer to the
	// sensor, which sits at position 0.
	return normalizePosition(1-balance, cal)
}
