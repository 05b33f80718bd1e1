package trigger

import "math"

// Envelope follower time constants. The attack is near-instant so a strike
// transient is tracked within a sample or two; the release is slow enough to
// bridge the half-cycles of a ringing piezo; the noise floor adapts over
// seconds so it follows hum and drift but never a strike.
const (
	envAttackMs  = 0.15
	envReleaseMs = 40.0
	noiseFloorMs = 1500.0
)

// alphaFor converts a time constant in milliseconds to a one-pole smoothing
// coefficient at the given sample rate.
func alphaFor(ms float64, sampleRate int) float64 {
	if ms <= 0 {
		return 1
	}
	return 1 - math.Exp(-1000.0/(ms*float64(sampleRate)))
}

// spikeFilter removes single-sample ADC spikes by replacing each sample with
// the median of itself and its two neighbours. It delays the stream by one
// sample, which is below the detection lag already absorbed by the peak-scan
// window.
type spikeFilter struct {
	s1, s2 float64
	warm   int
}

func (f *spikeFilter) process(s float64) float64 {
	out := median3(f.s2, f.s1, s)
	if f.warm < 2 {
		// Not enough history yet; pass through.
		out = s
		f.warm++
	}
	f.s2 = f.s1
	f.s1 = s
	return out
}

func median3(a, b, c float64) float64 {
	if a > b {
		a, b = b, a
	}
	if b > c {
		b = c
	}
	if a > b {
		b = a
	}
	return b
}

// onsetDetector decides, per sample, whether a new strike has begun. It
// maintains a rectified fast-attack/slow-release envelope and a much slower
// noise-floor estimate; a strike fires when the envelope exceeds the floor
// by the effective threshold while the raw signal is rising steeply.
type onsetDetector struct {
	attackAlpha  float64
	releaseAlpha float64
	floorAlpha   float64

	envelope float64
	floor    float64
	prev     float64
}

func newOnsetDetector(sampleRate int) *onsetDetector {
	return &onsetDetector{
		attackAlpha:  alphaFor(envAttackMs, sampleRate),
		releaseAlpha: alphaFor(envReleaseMs, sampleRate),
		floorAlpha:   alphaFor(noiseFloorMs, sampleRate),
	}
}

// process advances the detector by one sample and reports whether the onset
// condition holds. threshold is the pad's nominal threshold plus any
// mask-decay elevation. The caller gates the result on the mask state; the
// envelopes always track so detection resumes with current history.
func (d *onsetDetector) process(s, threshold, minSlope float64) bool {
	r := math.Abs(s)

	if r > d.envelope {
		d.envelope += d.attackAlpha * (r - d.envelope)
	} else {
		d.envelope += d.releaseAlpha * (r - d.envelope)
	}
	d.floor += d.floorAlpha * (r - d.floor)

	slope := s - d.prev
	d.prev = s

	return d.envelope > d.floor+threshold && slope >= minSlope
}

// Envelope exposes the current short-term envelope, used by tests and the
// status endpoint.
func (d *onsetDetector) Envelope() float64 { return d.envelope }

// NoiseFloor exposes the current noise-floor estimate.
func (d *onsetDetector) NoiseFloor() float64 { return d.floor }
