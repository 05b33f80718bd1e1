package trigger

import (
	"math"
	"sync/atomic"
	"time"
)

// Buffer depth in milliseconds. Sized well past the longest analysis window
// so velocity and position estimation always complete before their samples
// are evicted.
const bufferMs = 50.0

// Extra pre-onset samples included in the analysis window so the spectral
// estimate sees the leading edge of the transient.
const onsetLeadSamples = 2

// padTuning is the immutable bundle the tick path reads: the pad config and
// the sample-clock constants derived from it. Calibration hot-reload builds
// a fresh bundle and swaps the pointer, so an update takes effect atomically
// between ticks.
type padTuning struct {
	cfg         PadConfig
	scanSamples int
}

func newPadTuning(cfg PadConfig, sampleRate int) *padTuning {
	scan := int(msToSamples(cfg.Calibration.ScanMs, sampleRate))
	if scan < 1 {
		scan = 1
	}
	depth := int(msToSamples(bufferMs, sampleRate))
	if scan > depth-onsetLeadSamples {
		scan = depth - onsetLeadSamples
	}
	return &padTuning{cfg: cfg, scanSamples: scan}
}

// PadChannel is the per-pad detection pipeline: sample buffers, onset
// detector, mask controller and hit assembly. All mutation happens on the
// goroutine calling Tick; calibration swaps and status reads are the only
// cross-goroutine interactions and go through atomics.
type PadChannel struct {
	// Atomic counters first for 64-bit alignment on 32-bit targets.
	hitsEmitted  int64
	hitsDropped  int64
	onsetsMasked int64
	envBits      uint64
	floorBits    uint64
	stateVal     int32

	id         int
	sampleRate int
	tuning     atomic.Pointer[padTuning]
	cur        *padTuning

	primary   *SampleBuffer
	secondary *SampleBuffer
	spike     spikeFilter
	det       *onsetDetector
	mask      *maskController
	sink      EventSink

	index      uint64
	pendActive bool
	pendOnset  uint64
	firedLatch bool

	scratch    []float64
	scratchSec []float64
}

// NewPadChannel builds the pipeline for one pad. The config must already be
// validated.
func NewPadChannel(cfg PadConfig, sampleRate int, sink EventSink) *PadChannel {
	depth := int(msToSamples(bufferMs, sampleRate))
	t := newPadTuning(cfg, sampleRate)
	p := &PadChannel{
		id:         cfg.ID,
		sampleRate: sampleRate,
		primary:    NewSampleBuffer(depth),
		secondary:  NewSampleBuffer(depth),
		det:        newOnsetDetector(sampleRate),
		mask:       newMaskController(&cfg.Calibration, sampleRate),
		sink:       sink,
		cur:        t,
	}
	p.tuning.Store(t)
	return p
}

// ID returns the pad id.
func (p *PadChannel) ID() int { return p.id }

// Config returns the currently installed pad configuration.
func (p *PadChannel) Config() PadConfig {
	return p.tuning.Load().cfg
}

// UpdateCalibration installs a new calibration profile. The swap is atomic
// and takes effect on the next sample tick; the profile must already be
// validated.
func (p *PadChannel) UpdateCalibration(cal CalibrationProfile) {
	cfg := p.tuning.Load().cfg
	cfg.Calibration = cal
	p.tuning.Store(newPadTuning(cfg, p.sampleRate))
}

// Tick processes one sample per sensor channel. secondary is ignored on
// single-sensor pads. Every call completes without blocking or allocating
// on the steady-state path.
func (p *PadChannel) Tick(primary, secondary float64) {
	t := p.tuning.Load()
	if t != p.cur {
		p.mask.retune(&t.cfg.Calibration, p.sampleRate)
		p.cur = t
	}
	cal := &t.cfg.Calibration

	if cal.SpikeReject {
		primary = p.spike.process(primary)
	}
	p.primary.Push(primary)
	if t.cfg.Sensors == 2 {
		p.secondary.Push(secondary)
	}

	idx := p.index
	p.index++

	p.mask.advance(idx, cal.Threshold)

	if p.pendActive && idx-p.pendOnset >= uint64(t.scanSamples) {
		p.finalize(idx, t)
	}

	armed := !p.pendActive && p.mask.canDetect()
	fired := p.det.process(primary, cal.Threshold+p.mask.boost(), cal.MinSlope)
	switch {
	case fired && armed:
		p.pendActive = true
		p.pendOnset = idx
		p.firedLatch = true
		p.mask.trigger(idx)
	case fired && p.mask.State() == MaskMasked:
		// Count each suppressed burst once, not per sample.
		if !p.firedLatch {
			atomic.AddInt64(&p.onsetsMasked, 1)
			recordOnsetMasked()
			p.firedLatch = true
		}
	case !fired:
		p.firedLatch = false
	}

	atomic.StoreUint64(&p.envBits, math.Float64bits(p.det.Envelope()))
	atomic.StoreUint64(&p.floorBits, math.Float64bits(p.det.NoiseFloor()))
	atomic.StoreInt32(&p.stateVal, int32(p.mask.State()))
}

// finalize runs velocity and position estimation over the completed
// post-onset window and emits the hit event.
func (p *PadChannel) finalize(idx uint64, t *padTuning) {
	cal := &t.cfg.Calibration
	n := t.scanSamples + onsetLeadSamples

	p.scratch = p.primary.Window(n, p.scratch)
	peak := peakAmplitude(p.scratch)

	// A hit near stream start can leave the window short; position
	// estimation then falls back to the calibrated default.
	full := len(p.scratch) == n

	zone := ZoneHead
	velPeak := peak
	position := cal.PosDefault

	if t.cfg.Sensors == 2 {
		p.scratchSec = p.secondary.Window(n, p.scratchSec)
		secPeak := peakAmplitude(p.scratchSec)
		if secPeak > cal.RimThreshold*peak {
			zone = ZoneRim
			velPeak = secPeak
		}
		if cal.PositionalSensing && full {
			position = positionFromRatio(peak, secPeak, cal)
		}
	} else if cal.PositionalSensing && full {
		position = positionFromSpectrum(p.scratch, peak, p.sampleRate, cal)
	}

	ev := HitEvent{
		Pad:         p.id,
		Zone:        zone,
		Velocity:    velocityFromPeak(velPeak, cal),
		Position:    position,
		SampleIndex: p.pendOnset,
		Timestamp:   sampleTime(p.pendOnset, p.sampleRate),
	}

	if p.sink.Emit(ev) {
		atomic.AddInt64(&p.hitsEmitted, 1)
		recordHitEmitted(ev)
	} else {
		atomic.AddInt64(&p.hitsDropped, 1)
		recordHitDropped()
	}

	p.mask.maskFrom(idx, peak)
	p.pendActive = false
}

// sampleTime converts a sample index to the time since stream start.
func sampleTime(index uint64, sampleRate int) time.Duration {
	sec := index / uint64(sampleRate)
	rem := index % uint64(sampleRate)
	return time.Duration(sec)*time.Second +
		time.Duration(rem)*time.Second/time.Duration(sampleRate)
}

// PadStatus is a point-in-time snapshot for the status endpoint and the
// monitoring GUI.
type PadStatus struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	State        string  `json:"state"`
	Envelope     float64 `json:"envelope"`
	NoiseFloor   float64 `json:"noise_floor"`
	HitsEmitted  int64   `json:"hits_emitted"`
	HitsDropped  int64   `json:"hits_dropped"`
	OnsetsMasked int64   `json:"onsets_masked"`
}

// Status returns a snapshot of the pad's observable state. Safe to call
// from any goroutine.
func (p *PadChannel) Status() PadStatus {
	cfg := p.Config()
	return PadStatus{
		ID:           p.id,
		Name:         cfg.Name,
		State:        MaskState(atomic.LoadInt32(&p.stateVal)).String(),
		Envelope:     math.Float64frombits(atomic.LoadUint64(&p.envBits)),
		NoiseFloor:   math.Float64frombits(atomic.LoadUint64(&p.floorBits)),
		HitsEmitted:  atomic.LoadInt64(&p.hitsEmitted),
		HitsDropped:  atomic.LoadInt64(&p.hitsDropped),
		OnsetsMasked: atomic.LoadInt64(&p.onsetsMasked),
	}
}
