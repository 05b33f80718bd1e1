package trigger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	hitsEmittedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edrumulus_hits_emitted_total",
			Help: "Total number of hit events delivered to the output sink",
		},
	)

	hitsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edrumulus_hits_dropped_total",
			Help: "Total number of hit events dropped because the sink was full",
		},
	)

	onsetsMaskedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edrumulus_onsets_masked_total",
			Help: "Total number of onset bursts suppressed by the retrigger mask",
		},
	)

	framesProcessedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edrumulus_frames_processed_total",
			Help: "Total number of sample frames processed by pad pipelines",
		},
	)

	framesDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edrumulus_frames_dropped_total",
			Help: "Total number of sample frames dropped because a pad pipeline was behind",
		},
	)

	calibrationReloadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edrumulus_calibration_reloads_total",
			Help: "Total number of calibration profile hot reloads",
		},
	)

	lastHitVelocity = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "edrumulus_last_hit_velocity",
			Help: "MIDI velocity of the most recent hit event",
		},
	)

	lastHitPosition = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "edrumulus_last_hit_position",
			Help: "Normalized position of the most recent hit event",
		},
	)

	enginePads = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "edrumulus_engine_pads",
			Help: "Number of configured pad pipelines",
		},
	)

	engineRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "edrumulus_engine_running",
			Help: "Whether the trigger engine is running (1=running, 0=stopped)",
		},
	)
)

func recordHitEmitted(ev HitEvent) {
	hitsEmittedTotal.Inc()
	lastHitVelocity.Set(float64(ev.Velocity))
	lastHitPosition.Set(ev.Position)
}

func recordHitDropped() {
	hitsDroppedTotal.Inc()
}

func recordOnsetMasked() {
	onsetsMaskedTotal.Inc()
}

func recordFrameProcessed() {
	framesProcessedTotal.Inc()
}

func recordFrameDropped() {
	framesDroppedTotal.Inc()
}

func recordCalibrationReload() {
	calibrationReloadsTotal.Inc()
}

func setEngineRunning(running bool) {
	if running {
		engineRunning.Set(1)
	} else {
		engineRunning.Set(0)
	}
}
