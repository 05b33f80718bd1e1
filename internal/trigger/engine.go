package trigger

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/thijstriemstra/edrumulus/internal/logging"
)

// Engine errors
var (
	ErrAlreadyRunning = errors.New("engine already running")
	ErrNotRunning     = errors.New("engine not running")
	ErrNoPads         = errors.New("no pads configured")
)

const (
	defaultQueueDepth  = 64
	defaultFrameBuffer = 32
)

// Frame is one block of raw samples for a single pad, in capture order.
// Secondary may be nil for single-sensor pads.
type Frame struct {
	Pad       int
	Primary   []float64
	Secondary []float64
}

// Config configures the trigger engine.
type Config struct {
	SampleRate  int
	Pads        []PadConfig
	QueueDepth  int // undelivered hit events held by the sink
	FrameBuffer int // frames buffered per pad pipeline
}

// Engine owns one PadChannel pipeline per configured pad, each running on
// its own goroutine, all feeding the shared hit event queue. Pads share no
// mutable state, so there is no cross-pad locking anywhere in the tick path.
type Engine struct {
	// Atomic fields first for 64-bit alignment on 32-bit targets.
	framesProcessed int64
	framesDropped   int64
	running         int32

	logger     zerolog.Logger
	sampleRate int
	pads       map[int]*PadChannel
	order      []int
	queue      *EventQueue
	frameBuf   int

	mu sync.Mutex
	in map[int]chan Frame
	wg sync.WaitGroup
}

// NewEngine validates the configuration and builds the pad pipelines.
func NewEngine(cfg Config) (*Engine, error) {
	if err := ValidateSampleRate(cfg.SampleRate); err != nil {
		return nil, err
	}
	if len(cfg.Pads) == 0 {
		return nil, ErrNoPads
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = defaultQueueDepth
	}
	if cfg.FrameBuffer <= 0 {
		cfg.FrameBuffer = defaultFrameBuffer
	}

	e := &Engine{
		logger:     logging.GetSubsystemLogger("trigger-engine"),
		sampleRate: cfg.SampleRate,
		pads:       make(map[int]*PadChannel, len(cfg.Pads)),
		queue:      NewEventQueue(cfg.QueueDepth),
		frameBuf:   cfg.FrameBuffer,
	}

	for _, pc := range cfg.Pads {
		if err := ValidatePadConfig(pc); err != nil {
			return nil, err
		}
		if _, exists := e.pads[pc.ID]; exists {
			return nil, fmt.Errorf("%w: %d", ErrDuplicatePad, pc.ID)
		}
		e.pads[pc.ID] = NewPadChannel(pc, cfg.SampleRate, e.queue)
		e.order = append(e.order, pc.ID)
	}

	enginePads.Set(float64(len(e.pads)))
	return e, nil
}

// SampleRate returns the configured sample rate in Hz.
func (e *Engine) SampleRate() int { return e.sampleRate }

// IsRunning reports whether the pad pipelines are active.
func (e *Engine) IsRunning() bool {
	return atomic.LoadInt32(&e.running) == 1
}

// Start launches one goroutine per pad pipeline.
func (e *Engine) Start() error {
	if !atomic.CompareAndSwapInt32(&e.running, 0, 1) {
		return ErrAlreadyRunning
	}

	e.mu.Lock()
	e.in = make(map[int]chan Frame, len(e.pads))
	for id, pad := range e.pads {
		ch := make(chan Frame, e.frameBuf)
		e.in[id] = ch
		e.wg.Add(1)
		go e.padLoop(pad, ch)
	}
	e.mu.Unlock()

	setEngineRunning(true)
	e.logger.Info().
		Int("pads", len(e.pads)).
		Int("sample_rate", e.sampleRate).
		Msg("trigger engine started")
	return nil
}

// Stop drains the pipelines and waits for them to exit. The event queue
// stays open so a consumer can keep ranging over it across restarts.
func (e *Engine) Stop() {
	if !atomic.CompareAndSwapInt32(&e.running, 1, 0) {
		return
	}

	e.mu.Lock()
	for _, ch := range e.in {
		close(ch)
	}
	e.in = nil
	e.mu.Unlock()

	e.wg.Wait()
	setEngineRunning(false)
	e.logger.Info().Msg("trigger engine stopped")
}

// Close stops the pipelines and closes the event queue, ending any consumer
// ranging over Events. The engine cannot be restarted afterwards; process
// shutdown is the only caller.
func (e *Engine) Close() {
	e.Stop()
	e.queue.Close()
}

// Feed hands a captured frame to its pad pipeline without blocking. Frames
// for unknown pads or arriving while a pipeline is behind are dropped and
// counted. The send happens under mu so Stop cannot close the channel
// between the map read and the send.
func (e *Engine) Feed(f Frame) bool {
	if atomic.LoadInt32(&e.running) != 1 {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	ch, ok := e.in[f.Pad]
	if !ok {
		return false
	}
	select {
	case ch <- f:
		return true
	default:
		atomic.AddInt64(&e.framesDropped, 1)
		recordFrameDropped()
		return false
	}
}

// Events returns the shared hit event stream.
func (e *Engine) Events() <-chan HitEvent {
	return e.queue.Events()
}

// Pad returns the pipeline for the given pad id.
func (e *Engine) Pad(id int) (*PadChannel, error) {
	pad, ok := e.pads[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPad, id)
	}
	return pad, nil
}

// Pads returns the configured pads in configuration order.
func (e *Engine) Pads() []PadConfig {
	out := make([]PadConfig, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.pads[id].Config())
	}
	return out
}

// UpdateCalibration validates and installs a new calibration profile for a
// pad. The swap takes effect between sample ticks.
func (e *Engine) UpdateCalibration(padID int, cal CalibrationProfile) error {
	pad, err := e.Pad(padID)
	if err != nil {
		return err
	}
	if err := ValidateCalibration(cal); err != nil {
		return err
	}
	pad.UpdateCalibration(cal)
	recordCalibrationReload()
	e.logger.Info().Int("pad", padID).Msg("calibration profile reloaded")
	return nil
}

// Status returns a snapshot of every pad pipeline.
func (e *Engine) Status() []PadStatus {
	out := make([]PadStatus, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.pads[id].Status())
	}
	return out
}

// EngineMetrics is a snapshot of the engine's frame and event accounting.
type EngineMetrics struct {
	FramesProcessed int64 `json:"frames_processed"`
	FramesDropped   int64 `json:"frames_dropped"`
	EventsDropped   int64 `json:"events_dropped"`
}

// Metrics returns current engine counters.
func (e *Engine) Metrics() EngineMetrics {
	return EngineMetrics{
		FramesProcessed: atomic.LoadInt64(&e.framesProcessed),
		FramesDropped:   atomic.LoadInt64(&e.framesDropped),
		EventsDropped:   e.queue.Dropped(),
	}
}

func (e *Engine) padLoop(pad *PadChannel, in <-chan Frame) {
	defer e.wg.Done()
	for f := range in {
		for i, s := range f.Primary {
			sec := 0.0
			if i < len(f.Secondary) {
				sec = f.Secondary[i]
			}
			pad.Tick(s, sec)
		}
		atomic.AddInt64(&e.framesProcessed, 1)
		recordFrameProcessed()
	}
}
