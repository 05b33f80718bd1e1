package trigger

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngineConfig() Config {
	return Config{
		SampleRate: testRate,
		Pads:       []PadConfig{testPadConfig()},
	}
}

func TestNewEngineValidation(t *testing.T) {
	_, err := NewEngine(Config{SampleRate: testRate})
	assert.ErrorIs(t, err, ErrNoPads)

	_, err = NewEngine(Config{SampleRate: 500, Pads: []PadConfig{testPadConfig()}})
	assert.ErrorIs(t, err, ErrInvalidSampleRate)

	cfg := testEngineConfig()
	cfg.Pads = append(cfg.Pads, testPadConfig())
	_, err = NewEngine(cfg)
	assert.ErrorIs(t, err, ErrDuplicatePad)

	bad := testPadConfig()
	bad.Calibration.Threshold = -1
	_, err = NewEngine(Config{SampleRate: testRate, Pads: []PadConfig{bad}})
	assert.ErrorIs(t, err, ErrInvalidThreshold)
}

func TestEngineLifecycle(t *testing.T) {
	e, err := NewEngine(testEngineConfig())
	require.NoError(t, err)

	assert.False(t, e.IsRunning())
	require.NoError(t, e.Start())
	assert.True(t, e.IsRunning())
	assert.ErrorIs(t, e.Start(), ErrAlreadyRunning)

	e.Stop()
	assert.False(t, e.IsRunning())
	e.Stop() // second stop is a no-op

	// Restart works after a stop.
	require.NoError(t, e.Start())
	assert.True(t, e.IsRunning())
	e.Stop()
}

func TestEngineFeedWhileStopped(t *testing.T) {
	e, err := NewEngine(testEngineConfig())
	require.NoError(t, err)

	assert.False(t, e.Feed(Frame{Pad: 0, Primary: silence(1, testRate)}))
}

func TestEngineFeedUnknownPad(t *testing.T) {
	e, err := NewEngine(testEngineConfig())
	require.NoError(t, err)
	require.NoError(t, e.Start())
	defer e.Stop()

	assert.False(t, e.Feed(Frame{Pad: 42, Primary: silence(1, testRate)}))
}

func TestEngineStrikeReachesEventStream(t *testing.T) {
	e, err := NewEngine(testEngineConfig())
	require.NoError(t, err)
	require.NoError(t, e.Start())
	defer e.Stop()

	samples := append(synthStrike(0.8, 3, testRate), silence(20, testRate)...)
	require.True(t, e.Feed(Frame{Pad: 0, Primary: samples}))

	select {
	case ev := <-e.Events():
		assert.Equal(t, 0, ev.Pad)
		assert.Equal(t, ZoneHead, ev.Zone)
		assert.Greater(t, ev.Velocity, uint8(0))
	case <-time.After(2 * time.Second):
		t.Fatal("no hit event within deadline")
	}
}

func TestEngineEventStreamSurvivesRestart(t *testing.T) {
	e, err := NewEngine(testEngineConfig())
	require.NoError(t, err)

	require.NoError(t, e.Start())
	e.Stop()
	require.NoError(t, e.Start())
	defer e.Stop()

	samples := append(synthStrike(0.8, 3, testRate), silence(20, testRate)...)
	require.True(t, e.Feed(Frame{Pad: 0, Primary: samples}))

	select {
	case ev := <-e.Events():
		assert.Equal(t, 0, ev.Pad)
	case <-time.After(2 * time.Second):
		t.Fatal("no hit event after restart")
	}
}

func TestEngineFeedDuringStopCycles(t *testing.T) {
	e, err := NewEngine(testEngineConfig())
	require.NoError(t, err)

	// Feeders race Start/Stop transitions; a frame landing in the window
	// where Stop closes the pad channels must be dropped, never panic.
	frame := Frame{Pad: 0, Primary: silence(1, testRate)}
	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					e.Feed(frame)
				}
			}
		}()
	}

	for i := 0; i < 200; i++ {
		require.NoError(t, e.Start())
		e.Stop()
	}
	close(done)
	wg.Wait()
}

func TestEngineCloseEndsEventStream(t *testing.T) {
	e, err := NewEngine(testEngineConfig())
	require.NoError(t, err)

	require.NoError(t, e.Start())
	e.Close()

	select {
	case _, open := <-e.Events():
		assert.False(t, open, "event stream stays open after Close")
	case <-time.After(time.Second):
		t.Fatal("event stream not closed")
	}

	assert.False(t, e.Feed(Frame{Pad: 0, Primary: silence(1, testRate)}))
}

func TestEngineUpdateCalibration(t *testing.T) {
	e, err := NewEngine(testEngineConfig())
	require.NoError(t, err)

	assert.ErrorIs(t, e.UpdateCalibration(42, testPadConfig().Calibration),
		ErrUnknownPad)

	bad := testPadConfig().Calibration
	bad.Sensitivity = 0
	assert.ErrorIs(t, e.UpdateCalibration(0, bad), ErrInvalidSensitivity)

	cal := testPadConfig().Calibration
	cal.Threshold = 0.35
	require.NoError(t, e.UpdateCalibration(0, cal))

	pads := e.Pads()
	require.Len(t, pads, 1)
	assert.Equal(t, 0.35, pads[0].Calibration.Threshold)
}

func TestEngineStatusAndMetrics(t *testing.T) {
	cfg := testEngineConfig()
	second := testPadConfig()
	second.ID = 1
	second.Name = "kick"
	second.Note = 36
	cfg.Pads = append(cfg.Pads, second)

	e, err := NewEngine(cfg)
	require.NoError(t, err)

	st := e.Status()
	require.Len(t, st, 2)
	assert.Equal(t, "snare", st[0].Name)
	assert.Equal(t, "kick", st[1].Name)

	m := e.Metrics()
	assert.Equal(t, int64(0), m.FramesProcessed)
	assert.Equal(t, int64(0), m.FramesDropped)
}
