package edrumulus

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thijstriemstra/edrumulus/internal/capture"
	"github.com/thijstriemstra/edrumulus/internal/logging"
	"github.com/thijstriemstra/edrumulus/internal/midiout"
	"github.com/thijstriemstra/edrumulus/internal/trigger"
)

var logger = logging.GetSubsystemLogger("edrumulus")

// Main wires the trigger engine to the serial capture source, the MIDI
// output and the HTTP/WebSocket monitoring surface, then runs until
// SIGINT/SIGTERM.
func Main(configPath string) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load config")
		os.Exit(1)
	}

	engine, err := trigger.NewEngine(trigger.Config{
		SampleRate: cfg.SampleRate,
		Pads:       cfg.Pads,
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to build trigger engine")
		os.Exit(1)
	}

	logger.Info().
		Int("pads", len(cfg.Pads)).
		Int("sample_rate", cfg.SampleRate).
		Msg("starting edrumulus")

	// MIDI is the primary output but the engine runs without it, so the
	// monitoring GUI stays usable while no synth is connected.
	sink, err := midiout.NewSink(cfg.MidiPort, midiout.RoutesFromPads(cfg.Pads))
	if err != nil {
		logger.Warn().Err(err).Msg("MIDI output unavailable, continuing without")
		sink = nil
	}

	broadcaster := GetHitEventBroadcaster(engine)

	// Single consumer of the shared event queue: fan out to MIDI and the
	// monitoring broadcaster.
	go func() {
		for ev := range engine.Events() {
			if sink != nil {
				sink.HandleHit(ev)
			}
			broadcaster.BroadcastHit(ev)
		}
	}()

	if err := engine.Start(); err != nil {
		logger.Error().Err(err).Msg("failed to start trigger engine")
		os.Exit(1)
	}

	source, err := capture.OpenSerial(cfg.SerialDevice, cfg.SerialBaud)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open sample capture")
		os.Exit(1)
	}
	go func() {
		if err := source.Run(engine); err != nil {
			logger.Error().Err(err).Msg("sample capture stopped")
		}
	}()

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: setupRouter(engine),
	}
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server failed")
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("edrumulus shutting down")

	_ = source.Close()
	engine.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctx)

	if sink != nil {
		sink.Close()
	}
}
