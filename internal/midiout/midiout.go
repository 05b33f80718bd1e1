// Package midiout delivers hit events to a MIDI output port. It maps
// {pad, zone, velocity, position} to note-on messages, preceded by a
// control-change 16 carrying the positional-sensing value for pads that
// report one.
package midiout

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/thijstriemstra/edrumulus/internal/logging"
	"github.com/thijstriemstra/edrumulus/internal/trigger"
)

// PositionController is the MIDI CC carrying the strike position, matching
// the convention drum modules use for positional sensing.
const PositionController uint8 = 16

// noteOffDelay is how long after note-on the matching note-off is sent.
// Drum voices are one-shot, so the exact gate length is uncritical.
const noteOffDelay = 30 * time.Millisecond

// Route maps one pad to its MIDI destination.
type Route struct {
	Note       uint8
	RimNote    uint8
	Channel    uint8
	Positional bool
}

// Sink forwards hit events to a MIDI output port.
type Sink struct {
	logger zerolog.Logger
	drv    *rtmididrv.Driver
	out    drivers.Out
	routes map[int]Route

	mu   sync.Mutex
	send func(midi.Message) error
}

// RoutesFromPads derives the per-pad MIDI routing from the pad configs.
func RoutesFromPads(pads []trigger.PadConfig) map[int]Route {
	routes := make(map[int]Route, len(pads))
	for _, p := range pads {
		routes[p.ID] = Route{
			Note:       p.Note,
			RimNote:    p.RimNote,
			Channel:    p.Channel,
			Positional: p.Calibration.PositionalSensing,
		}
	}
	return routes
}

// NewSink opens the MIDI output whose name contains portName
// (case-insensitive); with an empty portName the first available output is
// used. Call Close when done.
func NewSink(portName string, routes map[int]Route) (*Sink, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}

	out, err := pickOutput(drv, portName)
	if err != nil {
		drv.Close()
		return nil, err
	}
	if err := out.Open(); err != nil {
		drv.Close()
		return nil, fmt.Errorf("open %q: %w", out.String(), err)
	}
	send, err := midi.SendTo(out)
	if err != nil {
		_ = out.Close()
		drv.Close()
		return nil, fmt.Errorf("send to %q: %w", out.String(), err)
	}

	s := &Sink{
		logger: logging.GetSubsystemLogger("midi-out"),
		drv:    drv,
		out:    out,
		routes: routes,
		send:   send,
	}
	s.logger.Info().Str("port", out.String()).Int("routes", len(routes)).Msg("MIDI output connected")
	return s, nil
}

func pickOutput(drv *rtmididrv.Driver, portName string) (drivers.Out, error) {
	outs, err := drv.Outs()
	if err != nil {
		return nil, fmt.Errorf("list outputs: %w", err)
	}
	if len(outs) == 0 {
		return nil, fmt.Errorf("no MIDI outputs available")
	}
	if portName == "" {
		return outs[0], nil
	}
	for _, out := range outs {
		if strings.Contains(strings.ToLower(out.String()), strings.ToLower(portName)) {
			return out, nil
		}
	}
	return nil, fmt.Errorf("MIDI output %q not found", portName)
}

// Run consumes hit events until the channel closes. It is the long-running
// consumer side of the engine's event queue.
func (s *Sink) Run(events <-chan trigger.HitEvent) {
	for ev := range events {
		s.HandleHit(ev)
	}
}

// HandleHit sends the MIDI messages for one hit event: optional CC16
// position, then note-on, with the note-off scheduled shortly after.
func (s *Sink) HandleHit(ev trigger.HitEvent) {
	route, ok := s.routes[ev.Pad]
	if !ok {
		s.logger.Warn().Int("pad", ev.Pad).Msg("hit event for unrouted pad")
		return
	}

	note := route.Note
	if ev.Zone == trigger.ZoneRim && route.RimNote != 0 {
		note = route.RimNote
	}

	s.mu.Lock()
	if route.Positional {
		pos := uint8(ev.Position*127 + 0.5)
		if err := s.send(midi.ControlChange(route.Channel, PositionController, pos)); err != nil {
			s.logger.Warn().Err(err).Msg("position CC send failed")
		}
	}
	if err := s.send(midi.NoteOn(route.Channel, note, ev.Velocity)); err != nil {
		s.logger.Warn().Err(err).Uint8("note", note).Msg("note-on send failed")
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	time.AfterFunc(noteOffDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.send(midi.NoteOff(route.Channel, note)); err != nil {
			s.logger.Warn().Err(err).Uint8("note", note).Msg("note-off send failed")
		}
	})
}

// Close releases the MIDI port and driver.
func (s *Sink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out != nil {
		_ = s.out.Close()
		s.out = nil
	}
	if s.drv != nil {
		s.drv.Close()
		s.drv = nil
	}
	s.logger.Info().Msg("MIDI output closed")
}
