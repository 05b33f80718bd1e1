package edrumulus

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/thijstriemstra/edrumulus/internal/trigger"
)

// HitEventType represents different types of monitoring events
type HitEventType string

const (
	HitEventHit                HitEventType = "hit"
	HitEventMetricsUpdate      HitEventType = "metrics-update"
	HitEventPadStatus          HitEventType = "pad-status"
	HitEventCalibrationChanged HitEventType = "calibration-changed"
)

// HitMonitorEvent is one WebSocket monitoring event
type HitMonitorEvent struct {
	Type HitEventType `json:"type"`
	Data interface{}  `json:"data"`
}

// HitData carries one accepted strike to monitoring clients
type HitData struct {
	Pad       int     `json:"pad"`
	Zone      string  `json:"zone"`
	Velocity  uint8   `json:"velocity"`
	Position  float64 `json:"position"`
	Timestamp string  `json:"timestamp"`
}

// MetricsData carries engine frame/event accounting
type MetricsData struct {
	FramesProcessed int64 `json:"frames_processed"`
	FramesDropped   int64 `json:"frames_dropped"`
	EventsDropped   int64 `json:"events_dropped"`
}

// CalibrationChangedData announces a calibration hot reload
type CalibrationChangedData struct {
	Pad int `json:"pad"`
}

// HitEventSubscriber represents a WebSocket connection subscribed to
// monitoring events
type HitEventSubscriber struct {
	conn   *websocket.Conn
	ctx    context.Context
	logger *zerolog.Logger
}

// HitEventBroadcaster manages monitoring subscriptions and broadcasting.
// The terminal GUI is the expected consumer: it live displays velocity and
// positional-sensing values per pad.
type HitEventBroadcaster struct {
	subscribers map[string]*HitEventSubscriber
	mutex       sync.RWMutex
	logger      *zerolog.Logger
	engine      *trigger.Engine
}

var (
	hitEventBroadcaster *HitEventBroadcaster
	hitEventOnce        sync.Once
)

// GetHitEventBroadcaster returns the singleton monitoring broadcaster.
func GetHitEventBroadcaster(engine *trigger.Engine) *HitEventBroadcaster {
	hitEventOnce.Do(func() {
		l := logger.With().Str("component", "hit-events").Logger()
		hitEventBroadcaster = &HitEventBroadcaster{
			subscribers: make(map[string]*HitEventSubscriber),
			logger:      &l,
			engine:      engine,
		}

		go hitEventBroadcaster.startMetricsBroadcasting()
	})
	return hitEventBroadcaster
}

// Subscribe adds a WebSocket connection to receive monitoring events
func (heb *HitEventBroadcaster) Subscribe(connectionID string, conn *websocket.Conn, ctx context.Context, logger *zerolog.Logger) {
	heb.mutex.Lock()
	defer heb.mutex.Unlock()

	heb.subscribers[connectionID] = &HitEventSubscriber{
		conn:   conn,
		ctx:    ctx,
		logger: logger,
	}

	heb.logger.Info().Str("connectionID", connectionID).Msg("monitoring subscription added")

	// Send initial state to new subscriber
	go heb.sendInitialState(connectionID)
}

// Unsubscribe removes a WebSocket connection from monitoring events
func (heb *HitEventBroadcaster) Unsubscribe(connectionID string) {
	heb.mutex.Lock()
	defer heb.mutex.Unlock()

	delete(heb.subscribers, connectionID)
	heb.logger.Info().Str("connectionID", connectionID).Msg("monitoring subscription removed")
}

// BroadcastHit broadcasts an accepted strike
func (heb *HitEventBroadcaster) BroadcastHit(ev trigger.HitEvent) {
	heb.broadcast(HitMonitorEvent{
		Type: HitEventHit,
		Data: HitData{
			Pad:       ev.Pad,
			Zone:      ev.Zone.String(),
			Velocity:  ev.Velocity,
			Position:  ev.Position,
			Timestamp: ev.Timestamp.String(),
		},
	})
}

// BroadcastCalibrationChanged announces a calibration hot reload
func (heb *HitEventBroadcaster) BroadcastCalibrationChanged(pad int) {
	heb.broadcast(HitMonitorEvent{
		Type: HitEventCalibrationChanged,
		Data: CalibrationChangedData{Pad: pad},
	})
}

// sendInitialState sends current pad status and metrics to a new subscriber
func (heb *HitEventBroadcaster) sendInitialState(connectionID string) {
	heb.mutex.RLock()
	subscriber, exists := heb.subscribers[connectionID]
	heb.mutex.RUnlock()

	if !exists {
		return
	}

	heb.sendToSubscriber(subscriber, HitMonitorEvent{
		Type: HitEventPadStatus,
		Data: heb.engine.Status(),
	})
	heb.sendCurrentMetrics(subscriber)
}

// sendCurrentMetrics sends current engine metrics to a subscriber
func (heb *HitEventBroadcaster) sendCurrentMetrics(subscriber *HitEventSubscriber) {
	m := heb.engine.Metrics()
	heb.sendToSubscriber(subscriber, HitMonitorEvent{
		Type: HitEventMetricsUpdate,
		Data: MetricsData{
			FramesProcessed: m.FramesProcessed,
			FramesDropped:   m.FramesDropped,
			EventsDropped:   m.EventsDropped,
		},
	})
}

// startMetricsBroadcasting periodically broadcasts engine metrics and pad
// status while subscribers are connected
func (heb *HitEventBroadcaster) startMetricsBroadcasting() {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		heb.mutex.RLock()
		subscriberCount := len(heb.subscribers)
		heb.mutex.RUnlock()

		if subscriberCount == 0 {
			continue
		}

		m := heb.engine.Metrics()
		heb.broadcast(HitMonitorEvent{
			Type: HitEventMetricsUpdate,
			Data: MetricsData{
				FramesProcessed: m.FramesProcessed,
				FramesDropped:   m.FramesDropped,
				EventsDropped:   m.EventsDropped,
			},
		})
		heb.broadcast(HitMonitorEvent{
			Type: HitEventPadStatus,
			Data: heb.engine.Status(),
		})
	}
}

// broadcast sends an event to all subscribers
func (heb *HitEventBroadcaster) broadcast(event HitMonitorEvent) {
	heb.mutex.RLock()
	defer heb.mutex.RUnlock()

	for connectionID, subscriber := range heb.subscribers {
		if !heb.sendToSubscriber(subscriber, event) {
			// Drop broken connections from the map on the next lock.
			go heb.Unsubscribe(connectionID)
		}
	}
}

// sendToSubscriber writes an event to a single subscriber with a write
// timeout so one slow client cannot stall the broadcaster
func (heb *HitEventBroadcaster) sendToSubscriber(subscriber *HitEventSubscriber, event HitMonitorEvent) bool {
	ctx, cancel := context.WithTimeout(subscriber.ctx, time.Second)
	defer cancel()

	if err := wsjson.Write(ctx, subscriber.conn, event); err != nil {
		subscriber.logger.Warn().Err(err).Msg("monitoring event write failed")
		return false
	}
	return true
}
