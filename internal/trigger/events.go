package trigger

import (
	"sync/atomic"
	"time"
)

// Zone identifies which part of a pad was struck.
type Zone int

const (
	ZoneHead Zone = iota
	ZoneRim
)

func (z Zone) String() string {
	if z == ZoneRim {
		return "rim"
	}
	return "head"
}

// HitEvent is one accepted strike. It is created exactly once per hit and is
// immutable; ownership passes to the sink on emission.
type HitEvent struct {
	Pad         int           `json:"pad"`
	Zone        Zone          `json:"zone"`
	Velocity    uint8         `json:"velocity"`
	Position    float64       `json:"position"`
	SampleIndex uint64        `json:"sample_index"`
	Timestamp   time.Duration `json:"timestamp"`
}

// EventSink receives hit events from the pad pipelines. Emit must be safe
// for concurrent use and must never block; it reports whether the event was
// accepted.
type EventSink interface {
	Emit(HitEvent) bool
}

// EventQueue is the shared sink feeding the external MIDI layer. Pad
// pipelines enqueue concurrently with a non-blocking send: when the consumer
// falls behind the event is dropped and counted rather than stalling a
// sample tick.
type EventQueue struct {
	ch      chan HitEvent
	dropped int64
}

// NewEventQueue creates a queue holding up to depth undelivered events.
func NewEventQueue(depth int) *EventQueue {
	if depth < 1 {
		depth = 1
	}
	return &EventQueue{ch: make(chan HitEvent, depth)}
}

// Emit enqueues an event without blocking.
func (q *EventQueue) Emit(ev HitEvent) bool {
	select {
	case q.ch <- ev:
		return true
	default:
		atomic.AddInt64(&q.dropped, 1)
		return false
	}
}

// Events returns the consumer side of the queue.
func (q *EventQueue) Events() <-chan HitEvent {
	return q.ch
}

// Dropped returns the number of events lost to a full queue.
func (q *EventQueue) Dropped() int64 {
	return atomic.LoadInt64(&q.dropped)
}

// Close closes the consumer channel. Only the engine's terminal Close calls
// this, after all pad pipelines have stopped.
func (q *EventQueue) Close() {
	close(q.ch)
}
