package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventQueueDeliversInOrder(t *testing.T) {
	q := NewEventQueue(4)
	for i := 0; i < 3; i++ {
		require.True(t, q.Emit(HitEvent{Pad: i}))
	}
	for i := 0; i < 3; i++ {
		assert.Equal(t, i, (<-q.Events()).Pad)
	}
	assert.Equal(t, int64(0), q.Dropped())
}

func TestEventQueueDropsWhenFull(t *testing.T) {
	q := NewEventQueue(2)
	assert.True(t, q.Emit(HitEvent{Pad: 0}))
	assert.True(t, q.Emit(HitEvent{Pad: 1}))
	assert.False(t, q.Emit(HitEvent{Pad: 2}))
	assert.False(t, q.Emit(HitEvent{Pad: 3}))
	assert.Equal(t, int64(2), q.Dropped())

	// The queued events are intact.
	assert.Equal(t, 0, (<-q.Events()).Pad)
	assert.Equal(t, 1, (<-q.Events()).Pad)
}

func TestEventQueueMinimumDepth(t *testing.T) {
	q := NewEventQueue(0)
	assert.True(t, q.Emit(HitEvent{}))
}

func TestZoneString(t *testing.T) {
	assert.Equal(t, "head", ZoneHead.String())
	assert.Equal(t, "rim", ZoneRim.String())
}
