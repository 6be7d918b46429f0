package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueue(t *testing.T) {
	q := NewMemoryQueue(4)
	events := q.Subscribe()

	err := q.Publish(context.TODO(), &DocumentEvent{Type: EventTitleChanged, DocumentID: "d1", At: time.Now()})
	require.NoError(t, err)

	ev := <-events
	assert.Equal(t, EventTitleChanged, ev.Type)
	assert.Equal(t, "d1", ev.DocumentID)

	require.NoError(t, q.Close())
	_, open := <-events
	assert.False(t, open)
	assert.ErrorIs(t, q.Publish(context.TODO(), &DocumentEvent{}), ErrQueueClosed)
}

func TestMemoryQueue_SlowSubscriberDoesNotBlock(t *testing.T) {
	q := NewMemoryQueue(1)
	events := q.Subscribe()

	for i := 0; i < 3; i++ {
		assert.NoError(t, q.Publish(context.TODO(), &DocumentEvent{Type: EventContentSaved}))
	}
	assert.Len(t, events, 1)
}
