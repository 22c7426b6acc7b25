package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBroker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := NewMemoryBroker(4)
	ch, err := b.Subscribe(ctx, "events")
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, "events", map[string]string{"type": "pacs.created"}))
	require.NoError(t, b.Publish(ctx, "other", "ignored"))

	select {
	case msg := <-ch:
		assert.JSONEq(t, `{"type":"pacs.created"}`, string(msg))
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}

	require.NoError(t, b.Close())
	assert.ErrorIs(t, b.Publish(ctx, "events", "late"), ErrClosed)

	_, open := <-ch
	assert.False(t, open)
}

func TestNopBroker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var b Broker = NopBroker{}

	assert.NoError(t, b.Publish(ctx, "events", "x"))
	ch, err := b.Subscribe(ctx, "events")
	require.NoError(t, err)
	cancel()

	_, open := <-ch
	assert.False(t, open)
}
