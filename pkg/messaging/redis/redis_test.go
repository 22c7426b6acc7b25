package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/luckypig3400/NEC-Backend/pkg/circuitbreaker"
)

func TestPublishOpensBreakerWhenRedisIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 50 * time.Millisecond,
	})
	b := newBroker(client, Config{MaxFailures: 1, OpenTimeout: time.Minute}, zerolog.Nop())
	defer b.Close()

	ctx := context.Background()
	err := b.Publish(ctx, "events", map[string]string{"type": "pacs.created"})
	assert.Error(t, err)

	err = b.Publish(ctx, "events", map[string]string{"type": "pacs.created"})
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
}

func TestNewRedisBrokerRejectsBadURL(t *testing.T) {
	_, err := NewRedisBroker(context.Background(), Config{URL: "not a url"}, zerolog.Nop())
	assert.Error(t, err)
}
