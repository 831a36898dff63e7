package publisher

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamName(t *testing.T) {
	assert.Equal(t, "coupondeals:0", streamName("coupondeals", 0))
	assert.Equal(t, "coupondeals:7", streamName("coupondeals", 7))
}

func TestEncodeMessage(t *testing.T) {
	assert.Equal(t, "dGVzdF9tZXNzYWdl", encodeMessage([]byte("test_message")))
}

func TestNewRedisPublisherClampsStreamCount(t *testing.T) {
	p := NewRedisPublisher("localhost:6379", 0, "test", 0, 10)
	defer p.Close()
	assert.Equal(t, 1, p.streamCount)
}

func TestRedisPublisher(t *testing.T) {
	ctx := context.Background()
	publisher := NewRedisPublisher("localhost:6379", 0, "test_coupon_stream", 1, 100)
	defer publisher.Close()

	if err := publisher.Ping(ctx); err != nil {
		t.Skip("Redis is not available, skipping test")
	}

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   0,
	})
	defer client.Close()

	stream := "test_coupon_stream:0"
	err := client.XGroupCreateMkStream(ctx, stream, "test_group", "$").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		require.NoError(t, err)
	}

	messages := make(chan string, 1)

	go func() {
		result, err := client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Streams:  []string{stream, ">"},
			Group:    "test_group",
			Consumer: "test_consumer",
			Block:    2 * time.Second,
		}).Result()
		if err != nil || len(result) == 0 || len(result[0].Messages) == 0 {
			close(messages)
			return
		}
		value, _ := result[0].Messages[0].Values["b64_coupondeals"].(string)
		messages <- value
	}()

	time.Sleep(100 * time.Millisecond)

	require.NoError(t, publisher.Publish(ctx, "b64_coupondeals", []byte("test_message")))

	select {
	case msg := <-messages:
		assert.Equal(t, "dGVzdF9tZXNzYWdl", msg)
	case <-time.After(3 * time.Second):
		t.Error("Timed out waiting for message")
	}

	require.NoError(t, publisher.TrimStreams(ctx))
}
