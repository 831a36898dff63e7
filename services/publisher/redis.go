package publisher

import (
	"context"
	"encoding/base64"
	"math/rand/v2"
	"strconv"

	"sjsage522/couponradar/logger"
	"sjsage522/couponradar/pkg/errors"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher implements Publisher using Redis streams
type RedisPublisher struct {
	client          *redis.Client
	streamPrefix    string
	streamCount     int
	streamMaxLength int
	log             *logger.Logger
}

// NewRedisPublisher creates a new Redis publisher.
// Messages are spread over streamCount streams named prefix:0 .. prefix:N-1.
func NewRedisPublisher(addr string, db int, streamPrefix string, streamCount int, streamMaxLength int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if streamCount < 1 {
		streamCount = 1
	}

	return &RedisPublisher{
		client:          client,
		streamPrefix:    streamPrefix,
		streamCount:     streamCount,
		streamMaxLength: streamMaxLength,
		log:             logger.ForPublisher(),
	}
}

// Ping checks that Redis is reachable
func (p *RedisPublisher) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return errors.NewPublisher(p.streamPrefix, "redis is not reachable", err)
	}
	return nil
}

// Publish publishes a message to a random shard of the stream.
// The message is base64 encoded before publishing.
func (p *RedisPublisher) Publish(ctx context.Context, key string, message []byte) error {
	stream := streamName(p.streamPrefix, rand.IntN(p.streamCount))

	err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			key: encodeMessage(message),
		},
	}).Err()
	if err != nil {
		return errors.NewPublisher(stream, "failed to add message", err)
	}

	p.log.Debug().Str("stream", stream).Str("key", key).Int("bytes", len(message)).Msg("Published message")
	return nil
}

// TrimStreams trims all streams with the prefix to the configured maximum length
func (p *RedisPublisher) TrimStreams(ctx context.Context) error {
	streams, err := p.client.Keys(ctx, p.streamPrefix+":*").Result()
	if err != nil {
		return errors.NewPublisher(p.streamPrefix, "failed to list streams", err)
	}

	for _, stream := range streams {
		if err := p.client.XTrimMaxLen(ctx, stream, int64(p.streamMaxLength)).Err(); err != nil {
			return errors.NewPublisher(stream, "failed to trim stream", err)
		}
	}

	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

func streamName(prefix string, shard int) string {
	return prefix + ":" + strconv.Itoa(shard)
}

func encodeMessage(message []byte) string {
	return base64.StdEncoding.EncodeToString(message)
}
