package diagnostic

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisSink publishes diagnostic events to a Redis Pub/Sub channel for
// out-of-process observability (e.g. a log aggregator subscribed to the
// channel). Strictly fire-and-forget fan-out — never used for locking,
// leader election, or any other clustered-coordination concern.
type redisSink struct {
	client   *redis.Client
	channel  string
	fallback Sink
	timeout  time.Duration
}

// NewRedisSink builds a Sink that publishes JSON-encoded events to channel.
// fallback receives the event (and the publish error) whenever the Redis
// publish itself fails, so a broker outage never silently swallows
// diagnostics. Each publish blocks the caller for at most a 2-second
// timeout.
func NewRedisSink(client *redis.Client, channel string, fallback Sink) Sink {
	if fallback == nil {
		fallback = NewStderrSink()
	}
	return &redisSink{
		client:   client,
		channel:  channel,
		fallback: fallback,
		timeout:  2 * time.Second,
	}
}

type redisEvent struct {
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Fields  map[string]any `json:"fields,omitempty"`
	Time    time.Time      `json:"time"`
}

func (s *redisSink) Log(level Level, message string, fields map[string]any) {
	payload, err := json.Marshal(redisEvent{
		Level:   level.String(),
		Message: message,
		Fields:  fields,
		Time:    time.Now(),
	})
	if err != nil {
		s.fallback.Log(LevelError, "diagnostic: failed to marshal redis sink event", map[string]any{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		s.fallback.Log(level, message, fields)
		s.fallback.Log(LevelWarn, "diagnostic: redis sink publish failed", map[string]any{"error": err.Error(), "channel": s.channel})
	}
}
