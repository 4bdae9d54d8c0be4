package results

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list reports are pushed onto.
const DefaultQueueName = "chinczyk_results"

// envelope tags a report so consumers of a shared queue can tell kinds apart.
type envelope struct {
	Type      Kind  `json:"type"`
	Data      any   `json:"data"`
	Timestamp int64 `json:"timestamp"`
}

type listPusher interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// RedisSink pushes reports onto a Redis list for asynchronous consumers.
type RedisSink struct {
	client listPusher
	queue  string
}

func NewRedisSink(client listPusher, queue string) *RedisSink {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &RedisSink{client: client, queue: queue}
}

// ConnectRedis opens a client for addr and checks it with a ping.
func ConnectRedis(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Export(ctx context.Context, r Report) error {
	data, err := json.Marshal(envelope{Type: r.Kind, Data: r.Payload, Timestamp: time.Now().Unix()})
	if err != nil {
		return fmt.Errorf("failed to marshal %s report: %w", r.Kind, err)
	}
	if err := s.client.RPush(ctx, s.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", s.queue, err)
	}
	return nil
}
