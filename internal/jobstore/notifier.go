package jobstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ChangesChannel is the Redis channel postings changes are published on.
const ChangesChannel = "jobs:changed"

// ChangeEvent is the message published for every write.
type ChangeEvent struct {
	Op string    `json:"op"`
	ID string    `json:"id"`
	At time.Time `json:"at"`
}

// RedisNotifier publishes and watches ChangesChannel.
type RedisNotifier struct {
	rdb     *redis.Client
	channel string
}

// NewRedisClient creates and verifies a Redis client connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("jobstore: redis.ParseURL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("jobstore: redis ping failed: %w", err)
	}

	return rdb, nil
}

func NewRedisNotifier(rdb *redis.Client) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, channel: ChangesChannel}
}

func (n *RedisNotifier) Publish(ctx context.Context, op, id string) error {
	payload, err := json.Marshal(ChangeEvent{Op: op, ID: id, At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("jobstore: marshal change: %w", err)
	}
	if err := n.rdb.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("jobstore: publish change: %w", err)
	}
	return nil
}

// Watch subscribes to the channel and waits for the subscription to be
// confirmed, so a broken connection is reported here rather than as silence.
func (n *RedisNotifier) Watch(ctx context.Context) (Feed, error) {
	ps := n.rdb.Subscribe(ctx, n.channel)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("jobstore: subscribe %s: %w", n.channel, err)
	}

	f := &redisFeed{ps: ps, events: make(chan struct{}, 1)}
	go f.run(ps.Channel())
	return f, nil
}

type redisFeed struct {
	ps     *redis.PubSub
	events chan struct{}
}

func (f *redisFeed) run(msgs <-chan *redis.Message) {
	defer close(f.events)
	for range msgs {
		signal(f.events)
	}
}

func (f *redisFeed) Events() <-chan struct{} { return f.events }

func (f *redisFeed) Close() error {
	return f.ps.Close()
}
