// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jason-s-yu/trivia/internal/game"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultQueueName is the Redis list (queue) name for game action logs.
const DefaultQueueName = "trivia_actions"

// DefaultBacklog bounds how many records may wait for Redis before new ones are dropped.
const DefaultBacklog = 1024

// Connect opens a Redis client and pings it.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
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

// Publisher pushes game action records onto a Redis list for offline consumers.
// Enqueue never blocks so it can be used as a Game's OnAction hook.
type Publisher struct {
	rdb     *redis.Client
	queue   string
	log     logrus.FieldLogger
	records chan game.ActionRecord
}

// NewPublisher returns a publisher writing to queue. Run must be started to drain it.
func NewPublisher(rdb *redis.Client, queue string, log logrus.FieldLogger) *Publisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Publisher{
		rdb:     rdb,
		queue:   queue,
		log:     log,
		records: make(chan game.ActionRecord, DefaultBacklog),
	}
}

// Enqueue hands rec to the background writer, dropping it if the backlog is full.
func (p *Publisher) Enqueue(rec game.ActionRecord) bool {
	select {
	case p.records <- rec:
		return true
	default:
		p.log.WithFields(logrus.Fields{"lobby": rec.LobbyID, "action_index": rec.ActionIndex}).
			Warn("Action log backlog full, dropping record")
		return false
	}
}

// DrainTimeout bounds how long Run keeps flushing the backlog after its context is done.
const DrainTimeout = 5 * time.Second

// Run drains queued records into Redis until ctx is done, then flushes whatever is still queued.
func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.drain()
			return
		case rec := <-p.records:
			p.publishLogged(ctx, rec)
		}
	}
}

// drain publishes every record already queued, giving up after DrainTimeout.
func (p *Publisher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), DrainTimeout)
	defer cancel()
	for {
		select {
		case rec := <-p.records:
			p.publishLogged(ctx, rec)
		default:
			return
		}
	}
}

func (p *Publisher) publishLogged(ctx context.Context, rec game.ActionRecord) {
	if err := p.Publish(ctx, rec); err != nil {
		p.log.Warnf("Failed to publish action %d for lobby %s: %v", rec.ActionIndex, rec.LobbyID, err)
	}
}

// Publish serializes the given record to JSON, then pushes it to the Redis queue.
func (p *Publisher) Publish(ctx context.Context, rec game.ActionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal ActionRecord: %w", err)
	}
	if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.queue, err)
	}
	return nil
}

// Backlog returns the number of records waiting to be written.
func (p *Publisher) Backlog() int {
	return len(p.records)
}
