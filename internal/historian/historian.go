// internal/historian/historian.go is an asynchronous historian that pops action records from a Redis
// queue and persists them to PostgreSQL in batches.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jason-s-yu/trivia/internal/game"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	DefaultBatchSize  = 20
	DefaultFlushDelay = 500 * time.Millisecond

	popTimeout = 3 * time.Second
)

// ActionSink stores a batch of records.
type ActionSink interface {
	InsertActions(ctx context.Context, recs []game.ActionRecord) error
}

// Historian batches queued action records into an ActionSink.
type Historian struct {
	rdb        *redis.Client
	sink       ActionSink
	queue      string
	batchSize  int
	flushDelay time.Duration
	log        logrus.FieldLogger

	// flushMu keeps one batch in flight so a failed batch is retried ahead of newer records.
	flushMu sync.Mutex
	batchMu sync.Mutex
	batch   []game.ActionRecord
}

// New builds a historian. Non-positive batch sizes and delays fall back to the defaults.
func New(rdb *redis.Client, sink ActionSink, queue string, batchSize int, flushDelay time.Duration, log logrus.FieldLogger) *Historian {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if flushDelay <= 0 {
		flushDelay = DefaultFlushDelay
	}
	return &Historian{
		rdb:        rdb,
		sink:       sink,
		queue:      queue,
		batchSize:  batchSize,
		flushDelay: flushDelay,
		log:        log,
		batch:      make([]game.ActionRecord, 0, batchSize),
	}
}

// Run pops records until ctx is done, flushing on size and on a timer. The final partial batch is
// flushed before returning.
func (h *Historian) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(h.flushDelay)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.Flush(ctx)
			}
		}
	}()

	h.log.Infof("Historian reading queue %s", h.queue)
	for ctx.Err() == nil {
		res, err := h.rdb.BLPop(ctx, popTimeout, h.queue).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				h.log.Errorf("BLPop: %v", err)
				time.Sleep(time.Second)
			}
			continue
		}
		// res[0] is the queue name and res[1] the payload.
		if len(res) < 2 {
			continue
		}
		h.Handle(ctx, []byte(res[1]))
	}

	wg.Wait()
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h.Flush(flushCtx)
	h.log.Info("Historian stopped")
}

// Handle decodes one queued payload and adds it to the batch.
func (h *Historian) Handle(ctx context.Context, payload []byte) {
	var rec game.ActionRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		h.log.Warnf("Invalid action record: %v", err)
		return
	}
	h.Add(ctx, rec)
}

// Add appends rec to the batch and flushes once the batch is full.
func (h *Historian) Add(ctx context.Context, rec game.ActionRecord) {
	h.batchMu.Lock()
	h.batch = append(h.batch, rec)
	full := len(h.batch) >= h.batchSize
	h.batchMu.Unlock()

	if full {
		h.Flush(ctx)
	}
}

// Flush writes the current batch. A failed batch is put back in front of newer records.
func (h *Historian) Flush(ctx context.Context) {
	h.flushMu.Lock()
	defer h.flushMu.Unlock()

	h.batchMu.Lock()
	if len(h.batch) == 0 {
		h.batchMu.Unlock()
		return
	}
	pending := h.batch
	h.batch = make([]game.ActionRecord, 0, h.batchSize)
	h.batchMu.Unlock()

	if err := h.sink.InsertActions(ctx, pending); err != nil {
		h.log.Errorf("Flush of %d actions failed: %v", len(pending), err)
		h.batchMu.Lock()
		h.batch = append(pending, h.batch...)
		h.batchMu.Unlock()
		return
	}
	h.log.Debugf("Flushed %d actions to DB.", len(pending))
}

// Pending returns how many records are waiting to be flushed.
func (h *Historian) Pending() int {
	h.batchMu.Lock()
	defer h.batchMu.Unlock()
	return len(h.batch)
}
