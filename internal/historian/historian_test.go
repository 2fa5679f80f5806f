// internal/historian/historian_test.go
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/trivia/internal/cache"
	"github.com/jason-s-yu/trivia/internal/game"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	mu      sync.Mutex
	fail    bool
	batches [][]game.ActionRecord
}

func (s *fakeSink) InsertActions(_ context.Context, recs []game.ActionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("database unavailable")
	}
	s.batches = append(s.batches, append([]game.ActionRecord(nil), recs...))
	return nil
}

func newTestHistorian(sink ActionSink, batchSize int) *Historian {
	logger, _ := test.NewNullLogger()
	return New(nil, sink, "trivia_actions", batchSize, time.Second, logger)
}

func record(i int) game.ActionRecord {
	return game.ActionRecord{GameID: uuid.Nil, LobbyID: "silly-rat", ActionIndex: i, ActionType: "buzz"}
}

func TestFlushesWhenBatchIsFull(t *testing.T) {
	sink := &fakeSink{}
	h := newTestHistorian(sink, 3)
	ctx := context.Background()

	h.Add(ctx, record(1))
	h.Add(ctx, record(2))
	assert.Empty(t, sink.batches)
	h.Add(ctx, record(3))

	require.Len(t, sink.batches, 1)
	assert.Len(t, sink.batches[0], 3)
	assert.Equal(t, 0, h.Pending())
}

func TestFailedFlushKeepsOrder(t *testing.T) {
	sink := &fakeSink{fail: true}
	h := newTestHistorian(sink, 10)
	ctx := context.Background()

	h.Add(ctx, record(1))
	h.Flush(ctx)
	assert.Equal(t, 1, h.Pending())

	h.Add(ctx, record(2))
	sink.fail = false
	h.Flush(ctx)

	require.Len(t, sink.batches, 1)
	assert.Equal(t, 1, sink.batches[0][0].ActionIndex)
	assert.Equal(t, 2, sink.batches[0][1].ActionIndex)
}

// stallingSink holds its first insert until release is closed, then fails it.
type stallingSink struct {
	fakeSink
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (s *stallingSink) InsertActions(ctx context.Context, recs []game.ActionRecord) error {
	first := false
	s.once.Do(func() { first = true })
	if first {
		close(s.entered)
		<-s.release
		return errors.New("database unavailable")
	}
	return s.fakeSink.InsertActions(ctx, recs)
}

func TestConcurrentFlushesKeepOrder(t *testing.T) {
	sink := &stallingSink{entered: make(chan struct{}), release: make(chan struct{})}
	h := newTestHistorian(sink, 10)
	ctx := context.Background()

	h.Add(ctx, record(1))
	firstDone := make(chan struct{})
	go func() {
		h.Flush(ctx)
		close(firstDone)
	}()
	<-sink.entered

	h.Add(ctx, record(2))
	secondDone := make(chan struct{})
	go func() {
		h.Flush(ctx)
		close(secondDone)
	}()

	time.Sleep(50 * time.Millisecond)
	sink.mu.Lock()
	assert.Empty(t, sink.batches, "second flush waits for the first")
	sink.mu.Unlock()

	close(sink.release)
	<-firstDone
	<-secondDone

	require.Len(t, sink.batches, 1)
	require.Len(t, sink.batches[0], 2)
	assert.Equal(t, 1, sink.batches[0][0].ActionIndex)
	assert.Equal(t, 2, sink.batches[0][1].ActionIndex)
}

func TestHandleDecodesPublishedRecords(t *testing.T) {
	sink := &fakeSink{}
	h := newTestHistorian(sink, 1)

	data, err := json.Marshal(record(7))
	require.NoError(t, err)
	h.Handle(context.Background(), data)
	h.Handle(context.Background(), []byte("{not json"))

	require.Len(t, sink.batches, 1)
	assert.Equal(t, 7, sink.batches[0][0].ActionIndex)
	assert.Equal(t, "silly-rat", sink.batches[0][0].LobbyID)
}

func TestDefaults(t *testing.T) {
	h := newTestHistorian(&fakeSink{}, 0)
	assert.Equal(t, DefaultBatchSize, h.batchSize)
}

// TestRunDrainsRedis needs a scratch redis at TRIVIA_TEST_REDIS_ADDR.
func TestRunDrainsRedis(t *testing.T) {
	addr := os.Getenv("TRIVIA_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TRIVIA_TEST_REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rdb, err := cache.Connect(ctx, addr, 0)
	require.NoError(t, err)
	defer rdb.Close()

	queue := "trivia_actions_test_" + uuid.NewString()
	defer rdb.Del(context.Background(), queue)

	logger, _ := test.NewNullLogger()
	pub := cache.NewPublisher(rdb, queue, logger)
	for i := 1; i <= 3; i++ {
		require.NoError(t, pub.Publish(ctx, record(i)))
	}

	sink := &fakeSink{}
	h := New(rdb, sink, queue, 3, 50*time.Millisecond, logger)
	runCtx, stop := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		h.Run(runCtx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.batches) == 1
	}, 5*time.Second, 20*time.Millisecond)
	stop()
	<-done

	assert.Equal(t, []int{1, 2, 3}, []int{
		sink.batches[0][0].ActionIndex,
		sink.batches[0][1].ActionIndex,
		sink.batches[0][2].ActionIndex,
	})
}
