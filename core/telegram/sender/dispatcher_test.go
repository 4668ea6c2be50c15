package sender

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/relaybot/core/logger"
)

func chatContext(chatID int64) context.Context {
	return logger.WithUpdateMeta(context.Background(), 1, chatID, chatID)
}

type orderLog struct {
	mu   sync.Mutex
	seen map[int64][]int
}

func (o *orderLog) add(chat int64, n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.seen == nil {
		o.seen = map[int64][]int{}
	}
	o.seen[chat] = append(o.seen[chat], n)
}

func TestDispatcherRunsJobs(t *testing.T) {
	d := NewDispatcher(Options{Workers: 2})
	var ran atomic.Int32
	for range 5 {
		require.NoError(t, d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
			ran.Add(1)
			return nil
		}))
	}
	d.Close()
	assert.EqualValues(t, 5, ran.Load())
	assert.Zero(t, d.ErrorCount())
}

func TestDispatcherRetriesDialErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	dialErr := &net.OpError{Op: "dial", Err: errors.New("connection refused")}

	require.NoError(t, d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		if calls.Add(1) < 3 {
			return dialErr
		}
		return nil
	}))
	d.Close()
	assert.EqualValues(t, 3, calls.Load())
	assert.Zero(t, d.ErrorCount())
}

func TestDispatcherDoesNotRetryAPIErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		calls.Add(1)
		return errors.New("telegram: bad request: chat not found (400)")
	}))
	d.Close()
	assert.EqualValues(t, 1, calls.Load())
	assert.EqualValues(t, 1, d.ErrorCount())
}

func TestDispatcherQueueFullAndClosed(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	block := make(chan struct{})
	started := make(chan struct{})

	require.NoError(t, d.Enqueue(context.Background(), "a", "", func() error {
		close(started)
		<-block
		return nil
	}))
	<-started
	require.NoError(t, d.Enqueue(context.Background(), "b", "", func() error { return nil }))
	assert.ErrorIs(t, d.Enqueue(context.Background(), "c", "", func() error { return nil }), ErrQueueFull)

	close(block)
	d.Close()
	assert.ErrorIs(t, d.Enqueue(context.Background(), "d", "", func() error { return nil }), ErrQueueClosed)
	assert.Error(t, d.Enqueue(context.Background(), "e", "", nil))
}

func TestDispatcherKeepsPerChatOrder(t *testing.T) {
	d := NewDispatcher(Options{Workers: 4, QueueSize: 256})
	var log orderLog
	chats := []int64{101, 102, 103, -1001234567890}

	for n := range 30 {
		for _, chat := range chats {
			delay := time.Duration(0)
			if n == 0 {
				delay = 20 * time.Millisecond
			}
			require.NoError(t, d.Enqueue(chatContext(chat), "send.text", "sendMessage", func() error {
				time.Sleep(delay)
				log.add(chat, n)
				return nil
			}))
		}
	}
	d.Close()

	for _, chat := range chats {
		got := log.seen[chat]
		require.Len(t, got, 30, "chat %d", chat)
		for i, n := range got {
			assert.Equal(t, i, n, "chat %d out of order", chat)
		}
	}
}

func TestDispatcherRetryHoldsLaterRepliesForSameChat(t *testing.T) {
	d := NewDispatcher(Options{Workers: 3, MaxRetries: 2, RetryBackoff: 5 * time.Millisecond})
	var log orderLog
	dialErr := &net.OpError{Op: "dial", Err: errors.New("connection refused")}
	var failures atomic.Int32

	ctx := chatContext(77)
	require.NoError(t, d.Enqueue(ctx, "send.text", "sendMessage", func() error {
		if failures.Add(1) == 1 {
			return dialErr
		}
		log.add(77, 1)
		return nil
	}))
	require.NoError(t, d.Enqueue(ctx, "send.text", "sendMessage", func() error {
		log.add(77, 2)
		return nil
	}))
	d.Close()

	assert.Equal(t, []int{1, 2}, log.seen[77])
	assert.Zero(t, d.ErrorCount())
}

func TestDispatcherLaneSelection(t *testing.T) {
	d := NewDispatcher(Options{Workers: 4})
	defer d.Close()

	assert.Equal(t, d.laneFor(chatContext(42)), d.laneFor(chatContext(42)))
	assert.Equal(t, 2, d.laneFor(chatContext(42)))

	lane := d.laneFor(chatContext(-1001234567890))
	assert.GreaterOrEqual(t, lane, 0)
	assert.Less(t, lane, 4)
}
