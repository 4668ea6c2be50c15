package journal

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPseudonymsAreStablePerKey(t *testing.T) {
	a := NewPseudonyms("secret")
	b := NewPseudonyms("secret")
	other := NewPseudonyms("other")

	assert.Equal(t, a.Of(42), b.Of(42))
	assert.NotEqual(t, a.Of(42), a.Of(43))
	assert.NotEqual(t, a.Of(42), other.Of(42))
	assert.Equal(t, uuid.Version(5), a.Of(42).Version())
}

func TestPseudonymsWithoutKeyDifferPerInstance(t *testing.T) {
	a, b := NewPseudonyms(""), NewPseudonyms("")
	assert.Equal(t, a.Of(7), a.Of(7))
	assert.NotEqual(t, a.Of(7), b.Of(7))
}

func TestPostgresRowsCarryPseudonymOnly(t *testing.T) {
	names := NewPseudonyms("secret")
	p := NewPostgres(nil, names)

	row := p.attemptRow(Attempt{UserID: 99, Target: "@alice", Outcome: "delivered", Elapsed: 1500 * time.Millisecond})
	assert.Zero(t, row.UserID)
	assert.Equal(t, names.Of(99), row.Sender)
	assert.EqualValues(t, 1500, row.ElapsedMS)
	assert.False(t, row.CreatedAt.IsZero())

	ticket := p.ticketRow(Ticket{TicketID: uuid.New(), UserID: 99, Username: "alice"})
	assert.Zero(t, ticket.UserID)
	assert.Empty(t, ticket.Username)
	assert.Equal(t, names.Of(99), ticket.Sender)
	assert.NotContains(t, insertAttemptSQL, "user_id")
	assert.NotContains(t, insertTicketSQL, "user_id")
}

type purgeCounter struct {
	*Memory
	calls  atomic.Int32
	before atomic.Int64
	err    error
}

func (p *purgeCounter) Purge(ctx context.Context, before time.Time) (int64, error) {
	p.calls.Add(1)
	p.before.Store(before.UnixNano())
	if p.err != nil {
		return 0, p.err
	}
	return p.Memory.Purge(ctx, before)
}

func TestRetainPurgesUntilCancelled(t *testing.T) {
	j := &purgeCounter{Memory: NewMemory(0)}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Retain(ctx, j, 24*time.Hour, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return j.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	cutoff := time.Unix(0, j.before.Load())
	assert.WithinDuration(t, time.Now().Add(-24*time.Hour), cutoff, time.Second)
}

func TestRetainKeepsGoingAfterErrors(t *testing.T) {
	j := &purgeCounter{Memory: NewMemory(0), err: errors.New("db down")}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Retain(ctx, j, time.Hour, 5*time.Millisecond)

	require.Eventually(t, func() bool { return j.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestRetainDisabled(t *testing.T) {
	j := &purgeCounter{Memory: NewMemory(0)}
	Retain(context.Background(), j, 0, time.Millisecond)
	assert.Zero(t, j.calls.Load())
}
