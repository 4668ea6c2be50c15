package state

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePutGetClear(t *testing.T) {
	st := NewMemoryStore()

	_, ok := st.Get(42)
	assert.False(t, ok)

	st.Put(Session{UserID: 42, Stage: StageAwaitingUsername, Started: true})
	s, ok := st.Get(42)
	require.True(t, ok)
	assert.Equal(t, StageAwaitingUsername, s.Stage)
	assert.True(t, s.Active())
	assert.Equal(t, 1, st.Len())

	// Returned sessions are copies.
	s.TargetHandle = "@mallory"
	again, _ := st.Get(42)
	assert.Empty(t, again.TargetHandle)

	st.Clear(42)
	_, ok = st.Get(42)
	assert.False(t, ok)
	assert.Zero(t, st.Len())
}

func TestStorePutStageNoneRemoves(t *testing.T) {
	st := NewMemoryStore()
	st.Put(Session{UserID: 1, Stage: StageAwaitingMessage, Started: true, TargetHandle: "@a"})
	st.Put(Session{UserID: 1, Stage: StageNone})
	_, ok := st.Get(1)
	assert.False(t, ok)
}

func TestLockSerializesSameUser(t *testing.T) {
	st := NewMemoryStore()

	var (
		mu      sync.Mutex
		active  int
		overlap bool
		wg      sync.WaitGroup
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := st.Lock(7)
			defer unlock()

			mu.Lock()
			active++
			if active > 1 {
				overlap = true
			}
			mu.Unlock()

			time.Sleep(2 * time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.False(t, overlap)
	assert.Zero(t, st.(*memoryStore).lockCount(), "lock entries should be released")
}

func TestLockDifferentUsersDoNotContend(t *testing.T) {
	st := NewMemoryStore()
	unlockA := st.Lock(1)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := st.Lock(2)
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for user 2 blocked behind user 1")
	}
}

func TestUnlockIsIdempotent(t *testing.T) {
	st := NewMemoryStore()
	unlock := st.Lock(3)
	unlock()
	unlock()

	relock := st.Lock(3)
	relock()
	assert.Zero(t, st.(*memoryStore).lockCount())
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "awaiting_username", StageAwaitingUsername.String())
	assert.Equal(t, "none", StageNone.String())
	assert.Equal(t, "stage(99)", Stage(99).String())
}
