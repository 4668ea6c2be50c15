package journal

import (
	"context"
	"sync"
	"time"
)

const defaultMemoryCapacity = 10000

// Memory keeps the most recent entries in process memory.
type Memory struct {
	mu       sync.Mutex
	capacity int
	names    Pseudonyms
	attempts []Attempt
	tickets  []Ticket
	now      func() time.Time
}

// NewMemory returns a journal bounded to capacity entries per kind; capacity <= 0 uses a default.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	return &Memory{capacity: capacity, names: NewPseudonyms(""), now: time.Now}
}

// RecordAttempt appends a relay attempt, evicting the oldest one when full.
func (m *Memory) RecordAttempt(_ context.Context, a Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = m.now()
	}
	a.Sender, a.UserID = m.names.Of(a.UserID), 0
	m.attempts = appendBounded(m.attempts, a, m.capacity)
	return nil
}

// RecordTicket appends a support ticket, evicting the oldest one when full.
func (m *Memory) RecordTicket(_ context.Context, t Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = m.now()
	}
	t.Sender, t.UserID, t.Username = m.names.Of(t.UserID), 0, ""
	m.tickets = appendBounded(m.tickets, t, m.capacity)
	return nil
}

// Summary counts entries created at or after since.
func (m *Memory) Summary(_ context.Context, since time.Time) (Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Summary{Since: since, Outcomes: make(map[string]int)}
	for _, a := range m.attempts {
		if !a.CreatedAt.Before(since) {
			s.Outcomes[a.Outcome]++
		}
	}
	for _, t := range m.tickets {
		if t.CreatedAt.Before(since) {
			continue
		}
		s.Tickets++
		if !t.Delivered {
			s.TicketsFailed++
		}
	}
	return s, nil
}

// Purge drops entries created before the cutoff.
func (m *Memory) Purge(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int
	m.attempts, n = dropBefore(m.attempts, before, func(a Attempt) time.Time { return a.CreatedAt })
	purged := n
	m.tickets, n = dropBefore(m.tickets, before, func(t Ticket) time.Time { return t.CreatedAt })
	return int64(purged + n), nil
}

func dropBefore[T any](items []T, before time.Time, at func(T) time.Time) ([]T, int) {
	kept := items[:0]
	for _, item := range items {
		if at(item).Before(before) {
			continue
		}
		kept = append(kept, item)
	}
	return kept, len(items) - len(kept)
}

func appendBounded[T any](items []T, item T, capacity int) []T {
	if len(items) >= capacity {
		copy(items, items[1:])
		items = items[:len(items)-1]
	}
	return append(items, item)
}
