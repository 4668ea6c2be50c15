// Package journal keeps an operator-facing record of relay attempts and support tickets.
// Message bodies are never stored, only their length. Senders are stored as
// keyed pseudonyms and entries are purged once they age past the retention window.
package journal

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Attempt is one relay dispatch and its classified outcome.
// UserID is input only; persistent backends store Sender instead.
type Attempt struct {
	UserID     int64         `db:"-"`
	Sender     uuid.UUID     `db:"sender"`
	Target     string        `db:"target"`
	Outcome    string        `db:"outcome"`
	BodyLength int           `db:"body_length"`
	Elapsed    time.Duration `db:"-"`
	CreatedAt  time.Time     `db:"created_at"`
}

// Ticket is one support report sent (or not) to the operator chat.
// UserID and Username are input only; persistent backends store Sender instead.
type Ticket struct {
	TicketID  uuid.UUID `db:"ticket_id"`
	UserID    int64     `db:"-"`
	Username  string    `db:"-"`
	Sender    uuid.UUID `db:"sender"`
	Delivered bool      `db:"delivered"`
	CreatedAt time.Time `db:"created_at"`
}

// Summary aggregates journal entries since a point in time.
type Summary struct {
	Since         time.Time
	Outcomes      map[string]int
	Tickets       int
	TicketsFailed int
}

// Attempts returns the total number of relay attempts in the summary.
func (s Summary) Attempts() int {
	n := 0
	for _, c := range s.Outcomes {
		n += c
	}
	return n
}

// Journal stores relay attempts and support tickets.
type Journal interface {
	RecordAttempt(ctx context.Context, a Attempt) error
	RecordTicket(ctx context.Context, t Ticket) error
	Summary(ctx context.Context, since time.Time) (Summary, error)
	// Purge removes entries created before the cutoff and reports how many went.
	Purge(ctx context.Context, before time.Time) (int64, error)
}

// Pseudonyms maps Telegram user IDs to stable name-based UUIDs under a
// namespace derived from a secret key.
type Pseudonyms struct {
	ns uuid.UUID
}

// NewPseudonyms derives the namespace from key. An empty key yields a random
// namespace, so pseudonyms only correlate within one process lifetime.
func NewPseudonyms(key string) Pseudonyms {
	if key == "" {
		return Pseudonyms{ns: uuid.New()}
	}
	return Pseudonyms{ns: uuid.NewSHA1(uuid.NameSpaceOID, []byte("relaybot/journal/"+key))}
}

// Of returns the pseudonym for userID.
func (p Pseudonyms) Of(userID int64) uuid.UUID {
	return uuid.NewSHA1(p.ns, strconv.AppendInt(nil, userID, 10))
}
