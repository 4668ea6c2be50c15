package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const (
	insertAttemptSQL = `INSERT INTO relay_attempts (sender, target, outcome, body_length, elapsed_ms, created_at)
		VALUES (:sender, :target, :outcome, :body_length, :elapsed_ms, :created_at)`
	insertTicketSQL = `INSERT INTO support_tickets (ticket_id, sender, delivered, created_at)
		VALUES (:ticket_id, :sender, :delivered, :created_at)`
	purgeAttemptsSQL = `DELETE FROM relay_attempts WHERE created_at < $1`
	purgeTicketsSQL  = `DELETE FROM support_tickets WHERE created_at < $1`
)

// Postgres stores the journal in the tables created by the migrations directory.
type Postgres struct {
	db    *sqlx.DB
	names Pseudonyms
}

// NewPostgres wraps an open connection pool. Senders are stored as names.Of(userID).
func NewPostgres(db *sqlx.DB, names Pseudonyms) *Postgres {
	return &Postgres{db: db, names: names}
}

type attemptRow struct {
	Attempt
	ElapsedMS int64 `db:"elapsed_ms"`
}

func (p *Postgres) attemptRow(a Attempt) attemptRow {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	a.Sender, a.UserID = p.names.Of(a.UserID), 0
	return attemptRow{Attempt: a, ElapsedMS: a.Elapsed.Milliseconds()}
}

func (p *Postgres) ticketRow(t Ticket) Ticket {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	t.Sender, t.UserID, t.Username = p.names.Of(t.UserID), 0, ""
	return t
}

// RecordAttempt inserts a relay attempt row.
func (p *Postgres) RecordAttempt(ctx context.Context, a Attempt) error {
	if _, err := p.db.NamedExecContext(ctx, insertAttemptSQL, p.attemptRow(a)); err != nil {
		return fmt.Errorf("journal: insert attempt: %w", err)
	}
	return nil
}

// RecordTicket inserts a support ticket row.
func (p *Postgres) RecordTicket(ctx context.Context, t Ticket) error {
	if _, err := p.db.NamedExecContext(ctx, insertTicketSQL, p.ticketRow(t)); err != nil {
		return fmt.Errorf("journal: insert ticket: %w", err)
	}
	return nil
}

// Purge deletes attempts and tickets created before the cutoff in one transaction.
func (p *Postgres) Purge(ctx context.Context, before time.Time) (int64, error) {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("journal: purge: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var total int64
	for _, q := range []string{purgeAttemptsSQL, purgeTicketsSQL} {
		res, err := tx.ExecContext(ctx, q, before)
		if err != nil {
			return 0, fmt.Errorf("journal: purge: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("journal: purge: %w", err)
		}
		total += n
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("journal: purge: %w", err)
	}
	return total, nil
}

type outcomeCount struct {
	Outcome string `db:"outcome"`
	N       int    `db:"n"`
}

// Summary aggregates attempts by outcome and tickets by delivery status.
func (p *Postgres) Summary(ctx context.Context, since time.Time) (Summary, error) {
	s := Summary{Since: since, Outcomes: make(map[string]int)}

	var rows []outcomeCount
	if err := p.db.SelectContext(ctx, &rows,
		`SELECT outcome, count(*) AS n FROM relay_attempts WHERE created_at >= $1 GROUP BY outcome`,
		since,
	); err != nil {
		return s, fmt.Errorf("journal: summarize attempts: %w", err)
	}
	for _, r := range rows {
		s.Outcomes[r.Outcome] = r.N
	}

	var tickets struct {
		Total  int `db:"total"`
		Failed int `db:"failed"`
	}
	if err := p.db.GetContext(ctx, &tickets,
		`SELECT count(*) AS total, count(*) FILTER (WHERE NOT delivered) AS failed
		 FROM support_tickets WHERE created_at >= $1`,
		since,
	); err != nil {
		return s, fmt.Errorf("journal: summarize tickets: %w", err)
	}
	s.Tickets = tickets.Total
	s.TicketsFailed = tickets.Failed
	return s, nil
}
