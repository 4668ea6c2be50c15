// Package gate checks channel membership before a user may relay anything.
package gate

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/relaybot/core/logger"
	"github.com/m3rciful/relaybot/core/telegram/netutil"
)

const defaultTimeout = 30 * time.Second

// Lookup is the slice of the bot API the gate needs; *tele.Bot satisfies it.
type Lookup interface {
	ChatByUsername(name string) (*tele.Chat, error)
	ChatMemberOf(chat, user tele.Recipient) (*tele.ChatMember, error)
}

// Gate answers membership questions for one configured channel.
type Gate struct {
	api     Lookup
	channel string
	timeout time.Duration

	mu   sync.Mutex
	chat *tele.Chat
}

// New returns a gate for channel, given as "@name", "name" or a numeric chat id.
func New(api Lookup, channel string, timeout time.Duration) *Gate {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Gate{api: api, channel: normalizeChannel(channel), timeout: timeout}
}

// Channel returns the channel reference shown to users, e.g. "@news".
func (g *Gate) Channel() string {
	return g.channel
}

// IsMember reports whether userID is a member, administrator or creator of the channel.
// Failures and timeouts count as "not a member".
func (g *Gate) IsMember(ctx context.Context, userID int64) bool {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	role, err := g.role(ctx, userID)
	took := time.Since(start)
	if err != nil {
		logger.Warn(ctx, "gate", "gate.query.fail",
			slog.String("status", "fail"),
			slog.Int64("user_id", userID),
			slog.String("channel", g.channel),
			slog.String("error_kind", netutil.ErrorKind(err)),
			slog.String("err", netutil.Redact(err)),
			slog.Duration("duration", took),
		)
		return false
	}

	ok := Admits(role)
	logger.Debug(ctx, "gate", "gate.query",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.String("role", string(role)),
		slog.Bool("member", ok),
		slog.Duration("duration", took),
	)
	return ok
}

// Admits reports whether a membership status passes the gate.
func Admits(role tele.MemberStatus) bool {
	switch role {
	case tele.Member, tele.Administrator, tele.Creator:
		return true
	}
	return false
}

type roleResult struct {
	role tele.MemberStatus
	err  error
}

func (g *Gate) role(ctx context.Context, userID int64) (tele.MemberStatus, error) {
	done := make(chan roleResult, 1)
	go func() {
		chat, err := g.resolve()
		if err != nil {
			done <- roleResult{err: err}
			return
		}
		m, err := g.api.ChatMemberOf(chat, &tele.User{ID: userID})
		if err != nil {
			done <- roleResult{err: fmt.Errorf("chat member of %s: %w", g.channel, err)}
			return
		}
		if m == nil {
			done <- roleResult{err: fmt.Errorf("chat member of %s: empty response", g.channel)}
			return
		}
		done <- roleResult{role: m.Role}
	}()

	select {
	case r := <-done:
		return r.role, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// resolve looks the channel up once and caches it. A failed lookup is retried on the next call.
func (g *Gate) resolve() (*tele.Chat, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.chat != nil {
		return g.chat, nil
	}
	if id, err := strconv.ParseInt(g.channel, 10, 64); err == nil {
		g.chat = &tele.Chat{ID: id}
		return g.chat, nil
	}
	chat, err := g.api.ChatByUsername(g.channel)
	if err != nil {
		return nil, fmt.Errorf("resolve channel %s: %w", g.channel, err)
	}
	g.chat = chat
	return chat, nil
}

func normalizeChannel(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "https://t.me/")
	if s == "" {
		return s
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return s
	}
	return "@" + strings.TrimPrefix(s, "@")
}
