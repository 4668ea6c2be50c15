// Package mtproto implements the relay mediator on top of a Telegram user account.
// A fresh MTProto connection is opened for every relay and closed right after it.
package mtproto

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/telegram/message/peer"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"

	"github.com/m3rciful/relaybot/core/logger"
	"github.com/m3rciful/relaybot/core/relay"
)

// ErrUnauthorized is returned when the stored session is not logged in.
var ErrUnauthorized = errors.New("mtproto: mediator session is not authorized")

// Telegram usernames: 5-32 chars, letters, digits and underscores, starting with a letter.
var usernameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{3,30}[A-Za-z0-9]$`)

// Options holds mediator account credentials.
type Options struct {
	AppID   int
	AppHash string
	// SessionString is a Telethon StringSession; it wins over SessionFile.
	SessionString string
	SessionFile   string
}

// Mediator satisfies relay.Mediator.
type Mediator struct {
	appID   int
	appHash string
	storage session.Storage
}

var _ relay.Mediator = (*Mediator)(nil)

// New prepares session storage; no connection is made until WithConn.
func New(ctx context.Context, opts Options) (*Mediator, error) {
	if opts.AppID <= 0 || strings.TrimSpace(opts.AppHash) == "" {
		return nil, fmt.Errorf("mtproto: app id and hash are required")
	}

	var storage session.Storage
	switch {
	case opts.SessionString != "":
		data, err := session.TelethonSession(opts.SessionString)
		if err != nil {
			return nil, fmt.Errorf("mtproto: decode session string: %w", err)
		}
		mem := new(session.StorageMemory)
		loader := session.Loader{Storage: mem}
		if err := loader.Save(ctx, data); err != nil {
			return nil, fmt.Errorf("mtproto: store session: %w", err)
		}
		storage = mem
	case opts.SessionFile != "":
		storage = &session.FileStorage{Path: opts.SessionFile}
	default:
		return nil, fmt.Errorf("mtproto: session string or session file is required")
	}

	return &Mediator{appID: opts.AppID, appHash: opts.AppHash, storage: storage}, nil
}

// WithConn connects as the mediator account, runs fn and disconnects.
func (m *Mediator) WithConn(ctx context.Context, fn func(ctx context.Context, conn relay.Conn) error) error {
	client := telegram.NewClient(m.appID, m.appHash, telegram.Options{
		SessionStorage: m.storage,
		NoUpdates:      true,
	})

	var fnErr error
	runErr := client.Run(ctx, func(ctx context.Context) error {
		status, err := client.Auth().Status(ctx)
		if err != nil {
			return fmt.Errorf("auth status: %w", err)
		}
		if !status.Authorized {
			return ErrUnauthorized
		}
		api := client.API()
		fnErr = fn(ctx, &conn{
			resolver: peer.DefaultResolver(api),
			sender:   message.NewSender(api),
		})
		return nil
	})
	if fnErr != nil {
		return fnErr
	}
	if runErr != nil {
		logger.Warn(ctx, "relay.mtproto", "mtproto.run.fail", slog.String("err", runErr.Error()))
		return translate(runErr)
	}
	return nil
}

type conn struct {
	resolver peer.Resolver
	sender   *message.Sender
}

func (c *conn) Resolve(ctx context.Context, handle string) (relay.Recipient, error) {
	username := strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if !usernameRe.MatchString(username) {
		return relay.Recipient{}, fmt.Errorf("%w: malformed handle %q", relay.ErrRecipientNotFound, handle)
	}

	p, err := c.resolver.ResolveDomain(ctx, username)
	if err != nil {
		if tgerr.Is(err, "USERNAME_INVALID", "USERNAME_NOT_OCCUPIED") {
			return relay.Recipient{}, fmt.Errorf("%w: %s", relay.ErrRecipientNotFound, handle)
		}
		return relay.Recipient{}, translate(err)
	}

	user, ok := p.(*tg.InputPeerUser)
	if !ok {
		return relay.Recipient{}, fmt.Errorf("%w: %s is not a user", relay.ErrRecipientNotFound, handle)
	}
	return relay.Recipient{Handle: handle, ID: user.UserID, Peer: p}, nil
}

func (c *conn) Send(ctx context.Context, to relay.Recipient, body string) error {
	p, ok := to.Peer.(tg.InputPeerClass)
	if !ok {
		return fmt.Errorf("mtproto: recipient %s was not resolved by this connection", to.Handle)
	}
	if _, err := c.sender.To(p).Text(ctx, body); err != nil {
		return translate(err)
	}
	return nil
}

// translate converts flood errors into relay.FloodError and leaves the rest untouched.
func translate(err error) error {
	if d, ok := tgerr.AsFloodWait(err); ok {
		return fmt.Errorf("%w: %w", &relay.FloodError{Wait: d}, err)
	}
	if tgerr.Is(err, "PEER_FLOOD") {
		return fmt.Errorf("%w: %w", &relay.FloodError{}, err)
	}
	return err
}
