package state

import "fmt"

// Stage identifies where a user is in the relay conversation.
type Stage int

const (
	// StageNone means there is no session; the user has not started or just finished.
	StageNone Stage = iota
	// StageAwaitingGate waits for the user to join the required channel.
	StageAwaitingGate
	// StageAwaitingUsername waits for the recipient handle.
	StageAwaitingUsername
	// StageAwaitingMessage waits for the message body.
	StageAwaitingMessage
	// StageAwaitingSupport waits for the text forwarded to operators.
	StageAwaitingSupport
)

func (s Stage) String() string {
	switch s {
	case StageNone:
		return "none"
	case StageAwaitingGate:
		return "awaiting_gate"
	case StageAwaitingUsername:
		return "awaiting_username"
	case StageAwaitingMessage:
		return "awaiting_message"
	case StageAwaitingSupport:
		return "awaiting_support"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Session is a user's conversation state.
type Session struct {
	UserID  int64
	Stage   Stage
	Started bool
	// TargetHandle is set once, right before Stage becomes StageAwaitingMessage.
	TargetHandle    string
	SupportAttempts int
}

// Active reports whether the session can accept conversation input.
func (s Session) Active() bool {
	return s.Started && s.Stage != StageNone
}

// Store holds at most one session per user.
// Callers serialize work for a user with Lock; Get/Put/Clear are safe without it.
type Store interface {
	Get(userID int64) (Session, bool)
	Put(s Session)
	Clear(userID int64)
	Len() int
	Lock(userID int64) (unlock func())
}
