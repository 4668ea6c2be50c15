package relay

import (
	"errors"
	"fmt"
	"time"
)

// Outcome classifies a single relay attempt.
type Outcome int

const (
	// Delivered means the mediator sent the message to the resolved recipient.
	Delivered Outcome = iota
	// InvalidRecipient means the handle does not exist, is malformed or is not a user.
	InvalidRecipient
	// Throttled means the mediator account itself is flood limited upstream.
	Throttled
	// TransientFailure covers every other upstream, network or timeout error.
	TransientFailure
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case InvalidRecipient:
		return "invalid_recipient"
	case Throttled:
		return "throttled"
	case TransientFailure:
		return "transient"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// OK reports whether the message reached the recipient.
func (o Outcome) OK() bool {
	return o == Delivered
}

var (
	// ErrRecipientNotFound is returned by a Conn when a handle cannot be resolved to a user.
	ErrRecipientNotFound = errors.New("relay: recipient not found")
	// ErrFlood is matched by errors reporting that the mediator account is rate limited.
	ErrFlood = errors.New("relay: mediator flood limited")
)

// FloodError reports an upstream flood limit on the mediator account.
// Wait is zero when the platform did not say how long to back off.
type FloodError struct {
	Wait time.Duration
}

func (e *FloodError) Error() string {
	if e.Wait > 0 {
		return fmt.Sprintf("relay: mediator flood limited, retry after %s", e.Wait)
	}
	return ErrFlood.Error()
}

// Is makes errors.Is(err, ErrFlood) hold for any FloodError.
func (e *FloodError) Is(target error) bool {
	return target == ErrFlood
}

// Classify maps a dispatch error onto an Outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return Delivered
	case errors.Is(err, ErrRecipientNotFound):
		return InvalidRecipient
	case errors.Is(err, ErrFlood):
		return Throttled
	default:
		return TransientFailure
	}
}
