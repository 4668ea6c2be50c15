package conversation

import "fmt"

// EventKind is the type of inbound update.
type EventKind int

const (
	EventStart EventKind = iota
	EventText
	EventNonText
	EventButton
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventText:
		return "text"
	case EventNonText:
		return "non_text"
	case EventButton:
		return "button"
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Action identifies an inline button.
type Action string

const (
	ActionRetryGate    Action = "retry_gate"
	ActionStartSupport Action = "start_support"
)

// Event is one inbound update for a user.
type Event struct {
	UserID   int64
	Username string
	Kind     EventKind
	// Text is the message body for EventText.
	Text string
	// Media names the content type for EventNonText, e.g. "photo".
	Media  string
	Action Action
	// Displayed is the text of the message a button belongs to.
	Displayed string
}

// CommandKind is the type of outbound instruction.
type CommandKind int

const (
	// CommandReply sends a new message.
	CommandReply CommandKind = iota
	// CommandEdit replaces the message the pressed button belongs to.
	CommandEdit
	// CommandNotice answers the button press; an empty Text just acknowledges it.
	CommandNotice
)

// Button is an inline button attached to a reply or edit.
type Button struct {
	Text   string
	Action Action
}

// Command is one instruction for the chat front end.
type Command struct {
	Kind    CommandKind
	Text    string
	Buttons []Button
}

func reply(text string, buttons ...Button) Command {
	return Command{Kind: CommandReply, Text: text, Buttons: buttons}
}

func notice(text string) Command {
	return Command{Kind: CommandNotice, Text: text}
}

// editIfChanged returns an edit command unless the message already shows text.
func editIfChanged(displayed, text string, buttons ...Button) []Command {
	if displayed == text {
		return nil
	}
	return []Command{{Kind: CommandEdit, Text: text, Buttons: buttons}}
}
