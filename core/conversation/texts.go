package conversation

import "strings"

// Texts are the user-facing strings. Empty fields fall back to English defaults.
// "{channel}" and "{handle}" placeholders are substituted where they make sense.
type Texts struct {
	EnterRecipient string `yaml:"enter_recipient"`
	JoinPrompt     string `yaml:"join_prompt"`
	NotMember      string `yaml:"not_member"`
	AlreadyPassed  string `yaml:"already_passed"`
	AskMessage     string `yaml:"ask_message"`
	BadHandle      string `yaml:"bad_handle"`
	Delivered      string `yaml:"delivered"`
	DeliveryFailed string `yaml:"delivery_failed"`
	SupportPrompt  string `yaml:"support_prompt"`
	SupportSent    string `yaml:"support_sent"`
	SupportRetry   string `yaml:"support_retry"`
	SupportFailed  string `yaml:"support_failed"`
	StartFirst     string `yaml:"start_first"`
	TextOnly       string `yaml:"text_only"`
	NoLinks        string `yaml:"no_links"`
	Generic        string `yaml:"generic_failure"`
	SlowDown       string `yaml:"slow_down"`
	Help           string `yaml:"help"`

	RetryButton   string `yaml:"retry_button"`
	SupportButton string `yaml:"support_button"`
}

// DefaultTexts returns the built-in English texts.
func DefaultTexts() Texts {
	return Texts{
		EnterRecipient: "Send me the username of the person you want to write to.",
		JoinPrompt:     "To use this bot, join {channel} first, then press the button below.",
		NotMember:      "You have not joined the channel yet.",
		AlreadyPassed:  "You are already verified.",
		AskMessage:     "Now send the message for {handle}:",
		BadHandle:      "That does not look like a username. Try again.",
		Delivered:      "Your message was delivered to {handle}.",
		DeliveryFailed: "The message could not be delivered. You can contact support.",
		SupportPrompt:  "Describe the problem in one message and it will be forwarded to support.",
		SupportSent:    "Thanks, support has received your message.",
		SupportRetry:   "Support is unavailable right now. Please send your message again.",
		SupportFailed:  "Support is unavailable right now. Please try again later with /start.",
		StartFirst:     "Please send /start first.",
		TextOnly:       "Only text messages are supported.",
		NoLinks:        "Links are not allowed.",
		Generic:        "Something went wrong. Please start over with /start.",
		SlowDown:       "You are sending messages too fast. Please wait a moment.",
		Help:           "1. /start and join the channel.\n2. Send the recipient's username.\n3. Send your message.\nIt is delivered anonymously.",
		RetryButton:    "I have joined",
		SupportButton:  "Contact support",
	}
}

// WithDefaults fills every empty field from DefaultTexts.
func (t Texts) WithDefaults() Texts {
	d := DefaultTexts()
	fill := func(dst *string, def string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = def
		}
	}
	fill(&t.EnterRecipient, d.EnterRecipient)
	fill(&t.JoinPrompt, d.JoinPrompt)
	fill(&t.NotMember, d.NotMember)
	fill(&t.AlreadyPassed, d.AlreadyPassed)
	fill(&t.AskMessage, d.AskMessage)
	fill(&t.BadHandle, d.BadHandle)
	fill(&t.Delivered, d.Delivered)
	fill(&t.DeliveryFailed, d.DeliveryFailed)
	fill(&t.SupportPrompt, d.SupportPrompt)
	fill(&t.SupportSent, d.SupportSent)
	fill(&t.SupportRetry, d.SupportRetry)
	fill(&t.SupportFailed, d.SupportFailed)
	fill(&t.StartFirst, d.StartFirst)
	fill(&t.TextOnly, d.TextOnly)
	fill(&t.NoLinks, d.NoLinks)
	fill(&t.Generic, d.Generic)
	fill(&t.SlowDown, d.SlowDown)
	fill(&t.Help, d.Help)
	fill(&t.RetryButton, d.RetryButton)
	fill(&t.SupportButton, d.SupportButton)
	return t
}

func render(tmpl, channel, handle string) string {
	return strings.NewReplacer("{channel}", channel, "{handle}", handle).Replace(tmpl)
}
