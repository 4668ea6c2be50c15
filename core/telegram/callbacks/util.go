// Package callbacks decodes telebot inline button payloads.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// ParseCallbackData parses Telebot's \f<unique>|<payload> encoding.
// Returns unique and payload (may be empty).
func ParseCallbackData(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	unique, payload, _ := strings.Cut(raw, "|")
	return strings.TrimSpace(unique), payload
}

// Key returns cb.Unique if present; otherwise parses it from Data.
func Key(cb *tele.Callback) string {
	if cb == nil {
		return ""
	}
	if cb.Unique != "" {
		return cb.Unique
	}
	k, _ := ParseCallbackData(cb)
	return k
}

// CallbackKey returns the key of the callback carried by c.
func CallbackKey(c tele.Context) string {
	return Key(c.Callback())
}

// MessageText returns the text of the message a callback button belongs to.
func MessageText(c tele.Context) string {
	cb := c.Callback()
	if cb == nil || cb.Message == nil {
		return ""
	}
	return cb.Message.Text
}
