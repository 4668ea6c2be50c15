// Package commands describes slash commands registered with the bot.
package commands

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	// Aliases are alternative names, with or without the leading slash.
	Aliases []string
}

// Visible reports whether the command belongs in the public command menu.
func (c Command) Visible() bool {
	return !c.Hidden && !c.AdminOnly
}

// Endpoints returns the canonical name followed by every alias, each with a leading slash.
func (c Command) Endpoints(name string) []string {
	out := []string{Slash(name)}
	for _, a := range c.Aliases {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, Slash(a))
		}
	}
	return out
}

// Slash prefixes name with "/" unless it already has one.
func Slash(name string) string {
	if strings.HasPrefix(name, "/") {
		return name
	}
	return "/" + name
}
