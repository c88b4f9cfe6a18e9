package commands

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Command is a slash command known to the registry.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands are dispatched only for the owner and never shown in
	// the menu.
	AdminOnly bool
	Hidden    bool
	// Aliases are alternative names, with or without the leading slash.
	Aliases []string
}

// InMenu reports whether the command belongs in the public command menu.
func (c Command) InMenu() bool {
	return !c.Hidden && !c.AdminOnly
}

// HasAlias reports whether name ("/x" or "x") is one of the aliases,
// ignoring case.
func (c Command) HasAlias(name string) bool {
	name = strings.TrimPrefix(name, "/")
	for _, alias := range c.Aliases {
		if strings.EqualFold(strings.TrimPrefix(alias, "/"), name) {
			return true
		}
	}
	return false
}
