package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/subbot/core/telegram/commands"
)

func noop(tele.Context) error { return nil }

func TestCommandName(t *testing.T) {
	cases := map[string]string{
		"/start":            "/start",
		"  /Start@my_bot x": "/start",
		"/newbot\nmore":     "/newbot",
		"/":                 "",
		"hello":             "",
		"":                  "",
	}
	for in, want := range cases {
		assert.Equal(t, want, CommandName(in), in)
	}
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/newbot", commands.Command{
		Handler:     noop,
		Description: "Create a bot",
		Aliases:     []string{"create"},
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     noop,
		Description: "Counts",
		AdminOnly:   true,
	})
	// rejected: no slash, no description
	reg.RegisterCommand("help", commands.Command{Handler: noop, Description: "Help"})
	reg.RegisterCommand("/empty", commands.Command{Handler: noop})

	key, _, ok := reg.LookupCommand("/create@my_bot")
	require.True(t, ok)
	assert.Equal(t, "/newbot", key)

	key, cmd, ok := reg.LookupCommand("/STATS")
	require.True(t, ok)
	assert.Equal(t, "/stats", key)
	assert.False(t, cmd.InMenu())

	_, _, ok = reg.LookupCommand("/help")
	assert.False(t, ok)

	assert.Len(t, reg.Commands(), 2)
	menu := reg.ListCommands(true)
	require.Len(t, menu, 1)
	assert.Equal(t, "/newbot", menu[0].Text)
}

func TestCommandHasAlias(t *testing.T) {
	cmd := commands.Command{Aliases: []string{"/Create", "new"}}
	assert.True(t, cmd.HasAlias("create"))
	assert.True(t, cmd.HasAlias("/NEW"))
	assert.False(t, cmd.HasAlias("/newbot"))
}
