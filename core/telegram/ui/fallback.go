package ui

import tele "gopkg.in/telebot.v4"

// FallbackProvider answers updates that arrive outside any conversation and
// match no command or callback route.
type FallbackProvider interface {
	// UnknownText handles plain text and rejected admin commands.
	UnknownText() tele.HandlerFunc
	// UnknownDocument handles files and media.
	UnknownDocument() tele.HandlerFunc
	// UnknownCallback handles presses on stale or foreign buttons.
	UnknownCallback() tele.HandlerFunc
}
