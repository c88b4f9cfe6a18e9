package router

import (
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/subbot/core/telegram"
	"github.com/m3rciful/subbot/core/telegram/middleware"
)

// FSM is the conversation side of the bot: it tells whether a user is inside
// a conversation and handles their input while they are.
type FSM interface {
	InProgress(userID int64) bool
	ManagerHandler(c tele.Context) error
}

// TextOptions holds the handlers for messages nobody else claims.
type TextOptions struct {
	UnknownText tele.HandlerFunc
	// UnknownDocument also answers photos, stickers, voice and video.
	UnknownDocument tele.HandlerFunc
}

// mediaEndpoints share one handler; none of them carries usable input.
var mediaEndpoints = []string{
	tele.OnDocument,
	tele.OnPhoto,
	tele.OnSticker,
	tele.OnVoice,
	tele.OnVideo,
}

func inConversation(fsm FSM, c tele.Context) bool {
	sender := c.Sender()
	return fsm != nil && sender != nil && fsm.InProgress(sender.ID)
}

// TextRoutes builds the text and media routes. Text goes to the conversation
// in progress first, then to commands known by name or alias, and finally to
// UnknownText.
func TextRoutes(fsm FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	text := func(c tele.Context) error {
		start := time.Now()
		if inConversation(fsm, c) {
			return handleWithSummary(c, "fsm", start, func() error {
				return fsm.ManagerHandler(c)
			})
		}
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil {
				return handleWithSummary(c, normalizeHandlerName(key), start, func() error {
					return cmd.Handler(c)
				})
			}
		}
		if opts.UnknownText == nil {
			logHandlerSummary(c, "unknown_text", start, true, nil)
			return nil
		}
		return handleWithSummary(c, "unknown_text", start, func() error {
			return opts.UnknownText(c)
		})
	}

	media := func(c tele.Context) error {
		start := time.Now()
		if inConversation(fsm, c) {
			return handleWithSummary(c, "fsm_media", start, func() error {
				return fsm.ManagerHandler(c)
			})
		}
		if opts.UnknownDocument == nil {
			logHandlerSummary(c, "unexpected_media", start, true, nil)
			return nil
		}
		return handleWithSummary(c, "unexpected_media", start, func() error {
			return opts.UnknownDocument(c)
		})
	}

	wrap := func(h tele.HandlerFunc) tele.HandlerFunc {
		return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
	}
	routes := []tg.Route{{Endpoint: tele.OnText, Handler: wrap(text)}}
	for _, ep := range mediaEndpoints {
		routes = append(routes, tg.Route{Endpoint: ep, Handler: wrap(media)})
	}
	return routes
}
