package router

import (
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/subbot/core/logger"
	tg "github.com/m3rciful/subbot/core/telegram"
	"github.com/m3rciful/subbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/subbot/core/telegram/helpers"
	"github.com/m3rciful/subbot/core/telegram/middleware"
)

// CallbackOptions routes button presses.
type CallbackOptions struct {
	// FSM receives every press of a user inside a conversation.
	FSM FSM
	// NotFound handles presses outside a conversation.
	NotFound tele.HandlerFunc
}

// CallbackRoute returns a handler that acknowledges a button press before
// anything is rendered, then hands it to the conversation in progress or to
// NotFound. A failed acknowledgement is logged and not retried.
func CallbackRoute(opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}

		key, _ := callbacks.ParseCallbackData(c.Callback())
		extras := []slog.Attr{slog.String("cb_key", logger.SanitizeLimit(key, 64))}

		if err := c.Respond(); err != nil {
			logger.Warn(tghelpers.BuildContext(c), "tg", "callback.ack_failed",
				slog.String("cb_key", logger.SanitizeLimit(key, 64)),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
		}

		if inConversation(opts.FSM, c) {
			return handleWithSummary(c, "fsm_callback", start, func() error {
				return opts.FSM.ManagerHandler(c)
			}, extras...)
		}

		extras = append(extras, slog.String("reason", "not_found"))
		return handleWithSummary(c, "callback."+normalizeHandlerName(key), start, func() error {
			if opts.NotFound != nil {
				return opts.NotFound(c)
			}
			return nil
		}, extras...)
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
