package middleware

import (
	"log/slog"
	"runtime/debug"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/subbot/core/logger"
	tghelpers "github.com/m3rciful/subbot/core/telegram/helpers"
)

// RecoverMiddleware catches panics in handlers and prevents the bot from crashing.
// The update is dropped; the user gets no reply. The log line carries the
// user, the conversation state when one is stored, and the update kind.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(tghelpers.BuildContext(c), "tg", "tg.panic",
					slog.Any("err", r),
					slog.String("update_kind", UpdateKind(c.Update())),
					slog.String("stack", string(debug.Stack())),
				)
			}
		}()
		return next(c)
	}
}
