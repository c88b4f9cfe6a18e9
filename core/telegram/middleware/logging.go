package middleware

import (
	"log/slog"
	"time"

	"github.com/maypok86/otter"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/subbot/core/logger"
	"github.com/m3rciful/subbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/subbot/core/telegram/helpers"
)

// receipts remembers update ids logged in the last few seconds so an update
// routed through several branches is logged once. Nil when the cache could
// not be built; every update is then logged.
var receipts = newReceipts(4096, 10*time.Second)

func newReceipts(capacity int, ttl time.Duration) *otter.Cache[int, struct{}] {
	cache, err := otter.MustBuilder[int, struct{}](capacity).WithTTL(ttl).Build()
	if err != nil {
		return nil
	}
	return &cache
}

func firstReceipt(updateID int) bool {
	if receipts == nil {
		return true
	}
	if receipts.Has(updateID) {
		return false
	}
	receipts.Set(updateID, struct{}{})
	return true
}

func senderAttrs(user *tele.User, chat *tele.Chat) []slog.Attr {
	var attrs []slog.Attr
	if chat != nil {
		attrs = append(attrs,
			slog.Int64("chat_id", chat.ID),
			slog.String("chat_type", string(chat.Type)),
		)
	}
	if user == nil {
		return attrs
	}
	attrs = append(attrs, slog.Int64("user_id", user.ID))
	if user.Username != "" {
		attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
	}
	if user.LanguageCode != "" {
		attrs = append(attrs, slog.String("lang", user.LanguageCode))
	}
	return attrs
}

// LoggerMiddleware sets the update rid, stores the logging context and logs
// one sampled debug receipt per update. When it is applied on several
// branches the first run wins, so fields added in between (such as the
// conversation state) survive.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if _, ok := tghelpers.ContextFrom(c); ok {
			return next(c)
		}
		upd := c.Update()
		user, chat := c.Sender(), c.Chat()

		var userID, chatID int64
		if user != nil {
			userID = user.ID
		}
		if chat != nil {
			chatID = chat.ID
		}
		rid := logger.BuildRID(upd.ID, chatID, userID)
		c.Set("rid", rid)
		c.Set("update_start", time.Now())
		ctx := tghelpers.BuildContext(c)

		if !logger.ShouldSampleDebug() || !firstReceipt(upd.ID) {
			return next(c)
		}
		attrs := []slog.Attr{
			slog.String("status", "ok"),
			slog.String("rid", rid),
			slog.Int("update_id", upd.ID),
			slog.String("update_kind", UpdateKind(upd)),
		}
		attrs = append(attrs, senderAttrs(user, chat)...)
		switch {
		case upd.Callback != nil:
			key, payload := callbacks.ParseCallbackData(upd.Callback)
			if key != "" {
				attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 128)))
			}
			if payload != "" {
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(payload, 256)))
			}
		case upd.Message != nil:
			// token-shaped text is redacted by the log handler
			if t := c.Text(); t != "" {
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
			}
		}
		logger.LogEvent(ctx, logger.Component("tg"), slog.LevelDebug, "update.received", attrs...)
		return next(c)
	}
}
