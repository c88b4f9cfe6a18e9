package middleware

import (
	"log/slog"
	"time"

	"github.com/maypok86/otter"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/subbot/core/logger"
	tghelpers "github.com/m3rciful/subbot/core/telegram/helpers"
)

const defaultRateLimitCapacity = 10_000

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval time.Duration
	Exclude  map[string]struct{}
	// Capacity bounds the number of tracked users; 0 selects a default.
	Capacity  int
	OnLimited tele.HandlerFunc
}

// UpdateKind names the update for exclusion lists: callback, message or other.
func UpdateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	case upd.Query != nil:
		return "inline_query"
	}
	return "other"
}

// RateLimitMiddleware returns a middleware that enforces a minimum interval
// between updates from the same user. Last-seen times live in a bounded
// cache whose entries expire shortly after the interval.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	if opts.Interval <= 0 {
		return func(next tele.HandlerFunc) tele.HandlerFunc { return next }
	}
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = defaultRateLimitCapacity
	}
	// otter expires on a coarse clock; the stored time keeps the check exact
	lastSeen, err := otter.MustBuilder[int64, time.Time](capacity).
		WithTTL(opts.Interval + time.Second).
		Build()
	if err != nil {
		logger.TG.Error("rate limit disabled",
			slog.String("event", "tg.rate_limit"),
			slog.String("err", err.Error()),
		)
		return func(next tele.HandlerFunc) tele.HandlerFunc { return next }
	}

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil {
				return next(c)
			}
			kind := UpdateKind(c.Update())
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}

			now := time.Now()
			if last, ok := lastSeen.Get(user.ID); ok && now.Sub(last) < opts.Interval {
				logger.Warn(tghelpers.BuildContext(c), "tg", "tg.rate_limit",
					slog.Int64("user_id", user.ID),
					slog.String("update_kind", kind),
				)
				if opts.OnLimited != nil {
					_ = opts.OnLimited(c)
				}
				return nil
			}
			lastSeen.Set(user.ID, now)
			return next(c)
		}
	}
}
