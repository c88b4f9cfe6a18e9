package telegram

import (
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/subbot/core/config"
	"github.com/m3rciful/subbot/core/telegram/middleware"
)

// rateLimit returns the rate limit middleware, or false when the config
// leaves it disabled.
func rateLimit(cfg coreconfig.RateLimitConfig, onLimited tele.HandlerFunc) (Middleware, bool) {
	if cfg.IntervalMS <= 0 {
		return Middleware{}, false
	}
	exclude := make(map[string]struct{}, len(cfg.ExcludeUpdates))
	for _, kind := range cfg.ExcludeUpdates {
		exclude[strings.ToLower(strings.TrimSpace(kind))] = struct{}{}
	}
	return Middleware{
		Name: "rate_limit",
		Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
			Interval:  time.Duration(cfg.IntervalMS) * time.Millisecond,
			Exclude:   exclude,
			Capacity:  cfg.TrackedUsers,
			OnLimited: onLimited,
		}),
	}, true
}

// DefaultMiddlewares builds the chain shared by every route: recover, rate
// limit, logger, reply counters, then extra. extra runs after the logger, so
// it sees the request context stored on the update.
func DefaultMiddlewares(cfg *coreconfig.Config, onLimited tele.HandlerFunc, extra ...Middleware) []Middleware {
	mws := []Middleware{{Name: "recover", Use: middleware.RecoverMiddleware}}
	if cfg != nil {
		if mw, ok := rateLimit(cfg.RateLimit, onLimited); ok {
			mws = append(mws, mw)
		}
	}
	mws = append(mws,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	)
	return append(mws, extra...)
}
