package helpers

import (
	"context"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/subbot/core/logger"
)

const contextKey = "logger_ctx"

// StoreContext keeps ctx on the update so later middleware and handlers log
// with the same rid and metadata.
func StoreContext(c tele.Context, ctx context.Context) {
	if c == nil || ctx == nil {
		return
	}
	c.Set(contextKey, ctx)
}

// ContextFrom returns the context stored by StoreContext.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	ctx, ok := c.Get(contextKey).(context.Context)
	return ctx, ok && ctx != nil
}

// ids returns the sender and chat of an update; either may be zero.
func ids(c tele.Context) (userID, chatID int64) {
	if u := c.Sender(); u != nil {
		userID = u.ID
	}
	if ch := c.Chat(); ch != nil {
		chatID = ch.ID
	}
	return userID, chatID
}

// BuildContext returns the logging context of the update, creating and
// storing it on first use. A "rid" set on c by an earlier middleware wins
// over the derived one.
func BuildContext(c tele.Context) context.Context {
	if cached, ok := ContextFrom(c); ok {
		return cached
	}

	upd := c.Update()
	userID, chatID := ids(c)
	rid, _ := c.Get("rid").(string)
	if rid == "" {
		rid = logger.BuildRID(upd.ID, chatID, userID)
	}

	ctx := logger.WithRID(context.Background(), rid)
	ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
	ctx = logger.WithLogger(ctx, logger.Component("tg"))
	StoreContext(c, ctx)
	return ctx
}

func enrich(c tele.Context, value string, with func(context.Context, string) context.Context) context.Context {
	ctx := BuildContext(c)
	if value == "" {
		return ctx
	}
	ctx = with(ctx, value)
	StoreContext(c, ctx)
	return ctx
}

// WithHandler adds the handler name to the stored context.
func WithHandler(c tele.Context, handler string) context.Context {
	return enrich(c, handler, logger.WithHandler)
}

// WithState adds the sender's conversation state to the stored context.
func WithState(c tele.Context, state string) context.Context {
	return enrich(c, state, logger.WithState)
}
