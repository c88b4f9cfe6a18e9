package middleware

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

const countersKey = "reply_counters"

// Counters tracks what a handler sent back for one update. Sends may finish
// on a dispatcher worker after the handler returned, hence the atomics.
type Counters struct {
	sent     atomic.Int32
	edited   atomic.Int32
	keyboard atomic.Bool
}

// Sent is the number of new messages.
func (c *Counters) Sent() int { return int(c.sent.Load()) }

// Edited is the number of edited messages.
func (c *Counters) Edited() int { return int(c.edited.Load()) }

// Keyboard reports whether any reply carried a keyboard.
func (c *Counters) Keyboard() bool { return c.keyboard.Load() }

func (c *Counters) add(edit, kb bool) {
	if edit {
		c.edited.Add(1)
	} else {
		c.sent.Add(1)
	}
	if kb {
		c.keyboard.Store(true)
	}
}

// metricsContext wraps tele.Context to count replies.
type metricsContext struct {
	tele.Context
	counters *Counters
}

func hasKeyboard(opts []any) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

func (m metricsContext) count(err error, edit bool, opts []any) error {
	if err == nil {
		m.counters.add(edit, hasKeyboard(opts))
	}
	return err
}

// Send proxies tele.Context.Send.
func (m metricsContext) Send(what any, opts ...any) error {
	return m.count(m.Context.Send(what, opts...), false, opts)
}

// Reply proxies tele.Context.Reply.
func (m metricsContext) Reply(what any, opts ...any) error {
	return m.count(m.Context.Reply(what, opts...), false, opts)
}

// Edit proxies tele.Context.Edit.
func (m metricsContext) Edit(what any, opts ...any) error {
	return m.count(m.Context.Edit(what, opts...), true, opts)
}

// EditOrSend proxies tele.Context.EditOrSend. It is counted as an edit when
// the update is a button press.
func (m metricsContext) EditOrSend(what any, opts ...any) error {
	return m.count(m.Context.EditOrSend(what, opts...), m.Callback() != nil, opts)
}

// MessageMetricsMiddleware instruments the context to count replies per update.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		counters := &Counters{}
		c.Set(countersKey, counters)
		return next(metricsContext{Context: c, counters: counters})
	}
}

// GetCounters returns the counters of the update, or zero counters when the
// middleware is not installed.
func GetCounters(c tele.Context) *Counters {
	if v, ok := c.Get(countersKey).(*Counters); ok && v != nil {
		return v
	}
	return &Counters{}
}
