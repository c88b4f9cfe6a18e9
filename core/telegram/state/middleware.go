package state

import (
	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/m3rciful/subbot/core/telegram/helpers"
)

// Getter is the read side of a Manager.
type Getter interface {
	GetState(userID int64) State
}

// WithSession records the sender's current state in the logging context so
// every downstream log line carries it.
func WithSession(g Getter) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if g == nil || sender == nil {
				return next(c)
			}
			if st := g.GetState(sender.ID); st != StateIdle {
				tghelpers.WithState(c, string(st))
			}
			return next(c)
		}
	}
}
