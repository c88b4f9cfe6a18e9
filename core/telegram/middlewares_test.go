package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/subbot/core/config"
)

func names(mws []Middleware) []string {
	out := make([]string, 0, len(mws))
	for _, mw := range mws {
		out = append(out, mw.Name)
	}
	return out
}

func TestDefaultMiddlewares(t *testing.T) {
	session := Middleware{Name: "session", Use: func(next tele.HandlerFunc) tele.HandlerFunc { return next }}

	assert.Equal(t, []string{"recover", "logger", "metrics", "session"},
		names(DefaultMiddlewares(nil, nil, session)))

	cfg := &coreconfig.Config{}
	cfg.RateLimit.IntervalMS = 500
	cfg.RateLimit.ExcludeUpdates = []string{" Callback "}
	assert.Equal(t, []string{"recover", "rate_limit", "logger", "metrics"},
		names(DefaultMiddlewares(cfg, nil)))
}
