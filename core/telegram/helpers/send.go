package helpers

import (
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/subbot/core/logger"
	"github.com/m3rciful/subbot/core/telegram/sender"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func currentDispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	disp := currentDispatcher()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	if err := disp.Enqueue(ctx, action, endpoint, run); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			logger.Warn(ctx, "tg.sender", "queue.fallback",
				slog.String("action", action),
				slog.String("endpoint", endpoint),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}

// SendText sends raw text (no parse mode) with an optional keyboard.
// Template texts carry user-controlled names, so no markup is parsed.
func SendText(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	opts := &tele.SendOptions{ReplyMarkup: markup}
	return sendAsync(c, "send.text", "sendMessage", func() error {
		return c.Send(text, opts)
	})
}

// EditOrSendText replaces the message that carried the pressed button, or
// sends a new one when the update is not a callback. A nil markup removes the
// previous inline keyboard. Edits run synchronously so they cannot overtake
// the press acknowledgement.
func EditOrSendText(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	if c.Callback() == nil || c.Callback().Message == nil {
		return SendText(c, text, markup)
	}
	opts := &tele.SendOptions{ReplyMarkup: markup}
	if err := c.Edit(text, opts); err != nil {
		if strings.Contains(err.Error(), "message is not modified") {
			return nil
		}
		logger.Warn(BuildContext(c), "tg.sender", "edit.fallback",
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return SendText(c, text, markup)
	}
	return nil
}
