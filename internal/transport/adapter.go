// Package transport connects the conversation engine to Telegram. It turns
// telebot updates into flows.Event values and sends the replies back.
package transport

import (
	"context"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/subbot/core/logger"
	tg "github.com/m3rciful/subbot/core/telegram"
	"github.com/m3rciful/subbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/subbot/core/telegram/helpers"
	"github.com/m3rciful/subbot/core/telegram/keyboard"
	"github.com/m3rciful/subbot/internal/flows"
	"github.com/m3rciful/subbot/internal/identity"
	"github.com/m3rciful/subbot/internal/templates"
)

// Engine is the conversation side the adapter drives.
type Engine interface {
	Handle(ctx context.Context, ev flows.Event) (flows.Reply, error)
	Notice(ctx context.Context) flows.Reply
	InProgress(userID int64) bool
}

// Adapter implements router.FSM and ui.FallbackProvider on top of an Engine.
type Adapter struct {
	engine Engine
	reg    *tg.Registry
}

// New returns an adapter resolving command aliases through reg.
func New(engine Engine, reg *tg.Registry) *Adapter {
	return &Adapter{engine: engine, reg: reg}
}

// InProgress reports whether the user is inside a conversation.
func (a *Adapter) InProgress(userID int64) bool {
	return a.engine.InProgress(userID)
}

// ManagerHandler feeds an update of a user inside a conversation to the
// engine. Commands typed as text still end the conversation.
func (a *Adapter) ManagerHandler(c tele.Context) error {
	ev, ok := a.event(c)
	if !ok {
		return nil
	}
	return a.handle(c, ev)
}

// UnknownText handles text outside a conversation that matched no command.
func (a *Adapter) UnknownText() tele.HandlerFunc {
	return a.ManagerHandler
}

// UnknownDocument answers documents and other media outside a conversation
// like an unknown command.
func (a *Adapter) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error {
		if c.Sender() == nil {
			return nil
		}
		return a.handle(c, flows.Event{Kind: flows.KindCommand, Actor: profile(c.Sender())})
	}
}

// UnknownCallback handles presses outside a conversation, typically buttons
// of a flow that has already ended.
func (a *Adapter) UnknownCallback() tele.HandlerFunc {
	return a.ManagerHandler
}

func (a *Adapter) command(name string) tele.HandlerFunc {
	return func(c tele.Context) error {
		if c.Sender() == nil {
			return nil
		}
		return a.handle(c, flows.Event{
			Kind:    flows.KindCommand,
			Actor:   profile(c.Sender()),
			Command: name,
		})
	}
}

// event converts an update. ok is false for updates the engine has no use
// for, such as a document without text.
func (a *Adapter) event(c tele.Context) (flows.Event, bool) {
	sender := c.Sender()
	if sender == nil {
		return flows.Event{}, false
	}
	ev := flows.Event{Actor: profile(sender)}

	if cb := c.Callback(); cb != nil {
		key, payload := callbacks.ParseCallbackData(cb)
		ev.Kind = flows.KindCallback
		ev.Payload = key
		if payload != "" {
			ev.Payload = key + "|" + payload
		}
		return ev, true
	}

	text := c.Text()
	if strings.TrimSpace(text) == "" {
		return flows.Event{}, false
	}
	if strings.HasPrefix(strings.TrimSpace(text), "/") {
		ev.Kind = flows.KindCommand
		ev.Command = tg.CommandName(text)
		if a.reg != nil {
			if key, _, found := a.reg.LookupCommand(text); found {
				ev.Command = key
			}
		}
		return ev, true
	}
	ev.Kind = flows.KindText
	ev.Text = text
	return ev, true
}

// handle runs ev through the engine and sends the reply. A failed event gets
// the generic notice and its error is returned for the handler summary.
func (a *Adapter) handle(c tele.Context, ev flows.Event) error {
	ctx := tghelpers.BuildContext(c)
	reply, err := a.engine.Handle(ctx, ev)
	if err != nil {
		logger.Error(ctx, logger.CompFlows, "flows.event_failed",
			slog.String("event_kind", ev.Kind.String()),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		if sendErr := send(c, a.engine.Notice(ctx)); sendErr != nil {
			logger.Warn(ctx, "tg", "notice.send_failed", slog.String("err", sendErr.Error()))
		}
		return err
	}
	return send(c, reply)
}

func send(c tele.Context, reply flows.Reply) error {
	if reply.Empty() {
		return nil
	}
	markup := Markup(reply.Keyboard)
	if reply.Edit {
		return tghelpers.EditOrSendText(c, reply.Text, markup)
	}
	return tghelpers.SendText(c, reply.Text, markup)
}

// Markup renders a keyboard grid as inline buttons whose callback key is the
// button payload. An empty grid gives nil.
func Markup(kb templates.Keyboard) *tele.ReplyMarkup {
	if kb.Len() == 0 {
		return nil
	}
	rows := make([][]keyboard.InlineBtn, 0, len(kb))
	for _, row := range kb {
		btns := make([]keyboard.InlineBtn, 0, len(row))
		for _, b := range row {
			btns = append(btns, keyboard.InlineBtn{Text: b.Label, Unique: b.Payload})
		}
		rows = append(rows, btns)
	}
	return keyboard.InlineButtonsRows(rows...)
}

func profile(u *tele.User) identity.Profile {
	return identity.Profile{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Username:     u.Username,
		IsBot:        u.IsBot,
		LanguageCode: u.LanguageCode,
	}
}
