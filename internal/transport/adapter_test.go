package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/subbot/core/telegram"
	"github.com/m3rciful/subbot/internal/flows"
	"github.com/m3rciful/subbot/internal/templates"
)

type sent struct {
	text   string
	markup *tele.ReplyMarkup
	edit   bool
}

// fakeContext implements the part of tele.Context the adapter touches.
type fakeContext struct {
	tele.Context
	sender *tele.User
	text   string
	cb     *tele.Callback
	store  map[string]any
	out    []sent
}

func newContext(text string) *fakeContext {
	return &fakeContext{
		sender: &tele.User{ID: 42, FirstName: "Ann", Username: "ann"},
		text:   text,
		store:  map[string]any{},
	}
}

func (f *fakeContext) Sender() *tele.User       { return f.sender }
func (f *fakeContext) Text() string             { return f.text }
func (f *fakeContext) Callback() *tele.Callback { return f.cb }
func (f *fakeContext) Chat() *tele.Chat         { return &tele.Chat{ID: f.sender.ID} }
func (f *fakeContext) Update() tele.Update      { return tele.Update{ID: 7} }
func (f *fakeContext) Get(key string) any       { return f.store[key] }
func (f *fakeContext) Set(key string, v any)    { f.store[key] = v }

func (f *fakeContext) Send(what any, opts ...any) error {
	f.out = append(f.out, sent{text: what.(string), markup: markupOf(opts)})
	return nil
}

func (f *fakeContext) Edit(what any, opts ...any) error {
	f.out = append(f.out, sent{text: what.(string), markup: markupOf(opts), edit: true})
	return nil
}

func markupOf(opts []any) *tele.ReplyMarkup {
	for _, o := range opts {
		if so, ok := o.(*tele.SendOptions); ok {
			return so.ReplyMarkup
		}
	}
	return nil
}

type fakeEngine struct {
	events     []flows.Event
	reply      flows.Reply
	err        error
	inProgress bool
}

func (e *fakeEngine) Handle(_ context.Context, ev flows.Event) (flows.Reply, error) {
	e.events = append(e.events, ev)
	return e.reply, e.err
}

func (e *fakeEngine) Notice(context.Context) flows.Reply { return flows.Reply{Text: "oops"} }
func (e *fakeEngine) InProgress(int64) bool             { return e.inProgress }

func newAdapter(e *fakeEngine) *Adapter {
	a := New(e, tg.NewRegistry())
	a.RegisterCommands(RouteOptions{Stats: true})
	return a
}

func TestEventConversion(t *testing.T) {
	a := newAdapter(&fakeEngine{})

	tests := []struct {
		name    string
		ctx     *fakeContext
		want    flows.Event
		skipped bool
	}{
		{
			name: "text",
			ctx:  newContext("123:abc"),
			want: flows.Event{Kind: flows.KindText, Text: "123:abc"},
		},
		{
			name: "command with bot suffix",
			ctx:  newContext("/my_bots@sub_bot"),
			want: flows.Event{Kind: flows.KindCommand, Command: flows.CmdMyBots},
		},
		{
			name: "alias",
			ctx:  newContext("/create_bot_command"),
			want: flows.Event{Kind: flows.KindCommand, Command: flows.CmdCreateBot},
		},
		{
			name: "unknown command",
			ctx:  newContext("/nope arg"),
			want: flows.Event{Kind: flows.KindCommand, Command: "/nope"},
		},
		{
			name: "callback",
			ctx: func() *fakeContext {
				c := newContext("")
				c.cb = &tele.Callback{Data: "\fsome_bot"}
				return c
			}(),
			want: flows.Event{Kind: flows.KindCallback, Payload: "some_bot"},
		},
		{
			name:    "empty text",
			ctx:     newContext("  "),
			skipped: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := a.event(tt.ctx)
			if tt.skipped {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			tt.want.Actor = profile(tt.ctx.sender)
			assert.Equal(t, tt.want, ev)
		})
	}
}

func TestHandleSendsReply(t *testing.T) {
	kb := templates.RawKeyboard("a_bot", "b_bot", "c_bot")
	e := &fakeEngine{reply: flows.Reply{Text: "pick one", Keyboard: kb}}
	a := newAdapter(e)
	c := newContext("/my_bots")

	require.NoError(t, a.ManagerHandler(c))
	require.Len(t, c.out, 1)
	assert.Equal(t, "pick one", c.out[0].text)
	require.NotNil(t, c.out[0].markup)
	rows := c.out[0].markup.InlineKeyboard
	require.Len(t, rows, 2)
	assert.Equal(t, "a_bot", rows[0][0].Unique)
	assert.Equal(t, "b_bot", rows[0][1].Text)
	assert.Len(t, rows[1], 1)
}

func TestHandleEditsOnCallback(t *testing.T) {
	e := &fakeEngine{reply: flows.Reply{Text: "details", Edit: true}}
	a := newAdapter(e)
	c := newContext("")
	c.cb = &tele.Callback{Data: "\fa_bot", Message: &tele.Message{ID: 5}}

	require.NoError(t, a.ManagerHandler(c))
	require.Len(t, c.out, 1)
	assert.True(t, c.out[0].edit)
	assert.Nil(t, c.out[0].markup)
}

func TestHandleFailureSendsNotice(t *testing.T) {
	boom := errors.New("store down")
	e := &fakeEngine{err: boom}
	a := newAdapter(e)
	c := newContext("hello")

	err := a.ManagerHandler(c)
	require.ErrorIs(t, err, boom)
	require.Len(t, c.out, 1)
	assert.Equal(t, "oops", c.out[0].text)
}

func TestEmptyReplySendsNothing(t *testing.T) {
	a := newAdapter(&fakeEngine{})
	c := newContext("")
	c.cb = &tele.Callback{Data: "\fstale"}

	require.NoError(t, a.UnknownCallback()(c))
	assert.Empty(t, c.out)
}

func TestRegisteredCommands(t *testing.T) {
	reg := tg.NewRegistry()
	a := New(&fakeEngine{}, reg)
	a.RegisterCommands(RouteOptions{Stats: true})

	visible := reg.ListCommands(true)
	names := make([]string, 0, len(visible))
	for _, c := range visible {
		names = append(names, c.Text)
	}
	assert.Equal(t, []string{flows.CmdCreateBot, flows.CmdMyBots, flows.CmdStart}, names)
	assert.Len(t, reg.Commands(), 4)

	key, _, ok := reg.LookupCommand("/CREATE_BOT_COMMAND")
	require.True(t, ok)
	assert.Equal(t, flows.CmdCreateBot, key)

	_, _, ok = reg.LookupCommand("start")
	assert.False(t, ok)
}

func TestMarkupEmpty(t *testing.T) {
	assert.Nil(t, Markup(nil))
	assert.Nil(t, Markup(templates.Keyboard{{}}))
}
