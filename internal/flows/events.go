// Package flows implements the conversations of the bot: registration on
// /start, the create-bot flow and the manage-bots flow. It works on
// transport-neutral events and replies.
package flows

import (
	"github.com/m3rciful/subbot/core/telegram/state"
	"github.com/m3rciful/subbot/internal/identity"
	"github.com/m3rciful/subbot/internal/templates"
)

// Commands understood by the engine.
const (
	CmdStart          = "/start"
	CmdCreateBot      = "/create_bot"
	CmdCreateBotAlias = "/create_bot_command"
	CmdMyBots         = "/my_bots"
	CmdStats          = "/stats"
)

// Conversation states.
const (
	StateAwaitingToken state.State = "create.awaiting_token"
	StateBotDetails    state.State = "manage.bot_details"
	StateManage        state.State = "manage.manage"
)

// Callback payloads of the manage keyboard.
const (
	ActionPay    = "pay_for_user_bot"
	ActionDelete = "delete_user_bot"
)

// EventKind tells what the user did.
type EventKind int

const (
	KindCommand EventKind = iota + 1
	KindText
	KindCallback
)

func (k EventKind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindText:
		return "text"
	case KindCallback:
		return "callback"
	}
	return "unknown"
}

// Event is one inbound user action.
type Event struct {
	Kind  EventKind
	Actor identity.Profile
	// Command is the canonical command with its leading slash, for KindCommand.
	Command string
	// Text is the message text, for KindText.
	Text string
	// Payload is the button payload, for KindCallback.
	Payload string
}

// Reply is what to show the user. An empty Text means nothing is sent.
// Edit asks the transport to replace the message that carried the pressed
// button instead of sending a new one.
type Reply struct {
	Text     string
	Keyboard templates.Keyboard
	Edit     bool
}

// Empty reports whether there is nothing to send.
func (r Reply) Empty() bool { return r.Text == "" }

// FlowContext is the data a flow carries between steps. It is one of
// CreateBotContext or ManageBotsContext.
type FlowContext interface {
	flowName() string
}

// CreateBotContext is carried while waiting for a token.
type CreateBotContext struct {
	User     identity.User
	Renderer *templates.Renderer
}

// ManageBotsContext is carried through the manage-bots flow. Bots is set in
// the details step; only Selected survives into the manage step.
type ManageBotsContext struct {
	User     identity.User
	Bots     []identity.Bot
	Selected string
}

func (CreateBotContext) flowName() string  { return "create_bot" }
func (ManageBotsContext) flowName() string { return "manage_bots" }
