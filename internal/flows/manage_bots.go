package flows

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/m3rciful/subbot/core/logger"
	"github.com/m3rciful/subbot/core/telegram/state"
	"github.com/m3rciful/subbot/internal/identity"
	"github.com/m3rciful/subbot/internal/templates"
)

func (e *Engine) enterManageBots(ctx context.Context, ev Event) (Reply, error) {
	r, err := e.deps.Templates.Renderer(ctx)
	if err != nil {
		return Reply{}, err
	}
	u, ok, reply, err := e.enterUser(ctx, r, ev.Actor)
	if err != nil || !ok {
		return reply, err
	}
	bots, err := e.deps.Bots.ListByOwner(ctx, u.ID)
	if err != nil {
		return Reply{}, err
	}
	if len(bots) == 0 {
		text, err := r.Text(templates.DomainMessage, "no_user_bots")
		if err != nil {
			return Reply{}, err
		}
		return Reply{Text: text}, nil
	}

	handles := make([]string, 0, len(bots))
	for _, b := range bots {
		handles = append(handles, b.Username)
	}
	text, err := r.Textf(map[string]string{"count": strconv.Itoa(len(bots))}, templates.DomainCommand, "my_bots_command")
	if err != nil {
		return Reply{}, err
	}
	e.fsm.Enter(ctx, ev.Actor.ID, StateBotDetails, ManageBotsContext{User: u, Bots: bots})
	return Reply{Text: text, Keyboard: r.RawKeyboard(handles...)}, nil
}

// onBotSelected handles a press on one of the handle buttons. The flow moves
// on even when the handle is no longer in the list; the manage step then ends
// it with the not-found message.
func (e *Engine) onBotSelected(ctx context.Context, ev Event, sess state.Session[FlowContext]) (outcome, error) {
	data, err := contextAs[ManageBotsContext](sess)
	if err != nil {
		return outcome{}, err
	}
	if ev.Kind != KindCallback {
		return state.Stay[FlowContext](data, Reply{}), nil
	}
	r, err := e.deps.Templates.Renderer(ctx)
	if err != nil {
		return outcome{}, err
	}

	bot, found := findByHandle(data.Bots, ev.Payload)
	if !found {
		logger.Warn(ctx, logger.CompFlows, "flows.bot_not_found",
			slog.Int64("user_id", ev.Actor.ID),
			slog.String("bot_username", logger.SanitizeLimit(ev.Payload, 64)),
		)
		text, err := r.Text(templates.DomainMessage, "user_bot_not_found")
		if err != nil {
			return outcome{}, err
		}
		return state.Goto[FlowContext](StateManage, ManageBotsContext{}, Reply{Text: text, Edit: true}), nil
	}

	text, err := r.Textf(map[string]string{
		"username":   bot.Username,
		"first_name": bot.FirstName,
		"id":         strconv.FormatInt(bot.ID, 10),
	}, templates.DomainMessage, "user_bot_details")
	if err != nil {
		return outcome{}, err
	}
	kb, err := r.Keyboard(ActionPay, ActionDelete)
	if err != nil {
		return outcome{}, err
	}
	return state.Goto[FlowContext](StateManage,
		ManageBotsContext{Selected: bot.Username},
		Reply{Text: text, Keyboard: kb, Edit: true},
	), nil
}

// onManageAction handles pay and delete for the selected bot. Both end the
// flow; other payloads are ignored.
func (e *Engine) onManageAction(ctx context.Context, ev Event, sess state.Session[FlowContext]) (outcome, error) {
	data, err := contextAs[ManageBotsContext](sess)
	if err != nil {
		return outcome{}, err
	}
	if ev.Kind != KindCallback {
		return state.Stay[FlowContext](data, Reply{}), nil
	}

	var key string
	switch ev.Payload {
	case ActionDelete:
		key = "user_bot_deleting"
	case ActionPay:
		key = "user_bot_paying"
	default:
		return state.Stay[FlowContext](data, Reply{}), nil
	}

	r, err := e.deps.Templates.Renderer(ctx)
	if err != nil {
		return outcome{}, err
	}
	if data.Selected == "" {
		key = "user_bot_not_found"
	}
	text, err := r.Textf(map[string]string{"username": data.Selected}, templates.DomainMessage, key)
	if err != nil {
		return outcome{}, err
	}
	logger.Info(ctx, logger.CompFlows, "flows.manage_action",
		slog.Int64("user_id", ev.Actor.ID),
		slog.String("bot_username", data.Selected),
		slog.String("action", ev.Payload),
	)
	return state.End[FlowContext](Reply{Text: text, Edit: true}), nil
}

func findByHandle(bots []identity.Bot, handle string) (identity.Bot, bool) {
	for _, b := range bots {
		if b.Username == handle {
			return b, true
		}
	}
	return identity.Bot{}, false
}
