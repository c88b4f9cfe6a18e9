package flows

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/m3rciful/subbot/core/logger"
	"github.com/m3rciful/subbot/core/telegram/state"
	"github.com/m3rciful/subbot/internal/platform"
	"github.com/m3rciful/subbot/internal/templates"
)

func (e *Engine) enterCreateBot(ctx context.Context, ev Event) (Reply, error) {
	r, err := e.deps.Templates.Renderer(ctx)
	if err != nil {
		return Reply{}, err
	}
	u, ok, reply, err := e.enterUser(ctx, r, ev.Actor)
	if err != nil || !ok {
		return reply, err
	}
	text, err := r.Text(templates.DomainCommand, "create_bot")
	if err != nil {
		return Reply{}, err
	}
	e.fsm.Enter(ctx, ev.Actor.ID, StateAwaitingToken, CreateBotContext{User: u, Renderer: r})
	return Reply{Text: text}, nil
}

// onToken handles input while waiting for a token. Only text is considered;
// every outcome except a successful registration keeps the user waiting.
func (e *Engine) onToken(ctx context.Context, ev Event, sess state.Session[FlowContext]) (outcome, error) {
	data, err := contextAs[CreateBotContext](sess)
	if err != nil {
		return outcome{}, err
	}
	if ev.Kind != KindText {
		return state.Stay[FlowContext](data, Reply{}), nil
	}
	r := data.Renderer
	token := strings.TrimSpace(ev.Text)

	res, err := e.deps.Verifier.Verify(ctx, token)
	if err != nil {
		if !isCallError(err) {
			return outcome{}, err
		}
		text, rerr := r.Text(templates.DomainMessage, "token_check_failed")
		if rerr != nil {
			return outcome{}, rerr
		}
		return state.Stay[FlowContext](data, Reply{Text: text}), nil
	}

	switch v := res.(type) {
	case platform.Invalid:
		text, err := r.Text(templates.DomainMessage, "token_is_not_valid")
		if err != nil {
			return outcome{}, err
		}
		return state.Stay[FlowContext](data, Reply{Text: text}), nil

	case platform.Valid:
		e.creating.Lock()
		defer e.creating.Unlock()
		existing, err := e.deps.Bots.Resolve(ctx, v.Profile.ID)
		if err != nil {
			return outcome{}, err
		}
		if existing != nil {
			logger.Info(ctx, logger.CompFlows, "flows.bot_exists",
				slog.Int64("user_id", data.User.ID),
				slog.Int64("bot_id", v.Profile.ID),
			)
			text, err := r.Text(templates.DomainMessage, "bot_already_exists")
			if err != nil {
				return outcome{}, err
			}
			return state.Stay[FlowContext](data, Reply{Text: text}), nil
		}
		bot, err := e.deps.Bots.Create(ctx, token, v.Profile, data.User.ID)
		if err != nil {
			return outcome{}, err
		}
		text, err := r.Textf(map[string]string{
			"username":   bot.Username,
			"first_name": bot.FirstName,
			"id":         strconv.FormatInt(bot.ID, 10),
		}, templates.DomainMessage, "new_bot_created")
		if err != nil {
			return outcome{}, err
		}
		logger.Info(ctx, logger.CompFlows, "flows.bot_created",
			slog.Int64("user_id", data.User.ID),
			slog.Int64("bot_id", bot.ID),
			slog.String("bot_username", bot.Username),
		)
		return state.End[FlowContext](Reply{Text: text}), nil
	}
	return state.Stay[FlowContext](data, Reply{}), nil
}
