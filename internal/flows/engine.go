package flows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/m3rciful/subbot/core/logger"
	"github.com/m3rciful/subbot/core/telegram/state"
	"github.com/m3rciful/subbot/internal/identity"
	"github.com/m3rciful/subbot/internal/platform"
	"github.com/m3rciful/subbot/internal/templates"
)

// DefaultNotice is sent when even the failure template cannot be rendered.
const DefaultNotice = "Something went wrong. Please try again later."

// Users resolves and registers actors.
type Users interface {
	Resolve(ctx context.Context, actorID int64) (identity.Resolution, error)
	Create(ctx context.Context, p identity.Profile) (identity.User, error)
	OwnerID(ctx context.Context) (int64, error)
}

// Bots resolves and registers sub-bots.
type Bots interface {
	Resolve(ctx context.Context, botID int64) (*identity.Bot, error)
	Create(ctx context.Context, token string, p identity.BotProfile, ownerID int64) (identity.Bot, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]identity.Bot, error)
}

// Verifier checks a bot token with the platform.
type Verifier interface {
	Verify(ctx context.Context, token string) (platform.Result, error)
}

// Templates hands out a renderer over a fresh read of the template file.
type Templates interface {
	Renderer(ctx context.Context) (*templates.Renderer, error)
}

// Deps are the collaborators of an Engine. Stats may be nil, which disables
// the stats command.
type Deps struct {
	Users     Users
	Bots      Bots
	Verifier  Verifier
	Templates Templates
	Stats     func(ctx context.Context) (identity.Stats, error)
}

type (
	machine        = state.Machine[Event, FlowContext, Reply]
	outcome        = state.Outcome[FlowContext, Reply]
	commandHandler func(ctx context.Context, ev Event) (Reply, error)
)

// Engine routes events to commands and flow steps.
type Engine struct {
	deps     Deps
	fsm      *machine
	commands map[string]commandHandler
	// creating guards the bot uniqueness check and insert across users.
	creating sync.Mutex
}

// NewEngine wires the flows over deps.
func NewEngine(deps Deps) *Engine {
	e := &Engine{
		deps: deps,
		fsm:  state.NewMachine[Event, FlowContext, Reply](state.NewMemoryManager[FlowContext]()),
	}
	e.commands = map[string]commandHandler{
		CmdStart:          e.start,
		CmdCreateBot:      e.enterCreateBot,
		CmdCreateBotAlias: e.enterCreateBot,
		CmdMyBots:         e.enterManageBots,
	}
	if deps.Stats != nil {
		e.commands[CmdStats] = e.stats
	}
	e.fsm.Register(StateAwaitingToken, e.onToken)
	e.fsm.Register(StateBotDetails, e.onBotSelected)
	e.fsm.Register(StateManage, e.onManageAction)
	return e
}

// InProgress reports whether userID is inside a flow.
func (e *Engine) InProgress(userID int64) bool {
	return e.fsm.InProgress(userID)
}

// Sessions exposes the per-user state store, e.g. for logging middleware.
func (e *Engine) Sessions() state.Manager[FlowContext] {
	return e.fsm.Sessions()
}

// Handle processes one event. Any command ends the active flow first; an
// unknown command then gets the unknown-command reply. Text and callbacks go
// to the current flow step. Events of one user are handled one at a time.
func (e *Engine) Handle(ctx context.Context, ev Event) (Reply, error) {
	userID := ev.Actor.ID
	unlock := e.fsm.Lock(userID)
	defer unlock()
	if st := e.fsm.Sessions().GetState(userID); st != state.StateIdle {
		ctx = logger.WithState(ctx, string(st))
	}

	if ev.Kind == KindCommand {
		e.fsm.Exit(ctx, userID, "command "+ev.Command)
		h, ok := e.commands[ev.Command]
		if !ok {
			return e.unknown(ctx, ev)
		}
		return h(ctx, ev)
	}

	reply, handled, err := e.fsm.Dispatch(ctx, userID, ev)
	if err != nil || handled {
		return reply, err
	}
	if ev.Kind == KindCallback {
		logger.Debug(ctx, logger.CompFlows, "flows.stale_callback",
			slog.Int64("user_id", userID),
			slog.String("payload", logger.SanitizeLimit(ev.Payload, 64)),
		)
		return Reply{}, nil
	}
	return e.unknown(ctx, ev)
}

// Notice renders the generic failure message shown when Handle fails.
func (e *Engine) Notice(ctx context.Context) Reply {
	r, err := e.deps.Templates.Renderer(ctx)
	if err == nil {
		if text, err := r.Text(templates.DomainMessage, "internal_error"); err == nil {
			return Reply{Text: text}
		}
	}
	return Reply{Text: DefaultNotice}
}

// enterUser resolves the actor, registering them when unknown. ok is false
// when the user is deactivated; reply then carries the refusal.
func (e *Engine) enterUser(ctx context.Context, r *templates.Renderer, actor identity.Profile) (u identity.User, ok bool, reply Reply, err error) {
	res, err := e.deps.Users.Resolve(ctx, actor.ID)
	if err != nil {
		return u, false, reply, err
	}
	switch res.Status {
	case identity.StatusNewUser:
		u, err = e.deps.Users.Create(ctx, actor)
		if err != nil {
			return u, false, reply, err
		}
		return u, true, reply, nil
	case identity.StatusNotActiveUser:
		text, err := r.Text(templates.DomainMessage, "user_not_active")
		if err != nil {
			return u, false, reply, err
		}
		logger.Info(ctx, logger.CompFlows, "flows.user_not_active", slog.Int64("user_id", actor.ID))
		return *res.User, false, Reply{Text: text}, nil
	case identity.StatusOwner:
		return identity.User{
			ID:           actor.ID,
			Active:       true,
			FirstName:    actor.FirstName,
			LastName:     actor.LastName,
			Username:     actor.Username,
			LanguageCode: actor.LanguageCode,
		}, true, reply, nil
	default:
		return *res.User, true, reply, nil
	}
}

func (e *Engine) start(ctx context.Context, ev Event) (Reply, error) {
	r, err := e.deps.Templates.Renderer(ctx)
	if err != nil {
		return Reply{}, err
	}
	u, ok, reply, err := e.enterUser(ctx, r, ev.Actor)
	if err != nil || !ok {
		return reply, err
	}
	name := u.FirstName
	if name == "" {
		name = ev.Actor.FirstName
	}
	text, err := r.Textf(map[string]string{"first_name": name}, templates.DomainCommand, "start")
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: text}, nil
}

func (e *Engine) stats(ctx context.Context, ev Event) (Reply, error) {
	owner, err := e.deps.Users.OwnerID(ctx)
	if err != nil {
		return Reply{}, err
	}
	if owner == 0 || ev.Actor.ID != owner {
		logger.Warn(ctx, logger.CompFlows, "flows.stats_denied", slog.Int64("user_id", ev.Actor.ID))
		return e.unknown(ctx, ev)
	}
	st, err := e.deps.Stats(ctx)
	if err != nil {
		return Reply{}, err
	}
	r, err := e.deps.Templates.Renderer(ctx)
	if err != nil {
		return Reply{}, err
	}
	text, err := r.Textf(map[string]string{
		"users":        strconv.Itoa(st.Users),
		"active_users": strconv.Itoa(st.ActiveUsers),
		"bots":         strconv.Itoa(st.Bots),
	}, templates.DomainCommand, "stats")
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: text}, nil
}

func (e *Engine) unknown(ctx context.Context, ev Event) (Reply, error) {
	r, err := e.deps.Templates.Renderer(ctx)
	if err != nil {
		return Reply{}, err
	}
	text, err := r.Text(templates.DomainMessage, "unknown_command")
	if err != nil {
		return Reply{}, err
	}
	logger.Debug(ctx, logger.CompFlows, "flows.unknown",
		slog.Int64("user_id", ev.Actor.ID),
		slog.String("event_kind", ev.Kind.String()),
		slog.String("command", ev.Command),
	)
	return Reply{Text: text}, nil
}

func contextAs[T FlowContext](sess state.Session[FlowContext]) (T, error) {
	data, ok := sess.Data.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("state %s carries %T, want %T", sess.State, sess.Data, zero)
	}
	return data, nil
}

func isCallError(err error) bool {
	var callErr *platform.CallError
	return errors.As(err, &callErr)
}
