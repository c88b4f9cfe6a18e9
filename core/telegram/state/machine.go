package state

import (
	"context"
	"log/slog"
	"sync"

	"github.com/m3rciful/subbot/core/logger"
)

// Outcome is what a state handler decided. An empty Next keeps the current
// state; StateIdle ends the conversation and drops Data.
type Outcome[C, R any] struct {
	Next  State
	Data  C
	Reply R
}

// Stay keeps the current state with data.
func Stay[C, R any](data C, reply R) Outcome[C, R] {
	return Outcome[C, R]{Data: data, Reply: reply}
}

// Goto moves to st with data.
func Goto[C, R any](st State, data C, reply R) Outcome[C, R] {
	return Outcome[C, R]{Next: st, Data: data, Reply: reply}
}

// End finishes the conversation.
func End[C, R any](reply R) Outcome[C, R] {
	return Outcome[C, R]{Next: StateIdle, Reply: reply}
}

// Handler processes event ev for a user whose session is sess.
type Handler[E, C, R any] func(ctx context.Context, ev E, sess Session[C]) (Outcome[C, R], error)

// Machine routes events to the handler of the user's current state. The
// outcome is applied only when the handler returns no error.
type Machine[E, C, R any] struct {
	mgr      Manager[C]
	mu       sync.RWMutex
	handlers map[State]Handler[E, C, R]
	users    userLocks
}

// NewMachine builds a machine over mgr.
func NewMachine[E, C, R any](mgr Manager[C]) *Machine[E, C, R] {
	if mgr == nil {
		mgr = NewMemoryManager[C]()
	}
	return &Machine[E, C, R]{mgr: mgr, handlers: make(map[State]Handler[E, C, R])}
}

// Register associates a state with its handler.
func (m *Machine[E, C, R]) Register(st State, h Handler[E, C, R]) {
	if h == nil || st == StateIdle {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[st] = h
}

// Sessions exposes the underlying manager.
func (m *Machine[E, C, R]) Sessions() Manager[C] {
	return m.mgr
}

// InProgress reports whether userID is inside a conversation.
func (m *Machine[E, C, R]) InProgress(userID int64) bool {
	return m.mgr.InProgress(userID)
}

// Enter starts a conversation at st.
func (m *Machine[E, C, R]) Enter(ctx context.Context, userID int64, st State, data C) {
	m.mgr.Set(userID, st, data)
	logger.Debug(ctx, logger.CompFlows, "fsm.enter",
		slog.Int64("user_id", userID),
		slog.String("next_state", string(st)),
	)
}

// Exit drops the session of userID and reports the state it was in.
func (m *Machine[E, C, R]) Exit(ctx context.Context, userID int64, reason string) State {
	prev := m.mgr.GetState(userID)
	if prev == StateIdle {
		return prev
	}
	m.mgr.Clear(userID)
	logger.Info(ctx, logger.CompFlows, "fsm.exit",
		slog.Int64("user_id", userID),
		slog.String("state", string(prev)),
		slog.String("reason", reason),
	)
	return prev
}

// Lock serializes work for userID until the returned func is called. Callers
// hold it across Exit and Dispatch so one event finishes before the next
// event of the same user starts.
func (m *Machine[E, C, R]) Lock(userID int64) (unlock func()) {
	return m.users.lock(userID)
}

// Dispatch runs the handler for the current state of userID. handled is false
// when the user is idle or the state has no handler.
func (m *Machine[E, C, R]) Dispatch(ctx context.Context, userID int64, ev E) (reply R, handled bool, err error) {
	sess := m.mgr.Get(userID)
	if sess.State == StateIdle {
		return reply, false, nil
	}
	m.mu.RLock()
	h, ok := m.handlers[sess.State]
	m.mu.RUnlock()
	if !ok {
		logger.Warn(ctx, logger.CompFlows, "fsm.unhandled",
			slog.Int64("user_id", userID),
			slog.String("state", string(sess.State)),
		)
		return reply, false, nil
	}

	ctx = logger.WithState(ctx, string(sess.State))
	out, err := h(ctx, ev, sess)
	if err != nil {
		return out.Reply, true, err
	}
	next := out.Next
	if next == "" {
		next = sess.State
	}
	m.mgr.Set(userID, next, out.Data)
	logger.Debug(ctx, logger.CompFlows, "fsm.transition",
		slog.Int64("user_id", userID),
		slog.String("state", string(sess.State)),
		slog.String("next_state", string(next)),
	)
	return out.Reply, true, nil
}
