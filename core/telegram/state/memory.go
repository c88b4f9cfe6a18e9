package state

import "sync"

type memoryManager[C any] struct {
	mu       sync.RWMutex
	sessions map[int64]Session[C]
}

// NewMemoryManager constructs an in-memory Manager.
func NewMemoryManager[C any]() Manager[C] {
	return &memoryManager[C]{
		sessions: make(map[int64]Session[C]),
	}
}

// Get returns the session for a user, or an idle session with zero data.
func (m *memoryManager[C]) Get(userID int64) Session[C] {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if session, ok := m.sessions[userID]; ok {
		return session
	}
	return Session[C]{State: StateIdle}
}

// Set replaces state and data for a user. Setting StateIdle drops the session.
func (m *memoryManager[C]) Set(userID int64, st State, data C) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if st == StateIdle || st == "" {
		delete(m.sessions, userID)
		return
	}
	m.sessions[userID] = Session[C]{State: st, Data: data}
}

// GetState returns the current state of a user, or StateIdle if none exists.
func (m *memoryManager[C]) GetState(userID int64) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sess, ok := m.sessions[userID]; ok {
		return sess.State
	}
	return StateIdle
}

// Clear removes the entire session for a user.
func (m *memoryManager[C]) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// InProgress reports whether the user has a state other than idle.
func (m *memoryManager[C]) InProgress(userID int64) bool {
	return m.GetState(userID) != StateIdle
}
