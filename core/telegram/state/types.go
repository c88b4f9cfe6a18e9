package state

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
)

// Session stores the conversation state and the flow data of one user.
type Session[C any] struct {
	State State
	Data  C
}

// Manager stores user sessions. Get returns a copy; changes go through Set.
type Manager[C any] interface {
	Get(userID int64) Session[C]
	Set(userID int64, st State, data C)
	GetState(userID int64) State
	Clear(userID int64)
	InProgress(userID int64) bool
}
