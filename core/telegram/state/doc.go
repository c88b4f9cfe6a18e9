// Package state keeps per-user conversation sessions and dispatches events to
// the handler registered for the user's current state. It does not depend on
// the chat transport; events and replies are type parameters.
package state
