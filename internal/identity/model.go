// Package identity persists registered users and their sub-bots and
// classifies incoming actors against that record.
package identity

import "fmt"

// Profile is the platform-provided description of an actor.
type Profile struct {
	ID           int64
	FirstName    string
	LastName     string
	Username     string
	IsBot        bool
	LanguageCode string
}

// User is a registered person. Users are never deleted; Active is the only
// status they carry.
type User struct {
	ID           int64  `json:"id" db:"id"`
	Active       bool   `json:"active" db:"active"`
	FirstName    string `json:"first_name" db:"first_name"`
	LastName     string `json:"last_name" db:"last_name"`
	Username     string `json:"username" db:"username"`
	IsBot        bool   `json:"is_bot" db:"is_bot"`
	LanguageCode string `json:"language_code" db:"language_code"`
}

// Owner is the operator identity the store is bootstrapped with.
type Owner struct {
	ID        int64  `json:"id" db:"id"`
	FirstName string `json:"first_name" db:"first_name"`
	Username  string `json:"username" db:"username"`
}

// BotProfile is what the platform reports about a bot token.
type BotProfile struct {
	ID                      int64
	IsBot                   bool
	FirstName               string
	Username                string
	CanJoinGroups           bool
	CanReadAllGroupMessages bool
	SupportsInlineQueries   bool
	CanConnectToBusiness    bool
	HasMainWebApp           bool
}

// Bot is a sub-bot registered under exactly one owning user.
type Bot struct {
	ID                      int64  `json:"id" db:"id"`
	Token                   string `json:"token" db:"token"`
	IsBot                   bool   `json:"is_bot" db:"is_bot"`
	CanJoinGroups           bool   `json:"can_join_groups" db:"can_join_groups"`
	CanReadAllGroupMessages bool   `json:"can_read_all_group_messages" db:"can_read_all_group_messages"`
	SupportsInlineQueries   bool   `json:"supports_inline_queries" db:"supports_inline_queries"`
	CanConnectToBusiness    bool   `json:"can_connect_to_business" db:"can_connect_to_business"`
	HasMainWebApp           bool   `json:"has_main_web_app" db:"has_main_web_app"`
	FirstName               string `json:"first_name" db:"first_name"`
	Username                string `json:"username" db:"username"`
	OwnerID                 int64  `json:"user_bot_owner" db:"user_bot_owner"`
}

// Snapshot is a full read of the store taken at one point in time.
type Snapshot struct {
	Owner *Owner
	Users []User
	Bots  []Bot
}

// StoreError wraps a read or write failure of the identity store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("identity store %s: %v", e.Op, e.Err) }

// Unwrap returns the underlying I/O error.
func (e *StoreError) Unwrap() error { return e.Err }

// Code classifies the error for handler summaries.
func (e *StoreError) Code() string { return "STORE_IO" }

func newUser(p Profile) User {
	return User{
		ID:           p.ID,
		Active:       true,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Username:     p.Username,
		IsBot:        p.IsBot,
		LanguageCode: p.LanguageCode,
	}
}

func newBot(token string, p BotProfile, ownerID int64) Bot {
	return Bot{
		ID:                      p.ID,
		Token:                   token,
		IsBot:                   p.IsBot,
		CanJoinGroups:           p.CanJoinGroups,
		CanReadAllGroupMessages: p.CanReadAllGroupMessages,
		SupportsInlineQueries:   p.SupportsInlineQueries,
		CanConnectToBusiness:    p.CanConnectToBusiness,
		HasMainWebApp:           p.HasMainWebApp,
		FirstName:               p.FirstName,
		Username:                p.Username,
		OwnerID:                 ownerID,
	}
}
