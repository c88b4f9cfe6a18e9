package identity

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

const (
	selectOwner = `SELECT id, first_name, username FROM owner ORDER BY id LIMIT 1`
	selectUsers = `SELECT id, active, first_name, last_name, username, is_bot, language_code
		FROM users ORDER BY seq`
	selectBots = `SELECT id, token, is_bot, can_join_groups, can_read_all_group_messages,
		supports_inline_queries, can_connect_to_business, has_main_web_app,
		first_name, username, user_bot_owner
		FROM user_bot ORDER BY seq`
	insertUser = `INSERT INTO users (id, active, first_name, last_name, username, is_bot, language_code)
		VALUES (:id, :active, :first_name, :last_name, :username, :is_bot, :language_code)`
	insertBot = `INSERT INTO user_bot (id, token, is_bot, can_join_groups, can_read_all_group_messages,
		supports_inline_queries, can_connect_to_business, has_main_web_app,
		first_name, username, user_bot_owner)
		VALUES (:id, :token, :is_bot, :can_join_groups, :can_read_all_group_messages,
		:supports_inline_queries, :can_connect_to_business, :has_main_web_app,
		:first_name, :username, :user_bot_owner)`
	deleteOwner = `DELETE FROM owner`
	insertOwner = `INSERT INTO owner (id, first_name, username) VALUES (:id, :first_name, :username)`
)

// SQLStore keeps the identity record in the owner, users and user_bot tables.
// Rows keep insertion order through the seq column.
type SQLStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore wraps an open, migrated database.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Snapshot reads all three tables inside one transaction.
func (s *SQLStore) Snapshot(ctx context.Context) (Snapshot, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Snapshot{}, &StoreError{Op: "read", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	var snap Snapshot
	var owner Owner
	switch err := tx.GetContext(ctx, &owner, selectOwner); {
	case err == nil:
		snap.Owner = &owner
	case errors.Is(err, sql.ErrNoRows):
	default:
		return Snapshot{}, &StoreError{Op: "read owner", Err: err}
	}
	if err := tx.SelectContext(ctx, &snap.Users, selectUsers); err != nil {
		return Snapshot{}, &StoreError{Op: "read users", Err: err}
	}
	if err := tx.SelectContext(ctx, &snap.Bots, selectBots); err != nil {
		return Snapshot{}, &StoreError{Op: "read bots", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return Snapshot{}, &StoreError{Op: "read", Err: err}
	}
	return snap, nil
}

// AddUser inserts u.
func (s *SQLStore) AddUser(ctx context.Context, u User) error {
	if _, err := s.db.NamedExecContext(ctx, insertUser, u); err != nil {
		return &StoreError{Op: "insert user", Err: err}
	}
	return nil
}

// AddBot inserts b.
func (s *SQLStore) AddBot(ctx context.Context, b Bot) error {
	if _, err := s.db.NamedExecContext(ctx, insertBot, b); err != nil {
		return &StoreError{Op: "insert bot", Err: err}
	}
	return nil
}

// SetOwner replaces the owner row.
func (s *SQLStore) SetOwner(ctx context.Context, o Owner) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return &StoreError{Op: "set owner", Err: err}
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, deleteOwner); err != nil {
		return &StoreError{Op: "set owner", Err: err}
	}
	if _, err := tx.NamedExecContext(ctx, insertOwner, o); err != nil {
		return &StoreError{Op: "set owner", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &StoreError{Op: "set owner", Err: err}
	}
	return nil
}

// Close closes the underlying pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
