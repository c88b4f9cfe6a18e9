package identity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maypok86/otter"

	"github.com/m3rciful/subbot/core/logger"
)

// UserStatus classifies an actor against the identity record.
type UserStatus int

const (
	StatusNewUser UserStatus = iota
	StatusOwner
	StatusActiveUser
	StatusNotActiveUser
)

func (s UserStatus) String() string {
	switch s {
	case StatusOwner:
		return "OWNER"
	case StatusActiveUser:
		return "ACTIVE_USER"
	case StatusNotActiveUser:
		return "NOT_ACTIVE_USER"
	default:
		return "NEW_USER"
	}
}

// Resolution is the outcome of UserResolver.Resolve. User is set for
// StatusActiveUser and StatusNotActiveUser.
type Resolution struct {
	Status UserStatus
	User   *User
}

// UserResolverOptions tunes a UserResolver.
type UserResolverOptions struct {
	// OwnerID overrides the owner record of the store when non-zero.
	OwnerID int64
	// CacheTTL enables memoisation of resolutions when positive. Any write
	// through the resolver drops the cached entry for that user.
	CacheTTL      time.Duration
	CacheCapacity int
}

// UserResolver answers who an actor is and registers new users.
type UserResolver struct {
	store   Store
	ownerID int64
	cache   *otter.Cache[int64, Resolution]
}

// NewUserResolver builds a resolver over store.
func NewUserResolver(store Store, opts UserResolverOptions) (*UserResolver, error) {
	r := &UserResolver{store: store, ownerID: opts.OwnerID}
	if opts.CacheTTL > 0 {
		capacity := opts.CacheCapacity
		if capacity <= 0 {
			capacity = 1024
		}
		c, err := otter.MustBuilder[int64, Resolution](capacity).WithTTL(opts.CacheTTL).Build()
		if err != nil {
			return nil, fmt.Errorf("build user cache with capacity %d: %w", capacity, err)
		}
		r.cache = &c
	}
	return r, nil
}

// Resolve classifies actorID. The first users record with a matching id
// decides; the owner is recognised only when no record exists.
func (r *UserResolver) Resolve(ctx context.Context, actorID int64) (Resolution, error) {
	if r.cache != nil {
		if res, ok := r.cache.Get(actorID); ok {
			return res.clone(), nil
		}
	}
	snap, err := r.store.Snapshot(ctx)
	if err != nil {
		logger.Error(ctx, logger.CompIdentity, "identity.resolve",
			slog.String("status", "fail"),
			slog.Int64("user_id", actorID),
			slog.String("err", err.Error()),
		)
		return Resolution{}, err
	}
	res := classify(snap, r.effectiveOwner(snap), actorID)
	if r.cache != nil {
		r.cache.Set(actorID, res)
	}
	logger.Debug(ctx, logger.CompIdentity, "identity.resolve",
		slog.Int64("user_id", actorID),
		slog.String("user_status", res.Status.String()),
	)
	return res.clone(), nil
}

// OwnerID reports the effective owner id, or 0 when none is configured.
func (r *UserResolver) OwnerID(ctx context.Context) (int64, error) {
	if r.ownerID != 0 {
		return r.ownerID, nil
	}
	snap, err := r.store.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	return r.effectiveOwner(snap), nil
}

// Create appends a new active user built from p and returns the record as
// read back from the store. It does not check for an existing record, so a
// second call for the same id appends a duplicate and returns the first one.
func (r *UserResolver) Create(ctx context.Context, p Profile) (User, error) {
	if err := r.store.AddUser(ctx, newUser(p)); err != nil {
		logger.Error(ctx, logger.CompIdentity, "identity.create_user",
			slog.String("status", "fail"),
			slog.Int64("user_id", p.ID),
			slog.String("err", err.Error()),
		)
		return User{}, err
	}
	if r.cache != nil {
		r.cache.Delete(p.ID)
	}
	snap, err := r.store.Snapshot(ctx)
	if err != nil {
		return User{}, err
	}
	u, ok := findUser(snap.Users, p.ID)
	if !ok {
		return User{}, &StoreError{Op: "create user", Err: fmt.Errorf("user %d missing after insert", p.ID)}
	}
	logger.Info(ctx, logger.CompIdentity, "identity.create_user",
		slog.String("status", "ok"),
		slog.Int64("user_id", p.ID),
	)
	return u, nil
}

// Close releases the cache.
func (r *UserResolver) Close() {
	if r.cache != nil {
		r.cache.Close()
	}
}

func (r *UserResolver) effectiveOwner(snap Snapshot) int64 {
	if r.ownerID != 0 {
		return r.ownerID
	}
	if snap.Owner != nil {
		return snap.Owner.ID
	}
	return 0
}

func classify(snap Snapshot, ownerID, actorID int64) Resolution {
	var match *User
	if u, ok := findUser(snap.Users, actorID); ok {
		match = &u
	}
	switch {
	case match == nil && ownerID != 0 && actorID == ownerID:
		return Resolution{Status: StatusOwner}
	case match == nil:
		return Resolution{Status: StatusNewUser}
	case match.Active:
		return Resolution{Status: StatusActiveUser, User: match}
	default:
		return Resolution{Status: StatusNotActiveUser, User: match}
	}
}

func (r Resolution) clone() Resolution {
	if r.User != nil {
		u := *r.User
		r.User = &u
	}
	return r
}

func findUser(users []User, id int64) (User, bool) {
	for _, u := range users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}
