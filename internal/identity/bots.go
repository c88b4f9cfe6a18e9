package identity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/subbot/core/logger"
)

// BotResolver looks up and registers sub-bots.
type BotResolver struct {
	store Store
}

// NewBotResolver builds a resolver over store.
func NewBotResolver(store Store) *BotResolver {
	return &BotResolver{store: store}
}

// Resolve returns the first sub-bot with botID, or nil when none exists.
func (r *BotResolver) Resolve(ctx context.Context, botID int64) (*Bot, error) {
	snap, err := r.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	for _, b := range snap.Bots {
		if b.ID == botID {
			return &b, nil
		}
	}
	return nil, nil
}

// Create registers a sub-bot for token under ownerID and returns the record as
// read back from the store. Callers check for an existing id first.
func (r *BotResolver) Create(ctx context.Context, token string, p BotProfile, ownerID int64) (Bot, error) {
	if err := r.store.AddBot(ctx, newBot(token, p, ownerID)); err != nil {
		logger.Error(ctx, logger.CompIdentity, "identity.create_bot",
			slog.String("status", "fail"),
			slog.Int64("bot_id", p.ID),
			slog.String("err", err.Error()),
		)
		return Bot{}, err
	}
	b, err := r.Resolve(ctx, p.ID)
	if err != nil {
		return Bot{}, err
	}
	if b == nil {
		return Bot{}, &StoreError{Op: "create bot", Err: fmt.Errorf("bot %d missing after insert", p.ID)}
	}
	logger.Info(ctx, logger.CompIdentity, "identity.create_bot",
		slog.String("status", "ok"),
		slog.Int64("bot_id", b.ID),
		slog.String("bot_username", b.Username),
		slog.Int64("owner_id", ownerID),
	)
	return *b, nil
}

// ListByOwner returns the sub-bots of ownerID in insertion order.
func (r *BotResolver) ListByOwner(ctx context.Context, ownerID int64) ([]Bot, error) {
	snap, err := r.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	var out []Bot
	for _, b := range snap.Bots {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	return out, nil
}

// Stats summarises the identity record.
type Stats struct {
	Users       int
	ActiveUsers int
	Bots        int
}

// CollectStats reads a snapshot and counts its records.
func CollectStats(ctx context.Context, store Store) (Stats, error) {
	snap, err := store.Snapshot(ctx)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Users: len(snap.Users), Bots: len(snap.Bots)}
	for _, u := range snap.Users {
		if u.Active {
			st.ActiveUsers++
		}
	}
	return st, nil
}
