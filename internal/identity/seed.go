package identity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/subbot/core/bootstrap"
	"github.com/m3rciful/subbot/core/logger"
)

// OwnerSeeder writes o as the owner record unless the store already holds it.
// A zero id leaves the store untouched.
func OwnerSeeder(o Owner) bootstrap.SeederFunc {
	return func(ctx context.Context, storage bootstrap.Storage) error {
		if o.ID == 0 {
			return nil
		}
		store, ok := storage.(Store)
		if !ok {
			return fmt.Errorf("owner seeder: unsupported storage %T", storage)
		}
		snap, err := store.Snapshot(ctx)
		if err != nil {
			return err
		}
		if snap.Owner != nil && *snap.Owner == o {
			logger.SEED.Debug("owner up to date", slog.Int64("owner_id", o.ID))
			return nil
		}
		if err := store.SetOwner(ctx, o); err != nil {
			return err
		}
		logger.SEED.Info("owner seeded",
			slog.String("status", "ok"),
			slog.Int64("owner_id", o.ID),
		)
		return nil
	}
}
