package identity

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/subbot/core/database"
)

type storeFactory func(t *testing.T) Store

func stores() map[string]storeFactory {
	return map[string]storeFactory{
		"file": func(t *testing.T) Store {
			s, err := OpenFileStore(filepath.Join(t.TempDir(), "users.json"))
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) Store {
			cfg := database.Config{Driver: database.DriverSQLite, Path: filepath.Join(t.TempDir(), "identity.db")}
			require.NoError(t, database.RunMigrations(cfg))
			db, err := database.Connect(cfg)
			require.NoError(t, err)
			s := NewSQLStore(db)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, open := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			snap, err := s.Snapshot(ctx)
			require.NoError(t, err)
			assert.Nil(t, snap.Owner)
			assert.Empty(t, snap.Users)
			assert.Empty(t, snap.Bots)

			require.NoError(t, s.SetOwner(ctx, Owner{ID: 1, Username: "boss"}))
			require.NoError(t, s.SetOwner(ctx, Owner{ID: 7, Username: "root"}))
			require.NoError(t, s.AddUser(ctx, User{ID: 10, Active: true, FirstName: "Ann"}))
			require.NoError(t, s.AddUser(ctx, User{ID: 11, Active: false}))
			require.NoError(t, s.AddBot(ctx, Bot{ID: 500, Token: "t1", Username: "alpha_bot", OwnerID: 10}))
			require.NoError(t, s.AddBot(ctx, Bot{ID: 501, Token: "t2", Username: "beta_bot", OwnerID: 11}))

			snap, err = s.Snapshot(ctx)
			require.NoError(t, err)
			require.NotNil(t, snap.Owner)
			assert.Equal(t, Owner{ID: 7, Username: "root"}, *snap.Owner)
			require.Len(t, snap.Users, 2)
			assert.Equal(t, int64(10), snap.Users[0].ID)
			assert.Equal(t, "Ann", snap.Users[0].FirstName)
			assert.False(t, snap.Users[1].Active)
			require.Len(t, snap.Bots, 2)
			assert.Equal(t, "alpha_bot", snap.Bots[0].Username)
			assert.Equal(t, int64(11), snap.Bots[1].OwnerID)
		})
	}
}

func TestUserResolver(t *testing.T) {
	for name, open := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			r, err := NewUserResolver(s, UserResolverOptions{})
			require.NoError(t, err)

			for _, id := range []int64{1, 42, 1 << 40} {
				res, err := r.Resolve(ctx, id)
				require.NoError(t, err)
				assert.Equal(t, StatusNewUser, res.Status, "id %d", id)
				assert.Nil(t, res.User)
			}

			u, err := r.Create(ctx, Profile{ID: 42, FirstName: "Ann", LanguageCode: "en"})
			require.NoError(t, err)
			assert.True(t, u.Active)
			assert.Equal(t, "en", u.LanguageCode)

			res, err := r.Resolve(ctx, 42)
			require.NoError(t, err)
			assert.Equal(t, StatusActiveUser, res.Status)
			require.NotNil(t, res.User)
			assert.Equal(t, int64(42), res.User.ID)

			require.NoError(t, s.AddUser(ctx, User{ID: 43, Active: false}))
			res, err = r.Resolve(ctx, 43)
			require.NoError(t, err)
			assert.Equal(t, StatusNotActiveUser, res.Status)
		})
	}
}

func TestUserResolverCreateAppendsDuplicate(t *testing.T) {
	ctx := context.Background()
	s := stores()["file"](t)
	r, err := NewUserResolver(s, UserResolverOptions{})
	require.NoError(t, err)

	first, err := r.Create(ctx, Profile{ID: 5, FirstName: "one"})
	require.NoError(t, err)
	second, err := r.Create(ctx, Profile{ID: 5, FirstName: "two"})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Users, 2)
}

func TestUserResolverOwner(t *testing.T) {
	ctx := context.Background()
	s := stores()["file"](t)
	require.NoError(t, s.SetOwner(ctx, Owner{ID: 100}))

	fromStore, err := NewUserResolver(s, UserResolverOptions{})
	require.NoError(t, err)
	res, err := fromStore.Resolve(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, StatusOwner, res.Status)
	assert.Nil(t, res.User)

	fromConfig, err := NewUserResolver(s, UserResolverOptions{OwnerID: 200})
	require.NoError(t, err)
	res, err = fromConfig.Resolve(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, StatusOwner, res.Status)

	// a users record takes precedence over the owner id
	require.NoError(t, s.AddUser(ctx, User{ID: 200, Active: false}))
	res, err = fromConfig.Resolve(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, StatusNotActiveUser, res.Status)
	require.NotNil(t, res.User)

	res, err = fromConfig.Resolve(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, StatusNewUser, res.Status)

	id, err := fromConfig.OwnerID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(200), id)
}

func TestUserResolverCacheInvalidatedOnCreate(t *testing.T) {
	ctx := context.Background()
	s := stores()["file"](t)
	r, err := NewUserResolver(s, UserResolverOptions{CacheTTL: time.Minute, CacheCapacity: 16})
	require.NoError(t, err)
	t.Cleanup(r.Close)

	res, err := r.Resolve(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, StatusNewUser, res.Status)

	_, err = r.Create(ctx, Profile{ID: 9})
	require.NoError(t, err)

	res, err = r.Resolve(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, StatusActiveUser, res.Status)

	// cached results are copies
	res.User.FirstName = "mutated"
	again, err := r.Resolve(ctx, 9)
	require.NoError(t, err)
	assert.Empty(t, again.User.FirstName)
}

func TestBotResolver(t *testing.T) {
	for name, open := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			r := NewBotResolver(s)

			b, err := r.Resolve(ctx, 999)
			require.NoError(t, err)
			assert.Nil(t, b)

			created, err := r.Create(ctx, "999:secret", BotProfile{ID: 999, IsBot: true, Username: "ann_bot", CanJoinGroups: true}, 42)
			require.NoError(t, err)
			assert.Equal(t, "999:secret", created.Token)
			assert.Equal(t, int64(42), created.OwnerID)
			assert.True(t, created.CanJoinGroups)

			_, err = r.Create(ctx, "1000:secret", BotProfile{ID: 1000, Username: "other_bot"}, 7)
			require.NoError(t, err)
			_, err = r.Create(ctx, "1001:secret", BotProfile{ID: 1001, Username: "second_bot"}, 42)
			require.NoError(t, err)

			owned, err := r.ListByOwner(ctx, 42)
			require.NoError(t, err)
			require.Len(t, owned, 2)
			assert.Equal(t, "ann_bot", owned[0].Username)
			assert.Equal(t, "second_bot", owned[1].Username)

			none, err := r.ListByOwner(ctx, 8)
			require.NoError(t, err)
			assert.Empty(t, none)

			st, err := CollectStats(ctx, s)
			require.NoError(t, err)
			assert.Equal(t, Stats{Bots: 3}, st)
		})
	}
}

func TestFileStoreLayout(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "users.json")
	s, err := OpenFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.AddUser(ctx, User{ID: 1, Active: true}))
	require.NoError(t, s.AddBot(ctx, Bot{ID: 2, OwnerID: 1}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string][]map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Len(t, raw["users"], 1)
	assert.Equal(t, float64(1), raw["user_bot"][0]["user_bot_owner"])

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	s, err := OpenFileStore(path)
	require.NoError(t, err)

	_, err = s.Snapshot(context.Background())
	var storeErr *StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "STORE_IO", storeErr.Code())

	err = s.AddUser(context.Background(), User{ID: 1})
	require.True(t, errors.As(err, &storeErr))
}

func TestOwnerSeeder(t *testing.T) {
	ctx := context.Background()
	s := stores()["file"](t)

	require.NoError(t, OwnerSeeder(Owner{})(ctx, s))
	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap.Owner)

	owner := Owner{ID: 77, Username: "boss"}
	require.NoError(t, OwnerSeeder(owner).Seed(ctx, s))
	require.NoError(t, OwnerSeeder(owner).Seed(ctx, s))
	snap, err = s.Snapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap.Owner)
	assert.Equal(t, owner, *snap.Owner)

	assert.Error(t, OwnerSeeder(owner)(ctx, "not a store"))
}
