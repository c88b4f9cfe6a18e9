package bootstrap

import "context"

// Storage is the app storage handed to seeders. Seeders assert the concrete
// interface they need.
type Storage interface{}

// Seeder loads reference data into a storage implementation.
type Seeder interface {
	Seed(ctx context.Context, storage Storage) error
}

// SeederFunc adapts a bare function to the Seeder interface.
type SeederFunc func(ctx context.Context, storage Storage) error

// Seed executes the underlying function.
func (f SeederFunc) Seed(ctx context.Context, storage Storage) error {
	return f(ctx, storage)
}

// Modules groups optional bootstrapping hooks. Seeders run in order after
// the storage is opened.
type Modules struct {
	Seeders []Seeder
}
