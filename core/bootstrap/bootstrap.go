package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/subbot/core/config"
	coredatabase "github.com/m3rciful/subbot/core/database"
	"github.com/m3rciful/subbot/core/logger"
)

// Options control the generic bootstrap pipeline shared between bots.
type Options struct {
	Config *coreconfig.Config
	// Database is nil when the app keeps its data outside SQL.
	Database *coredatabase.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config) error

	// OpenStorage builds the app storage over db, which is nil without a
	// database.
	OpenStorage func(ctx context.Context, db *sqlx.DB) (Storage, error)
	Modules     Modules
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	DB      *sqlx.DB
	Storage Storage
}

// Run initializes the logger, connects to the database when one is
// configured, applies migrations, opens the storage and runs the seeders.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	res := &Result{}
	if opts.Database != nil {
		migrate := opts.Migrate
		if migrate == nil {
			migrate = coredatabase.RunMigrations
		}
		if err := migrate(*opts.Database); err != nil {
			return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
		}

		connect := opts.Connect
		if connect == nil {
			connect = coredatabase.Connect
		}
		db, err := connect(*opts.Database)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
		}
		res.DB = db
	}

	if opts.OpenStorage != nil {
		st, err := opts.OpenStorage(ctx, res.DB)
		if err != nil {
			res.closeDB()
			return nil, fmt.Errorf("bootstrap: storage open failed: %w", err)
		}
		res.Storage = st
	}

	for i, s := range opts.Modules.Seeders {
		if s == nil {
			continue
		}
		start := time.Now()
		if err := s.Seed(ctx, res.Storage); err != nil {
			res.close()
			return nil, fmt.Errorf("bootstrap: seeder %d failed: %w", i, err)
		}
		logger.SEED.LogAttrs(ctx, slog.LevelDebug, "seed.done",
			slog.Int("seeder", i),
			slog.Duration("duration", logger.Took(start)),
		)
	}

	return res, nil
}

// close releases the storage and the database after a failed run.
func (r *Result) close() {
	if c, ok := r.Storage.(io.Closer); ok && c != nil {
		_ = c.Close()
	}
	r.closeDB()
}

func (r *Result) closeDB() {
	if r.DB != nil {
		_ = r.DB.Close()
	}
}
