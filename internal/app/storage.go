package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bissquit/blood-donation/internal/config"
	donationsmongo "github.com/bissquit/blood-donation/internal/donations/mongo"
	donationspostgres "github.com/bissquit/blood-donation/internal/donations/postgres"
	fundingsmongo "github.com/bissquit/blood-donation/internal/fundings/mongo"
	fundingspostgres "github.com/bissquit/blood-donation/internal/fundings/postgres"
	identitymongo "github.com/bissquit/blood-donation/internal/identity/mongo"
	identitypostgres "github.com/bissquit/blood-donation/internal/identity/postgres"
	"github.com/bissquit/blood-donation/internal/pkg/mongodb"
	"github.com/bissquit/blood-donation/internal/pkg/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// storage is an opened backend with the repositories built on top of it.
type storage struct {
	repos Repositories
	ping  func(ctx context.Context) error
	close func()
	// pool is set for the postgres driver only.
	pool *pgxpool.Pool
}

func openStorage(ctx context.Context, cfg config.DatabaseConfig) (*storage, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg)
	case config.DriverMongo:
		return openMongo(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// openPostgres migrates only after the pool is up.
func openPostgres(ctx context.Context, cfg config.DatabaseConfig) (*storage, error) {
	pool, err := postgres.Connect(ctx, postgres.Config{
		URL:             cfg.URL,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		ConnectAttempts: cfg.ConnectAttempts,
		ConnectTimeout:  cfg.ConnectTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if cfg.AutoMigrate {
		if err := postgres.Migrate(cfg.URL, cfg.MigrationsPath, postgres.MigrateUp); err != nil {
			pool.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
	}

	return &storage{
		repos: Repositories{
			Users:            identitypostgres.NewRepository(pool),
			DonationRequests: donationspostgres.NewRepository(pool),
			Fundings:         fundingspostgres.NewRepository(pool),
		},
		ping:  pool.Ping,
		close: pool.Close,
		pool:  pool,
	}, nil
}

func openMongo(ctx context.Context, cfg config.DatabaseConfig) (*storage, error) {
	client, err := mongodb.Connect(ctx, mongodb.Config{
		URL:             cfg.URL,
		Database:        cfg.Name,
		MaxPoolSize:     uint64(cfg.MaxOpenConns),
		ConnectAttempts: cfg.ConnectAttempts,
		ConnectTimeout:  cfg.ConnectTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	closeClient := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			slog.Error("disconnect mongodb", "error", err)
		}
	}

	db := client.Database(cfg.Name)
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		closeClient()
		return nil, err
	}

	return &storage{
		repos: Repositories{
			Users:            identitymongo.NewRepository(db),
			DonationRequests: donationsmongo.NewRepository(db),
			Fundings:         fundingsmongo.NewRepository(db),
		},
		ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		close: closeClient,
	}, nil
}
