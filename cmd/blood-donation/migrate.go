package main

import (
	"fmt"

	"github.com/bissquit/blood-donation/internal/config"
	"github.com/bissquit/blood-donation/internal/pkg/postgres"
	"github.com/urfave/cli/v2"
)

var migrateCommand = &cli.Command{
	Name:      "migrate",
	Usage:     "Apply or roll back PostgreSQL schema migrations",
	ArgsUsage: "up|down",
	Action:    runMigrations,
}

func runMigrations(cCtx *cli.Context) error {
	direction := postgres.MigrateDirection(cCtx.Args().First())
	if direction == "" {
		direction = postgres.MigrateUp
	}

	cfg, err := loadConfig(cCtx)
	if err != nil {
		return err
	}
	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("migrations apply to the %s driver only; %s indexes are created at startup",
			config.DriverPostgres, cfg.Database.Driver)
	}

	return postgres.Migrate(cfg.Database.URL, cfg.Database.MigrationsPath, direction)
}
