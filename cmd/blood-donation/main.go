// Command blood-donation runs the blood donation API server and its maintenance tasks.
package main

import (
	"log/slog"
	"os"

	"github.com/bissquit/blood-donation/internal/config"
	"github.com/bissquit/blood-donation/internal/version"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	app := &cli.App{
		Name:    "blood-donation",
		Usage:   "Blood donation platform API",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
				EnvVars: []string{"BLOOD_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCommand,
			migrateCommand,
			tokenCommand,
		},
		DefaultCommand: serveCommand.Name,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig(cCtx *cli.Context) (*config.Config, error) {
	return config.Load(cCtx.String("config"))
}
