package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/karaoke/internal/shared"
)

// setupCommand handles first-run setup of the configuration file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml if missing, initialize the database and run migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   defaultConfigPath,
			},
		},
		Action: r.Setup,
	}
}

// Setup creates the configuration file from the embedded template when it is missing,
// then opens the session so migrations run and the session row exists.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
		}
	}

	if config, err := shared.LoadConfig(configPath); err == nil {
		r.config = config
		r.configPath = configPath
	} else {
		r.logger.Warn("failed to load config, using defaults", "error", err)
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)
	s, err := r.Session(ctx, cmd)
	if err != nil {
		return err
	}

	info, err := s.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	r.writePlain("✓ Database ready (schema version %d)\n", info.SchemaVersion)
	r.writePlain("✓ Session: %s\n", info.Name)
	r.writePlainln("Next steps:")
	r.writePlain("1. karaoke singer add \"Your Name\"\n")
	r.writePlain("2. karaoke song add \"Song Title\" --singer \"Your Name\"\n")
	r.writePlain("3. karaoke tui or karaoke serve\n")
	return nil
}
