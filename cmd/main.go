package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/karaoke/internal/shared"
)

const defaultConfigPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)

	configPath := os.Getenv("KARAOKE_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
	})
	defer runner.Close()

	if err := newApp(runner).Run(context.Background(), os.Args); err != nil {
		runner.Close()
		logger.Fatalf("application error: %v", err)
	}
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:     "karaoke",
		Usage:    "Run a karaoke night: singers, a fair queue, ratings and a leaderboard",
		Version:  "0.1.0",
		Writer:   r.output,
		Commands: r.register(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "db",
				Usage: "Path to the SQLite database (overrides database.path)",
			},
		},
	}
}
