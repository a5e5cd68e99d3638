// Package main is the devskilltracker binary: the web server plus operator commands
// for migrations, credentials and the skills catalog.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/johanWP/DevSkillTracker/internal/config"
	"github.com/johanWP/DevSkillTracker/internal/logging"
)

var (
	version   = "0.1.0"
	buildTime = "dev"
)

const appName = "devskilltracker"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Administrator roster of developers and their skills",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (defaults to $DEVSKILL_CONFIG)")

	load := func(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
		return loadConfig(configPath, cmd.ErrOrStderr())
	}

	cmd.AddCommand(
		serveCmd(load),
		migrateCmd(load),
		credentialCmd(load),
		catalogCmd(load),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, version, buildTime)
			},
		},
	)
	return cmd
}

type configLoader func(cmd *cobra.Command) (config.Config, *slog.Logger, error)

func loadConfig(path string, logOutput io.Writer) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, logOutput)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger.With("app", appName), nil
}

func serveCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := load(cmd)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return serve(cmd.Context(), cfg, logger)
		},
	}
}

func migrateCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQLite schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := load(cmd)
			if err != nil {
				return err
			}
			if cfg.StorageDriver != config.DriverSQLite {
				return fmt.Errorf("migrate requires storage_driver=%s, got %q", config.DriverSQLite, cfg.StorageDriver)
			}
			db, err := openSQLite(cmd.Context(), cfg.SQLiteDSN, logger, false)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := db.Migrate(cmd.Context())
			if err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", applied)
			return nil
		},
	}
}
