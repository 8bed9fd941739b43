package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/binding"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/store"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mudra",
		Short: "Mute and unmute the microphone with hand gestures",
		Long: `Mudra watches the camera for a held hand pose and toggles the microphone:
a bound gesture mutes, another unmutes, with a cooldown between actions.`,
		SilenceUsage: true,
	}

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Config file (default is the user config dir)")
	rootCmd.PersistentFlags().String("data-dir", "", "Directory for the database and bindings")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(
		newRunCmd(),
		newBindCmd(),
		newBindingsCmd(),
		newEventsCmd(),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies the persistent flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return config.Config{}, nil, err
		}
		path = p
	}

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}

	if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
		cfg.DataDir = dir
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return cfg, nil, err
	}
	logger := logging.NewWriter(cmd.ErrOrStderr(), level)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// openBindings loads the binding store from the configured backend. The
// returned database is nil for the file backend unless needDB is set.
func openBindings(cfg config.Config, logger *slog.Logger, needDB bool) (*binding.Store, *store.Store, error) {
	var db *store.Store
	if needDB || cfg.BindingsBackend == config.BackendSQLite {
		s, err := store.New(cfg.DBPath())
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		db = s
	}

	var backend binding.Backend
	switch cfg.BindingsBackend {
	case config.BackendSQLite:
		backend = db.Bindings()
	default:
		backend = binding.NewFileBackend(cfg.BindingsPath())
	}

	bindings := binding.NewStore(backend, logger)
	bindings.Load()
	return bindings, db, nil
}

func closeDB(db *store.Store) {
	if db != nil {
		db.Close()
	}
}
