package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/courtline/engine/cmd/cli/commands"
	"github.com/courtline/engine/internal/config"
	"github.com/courtline/engine/pkg/utils/logging"
)

var (
	configPath string
	verbose    bool
	app        *commands.AppContext
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "courtline",
		Short: "Courtline CLI - Evaluate and repair league schedules",
		Long:  `A CLI tool for evaluating sports-league schedules against constraint sets, detecting scheduling conflicts, and resolving them automatically.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil {
				app.Close()
			}
			if app != nil && app.Logger != nil {
				app.Logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: courtline_config.yaml in cwd or home)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug output on the console")

	rootCmd.AddCommand(commands.EvaluateCmd(appRef()))
	rootCmd.AddCommand(commands.AnalyzeCmd(appRef()))
	rootCmd.AddCommand(commands.ResolveCmd(appRef()))
	rootCmd.AddCommand(commands.ConstraintsCmd(appRef()))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// appRef returns the shared AppContext pointer; the struct is populated by
// initApp before any RunE executes
func appRef() *commands.AppContext {
	if app == nil {
		app = &commands.AppContext{}
	}
	return app
}

// initApp sets up logger, config, cache, publisher and the optional store
func initApp() error {
	logger, err := logging.InitLogger("courtline", verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Debug("Loading configuration")
	var cfg *config.Config
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
		if errors.Is(err, config.ErrNoConfigFile) {
			// No config file anywhere is fine for a CLI run; fall back to
			// defaults rather than demanding a file
			logger.Debug("No config file found, using defaults")
			cfg, err = config.Default(), nil
		}
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, err := commands.NewAppContext(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	*appRef() = *ctx

	logger.Debug("Application initialized",
		zap.Bool("redis", cfg.Redis.Addr != ""),
		zap.Bool("postgres", cfg.Postgres.ConnString != ""))
	return nil
}
