// Package commands implements the mindmap command line
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mindmap/internal/config"
	"mindmap/internal/logging"
	"mindmap/internal/repository"
	"mindmap/internal/repository/memory"
	"mindmap/internal/repository/sqlite"
)

var (
	cfgFile string
	dbPath  string
)

var rootCmd = &cobra.Command{
	Use:   "mindmap",
	Short: "Force-laid-out mind map server",
	Long: `mindmap serves an editable mind map whose layout is computed by a
force simulation. Changes are saved to a local SQLite database.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: search $MINDMAP_CONFIG, ./mindmap.yaml, ~/.config/mindmap)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(clearCmd)
}

// loadConfig reads the config file named by --config, or searches the
// default locations. The returned path is empty when defaults are used.
func loadConfig() (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if cfgFile != "" {
		cfg, path, err = config.LoadFromPath(cfgFile)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return nil, path, err
	}
	if dbPath != "" {
		cfg.Database.Driver = "sqlite"
		cfg.Database.Path = dbPath
	}
	return cfg, path, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cfg.Logging.Level, cfg.Logging.Development)
}

// openGateway opens the configured storage backend
func openGateway(cfg config.DatabaseConfig) (repository.Gateway, error) {
	switch cfg.Driver {
	case "memory":
		return memory.New(), nil
	default:
		if err := config.EnsureDir(cfg.Path); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
		repo, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		return repo, nil
	}
}

// withGateway runs fn against the configured storage and closes it
func withGateway(ctx context.Context, fn func(context.Context, *config.Config, repository.Gateway) error) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	gw, err := openGateway(cfg.Database)
	if err != nil {
		return err
	}
	defer gw.Close()
	return fn(ctx, cfg, gw)
}
