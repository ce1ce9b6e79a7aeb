// Package cli holds the snow-search commands.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"snow-search/internal/common/config"
	"snow-search/internal/common/logger"
	"snow-search/internal/search"
	"snow-search/pkg/registry"
)

// app is the state shared by all subcommands once config is loaded.
type app struct {
	cfgFile  string
	logLevel string

	cfg    *config.Config
	zapLog *zap.Logger
	log    logger.Logger
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds a fresh command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "snow-search",
		Short: "Free-text search over ServiceNow incidents, problems and change requests",
		Long: `snow-search turns queries like "incidents on 2025-03-01" or "show me CHG0012345"
into ServiceNow Table API requests.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (SNOW_INSTANCE, SNOW_USERNAME, SNOW_PASSWORD, ...)
3. Config file (./configs/config.yaml or --config)
4. Defaults`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.zapLog != nil {
				_ = a.zapLog.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: ./configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newServeCmd(a),
		newSearchCmd(a),
		newExplainCmd(a),
		newRegistryCmd(a),
	)
	return rootCmd
}

func (a *app) init() error {
	var (
		cfg *config.Config
		err error
	)
	if a.cfgFile != "" {
		cfg, err = config.LoadFromFile(a.cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}

	a.cfg = cfg
	a.zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	a.log = logger.NewZapAdapter(a.zapLog).With(map[string]interface{}{
		"service": cfg.App.Name,
	})
	return nil
}

// loadRegistry returns the file registry when one is configured, else the
// built-in one.
func (a *app) loadRegistry() (*registry.RecordTypeRegistry, error) {
	if a.cfg.Search.RegistryPath == "" {
		return registry.Default(), nil
	}
	reg, err := registry.LoadRegistry(a.cfg.Search.RegistryPath)
	if err != nil {
		return nil, fmt.Errorf("load record type registry: %w", err)
	}
	a.log.Info("record type registry loaded", map[string]interface{}{
		"path":        a.cfg.Search.RegistryPath,
		"version":     reg.Version,
		"recordTypes": len(reg.RecordTypes),
	})
	return reg, nil
}

func (a *app) searchOptions() search.Options {
	return search.Options{
		DefaultMaxResults: a.cfg.Search.DefaultMaxResults,
		InvalidDatePolicy: a.cfg.Search.InvalidDate,
		StopWords:         a.cfg.Search.StopWords,
		CreatedField:      a.cfg.Search.CreatedField,
	}
}
