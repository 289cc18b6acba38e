package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ViceAguilera/go-epptrack"
	"github.com/ViceAguilera/go-epptrack/tracker"
)

// commandContext holds the settings shared by all sub commands
type commandContext struct {
	configPath string
	backend    string
	debug      bool

	logger *zap.Logger
}

// loadConfig reads the config file if one was given and applies the flag
// overrides
func (c *commandContext) loadConfig() (epptrack.Config, error) {

	cfg := epptrack.DefaultConfig()

	if path := strings.TrimSpace(c.configPath); path != "" {
		var err error

		if cfg, err = epptrack.LoadConfig(path); err != nil {
			return cfg, err
		}
	}

	if c.backend != "" {
		cfg.Tracker.Backend = c.backend
	}

	return cfg, cfg.Validate()
}

// newEngine builds an Engine from the config and flags
func (c *commandContext) newEngine() (*epptrack.Engine, epptrack.Config, error) {

	cfg, err := c.loadConfig()

	if err != nil {
		return nil, cfg, err
	}

	engine, err := epptrack.NewEngine(cfg, epptrack.WithLogger(c.logger.Named("engine")))

	if err != nil {
		return nil, cfg, err
	}

	c.logger.Info("engine ready",
		zap.String("backend", cfg.Tracker.Backend),
		zap.String("policy", cfg.Association.Policy),
	)

	return engine, cfg, nil
}

func newRootCommand() *cobra.Command {

	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "epp",
		Short:         "Track people and their protective equipment",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error

			if ctx.debug {
				ctx.logger, err = zap.NewDevelopment()
			} else {
				ctx.logger, err = zap.NewProduction()
			}

			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}

			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = ctx.logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	backends := make([]string, 0)
	for _, b := range tracker.Backends() {
		backends = append(backends, string(b))
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configPath, "config", "c", "", "TOML configuration file path")
	rootCmd.PersistentFlags().StringVarP(&ctx.backend, "backend", "b", "",
		fmt.Sprintf("Tracker backend to use [%s]", strings.Join(backends, "|")))
	rootCmd.PersistentFlags().BoolVar(&ctx.debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newReplayCommand(ctx))
	rootCmd.AddCommand(newStreamCommand(ctx))

	return rootCmd
}
