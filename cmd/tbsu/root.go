package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"tbsu/internal/app"
	"tbsu/internal/config"
	"tbsu/internal/infrastructure"
)

// cli holds what every subcommand shares once the root command has run
type cli struct {
	configPath string
	logLevel   string
	baseDir    string

	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error
	app      *app.Application
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "tbsu",
		Short: "Analytics utilities: group concordance, Slack alerts and warehouse loads",
		Long: `tbsu bundles the small tools of a data workflow: resolving linked keys
into groups, alerting Slack from scripts, cleaning tables and bulk-loading
them into a PostgreSQL warehouse.`,
		Version:            app.Version,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  c.setup,
		PersistentPostRunE: c.teardown,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default: $TBSU_CONFIG, config.yaml or configs/config.yaml)")
	flags.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&c.baseDir, "base-dir", "", "directory holding the alerter and channel registries")

	root.AddCommand(
		c.concordCmd(),
		c.alertCmd(),
		c.monitorCmd(),
		c.alertersCmd(),
		c.channelsCmd(),
		c.loadCmd(),
		c.queryCmd(),
		c.epochCmd(),
		c.cleanStringCmd(),
		c.convertDatesCmd(),
		c.modeCmd(),
		c.serveCmd(),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadFrom(c.configPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	if c.baseDir != "" {
		cfg.Paths.BaseDir = c.baseDir
	}

	logger, closeLog, err := infrastructure.NewLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	slog.SetDefault(logger)
	c.closeLog = closeLog

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}

	// Every log line of one invocation shares a trace id.
	cmd.SetContext(infrastructure.EnsureTraceID(cmd.Context()))
	c.cfg, c.logger, c.app = cfg, logger, a
	return nil
}

func (c *cli) teardown(cmd *cobra.Command, _ []string) error {
	if c.app != nil {
		c.app.Close(context.WithoutCancel(cmd.Context()))
	}
	if c.closeLog != nil {
		return c.closeLog()
	}
	return nil
}
