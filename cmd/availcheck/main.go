// Package main is the entrypoint for the availcheck CLI.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/MacJediWizard/availcheck/internal/baseline"
	"github.com/MacJediWizard/availcheck/internal/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Build-time variables set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app carries the state shared by every command of one invocation.
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger zerolog.Logger
	in     io.Reader
	out    io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "availcheck",
		Short: "Reconcile expected agents against observed availability",
		Long: `availcheck compares a stored baseline of expected agents against
availability CSV exports and reports, per operating system and domain,
which agents were not seen within the freshness window.

Run without a subcommand to open the interactive menu.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMenu(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.availcheck/config.yml)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error, disabled)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newBaselineCmd(a),
		newCheckCmd(a),
		newInfoCmd(a),
		newConfigCmd(a),
	)

	return rootCmd
}

// init loads configuration and sets up logging before any command runs.
func (a *app) init(cmd *cobra.Command) error {
	a.in = cmd.InOrStdin()
	a.out = cmd.OutOrStdout()

	if a.configPath == "" {
		path, err := config.DefaultConfigPath()
		if err != nil {
			return err
		}
		a.configPath = path
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.ApplyEnv()
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", a.configPath, err)
	}
	a.cfg = cfg
	a.logger = newLogger(cmd.ErrOrStderr(), cfg.LogLevel)

	return nil
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	logger := zerolog.New(w).With().Timestamp().Str("version", Version).Logger()
	if config.LoadEnvironment() != config.EnvProduction {
		logger = logger.Output(zerolog.ConsoleWriter{Out: w})
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return logger.Level(lvl)
}

func (a *app) openStore() (*baseline.SQLiteStore, error) {
	dataDir, err := a.cfg.ResolveDataDir()
	if err != nil {
		return nil, err
	}
	store, err := baseline.NewSQLiteStore(dataDir, a.logger)
	if err != nil {
		return nil, fmt.Errorf("open baseline store: %w", err)
	}
	return store, nil
}
