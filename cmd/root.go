// Package cmd holds the sage command line.
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/Ramsey-B/sage/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// App carries what every subcommand shares once the root command has run.
type App struct {
	envFiles []string
	cfg      *config.Config
	logger   ectologger.Logger
	zap      *zap.Logger
}

// Execute runs the CLI with args.
func Execute(ctx context.Context, args []string) error {
	app := &App{}
	root := app.rootCommand()
	root.SetArgs(args)
	defer app.sync()
	return root.ExecuteContext(ctx)
}

func (a *App) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:               "sage",
		Short:             "Consultant profile reconciliation service",
		PersistentPreRunE: a.setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
	root.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", nil, "env files to load (default .env, .env.local)")

	root.AddCommand(a.serveCommand())
	root.AddCommand(a.migrateCommand())
	root.AddCommand(a.renameSkillCommand())
	return root
}

func (a *App) setup(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.envFiles...)
	if err != nil {
		return err
	}
	a.cfg = cfg

	zl, err := newZapLogger(cfg)
	if err != nil {
		return err
	}
	a.zap = zl
	a.logger = zapadapter.NewZapEctoLogger(zl, nil)
	return nil
}

func (a *App) sync() {
	if a.zap != nil {
		_ = a.zap.Sync()
	}
}

func newZapLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}

	zc := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	zc.InitialFields = map[string]any{"service": cfg.AppName}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
