package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/okian/rbh/internal/adapters/blast"
	"github.com/okian/rbh/internal/app"
	"github.com/okian/rbh/internal/config"
	"github.com/okian/rbh/internal/domain/besthit"
	"github.com/okian/rbh/pkg/logger"
	"github.com/okian/rbh/pkg/metrics"
)

// Flag names.
const (
	flagIdentity    = "identity"
	flagCoverage    = "coverage"
	flagOutput      = "output"
	flagOutputDir   = "output-dir"
	flagDBType      = "dbtype"
	flagThreads     = "threads"
	flagWorkers     = "workers"
	flagConfig      = "config"
	flagEnv         = "env"
	flagLogLevel    = "log-level"
	flagLogFormat   = "log-format"
	flagMetricsFile = "metrics-file"
)

var errUsage = errors.New("usage")

func runAction(ctx context.Context, cmd *cli.Command) error {
	return execute(ctx, cmd, func(svc *app.Service, a, b string) (*app.Report, error) {
		return svc.Run(ctx, a, b)
	})
}

func matchAction(ctx context.Context, cmd *cli.Command) error {
	return execute(ctx, cmd, func(svc *app.Service, ab, ba string) (*app.Report, error) {
		return svc.Match(ctx, ab, ba)
	})
}

func execute(ctx context.Context, cmd *cli.Command, fn func(svc *app.Service, first, second string) (*app.Report, error)) error {
	if cmd.NArg() != 2 {
		return fmt.Errorf("%w: rbh %s %s", errUsage, cmd.Name, cmd.ArgsUsage)
	}

	cfg, err := loadConfig(ctx, cmd)
	if err != nil {
		return err
	}
	if err := initLogging(ctx, cmd, cfg); err != nil {
		return err
	}
	if cfg.MetricsFile != "" {
		defer func() {
			if werr := metrics.WriteTextfile(cfg.MetricsFile); werr != nil {
				logger.Get().Warn(ctx, "metrics not written", logger.Error(werr))
			}
		}()
	}

	svc, err := newService(cfg)
	if err != nil {
		return err
	}
	rep, err := fn(svc, cmd.Args().Get(0), cmd.Args().Get(1))
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.Root().Writer, "%d reciprocal best hits written to %s\n", len(rep.Hits), rep.OutputPath)
	return err
}

// loadConfig layers explicitly set flags over the file and environment.
func loadConfig(ctx context.Context, cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(ctx,
		config.WithFile(cmd.String(flagConfig)),
		config.WithEnvFile(cmd.String(flagEnv)),
	)
	if err != nil {
		return nil, err
	}

	if cmd.IsSet(flagIdentity) {
		cfg.Identity = cmd.Float(flagIdentity)
	}
	if cmd.IsSet(flagCoverage) {
		cfg.Coverage = cmd.Float(flagCoverage)
	}
	if cmd.IsSet(flagOutput) {
		cfg.Output = cmd.String(flagOutput)
	}
	if cmd.IsSet(flagOutputDir) {
		cfg.OutputDir = cmd.String(flagOutputDir)
	}
	if cmd.IsSet(flagDBType) {
		cfg.DBType = cmd.String(flagDBType)
	}
	if cmd.IsSet(flagThreads) {
		cfg.Threads = cmd.Int(flagThreads)
	}
	if cmd.IsSet(flagWorkers) {
		cfg.WorkerCount = cmd.Int(flagWorkers)
	}
	if cmd.IsSet(flagLogLevel) {
		cfg.LogLevel = cmd.String(flagLogLevel)
	}
	if cmd.IsSet(flagLogFormat) {
		cfg.LogFormat = cmd.String(flagLogFormat)
	}
	if cmd.IsSet(flagMetricsFile) {
		cfg.MetricsFile = cmd.String(flagMetricsFile)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func initLogging(ctx context.Context, cmd *cli.Command, cfg *config.Config) error {
	if err := logger.Init(logger.WithWriter(cmd.Root().ErrWriter), logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return nil
}

func newService(cfg *config.Config) (*app.Service, error) {
	kind, err := cfg.SeqKind()
	if err != nil {
		return nil, err
	}
	engine := blast.NewCLIEngine(
		blast.WithMakeBlastDB(cfg.MakeBlastDBBin),
		blast.WithBlastN(cfg.BlastNBin),
		blast.WithBlastP(cfg.BlastPBin),
	)
	return app.New(
		app.WithEngine(engine),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithThresholds(besthit.Thresholds{Identity: cfg.Identity, Coverage: cfg.Coverage}),
		app.WithThreads(cfg.Threads),
		app.WithOutputDir(cfg.OutputDir),
		app.WithOutputName(cfg.Output),
		app.WithSeqKind(kind),
		app.WithInferLimit(cfg.InferLimit),
	), nil
}
