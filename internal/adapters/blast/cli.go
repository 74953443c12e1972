package blast

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/okian/rbh/internal/domain/hits"
	"github.com/okian/rbh/internal/domain/model"
	"github.com/okian/rbh/pkg/logger"
	"github.com/okian/rbh/pkg/metrics"
)

// Default BLAST+ executables, resolved through PATH.
const (
	DefaultMakeBlastDB = "makeblastdb"
	DefaultBlastN      = "blastn"
	DefaultBlastP      = "blastp"
)

// CLIEngine runs BLAST+ executables.
type CLIEngine struct {
	makeblastdb string
	blastn      string
	blastp      string
	logger      logger.Logger
}

// Option applies a configuration option to the CLIEngine.
type Option func(*CLIEngine)

// WithMakeBlastDB sets the makeblastdb executable.
func WithMakeBlastDB(bin string) Option {
	return func(e *CLIEngine) {
		if bin != "" {
			e.makeblastdb = bin
		}
	}
}

// WithBlastN sets the executable used for nucleotide databases.
func WithBlastN(bin string) Option {
	return func(e *CLIEngine) {
		if bin != "" {
			e.blastn = bin
		}
	}
}

// WithBlastP sets the executable used for protein databases.
func WithBlastP(bin string) Option {
	return func(e *CLIEngine) {
		if bin != "" {
			e.blastp = bin
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *CLIEngine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewCLIEngine creates an engine using BLAST+ from PATH unless overridden.
func NewCLIEngine(opts ...Option) *CLIEngine {
	e := &CLIEngine{
		makeblastdb: DefaultMakeBlastDB,
		blastn:      DefaultBlastN,
		blastp:      DefaultBlastP,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.Get().Named("blast")
	}
	return e
}

// BuildIndex runs makeblastdb on req.FastaPath, writing the database under req.Dir.
func (e *CLIEngine) BuildIndex(ctx context.Context, req IndexRequest) (Index, error) {
	idx := Index{
		Name: req.Name,
		Path: filepath.Join(req.Dir, req.Name),
		Kind: req.Kind,
	}
	args := []string{"-in", req.FastaPath, "-dbtype", req.Kind.String(), "-out", idx.Path}
	if _, err := e.run(ctx, e.makeblastdb, args); err != nil {
		return Index{}, err
	}
	return idx, nil
}

// Search runs blastn or blastp, picked by the index kind, and returns the
// tabular output.
func (e *CLIEngine) Search(ctx context.Context, req SearchRequest) ([]byte, error) {
	tool := e.blastn
	if req.Index.Kind == model.Protein {
		tool = e.blastp
	}

	threads := req.Threads
	if threads < 1 {
		threads = 1
	}
	args := []string{
		"-query", req.QueryPath,
		"-db", req.Index.Path,
		"-outfmt", hits.OutFmt,
		"-num_threads", strconv.Itoa(threads),
	}
	if req.OutPath != "" {
		args = append(args, "-out", req.OutPath)
	}

	stdout, err := e.run(ctx, tool, args)
	if err != nil {
		return nil, err
	}
	if req.OutPath == "" {
		return stdout, nil
	}

	data, err := os.ReadFile(req.OutPath)
	if err != nil {
		return nil, fmt.Errorf("read search output: %w", err)
	}
	return data, nil
}

// run executes tool and returns its stdout. Failures become *ExternalToolError.
func (e *CLIEngine) run(ctx context.Context, tool string, args []string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	name := filepath.Base(tool)
	e.logger.Debug(ctx, "running external tool", logger.String("tool", name), logger.Any("args", args))

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)
	metrics.RecordToolDuration(name, elapsed.Seconds())

	if err != nil {
		metrics.RecordToolFailure(name)
		toolErr := &ExternalToolError{
			Tool:     tool,
			Args:     args,
			ExitCode: -1,
			Stderr:   stderr.String(),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			toolErr.ExitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			toolErr.Err = ctxErr
		}
		e.logger.Error(ctx, "external tool failed",
			logger.String("tool", name),
			logger.Int("exit_code", toolErr.ExitCode),
			logger.Error(toolErr),
		)
		return nil, toolErr
	}

	e.logger.Info(ctx, "external tool finished", logger.String("tool", name), logger.Duration("elapsed", elapsed))
	return stdout.Bytes(), nil
}
