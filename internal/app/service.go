// Package app wires the reciprocal best hit pipeline: index both strains,
// search each against the other, and keep the pairs that agree.
package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/okian/rbh/internal/adapters/blast"
	"github.com/okian/rbh/internal/adapters/fasta"
	"github.com/okian/rbh/internal/adapters/mq/queue"
	"github.com/okian/rbh/internal/adapters/mq/worker"
	"github.com/okian/rbh/internal/adapters/writer"
	"github.com/okian/rbh/internal/domain/besthit"
	"github.com/okian/rbh/internal/domain/hits"
	"github.com/okian/rbh/internal/domain/model"
	"github.com/okian/rbh/internal/domain/reciprocal"
	"github.com/okian/rbh/pkg/logger"
)

// Artifact names inside the output directory.
const (
	DefaultOutputDir  = "output"
	DefaultOutputName = "reciprocal_best_hits.tsv"

	IndexNameA = "strainA_db"
	IndexNameB = "strainB_db"
	SearchAvsB = "strainA_vs_strainB.blast"
	SearchBvsA = "strainB_vs_strainA.blast"
)

// Each phase runs one job per direction.
const phaseJobCap = 2

// ErrInput reports a missing or unreadable input file.
var ErrInput = errors.New("invalid input")

// Report summarises one run.
type Report struct {
	RunID      string
	Hits       []model.ReciprocalHit
	OutputPath string
	QueriesA   int // distinct queries in the A->B table
	QueriesB   int // distinct queries in the B->A table
	BestA      int
	BestB      int
	Duration   time.Duration
}

// Service runs the pipeline. It holds no per-run state and is safe to reuse.
type Service struct {
	engine      blast.Engine
	workerCount int
	thresholds  besthit.Thresholds
	threads     int
	outputDir   string
	outputName  string
	kind        model.SeqKind
	inferLimit  int

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithEngine sets the search engine. Defaults to BLAST+ from PATH.
func WithEngine(e blast.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithWorkerCount sets how many engine jobs run at once.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithThresholds sets the identity and coverage cut-offs.
func WithThresholds(th besthit.Thresholds) Option {
	return func(s *Service) { s.thresholds = th }
}

// WithThreads sets -num_threads for each search.
func WithThreads(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.threads = n
		}
	}
}

// WithOutputDir sets the directory for databases, raw output and results.
func WithOutputDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.outputDir = dir
		}
	}
}

// WithOutputName sets the result file name inside the output directory.
func WithOutputName(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.outputName = name
		}
	}
}

// WithSeqKind forces the sequence kind instead of inferring it.
func WithSeqKind(k model.SeqKind) Option {
	return func(s *Service) { s.kind = k }
}

// WithInferLimit caps the records read per file when inferring the kind.
func WithInferLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.inferLimit = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: 2,
		thresholds:  besthit.DefaultThresholds(),
		threads:     1,
		outputDir:   DefaultOutputDir,
		outputName:  DefaultOutputName,
		inferLimit:  fasta.DefaultRecordLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("rbh")
	}
	if s.engine == nil {
		s.engine = blast.NewCLIEngine()
	}
	return s
}

// Run indexes both strains, searches each against the other and writes the
// reciprocal best hits. Nothing is written to the result path on failure.
func (s *Service) Run(ctx context.Context, strainA, strainB string) (*Report, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := s.logger.With(logger.String("run_id", runID))

	for _, p := range []string{strainA, strainB} {
		if err := checkInput(p); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(s.outputDir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	kindA, err := s.resolveKind(strainA)
	if err != nil {
		return nil, err
	}
	kindB, err := s.resolveKind(strainB)
	if err != nil {
		return nil, err
	}
	if kindA != kindB {
		log.Warn(ctx, "strains have different sequence kinds",
			logger.String("strain_a", kindA.String()),
			logger.String("strain_b", kindB.String()),
		)
	}
	log.Info(ctx, "starting run",
		logger.String("strain_a", strainA),
		logger.String("strain_b", strainB),
		logger.String("output_dir", s.outputDir),
		logger.Float64("identity", s.thresholds.Identity),
		logger.Float64("coverage", s.thresholds.Coverage),
		logger.Bool("kind_inferred", s.kind == ""),
	)

	runCtx, cancel := context.WithCancel(ctx)
	q := queue.NewInMemoryQueue(queue.WithCapacity(phaseJobCap))
	pool := worker.NewPool(s.workerCount, q, s.engine, phaseJobCap)
	pool.Start(runCtx)
	defer func() {
		cancel()
		if shutdownErr := pool.Shutdown(context.Background()); shutdownErr != nil {
			log.Warn(ctx, "worker pool shutdown", logger.Error(shutdownErr))
		}
	}()

	indexed, err := s.runPhase(runCtx, q, pool, []queue.Job{
		{ID: IndexNameA, Kind: queue.KindIndex, Index: blast.IndexRequest{FastaPath: strainA, Name: IndexNameA, Dir: s.outputDir, Kind: kindA}},
		{ID: IndexNameB, Kind: queue.KindIndex, Index: blast.IndexRequest{FastaPath: strainB, Name: IndexNameB, Dir: s.outputDir, Kind: kindB}},
	})
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	log.Debug(ctx, "indexes built")

	searched, err := s.runPhase(runCtx, q, pool, []queue.Job{
		{ID: SearchAvsB, Kind: queue.KindSearch, Search: blast.SearchRequest{
			QueryPath: strainA,
			Index:     indexed[IndexNameB].Index,
			OutPath:   filepath.Join(s.outputDir, SearchAvsB),
			Threads:   s.threads,
		}},
		{ID: SearchBvsA, Kind: queue.KindSearch, Search: blast.SearchRequest{
			QueryPath: strainB,
			Index:     indexed[IndexNameA].Index,
			OutPath:   filepath.Join(s.outputDir, SearchBvsA),
			Threads:   s.threads,
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	tableA, err := hits.Parse(bytes.NewReader(searched[SearchAvsB].Output))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", SearchAvsB, err)
	}
	tableB, err := hits.Parse(bytes.NewReader(searched[SearchBvsA].Output))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", SearchBvsA, err)
	}

	return s.finish(ctx, log, runID, start, tableA, tableB)
}

// Match runs the reciprocal step over two existing tabular search results:
// pathAB holds strain A queries against strain B, pathBA the reverse.
func (s *Service) Match(ctx context.Context, pathAB, pathBA string) (*Report, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := s.logger.With(logger.String("run_id", runID))

	for _, p := range []string{pathAB, pathBA} {
		if err := checkInput(p); err != nil {
			return nil, err
		}
	}
	tableA, err := hits.ParseFile(pathAB)
	if err != nil {
		return nil, err
	}
	tableB, err := hits.ParseFile(pathBA)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.outputDir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	return s.finish(ctx, log, runID, start, tableA, tableB)
}

func (s *Service) finish(ctx context.Context, log logger.Logger, runID string, start time.Time, tableA, tableB *model.HitTable) (*Report, error) {
	bestA := besthit.Filter(tableA, s.thresholds)
	bestB := besthit.Filter(tableB, s.thresholds)
	pairs := reciprocal.Match(bestA, bestB, tableA)

	out := filepath.Join(s.outputDir, s.outputName)
	if err := writer.WriteFile(out, pairs); err != nil {
		return nil, fmt.Errorf("write results: %w", err)
	}

	rep := &Report{
		RunID:      runID,
		Hits:       pairs,
		OutputPath: out,
		QueriesA:   tableA.Len(),
		QueriesB:   tableB.Len(),
		BestA:      bestA.Len(),
		BestB:      bestB.Len(),
		Duration:   time.Since(start),
	}
	log.Info(ctx, "run finished",
		logger.Int("queries_a", rep.QueriesA),
		logger.Int("queries_b", rep.QueriesB),
		logger.Int("best_a", rep.BestA),
		logger.Int("best_b", rep.BestB),
		logger.Int("pairs", len(pairs)),
		logger.String("output", out),
		logger.Duration("elapsed", rep.Duration),
	)
	return rep, nil
}

// runPhase enqueues jobs and waits for all of them. The first failure is
// returned; the caller cancels the remaining work.
func (s *Service) runPhase(ctx context.Context, q queue.Queue, pool *worker.Pool, jobs []queue.Job) (map[string]worker.Result, error) {
	for i := range jobs {
		if err := q.Enqueue(ctx, jobs[i]); err != nil {
			return nil, fmt.Errorf("enqueue %s: %w", jobs[i].ID, err)
		}
	}

	results := make(map[string]worker.Result, len(jobs))
	for len(results) < len(jobs) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-pool.Results():
			if res.Err != nil {
				return nil, fmt.Errorf("%s: %w", res.JobID, res.Err)
			}
			results[res.JobID] = res
		}
	}
	return results, nil
}

func (s *Service) resolveKind(path string) (model.SeqKind, error) {
	if s.kind != "" {
		return s.kind, nil
	}
	kind, err := fasta.InferKind(path, s.inferLimit)
	if err != nil {
		return "", fmt.Errorf("infer sequence kind of %s: %w", path, err)
	}
	return kind, nil
}

func checkInput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInput, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrInput, path)
	}
	return nil
}
