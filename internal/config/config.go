// Package config defines run configuration and the layered loader.
//
// Precedence (low -> high): defaults, YAML file, dotenv file, RBH_* env.
// Command-line flags are applied on top by the caller.
package config

import (
	"fmt"
	"strings"

	"github.com/okian/rbh/internal/domain/model"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Identity is the minimum percent identity for a qualifying hit (inclusive).
	Identity float64 `koanf:"identity"`

	// Coverage is the minimum coverage fraction for a qualifying hit (inclusive).
	Coverage float64 `koanf:"coverage"`

	// Output is the result file name, relative to OutputDir.
	Output string `koanf:"output"`

	// OutputDir holds databases, raw search output and the result file.
	OutputDir string `koanf:"output_dir"`

	// DBType forces nucl or prot; empty means infer from the first input.
	DBType string `koanf:"dbtype"`

	// Threads is passed to each search as -num_threads.
	Threads int `koanf:"threads"`

	// WorkerCount sets how many engine jobs run at once.
	WorkerCount int `koanf:"worker_count"`

	// InferLimit caps the records read when inferring the sequence kind.
	InferLimit int `koanf:"infer_limit"`

	MakeBlastDBBin string `koanf:"makeblastdb_bin"`
	BlastNBin      string `koanf:"blastn_bin"`
	BlastPBin      string `koanf:"blastp_bin"`

	// MetricsFile, when set, receives a Prometheus textfile dump after each run.
	MetricsFile string `koanf:"metrics_file"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		Identity:       90.0,
		Coverage:       0.8,
		Output:         "reciprocal_best_hits.tsv",
		OutputDir:      "output",
		DBType:         "",
		Threads:        1,
		WorkerCount:    2,
		InferLimit:     1000,
		MakeBlastDBBin: "makeblastdb",
		BlastNBin:      "blastn",
		BlastPBin:      "blastp",
	}
}

// SeqKind returns the forced sequence kind, or "" when it should be inferred.
func (c *Config) SeqKind() (model.SeqKind, error) {
	if c.DBType == "" {
		return "", nil
	}
	return model.ParseSeqKind(c.DBType)
}

// Validate reports the first invalid field as ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Output) == "":
		return fmt.Errorf("%w: output must not be empty", ErrInvalidConfig)
	case c.Threads < 0:
		return fmt.Errorf("%w: threads must not be negative, got %d", ErrInvalidConfig, c.Threads)
	case c.WorkerCount < 0:
		return fmt.Errorf("%w: worker_count must not be negative, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.InferLimit < 0:
		return fmt.Errorf("%w: infer_limit must not be negative, got %d", ErrInvalidConfig, c.InferLimit)
	}
	if _, err := c.SeqKind(); err != nil {
		return fmt.Errorf("%w: dbtype: %w", ErrInvalidConfig, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
