package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM; running BLAST+ processes are killed.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := newRootCommand().Run(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "rbh:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "rbh",
		Usage: "find reciprocal best hits between two strains",
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "index both strains with BLAST+, search each against the other and report reciprocal best hits",
				ArgsUsage: "STRAIN_A.fasta STRAIN_B.fasta",
				Flags:     commonFlags(),
				Action:    runAction,
			},
			{
				Name:      "match",
				Usage:     "report reciprocal best hits from two existing tabular search results",
				ArgsUsage: "A_VS_B.tsv B_VS_A.tsv",
				Flags:     commonFlags(),
				Action:    matchAction,
			},
		},
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.FloatFlag{
			Name:  flagIdentity,
			Usage: "minimum percent identity (inclusive)",
			Value: 90.0,
		},
		&cli.FloatFlag{
			Name:  flagCoverage,
			Usage: "minimum coverage fraction (inclusive)",
			Value: 0.8,
		},
		&cli.StringFlag{
			Name:  flagOutput,
			Usage: "result file name inside the output directory",
			Value: "reciprocal_best_hits.tsv",
		},
		&cli.StringFlag{
			Name:  flagOutputDir,
			Usage: "directory for databases, raw search output and results",
			Value: "output",
		},
		&cli.StringFlag{
			Name:  flagDBType,
			Usage: "force sequence kind (nucl or prot); inferred from the inputs when empty",
		},
		&cli.IntFlag{
			Name:  flagThreads,
			Usage: "threads per search",
			Value: 1,
		},
		&cli.IntFlag{
			Name:  flagWorkers,
			Usage: "engine jobs run at once",
			Value: 2,
		},
		&cli.StringFlag{
			Name:  flagConfig,
			Usage: "YAML config file (default $RBH_CONFIG)",
		},
		&cli.StringFlag{
			Name:  flagEnv,
			Usage: "dotenv file with RBH_* variables",
		},
		&cli.StringFlag{
			Name:  flagLogLevel,
			Usage: "debug, info, warn or error",
			Value: "info",
		},
		&cli.StringFlag{
			Name:  flagLogFormat,
			Usage: "text or json",
			Value: "text",
		},
		&cli.StringFlag{
			Name:  flagMetricsFile,
			Usage: "write Prometheus metrics in textfile format after the run",
		},
	}
}
