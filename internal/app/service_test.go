package app_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/okian/rbh/internal/adapters/blast"
	"github.com/okian/rbh/internal/app"
	"github.com/okian/rbh/internal/domain/besthit"
	"github.com/okian/rbh/internal/domain/hits"
	"github.com/okian/rbh/internal/domain/model"
	"github.com/okian/rbh/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// Tabular rows: qseqid sseqid pident length mismatch gapopen qstart qend sstart send evalue bitscore qlen slen.
const (
	rowsAvsB = "geneA\tgeneX\t95.0\t100\t5\t0\t1\t100\t1\t100\t1e-50\t180\t100\t100\n" +
		"geneB\tgeneY\t92.0\t50\t4\t0\t1\t50\t1\t50\t1e-20\t90\t100\t100\n"
	rowsBvsA = "geneX\tgeneA\t95.0\t100\t5\t0\t1\t100\t1\t100\t1e-50\t180\t100\t100\n" +
		"geneY\tgeneB\t92.0\t50\t4\t0\t1\t50\t1\t50\t1e-20\t90\t100\t100\n"
)

type fakeEngine struct {
	mu        sync.Mutex
	indexes   []blast.IndexRequest
	searches  []blast.SearchRequest
	outputs   map[string]string // query path -> tabular output
	indexErr  error
	searchErr error
}

func (f *fakeEngine) BuildIndex(_ context.Context, req blast.IndexRequest) (blast.Index, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexes = append(f.indexes, req)
	if f.indexErr != nil {
		return blast.Index{}, f.indexErr
	}
	return blast.Index{Name: req.Name, Path: filepath.Join(req.Dir, req.Name), Kind: req.Kind}, nil
}

func (f *fakeEngine) Search(_ context.Context, req blast.SearchRequest) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, req)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return []byte(f.outputs[req.QueryPath]), nil
}

func (f *fakeEngine) searchFor(query string) blast.SearchRequest {
	for _, s := range f.searches {
		if s.QueryPath == query {
			return s
		}
	}
	return blast.SearchRequest{}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestService_Run(t *testing.T) {
	Convey("Given two nucleotide strains and a fake engine", t, func() {
		dir := t.TempDir()
		outDir := filepath.Join(dir, "out")
		strainA := writeFile(t, dir, "a.fasta", ">geneA\nATGCATGCAA\n>geneB\nATGGGCCCTT\n")
		strainB := writeFile(t, dir, "b.fasta", ">geneX\nATGCATGCAA\n>geneY\nATGGGCCCTT\n")
		engine := &fakeEngine{outputs: map[string]string{strainA: rowsAvsB, strainB: rowsBvsA}}

		svc := app.New(
			app.WithEngine(engine),
			app.WithOutputDir(outDir),
			app.WithThreads(4),
		)

		Convey("When the run completes", func() {
			rep, err := svc.Run(context.Background(), strainA, strainB)

			Convey("Then only pairs passing both filters are reported", func() {
				So(err, ShouldBeNil)
				So(rep.RunID, ShouldNotBeEmpty)
				So(rep.Hits, ShouldResemble, []model.ReciprocalHit{
					{QueryID: "geneA", SubjectID: "geneX", PIdent: 95, Coverage: 1},
				})
				So(rep.QueriesA, ShouldEqual, 2)
				So(rep.QueriesB, ShouldEqual, 2)
				So(rep.BestA, ShouldEqual, 1)
				So(rep.BestB, ShouldEqual, 1)
			})

			Convey("Then the result file is written in the output dir", func() {
				So(rep.OutputPath, ShouldEqual, filepath.Join(outDir, app.DefaultOutputName))
				data, readErr := os.ReadFile(rep.OutputPath)
				So(readErr, ShouldBeNil)
				So(string(data), ShouldEqual, "geneA\tgeneX\t95.0\t1.0\n")
			})

			Convey("Then each strain is searched against the other's index", func() {
				So(len(engine.indexes), ShouldEqual, 2)
				for _, req := range engine.indexes {
					So(req.Kind, ShouldEqual, model.Nucleotide)
					So(req.Dir, ShouldEqual, outDir)
				}
				ab := engine.searchFor(strainA)
				So(ab.Index.Name, ShouldEqual, app.IndexNameB)
				So(ab.OutPath, ShouldEqual, filepath.Join(outDir, app.SearchAvsB))
				So(ab.Threads, ShouldEqual, 4)
				ba := engine.searchFor(strainB)
				So(ba.Index.Name, ShouldEqual, app.IndexNameA)
				So(ba.OutPath, ShouldEqual, filepath.Join(outDir, app.SearchBvsA))
			})
		})

		Convey("When thresholds are relaxed", func() {
			svc = app.New(
				app.WithEngine(engine),
				app.WithOutputDir(outDir),
				app.WithOutputName("pairs.tsv"),
				app.WithThresholds(besthit.Thresholds{Identity: 90, Coverage: 0.5}),
			)
			rep, err := svc.Run(context.Background(), strainA, strainB)

			Convey("Then the half-covered pair qualifies too", func() {
				So(err, ShouldBeNil)
				So(len(rep.Hits), ShouldEqual, 2)
				So(rep.Hits[1], ShouldResemble, model.ReciprocalHit{QueryID: "geneB", SubjectID: "geneY", PIdent: 92, Coverage: 0.5})
				So(filepath.Base(rep.OutputPath), ShouldEqual, "pairs.tsv")
			})
		})

		Convey("When the sequence kind is forced", func() {
			svc = app.New(app.WithEngine(engine), app.WithOutputDir(outDir), app.WithSeqKind(model.Protein))
			_, err := svc.Run(context.Background(), strainA, strainB)

			Convey("Then indexes are built with that kind", func() {
				So(err, ShouldBeNil)
				So(engine.indexes[0].Kind, ShouldEqual, model.Protein)
				So(engine.indexes[1].Kind, ShouldEqual, model.Protein)
			})
		})

		Convey("When index building fails", func() {
			engine.indexErr = &blast.ExternalToolError{Tool: "makeblastdb", ExitCode: 1, Stderr: "bad"}
			_, err := svc.Run(context.Background(), strainA, strainB)

			Convey("Then the tool error surfaces and no result is written", func() {
				So(errors.Is(err, blast.ErrExternalTool), ShouldBeTrue)
				So(engine.searches, ShouldBeEmpty)
				_, statErr := os.Stat(filepath.Join(outDir, app.DefaultOutputName))
				So(os.IsNotExist(statErr), ShouldBeTrue)
			})
		})

		Convey("When a search returns malformed rows", func() {
			engine.outputs[strainA] = "geneA\tgeneX\tnot-a-number\n"
			_, err := svc.Run(context.Background(), strainA, strainB)

			Convey("Then the parse error surfaces and no result is written", func() {
				So(errors.Is(err, hits.ErrParse), ShouldBeTrue)
				_, statErr := os.Stat(filepath.Join(outDir, app.DefaultOutputName))
				So(os.IsNotExist(statErr), ShouldBeTrue)
			})
		})

		Convey("When an input file is missing", func() {
			_, err := svc.Run(context.Background(), strainA, filepath.Join(dir, "missing.fasta"))

			Convey("Then the run fails before touching the engine", func() {
				So(errors.Is(err, app.ErrInput), ShouldBeTrue)
				So(engine.indexes, ShouldBeEmpty)
			})
		})

		Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := svc.Run(ctx, strainA, strainB)

			Convey("Then the run fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestService_Match(t *testing.T) {
	Convey("Given two existing search result files", t, func() {
		dir := t.TempDir()
		pathAB := writeFile(t, dir, "a_vs_b.tsv", rowsAvsB)
		pathBA := writeFile(t, dir, "b_vs_a.tsv", rowsBvsA)
		svc := app.New(app.WithEngine(&fakeEngine{}), app.WithOutputDir(dir))

		Convey("When matching them", func() {
			rep, err := svc.Match(context.Background(), pathAB, pathBA)

			Convey("Then the reciprocal pairs are written", func() {
				So(err, ShouldBeNil)
				So(len(rep.Hits), ShouldEqual, 1)
				data, readErr := os.ReadFile(rep.OutputPath)
				So(readErr, ShouldBeNil)
				So(string(data), ShouldEqual, "geneA\tgeneX\t95.0\t1.0\n")
			})
		})

		Convey("When matching a file against itself reversed", func() {
			rep, err := svc.Match(context.Background(), pathBA, pathAB)

			Convey("Then the pairs are reported from the other side", func() {
				So(err, ShouldBeNil)
				So(rep.Hits[0].QueryID, ShouldEqual, "geneX")
				So(rep.Hits[0].SubjectID, ShouldEqual, "geneA")
			})
		})

		Convey("When a file has a zero query length", func() {
			bad := writeFile(t, dir, "zero.tsv", "geneA\tgeneX\t95.0\t100\t5\t0\t1\t100\t1\t100\t1e-50\t180\t0\t100\n")
			_, err := svc.Match(context.Background(), bad, pathBA)

			Convey("Then a division error is returned", func() {
				So(errors.Is(err, hits.ErrDivision), ShouldBeTrue)
			})
		})

		Convey("When a file is missing", func() {
			_, err := svc.Match(context.Background(), filepath.Join(dir, "nope.tsv"), pathBA)

			Convey("Then an input error is returned", func() {
				So(errors.Is(err, app.ErrInput), ShouldBeTrue)
			})
		})
	})
}
