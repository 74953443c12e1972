// Package blast is the boundary to the external alignment-search engine.
//
// The core pipeline only depends on the Engine interface and the tabular
// format documented in package hits; CLIEngine drives NCBI BLAST+.
package blast

import (
	"context"

	"github.com/okian/rbh/internal/domain/model"
)

// Index is a handle to a searchable database built from one sequence collection.
type Index struct {
	Name string        // database name, e.g. "strainA_db"
	Path string        // path prefix passed to -db
	Kind model.SeqKind // residue alphabet of the database
}

// IndexRequest describes a database to build.
type IndexRequest struct {
	FastaPath string
	Name      string
	Dir       string
	Kind      model.SeqKind
}

// SearchRequest describes one search of a query collection against an index.
type SearchRequest struct {
	QueryPath string
	Index     Index
	// OutPath keeps a copy of the raw tabular output when set.
	OutPath string
	Threads int
}

// Engine builds indexes and runs searches.
type Engine interface {
	// BuildIndex fails with *ExternalToolError on a non-zero exit.
	BuildIndex(ctx context.Context, req IndexRequest) (Index, error)

	// Search returns tabular rows in the layout hits.Parse reads, and fails
	// with *ExternalToolError on a non-zero exit.
	Search(ctx context.Context, req SearchRequest) ([]byte, error)
}
