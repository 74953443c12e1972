// Package reciprocal cross-validates two best-hit mappings into reciprocal
// best hit pairs.
package reciprocal

import (
	"github.com/okian/rbh/internal/domain/besthit"
	"github.com/okian/rbh/internal/domain/model"
	"github.com/okian/rbh/pkg/metrics"
)

// Match emits a pair for every query a of bestA whose best subject b has a as
// its own best subject in bestB. Ids are compared exactly.
//
// Identity comes from bestA and coverage from the first record in tableA with
// query a and subject b; bestB only contributes the confirming subject id and
// the reverse table is never read. Output follows bestA's order.
func Match(bestA, bestB *model.BestHitMap, tableA *model.HitTable) []model.ReciprocalHit {
	out := make([]model.ReciprocalHit, 0, bestA.Len())

	for _, query := range bestA.Queries() {
		fwd, _ := bestA.Get(query)
		rev, ok := bestB.Get(fwd.SubjectID)
		if !ok || rev.SubjectID != query {
			continue
		}

		out = append(out, model.ReciprocalHit{
			QueryID:   query,
			SubjectID: fwd.SubjectID,
			PIdent:    fwd.PIdent,
			Coverage:  coverageOf(tableA, query, fwd.SubjectID),
		})
	}

	metrics.RecordReciprocalPairs(len(out))
	return out
}

// coverageOf returns the coverage of the first query->subject record, or 0 if
// tableA has none. The latter cannot happen when bestA came from tableA.
func coverageOf(table *model.HitTable, query, subject string) float64 {
	list, _ := table.Hits(query)
	for i := range list {
		if list[i].SubjectID == subject {
			return list[i].Coverage
		}
	}
	metrics.RecordCoverageFallback()
	return 0
}

// Find filters both tables with th and matches the results. tableA holds the
// A-vs-B search, tableB the B-vs-A search.
func Find(tableA, tableB *model.HitTable, th besthit.Thresholds) []model.ReciprocalHit {
	bestA := besthit.Filter(tableA, th)
	bestB := besthit.Filter(tableB, th)
	return Match(bestA, bestB, tableA)
}
