// Package besthit reduces each query's candidate hits to its single best hit.
package besthit

import (
	"github.com/okian/rbh/internal/domain/model"
	"github.com/okian/rbh/pkg/metrics"
)

// Default thresholds.
const (
	DefaultIdentity = 90.0
	DefaultCoverage = 0.8
)

// Thresholds bound which hits qualify. Values are not validated: out-of-range
// thresholds simply admit every hit or none.
type Thresholds struct {
	Identity float64 // minimum percent identity, 0-100
	Coverage float64 // minimum coverage fraction
}

// DefaultThresholds returns 90% identity and 0.8 coverage.
func DefaultThresholds() Thresholds {
	return Thresholds{Identity: DefaultIdentity, Coverage: DefaultCoverage}
}

// Qualifies reports whether h passes both thresholds.
func (t Thresholds) Qualifies(h *model.HitRecord) bool {
	return h.PIdent >= t.Identity && h.Coverage >= t.Coverage
}

// Filter picks, for every query of table, the qualifying hit with the highest
// identity. Hits are scanned in stored order and only a strictly greater
// identity replaces the current best, so the first of equal hits wins.
func Filter(table *model.HitTable, th Thresholds) *model.BestHitMap {
	best := model.NewBestHitMap()
	qualifying := 0

	for _, query := range table.Queries() {
		list, _ := table.Hits(query)

		var (
			chosen model.BestHit
			found  bool
		)
		for i := range list {
			h := &list[i]
			if !th.Qualifies(h) {
				continue
			}
			qualifying++
			if !found || h.PIdent > chosen.PIdent {
				chosen = model.BestHit{SubjectID: h.SubjectID, PIdent: h.PIdent}
				found = true
			}
		}
		if found {
			best.Set(query, chosen)
		}
	}

	metrics.RecordQualifyingHits(qualifying)
	metrics.RecordBestHits(best.Len())
	return best
}
