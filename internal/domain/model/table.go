package model

// HitTable maps query ids to their hit records, iterating queries in order of
// first appearance. It is built once by the parser and read-only afterwards.
type HitTable struct {
	order   []string
	hits    map[string][]HitRecord
	records int
}

// NewHitTable creates an empty table.
func NewHitTable() *HitTable {
	return &HitTable{hits: make(map[string][]HitRecord)}
}

// Append adds rec to the list of its query, creating the list on first use.
func (t *HitTable) Append(rec HitRecord) { //nolint:gocritic // hugeParam: records are stored by value
	list, ok := t.hits[rec.QueryID]
	if !ok {
		t.order = append(t.order, rec.QueryID)
	}
	t.hits[rec.QueryID] = append(list, rec)
	t.records++
}

// Hits returns the records of query in input order.
func (t *HitTable) Hits(query string) ([]HitRecord, bool) {
	list, ok := t.hits[query]
	return list, ok
}

// Queries returns query ids in order of first appearance.
func (t *HitTable) Queries() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Len returns the number of distinct queries.
func (t *HitTable) Len() int { return len(t.order) }

// Records returns the total number of hit records.
func (t *HitTable) Records() int { return t.records }

// BestHitMap maps query ids to their chosen best hit, preserving insertion order.
// Queries without a qualifying hit are absent.
type BestHitMap struct {
	order []string
	best  map[string]BestHit
}

// NewBestHitMap creates an empty map.
func NewBestHitMap() *BestHitMap {
	return &BestHitMap{best: make(map[string]BestHit)}
}

// Set stores hit for query, keeping the query's original insertion position.
func (m *BestHitMap) Set(query string, hit BestHit) {
	if _, ok := m.best[query]; !ok {
		m.order = append(m.order, query)
	}
	m.best[query] = hit
}

// Get returns the best hit for query.
func (m *BestHitMap) Get(query string) (BestHit, bool) {
	h, ok := m.best[query]
	return h, ok
}

// Queries returns query ids in insertion order.
func (m *BestHitMap) Queries() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Len returns the number of queries with a best hit.
func (m *BestHitMap) Len() int { return len(m.order) }
