// Package model contains domain models passed between layers.
package model

// HitRecord is one reported alignment between a query and a subject sequence.
// Coordinates are 1-based and inclusive, as written by the search engine.
type HitRecord struct {
	QueryID   string  // qseqid
	SubjectID string  // sseqid
	PIdent    float64 // percent identity, 0-100
	Length    int     // alignment length
	Mismatch  int
	GapOpen   int
	QStart    int
	QEnd      int
	SStart    int
	SEnd      int
	EValue    float64
	BitScore  float64
	QLen      int
	SLen      int

	// Coverage is max(query span, subject span) / QLen, computed at parse time.
	Coverage float64
}

// QuerySpan returns the number of query positions covered by the alignment.
func (h HitRecord) QuerySpan() int { return span(h.QStart, h.QEnd) }

// SubjectSpan returns the number of subject positions covered by the alignment.
// Minus-strand hits report sstart > send; the span is the same either way.
func (h HitRecord) SubjectSpan() int { return span(h.SStart, h.SEnd) }

func span(start, end int) int {
	d := end - start
	if d < 0 {
		d = -d
	}
	return d + 1
}

// BestHit is the subject chosen for a query by the best-hit filter.
type BestHit struct {
	SubjectID string
	PIdent    float64
}

// ReciprocalHit is a confirmed pair. PIdent and Coverage always come from the
// A->B hit record, never from the reverse direction.
type ReciprocalHit struct {
	QueryID   string
	SubjectID string
	PIdent    float64
	Coverage  float64
}
