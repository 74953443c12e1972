// Package hits turns tabular alignment-search output into hit tables.
//
// The expected layout is BLAST+ -outfmt "6 qseqid sseqid pident length
// mismatch gapopen qstart qend sstart send evalue bitscore qlen slen".
// Columns past the fourteenth are ignored.
package hits

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/okian/rbh/internal/domain/model"
	"github.com/okian/rbh/pkg/metrics"
)

// Column positions in a tabular row.
const (
	colQSeqID = iota
	colSSeqID
	colPIdent
	colLength
	colMismatch
	colGapOpen
	colQStart
	colQEnd
	colSStart
	colSEnd
	colEValue
	colBitScore
	colQLen
	colSLen

	// MinColumns is the number of fields every row must carry.
	MinColumns
)

// OutFmt is the BLAST+ -outfmt value producing rows this package reads.
const OutFmt = "6 qseqid sseqid pident length mismatch gapopen qstart qend sstart send evalue bitscore qlen slen"

var errShortRow = fmt.Errorf("expected at least %d tab-separated fields", MinColumns)

// Parse reads every row from r into a new HitTable. Every line is a row,
// blank ones included; only the empty remainder after a final newline is
// ignored. The first malformed row aborts parsing.
func Parse(r io.Reader) (*model.HitTable, error) {
	table := model.NewHitTable()
	br := bufio.NewReader(r)

	for row := 1; ; row++ {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}
		eof := err != nil
		if eof && line == "" {
			return table, nil
		}

		rec, perr := parseRow(row, strings.TrimRight(line, "\r\n"))
		if perr != nil {
			recordError(perr)
			return nil, perr
		}
		table.Append(rec)
		metrics.RecordRowParsed()

		if eof {
			return table, nil
		}
	}
}

// ParseFile opens path and parses it with Parse.
func ParseFile(path string) (*model.HitTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open hit table: %w", err)
	}
	defer func() { _ = f.Close() }()

	table, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

func parseRow(row int, line string) (model.HitRecord, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < MinColumns {
		return model.HitRecord{}, &ParseError{Row: row, Err: fmt.Errorf("%w, got %d", errShortRow, len(fields))}
	}

	p := rowParser{row: row, fields: fields}
	rec := model.HitRecord{
		QueryID:   fields[colQSeqID],
		SubjectID: fields[colSSeqID],
		PIdent:    p.float("pident", colPIdent),
		QStart:    p.int("qstart", colQStart),
		QEnd:      p.int("qend", colQEnd),
		SStart:    p.int("sstart", colSStart),
		SEnd:      p.int("send", colSEnd),
		QLen:      p.int("qlen", colQLen),
		SLen:      p.int("slen", colSLen),

		// Informational columns; the pipeline never reads them.
		Length:   lenientInt(fields[colLength]),
		Mismatch: lenientInt(fields[colMismatch]),
		GapOpen:  lenientInt(fields[colGapOpen]),
		EValue:   lenientFloat(fields[colEValue]),
		BitScore: lenientFloat(fields[colBitScore]),
	}
	if p.err != nil {
		return model.HitRecord{}, p.err
	}

	if rec.QLen == 0 {
		return model.HitRecord{}, &DivisionError{Row: row, QueryID: rec.QueryID}
	}
	span := max(rec.QuerySpan(), rec.SubjectSpan())
	rec.Coverage = float64(span) / float64(rec.QLen)

	return rec, nil
}

// rowParser keeps the first conversion error of a row.
type rowParser struct {
	row    int
	fields []string
	err    error
}

func (p *rowParser) float(name string, col int) float64 {
	if p.err != nil {
		return 0
	}
	raw := strings.TrimSpace(p.fields[col])
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.err = &ParseError{Row: p.row, Field: name, Value: p.fields[col], Err: err}
	}
	return v
}

func (p *rowParser) int(name string, col int) int {
	if p.err != nil {
		return 0
	}
	raw := strings.TrimSpace(p.fields[col])
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.err = &ParseError{Row: p.row, Field: name, Value: p.fields[col], Err: err}
	}
	return v
}

func lenientInt(s string) int {
	v, _ := strconv.Atoi(strings.TrimSpace(s))
	return v
}

func lenientFloat(s string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v
}

func recordError(err error) {
	switch {
	case errors.Is(err, ErrDivision):
		metrics.RecordParseError("division")
	default:
		metrics.RecordParseError("parse")
	}
}
