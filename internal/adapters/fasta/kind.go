// Package fasta inspects FASTA inputs before they are handed to the search engine.
package fasta

import (
	"errors"
	"fmt"
	"io"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"

	"github.com/okian/rbh/internal/domain/model"
)

// DefaultRecordLimit bounds how many records InferKind reads.
const DefaultRecordLimit = 1000

// proteinOnly marks residues that no nucleotide IUPAC code uses.
var proteinOnly = func() (t [256]bool) { //nolint:gochecknoglobals // lookup table
	for _, c := range "EFIJLOPQZ" {
		t[c] = true
		t[c+('a'-'A')] = true
	}
	return t
}()

func init() { //nolint:gochecknoinits // reader must accept any alphabet for sniffing
	seq.ValidateSeq = false
}

// InferKind reads up to limit records of the FASTA/FASTQ file at path and
// reports Protein as soon as one residue can only be an amino acid.
// Gzip-compressed input is handled by the reader.
func InferKind(path string, limit int) (model.SeqKind, error) {
	if limit <= 0 {
		limit = DefaultRecordLimit
	}

	reader, err := fastx.NewDefaultReader(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer reader.Close()

	for n := 0; n < limit; n++ {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		if IsProtein(record.Seq.Seq) {
			return model.Protein, nil
		}
	}
	return model.Nucleotide, nil
}

// IsProtein reports whether residues contain an amino-acid-only letter.
func IsProtein(residues []byte) bool {
	for _, c := range residues {
		if proteinOnly[c] {
			return true
		}
	}
	return false
}
