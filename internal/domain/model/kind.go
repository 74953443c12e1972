package model

import (
	"fmt"
	"strings"
)

// SeqKind is the residue alphabet of a sequence collection.
type SeqKind string

// Supported kinds, named after makeblastdb's -dbtype values.
const (
	Nucleotide SeqKind = "nucl"
	Protein    SeqKind = "prot"
)

// ParseSeqKind accepts nucl/prot and a few common spellings.
func ParseSeqKind(s string) (SeqKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nucl", "nucleotide", "dna":
		return Nucleotide, nil
	case "prot", "protein", "aa":
		return Protein, nil
	default:
		return "", fmt.Errorf("unknown sequence kind: %q", s)
	}
}

func (k SeqKind) String() string { return string(k) }
