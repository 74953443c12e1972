// Package writer persists reciprocal best hits as tab-separated text.
package writer

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/okian/rbh/internal/domain/model"
)

// WriteTSV writes one line per pair: query, subject, pident, coverage.
// There is no header.
func WriteTSV(w io.Writer, hits []model.ReciprocalHit) error {
	bw := bufio.NewWriter(w)
	for _, h := range hits {
		if _, err := fmt.Fprintf(bw, "%s\t%s\t%s\t%s\n",
			h.QueryID, h.SubjectID, FormatFloat(h.PIdent), FormatFloat(h.Coverage)); err != nil {
			return fmt.Errorf("write row %s: %w", h.QueryID, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// WriteFile writes hits to path atomically. A failed write leaves no file
// at path.
func WriteFile(path string, hits []model.ReciprocalHit) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = WriteTSV(tmp, hits); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp output: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil { //nolint:gosec // result file is meant to be shared
		return fmt.Errorf("chmod output: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}

// FormatFloat renders f the shortest way that round-trips, always keeping a
// decimal point for integral values: 95 -> "95.0", 0.5 -> "0.5".
// Very small or very large magnitudes use exponent notation.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
