package writer

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/rbh/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestFormatFloat(t *testing.T) {
	Convey("Floats render with a decimal point", t, func() {
		So(FormatFloat(95), ShouldEqual, "95.0")
		So(FormatFloat(1), ShouldEqual, "1.0")
		So(FormatFloat(0), ShouldEqual, "0.0")
		So(FormatFloat(0.5), ShouldEqual, "0.5")
		So(FormatFloat(97.5), ShouldEqual, "97.5")
		So(FormatFloat(0.8333333333333334), ShouldEqual, "0.8333333333333334")
		So(FormatFloat(0.00001), ShouldEqual, "1e-05")
		So(FormatFloat(-2), ShouldEqual, "-2.0")
	})
}

func TestWriteTSV(t *testing.T) {
	hits := []model.ReciprocalHit{
		{QueryID: "geneA", SubjectID: "geneX", PIdent: 95, Coverage: 1},
		{QueryID: "geneB", SubjectID: "geneY", PIdent: 92.31, Coverage: 0.5},
	}

	Convey("Given reciprocal hits", t, func() {
		var buf bytes.Buffer
		err := WriteTSV(&buf, hits)

		Convey("Then each pair is one tab-separated line without header", func() {
			So(err, ShouldBeNil)
			So(buf.String(), ShouldEqual, "geneA\tgeneX\t95.0\t1.0\ngeneB\tgeneY\t92.31\t0.5\n")
		})
	})

	Convey("Given no hits", t, func() {
		var buf bytes.Buffer
		So(WriteTSV(&buf, nil), ShouldBeNil)
		So(buf.Len(), ShouldEqual, 0)
	})

	Convey("Given a writer that fails", t, func() {
		So(WriteTSV(failingWriter{}, hits), ShouldNotBeNil)
	})
}

func TestWriteFile(t *testing.T) {
	Convey("Given an output directory", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "reciprocal_best_hits.tsv")

		Convey("When writing hits", func() {
			err := WriteFile(path, []model.ReciprocalHit{{QueryID: "a", SubjectID: "x", PIdent: 95, Coverage: 1}})

			Convey("Then the file holds the rows and no temp file remains", func() {
				So(err, ShouldBeNil)
				data, readErr := os.ReadFile(path)
				So(readErr, ShouldBeNil)
				So(string(data), ShouldEqual, "a\tx\t95.0\t1.0\n")
				entries, _ := os.ReadDir(dir)
				So(len(entries), ShouldEqual, 1)
			})
		})

		Convey("When writing an empty result", func() {
			So(WriteFile(path, nil), ShouldBeNil)
			info, err := os.Stat(path)
			So(err, ShouldBeNil)
			So(info.Size(), ShouldEqual, 0)
		})
	})

	Convey("Given a directory that does not exist", t, func() {
		path := filepath.Join(t.TempDir(), "missing", "out.tsv")
		err := WriteFile(path, nil)

		Convey("Then nothing is written", func() {
			So(err, ShouldNotBeNil)
			_, statErr := os.Stat(path)
			So(os.IsNotExist(statErr), ShouldBeTrue)
		})
	})
}
