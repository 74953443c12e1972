package model_test

import (
	"testing"

	model "github.com/okian/rbh/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestHitTable(t *testing.T) {
	convey.Convey("Given an empty hit table", t, func() {
		table := model.NewHitTable()

		convey.Convey("When appending records for two queries", func() {
			table.Append(model.HitRecord{QueryID: "q2", SubjectID: "s1"})
			table.Append(model.HitRecord{QueryID: "q1", SubjectID: "s2"})
			table.Append(model.HitRecord{QueryID: "q2", SubjectID: "s3"})
			table.Append(model.HitRecord{QueryID: "q2", SubjectID: "s1"})

			convey.Convey("Then queries keep first-appearance order", func() {
				convey.So(table.Queries(), convey.ShouldResemble, []string{"q2", "q1"})
				convey.So(table.Len(), convey.ShouldEqual, 2)
				convey.So(table.Records(), convey.ShouldEqual, 4)
			})

			convey.Convey("Then records keep input order including duplicates", func() {
				hits, ok := table.Hits("q2")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(len(hits), convey.ShouldEqual, 3)
				convey.So(hits[0].SubjectID, convey.ShouldEqual, "s1")
				convey.So(hits[1].SubjectID, convey.ShouldEqual, "s3")
				convey.So(hits[2].SubjectID, convey.ShouldEqual, "s1")
			})

			convey.Convey("Then unknown queries are absent", func() {
				_, ok := table.Hits("nope")
				convey.So(ok, convey.ShouldBeFalse)
			})
		})
	})
}

func TestBestHitMap(t *testing.T) {
	convey.Convey("Given a best-hit map", t, func() {
		m := model.NewBestHitMap()
		m.Set("b", model.BestHit{SubjectID: "x", PIdent: 91})
		m.Set("a", model.BestHit{SubjectID: "y", PIdent: 92})
		m.Set("b", model.BestHit{SubjectID: "z", PIdent: 99})

		convey.Convey("Then overwriting keeps the original position", func() {
			convey.So(m.Queries(), convey.ShouldResemble, []string{"b", "a"})
			hit, ok := m.Get("b")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(hit.SubjectID, convey.ShouldEqual, "z")
			convey.So(m.Len(), convey.ShouldEqual, 2)
		})
	})
}

func TestHitRecordSpans(t *testing.T) {
	convey.Convey("Given a minus-strand hit", t, func() {
		h := model.HitRecord{QStart: 1, QEnd: 50, SStart: 200, SEnd: 101}

		convey.Convey("Then both spans are positive and inclusive", func() {
			convey.So(h.QuerySpan(), convey.ShouldEqual, 50)
			convey.So(h.SubjectSpan(), convey.ShouldEqual, 100)
		})
	})
}

func TestParseSeqKind(t *testing.T) {
	convey.Convey("Given sequence kind spellings", t, func() {
		k, err := model.ParseSeqKind("NUCL")
		convey.So(err, convey.ShouldBeNil)
		convey.So(k, convey.ShouldEqual, model.Nucleotide)

		k, err = model.ParseSeqKind("protein")
		convey.So(err, convey.ShouldBeNil)
		convey.So(k, convey.ShouldEqual, model.Protein)

		_, err = model.ParseSeqKind("rna?")
		convey.So(err, convey.ShouldNotBeNil)
	})
}
