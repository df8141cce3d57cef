package dedupe_test

import (
	"testing"

	dedupe "github.com/kallio/physync/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSet(t *testing.T) {
	Convey("Given a new Set", t, func() {
		Convey("When created empty", func() {
			s := dedupe.NewSet(nil)

			Convey("Then it should report nothing as seen", func() {
				So(s.Size(), ShouldEqual, 0)
				So(s.Seen("M1-1447"), ShouldBeFalse)
			})
		})

		Convey("When seeded with ids", func() {
			s := dedupe.NewSet([]string{"M1-1447", "M2-1447", "M1-9"})

			Convey("Then seeded ids should be seen", func() {
				So(s.Size(), ShouldEqual, 3)
				So(s.Seen("M1-1447"), ShouldBeTrue)
				So(s.Seen("M2-1447"), ShouldBeTrue)
			})

			Convey("And unseeded ids should not", func() {
				So(s.Seen("M3-1447"), ShouldBeFalse)
			})
		})

		Convey("When seeded with duplicates and empty ids", func() {
			s := dedupe.NewSet([]string{"M1-1447", "M1-1447", "", ""})

			Convey("Then they should be collapsed and ignored", func() {
				So(s.Size(), ShouldEqual, 1)
				So(s.Seen(""), ShouldBeFalse)
			})
		})
	})
}
