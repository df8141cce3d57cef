package transform_test

import (
	"errors"
	"testing"
	"time"

	"github.com/kallio/physync/internal/domain/model"
	"github.com/kallio/physync/internal/domain/transform"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCompositeID(t *testing.T) {
	Convey("Given measurement and athlete ids", t, func() {
		Convey("When building the composite id", func() {
			id := transform.CompositeID("M1", "1447")

			Convey("Then it should join them with a dash", func() {
				So(id, ShouldEqual, "M1-1447")
			})
		})

		Convey("When building it repeatedly", func() {
			Convey("Then the result should be deterministic", func() {
				for i := 0; i < 100; i++ {
					So(transform.CompositeID("M1", "1447"), ShouldEqual, transform.CompositeID("M1", "1447"))
				}
			})
		})
	})
}

func TestParseVendorTime(t *testing.T) {
	Convey("Given vendor timestamps", t, func() {
		Convey("When parsing a Z-suffixed timestamp", func() {
			parsed, err := transform.ParseVendorTime("2025-03-01T09:05:30Z")

			Convey("Then the Z is stripped and the value taken as UTC", func() {
				So(err, ShouldBeNil)
				So(parsed, ShouldEqual, time.Date(2025, 3, 1, 9, 5, 30, 0, time.UTC))
			})
		})

		Convey("When parsing a timestamp with fractional seconds", func() {
			parsed, err := transform.ParseVendorTime("2025-03-01T09:05:30.500Z")

			Convey("Then it should still parse", func() {
				So(err, ShouldBeNil)
				So(parsed.Second(), ShouldEqual, 30)
			})
		})

		Convey("When parsing garbage", func() {
			_, err := transform.ParseVendorTime("yesterday")

			Convey("Then it should fail", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestDurationMinutes(t *testing.T) {
	Convey("Given session bounds", t, func() {
		start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

		Convey("When the session is a round hour", func() {
			So(transform.DurationMinutes(start, start.Add(time.Hour)), ShouldEqual, 60.0)
		})

		Convey("When the session has odd seconds", func() {
			// 100 seconds = 1.666..6 minutes, rounded to 1.67
			So(transform.DurationMinutes(start, start.Add(100*time.Second)), ShouldEqual, 1.67)
		})

		Convey("When the session is empty", func() {
			So(transform.DurationMinutes(start, start), ShouldEqual, 0.0)
		})
	})
}

func TestBuild(t *testing.T) {
	Convey("Given a raw measurement input", t, func() {
		in := transform.Input{
			Athlete:       model.Athlete{ID: "1447", FirstName: " Ann ", LastName: "Lee"},
			MeasurementID: "M1",
			StartTime:     "2025-03-01T09:05:00Z",
			EndTime:       "2025-03-01T10:35:00Z",
			SessionType:   "QUICK_RECOVERY_TEST",
			Variables:     map[string]string{"rmssd": "42", "zoneDuration1": "0"},
		}

		Convey("When building the record", func() {
			record, err := transform.Build(in)

			Convey("Then all derived fields should be populated", func() {
				So(err, ShouldBeNil)
				So(record.CompositeID, ShouldEqual, "M1-1447")
				So(record.FirstName, ShouldEqual, "Ann")
				So(record.LastName, ShouldEqual, "Lee")
				So(record.Date, ShouldEqual, "01/03/2025")
				So(record.Clock, ShouldEqual, "9:05 AM")
				So(record.DurationMinutes, ShouldEqual, 90.0)
				So(record.Variable("rmssd"), ShouldEqual, "42")
			})
		})

		Convey("When the start falls in the afternoon", func() {
			in.StartTime = "2025-03-01T15:05:00Z"
			record, err := transform.Build(in)

			Convey("Then the clock should use a 12-hour format without a leading zero", func() {
				So(err, ShouldBeNil)
				So(record.Clock, ShouldEqual, "3:05 PM")
			})
		})

		Convey("When a timestamp is unparseable", func() {
			in.EndTime = "not-a-time"
			_, err := transform.Build(in)

			Convey("Then a typed error should be returned", func() {
				So(errors.Is(err, transform.ErrBadTimestamp), ShouldBeTrue)
			})
		})
	})
}
