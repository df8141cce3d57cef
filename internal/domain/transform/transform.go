// Package transform normalizes raw vendor measurements into
// MeasurementRecords: timestamp parsing, derived duration, display
// formatting, and the composite dedup id.
package transform

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kallio/physync/internal/domain/model"
)

// Vendor timestamps arrive as ISO-8601 with a literal Z suffix. The Z
// is stripped and the remainder parsed as a naive datetime taken to be
// UTC, matching how the destination form expects wall-clock values.
const (
	vendorTimeLayout         = "2006-01-02T15:04:05"
	vendorTimeLayoutFraction = "2006-01-02T15:04:05.999999999"

	displayDateLayout  = "02/01/2006"
	displayClockLayout = "3:04 PM"
)

// Input carries the raw field values extracted from one measurement
// detail response.
type Input struct {
	Athlete       model.Athlete
	MeasurementID string
	StartTime     string // vendor timestamp
	EndTime       string // vendor timestamp
	SessionType   string
	Variables     map[string]string
}

// Build normalizes one raw measurement into an immutable record.
func Build(in Input) (model.MeasurementRecord, error) {
	start, err := ParseVendorTime(in.StartTime)
	if err != nil {
		return model.MeasurementRecord{}, fmt.Errorf("%w: startTime %q", ErrBadTimestamp, in.StartTime)
	}
	end, err := ParseVendorTime(in.EndTime)
	if err != nil {
		return model.MeasurementRecord{}, fmt.Errorf("%w: endTime %q", ErrBadTimestamp, in.EndTime)
	}

	return model.MeasurementRecord{
		FirstName:       strings.TrimSpace(in.Athlete.FirstName),
		LastName:        strings.TrimSpace(in.Athlete.LastName),
		Start:           start,
		End:             end,
		Date:            DisplayDate(start),
		Clock:           DisplayClock(start),
		SessionType:     in.SessionType,
		MeasurementID:   in.MeasurementID,
		AthleteID:       in.Athlete.ID,
		CompositeID:     CompositeID(in.MeasurementID, in.Athlete.ID),
		DurationMinutes: DurationMinutes(start, end),
		Variables:       in.Variables,
	}, nil
}

// ParseVendorTime strips a trailing Z and parses the rest as a naive
// UTC datetime.
func ParseVendorTime(s string) (time.Time, error) {
	naive := strings.TrimSuffix(strings.TrimSpace(s), "Z")
	t, err := time.Parse(vendorTimeLayout, naive)
	if err != nil {
		t, err = time.Parse(vendorTimeLayoutFraction, naive)
	}
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// DisplayDate formats a timestamp as DD/MM/YYYY for the destination form.
func DisplayDate(t time.Time) string {
	return t.Format(displayDateLayout)
}

// DisplayClock formats a timestamp as a 12-hour clock without a leading
// zero, e.g. "9:05 AM".
func DisplayClock(t time.Time) string {
	return t.Format(displayClockLayout)
}

// DurationMinutes returns (end-start) in minutes rounded to 2 decimals.
func DurationMinutes(start, end time.Time) float64 {
	minutes := end.Sub(start).Seconds() / 60
	return math.Round(minutes*100) / 100
}

// CompositeID builds the dedup key "{measurementID}-{athleteID}". It
// must stay byte-stable across runs; both systems key idempotence on it.
func CompositeID(measurementID, athleteID string) string {
	return measurementID + "-" + athleteID
}
