// Package model contains domain models passed between layers.
package model

import "time"

// Athlete is one roster entry from the source system. Roster entries
// only label records; they are never persisted.
type Athlete struct {
	ID        string // vendor athlete id
	FirstName string
	LastName  string
}

// FullName returns "First Last" for logging.
func (a Athlete) FullName() string {
	return a.FirstName + " " + a.LastName
}

// MeasurementRecord is the flat, normalized form of one vendor
// measurement. Records are immutable once built and consumed exactly
// once by the uploader (or the exporter in legacy mode).
type MeasurementRecord struct {
	FirstName string
	LastName  string

	// Start and End are the session bounds in UTC.
	Start time.Time
	End   time.Time

	// Date and Clock are the display forms the destination form expects:
	// DD/MM/YYYY and a 12-hour clock without a leading zero.
	Date  string
	Clock string

	SessionType string

	MeasurementID string
	AthleteID     string

	// CompositeID is "{measurementID}-{athleteID}", the idempotency key
	// across both systems. It must be stable across repeated runs.
	CompositeID string

	// DurationMinutes is (End-Start) in minutes, rounded to 2 decimals.
	DurationMinutes float64

	// Variables maps vendor variable names to stringified values.
	// Missing scalars are "", missing zone durations are "0".
	Variables map[string]string
}

// Variable returns the named variable value, or "" when absent.
func (r MeasurementRecord) Variable(name string) string {
	return r.Variables[name]
}
