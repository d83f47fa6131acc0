// Package ehr defines the domain model and the transport contract for the
// clinic's EHR system, plus the service façade the rest of the agent uses.
package ehr

import (
	"context"
	"fmt"
	"time"
)

// UnknownAppointmentID is the placeholder identifier used when a transport
// cannot recover the real appointment ID from the remote system.
const UnknownAppointmentID = "unknown"

// Status is the state of an appointment in the EHR system.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCancelled Status = "cancelled"
)

// Date is a calendar date with no time-of-day or zone attached.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses an ISO 8601 date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// DateOf extracts the calendar date from t in t's location.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// String returns the ISO 8601 form, e.g. "2026-03-22".
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// At combines the date with a clock time in the given location.
func (d Date) At(t TimeOfDay, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, t.Hour, t.Minute, 0, 0, loc)
}

// TimeOfDay is a wall-clock time with no date or zone attached.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses a 24-hour clock time (HH:MM).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, err
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// TimeOfDayOf extracts the clock time from t, truncated to the minute.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

// String returns the 24-hour form, e.g. "14:30".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Patient is an identity record from the EHR system.
type Patient struct {
	PatientID   string // opaque, stable per remote system
	FirstName   string
	LastName    string
	DateOfBirth *Date // nil when the source date is absent or malformed
}

// FullName returns "First Last".
func (p Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// AppointmentRequest is a scheduling intent. Date and Time are interpreted
// against the configured clinic timezone by the transport.
type AppointmentRequest struct {
	PatientID string
	Date      Date
	Time      TimeOfDay
}

// Appointment is a confirmed or cancelled booking. Instances are never
// updated in place; a cancellation produces a new Appointment.
type Appointment struct {
	AppointmentID string // may be UnknownAppointmentID
	PatientID     string // may be empty after a cancel-by-id flow
	Date          *Date
	Time          *TimeOfDay
	Status        Status
}

// CancelTarget identifies the appointment to cancel. Exactly one of the two
// variants is set; transports support one variant each and reject the other
// with a CancelError (the two generations of cancel flows are not
// interchangeable).
type CancelTarget struct {
	// By-id variant.
	AppointmentID string

	// By-schedule variant.
	PatientID string
	Date      Date
	Time      TimeOfDay
}

// ByAppointmentID builds the cancel-by-opaque-id variant.
func ByAppointmentID(id string) CancelTarget {
	return CancelTarget{AppointmentID: id}
}

// BySchedule builds the cancel-by-(patient, date, time) variant.
func BySchedule(patientID string, date Date, t TimeOfDay) CancelTarget {
	return CancelTarget{PatientID: patientID, Date: date, Time: t}
}

// ByID reports whether the target carries an appointment id.
func (t CancelTarget) ByID() bool {
	return t.AppointmentID != ""
}

// Client defines the interface that every EHR transport must implement.
type Client interface {
	// SearchPatients searches for patients by keyword.
	SearchPatients(ctx context.Context, keywords string) ([]Patient, error)

	// CreateAppointment books an appointment in the EHR system.
	CreateAppointment(ctx context.Context, req AppointmentRequest) (*Appointment, error)

	// CancelAppointment cancels an existing appointment.
	CancelAppointment(ctx context.Context, target CancelTarget) (*Appointment, error)

	// HealthCheck reports whether the EHR system is reachable. It never
	// returns an error; unreachable systems report false.
	HealthCheck(ctx context.Context) bool

	// Close releases resources held by the transport. Transports are not
	// required to tolerate repeated calls; the service layer is.
	Close() error
}
