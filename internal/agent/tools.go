// Package agent exposes the scheduling operations as voice-agent tools and
// handles the conversational niceties around them.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/northbridgehealth/voice-agent/internal/ehr"
	"github.com/northbridgehealth/voice-agent/pkg/logging"
)

// Tool names as registered with the voice platform.
const (
	ToolFindPatient       = "find_patient"
	ToolCreateAppointment = "create_appointment"
	ToolCancelAppointment = "cancel_appointment"
)

// SchedulingService is the slice of the scheduling facade the tools need.
type SchedulingService interface {
	FindPatient(ctx context.Context, name string, dob *ehr.Date) ([]ehr.Patient, error)
	CreateAppointment(ctx context.Context, req ehr.AppointmentRequest) (*ehr.Appointment, error)
	CancelAppointment(ctx context.Context, target ehr.CancelTarget) (*ehr.Appointment, error)
	HealthCheck(ctx context.Context) bool
}

// ToolOption configures Tools.
type ToolOption func(*Tools)

// WithToolLogger overrides the default logger.
func WithToolLogger(logger *logging.Logger) ToolOption {
	return func(t *Tools) {
		if logger != nil {
			t.logger = logger.Component("agent-tools")
		}
	}
}

// WithClock overrides the time source used for past-time rejection.
func WithClock(now func() time.Time) ToolOption {
	return func(t *Tools) {
		if now != nil {
			t.now = now
		}
	}
}

// Tools adapts the scheduling service to the tool-call contract the voice
// platform speaks: every handler takes loosely-typed string arguments and
// returns a flat result map, never a Go error. Every result carries a
// boolean "error" flag and a speakable "message"; the "found"/"success"
// booleans report the business outcome so the assistant's LLM can branch on
// them.
type Tools struct {
	svc      SchedulingService
	clinicTZ *time.Location
	logger   *logging.Logger
	now      func() time.Time
}

// NewTools builds the tool set. clinicTZ anchors spoken dates and times and
// the past-time check; nil means UTC.
func NewTools(svc SchedulingService, clinicTZ *time.Location, opts ...ToolOption) *Tools {
	if clinicTZ == nil {
		clinicTZ = time.UTC
	}
	t := &Tools{
		svc:      svc,
		clinicTZ: clinicTZ,
		logger:   logging.Default().Component("agent-tools"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Dispatch routes a named tool call to its handler. Unknown tool names are
// reported in-band like any other failure.
func (t *Tools) Dispatch(ctx context.Context, toolName string, args map[string]string) map[string]any {
	switch toolName {
	case ToolFindPatient:
		return t.FindPatient(ctx, args["name"], args["date_of_birth"])
	case ToolCreateAppointment:
		return t.CreateAppointment(ctx, args["patient_id"], args["date"], args["time"])
	case ToolCancelAppointment:
		return t.CancelAppointment(ctx, args["appointment_id"], args["patient_id"], args["date"], args["time"])
	default:
		return map[string]any{
			"error":   true,
			"message": fmt.Sprintf("unknown tool %q", toolName),
		}
	}
}

// failure builds an error result. outcomeKey is "found" or "success".
func failure(outcomeKey, message string) map[string]any {
	return map[string]any{
		outcomeKey: false,
		"error":    true,
		"message":  message,
	}
}

// FindPatient looks up a patient by name, optionally narrowed by date of
// birth (YYYY-MM-DD, empty to skip).
func (t *Tools) FindPatient(ctx context.Context, name, dateOfBirth string) map[string]any {
	if name == "" {
		return failure("found", "name is required")
	}

	var dob *ehr.Date
	if dateOfBirth != "" {
		parsed, err := ehr.ParseDate(dateOfBirth)
		if err != nil {
			return failure("found", "date_of_birth must be an ISO date (YYYY-MM-DD)")
		}
		dob = &parsed
	}

	patients, err := t.svc.FindPatient(ctx, name, dob)
	if err != nil {
		t.logger.Error("find_patient failed", "name", name, "error", err)
		return failure("found", err.Error())
	}

	switch len(patients) {
	case 0:
		return map[string]any{
			"found":   false,
			"error":   false,
			"message": fmt.Sprintf("No patient found matching %q.", name),
		}
	case 1:
		result := patientFields(patients[0])
		result["found"] = true
		result["error"] = false
		result["message"] = fmt.Sprintf("Found %s.", patients[0].FullName())
		return result
	default:
		summaries := make([]map[string]any, 0, len(patients))
		for _, p := range patients {
			summaries = append(summaries, patientFields(p))
		}
		return map[string]any{
			"found":            true,
			"error":            false,
			"multiple_matches": true,
			"count":            len(patients),
			"patients":         summaries,
			"message":          "Multiple patients match; please confirm the date of birth.",
		}
	}
}

func patientFields(p ehr.Patient) map[string]any {
	fields := map[string]any{
		"patient_id": p.PatientID,
		"name":       p.FullName(),
	}
	if p.DateOfBirth != nil {
		fields["date_of_birth"] = p.DateOfBirth.String()
	}
	return fields
}

// CreateAppointment books an appointment for patientID at the given clinic-
// local date (YYYY-MM-DD) and time (HH:MM). Requests for a moment already in
// the past are rejected before touching the EHR.
func (t *Tools) CreateAppointment(ctx context.Context, patientID, date, timeOfDay string) map[string]any {
	if patientID == "" {
		return failure("success", "patient_id is required")
	}
	parsedDate, err := ehr.ParseDate(date)
	if err != nil {
		return failure("success", "date must be an ISO date (YYYY-MM-DD)")
	}
	parsedTime, err := ehr.ParseTimeOfDay(timeOfDay)
	if err != nil {
		return failure("success", "time must be a 24-hour clock time (HH:MM)")
	}

	when := parsedDate.At(parsedTime, t.clinicTZ)
	if when.Before(t.now().In(t.clinicTZ)) {
		return failure("success", "that time is in the past; please pick a future date and time")
	}

	appt, err := t.svc.CreateAppointment(ctx, ehr.AppointmentRequest{
		PatientID: patientID,
		Date:      parsedDate,
		Time:      parsedTime,
	})
	if err != nil {
		t.logger.Error("create_appointment failed", "patient_id", patientID, "error", err)
		return failure("success", err.Error())
	}

	return appointmentResult(appt, "Appointment created successfully.")
}

// CancelAppointment cancels either by appointment id or, when that is
// unknown, by the patient id plus the scheduled date and time.
func (t *Tools) CancelAppointment(ctx context.Context, appointmentID, patientID, date, timeOfDay string) map[string]any {
	var target ehr.CancelTarget
	if appointmentID != "" {
		target = ehr.ByAppointmentID(appointmentID)
	} else {
		if patientID == "" {
			return failure("success", "either appointment_id or patient_id with date and time is required")
		}
		parsedDate, err := ehr.ParseDate(date)
		if err != nil {
			return failure("success", "date must be an ISO date (YYYY-MM-DD)")
		}
		parsedTime, err := ehr.ParseTimeOfDay(timeOfDay)
		if err != nil {
			return failure("success", "time must be a 24-hour clock time (HH:MM)")
		}
		target = ehr.BySchedule(patientID, parsedDate, parsedTime)
	}

	appt, err := t.svc.CancelAppointment(ctx, target)
	if err != nil {
		t.logger.Error("cancel_appointment failed", "error", err)
		return failure("success", err.Error())
	}

	return appointmentResult(appt, "Appointment cancelled successfully.")
}

func appointmentResult(appt *ehr.Appointment, message string) map[string]any {
	result := map[string]any{
		"success":        true,
		"error":          false,
		"message":        message,
		"appointment_id": appt.AppointmentID,
		"status":         string(appt.Status),
	}
	if appt.PatientID != "" {
		result["patient_id"] = appt.PatientID
	}
	if appt.Date != nil {
		result["date"] = appt.Date.String()
	}
	if appt.Time != nil {
		result["time"] = appt.Time.String()
	}
	return result
}
