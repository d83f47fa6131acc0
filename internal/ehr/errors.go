package ehr

import "errors"

// The error taxonomy is closed: every business-logic failure crossing the
// service boundary is one of the three types below. Transports catch and
// rewrap anything else before returning.

// UnavailableError indicates the EHR system is unreachable or refusing
// service (network, auth, system down). Retryable by the caller later.
type UnavailableError struct {
	Reason string
}

func (e *UnavailableError) Error() string {
	return "EHR system unavailable: " + e.Reason
}

// Unavailable builds an UnavailableError.
func Unavailable(reason string) *UnavailableError {
	return &UnavailableError{Reason: reason}
}

// CreateError indicates the remote system rejected an appointment creation.
// Not retryable without changed input.
type CreateError struct {
	Reason    string
	PatientID string
}

func (e *CreateError) Error() string {
	return "failed to create appointment: " + e.Reason
}

// CancelError indicates the remote system rejected an appointment
// cancellation.
type CancelError struct {
	Reason        string
	AppointmentID string
	PatientID     string
}

func (e *CancelError) Error() string {
	return "failed to cancel appointment: " + e.Reason
}

// IsEHRError reports whether err belongs to the EHR error taxonomy.
func IsEHRError(err error) bool {
	var unavailable *UnavailableError
	var create *CreateError
	var cancel *CancelError
	return errors.As(err, &unavailable) || errors.As(err, &create) || errors.As(err, &cancel)
}
