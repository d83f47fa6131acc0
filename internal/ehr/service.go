package ehr

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/northbridgehealth/voice-agent/internal/observability/metrics"
	"github.com/northbridgehealth/voice-agent/pkg/logging"
)

// Service is the single entry point for EHR operations, independent of the
// configured transport. It applies the DOB business rule after searches and
// guarantees that callers only ever observe taxonomy errors.
type Service struct {
	client  Client
	logger  *logging.Logger
	metrics *metrics.EHRMetrics

	closeOnce sync.Once
	closeErr  error
}

// ServiceOption is a functional option for configuring the Service.
type ServiceOption func(*Service)

// WithLogger sets a custom logger.
func WithLogger(logger *logging.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.EHRMetrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService wraps an EHR transport in the service façade.
func NewService(client Client, opts ...ServiceOption) *Service {
	s := &Service{
		client: client,
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindPatient searches for patients by name, then filters to an exact
// date-of-birth match when dob is non-nil. An empty result is not an error.
func (s *Service) FindPatient(ctx context.Context, name string, dob *Date) ([]Patient, error) {
	s.logger.Info("searching for patient with provided identity details")
	start := time.Now()

	patients, err := s.client.SearchPatients(ctx, name)
	if err != nil {
		s.metrics.ObserveOperation("find_patient", "error", time.Since(start))
		var unavailable *UnavailableError
		if errors.As(err, &unavailable) {
			return nil, err
		}
		return nil, Unavailable("patient search failed: " + err.Error())
	}

	if dob != nil {
		matched := make([]Patient, 0, len(patients))
		for _, p := range patients {
			if p.DateOfBirth != nil && *p.DateOfBirth == *dob {
				matched = append(matched, p)
			}
		}
		patients = matched
	}

	if len(patients) > 0 {
		s.logger.Info("found patients matching criteria", "count", len(patients))
	} else {
		s.logger.Info("no patients found", "name", name)
	}
	s.metrics.ObserveOperation("find_patient", "ok", time.Since(start))
	return patients, nil
}

// CreateAppointment books the appointment via the underlying transport.
// Taxonomy errors pass through unmodified; anything else is rewrapped into
// a CreateError carrying the original message.
func (s *Service) CreateAppointment(ctx context.Context, req AppointmentRequest) (*Appointment, error) {
	s.logger.Info("creating appointment", "date", req.Date.String(), "time", req.Time.String())
	start := time.Now()

	appointment, err := s.client.CreateAppointment(ctx, req)
	if err != nil {
		s.metrics.ObserveOperation("create_appointment", "error", time.Since(start))
		if IsEHRError(err) {
			return nil, err
		}
		return nil, &CreateError{Reason: err.Error(), PatientID: req.PatientID}
	}

	s.logger.Info("appointment created", "appointment_id", appointment.AppointmentID)
	s.metrics.ObserveOperation("create_appointment", "ok", time.Since(start))
	return appointment, nil
}

// CancelAppointment cancels the appointment identified by target, with the
// same wrapping policy as CreateAppointment.
func (s *Service) CancelAppointment(ctx context.Context, target CancelTarget) (*Appointment, error) {
	s.logger.Info("cancelling appointment")
	start := time.Now()

	appointment, err := s.client.CancelAppointment(ctx, target)
	if err != nil {
		s.metrics.ObserveOperation("cancel_appointment", "error", time.Since(start))
		if IsEHRError(err) {
			return nil, err
		}
		return nil, &CancelError{
			Reason:        err.Error(),
			AppointmentID: target.AppointmentID,
			PatientID:     target.PatientID,
		}
	}

	s.logger.Info("appointment cancelled", "appointment_id", appointment.AppointmentID)
	s.metrics.ObserveOperation("cancel_appointment", "ok", time.Since(start))
	return appointment, nil
}

// HealthCheck delegates to the transport without wrapping.
func (s *Service) HealthCheck(ctx context.Context) bool {
	return s.client.HealthCheck(ctx)
}

// Close releases the transport's resources. Safe to call multiple times even
// when the transport itself is not.
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.client.Close()
	})
	return s.closeErr
}
