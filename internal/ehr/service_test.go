package ehr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func newTestService(client Client) *Service {
	return NewService(client)
}

func TestFindPatientFiltersByDOB(t *testing.T) {
	dob1 := Date{Year: 2003, Month: 5, Day: 18}
	dob2 := Date{Year: 1990, Month: 1, Day: 2}
	fake := &FakeClient{
		Patients: []Patient{
			{PatientID: "1", FirstName: "Marc", LastName: "Camps", DateOfBirth: &dob1},
			{PatientID: "2", FirstName: "Marcia", LastName: "Reyes", DateOfBirth: &dob2},
			{PatientID: "3", FirstName: "Marco", LastName: "Diaz"},
		},
	}
	svc := newTestService(fake)

	patients, err := svc.FindPatient(context.Background(), "marc", &dob1)
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, "1", patients[0].PatientID)
}

func TestFindPatientNoFilterReturnsAllInOrder(t *testing.T) {
	fake := &FakeClient{
		Patients: []Patient{
			{PatientID: "2", FirstName: "Marcia", LastName: "Reyes"},
			{PatientID: "1", FirstName: "Marc", LastName: "Camps"},
		},
	}
	svc := newTestService(fake)

	patients, err := svc.FindPatient(context.Background(), "marc", nil)
	require.NoError(t, err)
	require.Len(t, patients, 2)
	assert.Equal(t, "2", patients[0].PatientID)
	assert.Equal(t, "1", patients[1].PatientID)
}

func TestFindPatientEmptyResultIsNotAnError(t *testing.T) {
	svc := newTestService(&FakeClient{})
	patients, err := svc.FindPatient(context.Background(), "nobody", nil)
	require.NoError(t, err)
	assert.Empty(t, patients)
}

func TestFindPatientPassesThroughUnavailable(t *testing.T) {
	fake := &FakeClient{SearchErr: Unavailable("system down")}
	svc := newTestService(fake)

	_, err := svc.FindPatient(context.Background(), "marc", nil)
	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "system down", unavailable.Reason)
}

func TestFindPatientWrapsUnexpectedAsUnavailable(t *testing.T) {
	fake := &FakeClient{SearchErr: errors.New("connection reset")}
	svc := newTestService(fake)

	_, err := svc.FindPatient(context.Background(), "marc", nil)
	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Contains(t, unavailable.Reason, "connection reset")
}

func TestCreateAppointmentPassesThroughTaxonomyErrors(t *testing.T) {
	fake := &FakeClient{CreateErr: &CreateError{Reason: "slot taken", PatientID: "1"}}
	svc := newTestService(fake)

	_, err := svc.CreateAppointment(context.Background(), AppointmentRequest{PatientID: "1"})
	var createErr *CreateError
	require.ErrorAs(t, err, &createErr)
	assert.Equal(t, "slot taken", createErr.Reason)
}

func TestCreateAppointmentWrapsUnexpectedAsCreateError(t *testing.T) {
	fake := &FakeClient{CreateErr: errors.New("boom")}
	svc := newTestService(fake)

	_, err := svc.CreateAppointment(context.Background(), AppointmentRequest{PatientID: "p-9"})
	var createErr *CreateError
	require.ErrorAs(t, err, &createErr)
	assert.Equal(t, "boom", createErr.Reason)
	assert.Equal(t, "p-9", createErr.PatientID)

	// Never rewrapped into the generic unavailable error.
	var unavailable *UnavailableError
	assert.False(t, errors.As(err, &unavailable))
}

func TestCreateAppointmentSuccess(t *testing.T) {
	fake := &FakeClient{}
	svc := newTestService(fake)

	req := AppointmentRequest{
		PatientID: "1",
		Date:      mustDate(t, "2026-03-22"),
		Time:      TimeOfDay{Hour: 14, Minute: 30},
	}
	appt, err := svc.CreateAppointment(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, appt.Status)
	require.Len(t, fake.Created, 1)
	assert.Equal(t, req, fake.Created[0])
}

func TestCancelAppointmentWrapsUnexpectedAsCancelError(t *testing.T) {
	fake := &FakeClient{CancelErr: errors.New("boom")}
	svc := newTestService(fake)

	_, err := svc.CancelAppointment(context.Background(), ByAppointmentID("appt-1"))
	var cancelErr *CancelError
	require.ErrorAs(t, err, &cancelErr)
	assert.Equal(t, "boom", cancelErr.Reason)
	assert.Equal(t, "appt-1", cancelErr.AppointmentID)
}

func TestCancelAppointmentSuccess(t *testing.T) {
	fake := &FakeClient{}
	svc := newTestService(fake)

	appt, err := svc.CancelAppointment(context.Background(), ByAppointmentID("appt-1"))
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, appt.Status)
	require.Len(t, fake.Cancelled, 1)
	assert.Equal(t, "appt-1", fake.Cancelled[0].AppointmentID)
}

func TestHealthCheckPureDelegation(t *testing.T) {
	svc := newTestService(&FakeClient{Unhealthy: true})
	assert.False(t, svc.HealthCheck(context.Background()))

	svc = newTestService(&FakeClient{})
	assert.True(t, svc.HealthCheck(context.Background()))
}

func TestCloseIsIdempotent(t *testing.T) {
	fake := &FakeClient{CloseErr: errors.New("already closed")}
	svc := newTestService(fake)

	err1 := svc.Close()
	err2 := svc.Close()
	assert.Equal(t, err1, err2)
	assert.Equal(t, 1, fake.Closed, "transport Close must run exactly once")
}
