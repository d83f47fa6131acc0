package ehr

import (
	"context"
	"strings"
)

// FakeClient is an in-memory Client used by tests and by the "fake" adapter
// for demo deployments.
//
// Pre-load Patients to control what searches return. Set SearchErr,
// CreateErr or CancelErr to make the corresponding method fail on the next
// call. After calls, inspect Created and Cancelled to verify what was passed
// to the client.
type FakeClient struct {
	Patients  []Patient
	Created   []AppointmentRequest
	Cancelled []CancelTarget
	Closed    int

	SearchErr error
	CreateErr error
	CancelErr error
	CloseErr  error
	Unhealthy bool
}

func (f *FakeClient) SearchPatients(ctx context.Context, keywords string) ([]Patient, error) {
	if f.SearchErr != nil {
		return nil, f.SearchErr
	}
	var matched []Patient
	for _, p := range f.Patients {
		if strings.Contains(strings.ToLower(p.FirstName), strings.ToLower(keywords)) ||
			strings.Contains(strings.ToLower(p.FullName()), strings.ToLower(keywords)) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

func (f *FakeClient) CreateAppointment(ctx context.Context, req AppointmentRequest) (*Appointment, error) {
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	f.Created = append(f.Created, req)
	date := req.Date
	t := req.Time
	return &Appointment{
		AppointmentID: "new-1",
		PatientID:     req.PatientID,
		Date:          &date,
		Time:          &t,
		Status:        StatusScheduled,
	}, nil
}

func (f *FakeClient) CancelAppointment(ctx context.Context, target CancelTarget) (*Appointment, error) {
	if f.CancelErr != nil {
		return nil, f.CancelErr
	}
	f.Cancelled = append(f.Cancelled, target)
	appt := &Appointment{
		AppointmentID: target.AppointmentID,
		PatientID:     target.PatientID,
		Status:        StatusCancelled,
	}
	if appt.AppointmentID == "" {
		appt.AppointmentID = UnknownAppointmentID
		date := target.Date
		t := target.Time
		appt.Date = &date
		appt.Time = &t
	}
	return appt, nil
}

func (f *FakeClient) HealthCheck(ctx context.Context) bool {
	return !f.Unhealthy
}

func (f *FakeClient) Close() error {
	f.Closed++
	return f.CloseErr
}

// NewSeededFakeClient returns a FakeClient pre-loaded with demo patients so
// the "fake" adapter can answer searches out of the box.
func NewSeededFakeClient() *FakeClient {
	return &FakeClient{
		Patients: []Patient{
			{
				PatientID:   "1001",
				FirstName:   "Marc",
				LastName:    "Camps",
				DateOfBirth: &Date{Year: 2003, Month: 5, Day: 18},
			},
			{
				PatientID:   "1002",
				FirstName:   "Jane",
				LastName:    "Doe",
				DateOfBirth: &Date{Year: 1990, Month: 1, Day: 2},
			},
			{
				PatientID:   "1003",
				FirstName:   "John",
				LastName:    "Smith",
				DateOfBirth: &Date{Year: 1985, Month: 12, Day: 31},
			},
		},
	}
}
