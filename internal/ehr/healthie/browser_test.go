package healthie

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northbridgehealth/voice-agent/internal/ehr"
)

func newTestBrowserClient(t *testing.T) *BrowserClient {
	t.Helper()
	client, err := NewBrowserClient(BrowserConfig{
		BaseURL:  "https://secure.gethealthie.com",
		Headless: true,
	})
	require.NoError(t, err)
	return client
}

func TestNewBrowserClientRequiresBaseURL(t *testing.T) {
	_, err := NewBrowserClient(BrowserConfig{})
	assert.Error(t, err)
}

func TestBrowserSearchWithoutCredentials(t *testing.T) {
	client := newTestBrowserClient(t)
	_, err := client.SearchPatients(context.Background(), "marc")

	var unavailable *ehr.UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Contains(t, unavailable.Error(), "HEALTHIE_EMAIL")
}

func TestBrowserCancelByIDUnsupported(t *testing.T) {
	client := newTestBrowserClient(t)
	_, err := client.CancelAppointment(context.Background(), ehr.ByAppointmentID("555"))

	var cancelErr *ehr.CancelError
	require.ErrorAs(t, err, &cancelErr)
	assert.Contains(t, cancelErr.Error(), "not supported")
	assert.Equal(t, "555", cancelErr.AppointmentID)
}

func TestBrowserCloseWithoutSession(t *testing.T) {
	client := newTestBrowserClient(t)
	assert.NoError(t, client.Close())
	assert.NoError(t, client.Close())
}

func TestParsePatientRows(t *testing.T) {
	rows := []scrapedRow{
		{Href: "/users/123", Text: "Marc Camps (5/18/2003)\nView Profile"},
		{Href: "/users/456", Text: "View Profile"},            // no name/DOB text
		{Href: "/settings", Text: "Jane Doe (1/2/1990)"},      // no extractable id
		{Href: "/users/789", Text: "Maria de la Cruz (12/1/1985)\nView Profile"},
	}

	patients := parsePatientRows(rows)
	require.Len(t, patients, 2)

	assert.Equal(t, "123", patients[0].PatientID)
	assert.Equal(t, "Marc", patients[0].FirstName)
	assert.Equal(t, "Camps", patients[0].LastName)
	require.NotNil(t, patients[0].DateOfBirth)
	assert.Equal(t, "2003-05-18", patients[0].DateOfBirth.String())

	assert.Equal(t, "789", patients[1].PatientID)
	assert.Equal(t, "de la Cruz", patients[1].LastName)
}

func TestParseAppointmentIDFromBody(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			"string id",
			`{"data":{"createAppointment":{"appointment":{"id":"987"},"messages":[]}}}`,
			"987",
		},
		{
			"numeric id",
			`{"data":{"createAppointment":{"appointment":{"id":987}}}}`,
			"987",
		},
		{
			"null id",
			`{"data":{"createAppointment":{"appointment":{"id":null}}}}`,
			"",
		},
		{
			"unrelated query",
			`{"data":{"users":[{"id":"1"}]}}`,
			"",
		},
		{
			"not json",
			`<html>`,
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseAppointmentIDFromBody([]byte(tt.body)))
		})
	}
}

func TestAppointmentIDCaptureFirstWins(t *testing.T) {
	capture := newAppointmentIDCapture()
	assert.Empty(t, capture.get())

	capture.set("111")
	capture.set("222")
	assert.Equal(t, "111", capture.get())
}

func TestPollStopsOnSuccess(t *testing.T) {
	client := newTestBrowserClient(t)
	client.timings.pollInterval = time.Millisecond
	client.timings.maxPollAttempts = 20

	calls := 0
	done, err := client.poll(func() (bool, error) {
		calls++
		return calls == 3, nil
	})
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, 3, calls)
}

func TestPollGivesUpAfterMaxAttempts(t *testing.T) {
	client := newTestBrowserClient(t)
	client.timings.pollInterval = time.Millisecond
	client.timings.maxPollAttempts = 5

	calls := 0
	done, err := client.poll(func() (bool, error) {
		calls++
		return false, nil
	})
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, 5, calls)
}

func TestPollPropagatesCheckError(t *testing.T) {
	client := newTestBrowserClient(t)
	client.timings.pollInterval = time.Millisecond

	checkErr := &ehr.CreateError{Reason: "Datetime is not available"}
	_, err := client.poll(func() (bool, error) {
		return false, checkErr
	})
	assert.ErrorIs(t, err, checkErr)
}

func TestCancelReportsSuccessWhenDetailModalNeverCloses(t *testing.T) {
	client := newTestBrowserClient(t)
	client.timings.pollInterval = time.Millisecond
	client.timings.maxPollAttempts = 3
	// The popup never leaves the DOM.
	client.countElements = func(page context.Context, sel string) (int, error) {
		return 1, nil
	}

	target := ehr.BySchedule("123",
		ehr.Date{Year: 2026, Month: 3, Day: 22},
		ehr.TimeOfDay{Hour: 14, Minute: 30},
	)
	appt, err := client.finishCancel(context.Background(), target)
	require.NoError(t, err, "exhausting the poll budget is best-effort success")
	assert.Equal(t, ehr.StatusCancelled, appt.Status)
	assert.Equal(t, ehr.UnknownAppointmentID, appt.AppointmentID)
	assert.Equal(t, "123", appt.PatientID)
	require.NotNil(t, appt.Date)
	require.NotNil(t, appt.Time)
	assert.Equal(t, "2026-03-22", appt.Date.String())
	assert.Equal(t, "14:30", appt.Time.String())
}

func TestCancelSucceedsWhenDetailModalCloses(t *testing.T) {
	client := newTestBrowserClient(t)
	client.timings.pollInterval = time.Millisecond
	calls := 0
	client.countElements = func(page context.Context, sel string) (int, error) {
		calls++
		if calls >= 2 {
			return 0, nil
		}
		return 1, nil
	}

	appt, err := client.finishCancel(context.Background(), ehr.BySchedule("123",
		ehr.Date{Year: 2026, Month: 3, Day: 22},
		ehr.TimeOfDay{Hour: 14, Minute: 30},
	))
	require.NoError(t, err)
	assert.Equal(t, ehr.StatusCancelled, appt.Status)
	assert.Equal(t, 2, calls)
}

func TestAwaitFormSubmittedSuccess(t *testing.T) {
	client := newTestBrowserClient(t)
	client.timings.pollInterval = time.Millisecond
	client.countElements = func(page context.Context, sel string) (int, error) {
		return 0, nil
	}

	assert.NoError(t, client.awaitFormSubmitted(context.Background(), "123"))
}

func TestAwaitFormSubmittedWarningBanner(t *testing.T) {
	client := newTestBrowserClient(t)
	client.timings.pollInterval = time.Millisecond
	client.countElements = func(page context.Context, sel string) (int, error) {
		return 1, nil
	}
	client.readModalWarning = func(page context.Context) (string, error) {
		return "Datetime is not available", nil
	}

	err := client.awaitFormSubmitted(context.Background(), "123")
	var createErr *ehr.CreateError
	require.ErrorAs(t, err, &createErr)
	assert.Contains(t, createErr.Error(), "Datetime is not available")
	assert.Equal(t, "123", createErr.PatientID)
}

func TestAwaitFormSubmittedTimesOut(t *testing.T) {
	client := newTestBrowserClient(t)
	client.timings.pollInterval = time.Millisecond
	client.timings.maxPollAttempts = 3
	client.countElements = func(page context.Context, sel string) (int, error) {
		return 1, nil
	}
	client.readModalWarning = func(page context.Context) (string, error) {
		return "", nil
	}

	err := client.awaitFormSubmitted(context.Background(), "123")
	var createErr *ehr.CreateError
	require.ErrorAs(t, err, &createErr)
	assert.Contains(t, createErr.Error(), "did not close")
}

func TestHealthyStatus(t *testing.T) {
	assert.True(t, healthyStatus(200))
	assert.True(t, healthyStatus(204))
	assert.False(t, healthyStatus(301), "a redirect means the session bounced")
	assert.False(t, healthyStatus(302))
	assert.False(t, healthyStatus(404))
	assert.False(t, healthyStatus(500))
	assert.False(t, healthyStatus(0))
}
