// Package healthie contains the two transports for the Healthie EHR: a
// structured GraphQL client and a browser-automation client. Both satisfy
// ehr.Client with identical semantics and error taxonomy.
package healthie

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/northbridgehealth/voice-agent/internal/ehr"
	"github.com/northbridgehealth/voice-agent/pkg/logging"
)

const signInMutation = `
mutation signIn($email: String!, $password: String!) {
  signIn(input: { email: $email, password: $password }) {
    token
    messages {
      field
      message
    }
  }
}
`

const usersQuery = `
query users($keywords: String!) {
  users(keywords: $keywords, should_paginate: true) {
    id
    first_name
    last_name
    dob
  }
}
`

const appointmentTypesQuery = `
query appointmentTypes {
  appointmentTypes {
    id
    name
    available_contact_types
  }
}
`

const createAppointmentMutation = `
mutation createAppointment(
  $user_id: String!,
  $datetime: String!,
  $appointment_type_id: String!,
  $contact_type: String!
) {
  createAppointment(input: {
    user_id: $user_id,
    datetime: $datetime,
    appointment_type_id: $appointment_type_id,
    contact_type: $contact_type
  }) {
    appointment {
      id
      date
      pm_status
    }
    messages {
      field
      message
    }
  }
}
`

const updateAppointmentMutation = `
mutation updateAppointment($id: ID!, $pm_status: String) {
  updateAppointment(input: { id: $id, pm_status: $pm_status }) {
    appointment {
      id
      date
      pm_status
    }
    messages {
      field
      message
    }
  }
}
`

const healthCheckQuery = `
query healthCheck {
  users(keywords: "", should_paginate: true, offset: 0) {
    id
  }
}
`

// healthieTimestampLayout is the datetime string Healthie's appointment
// mutations speak, e.g. "2026-03-22 14:30:00 -0400".
const healthieTimestampLayout = "2006-01-02 15:04:05 -0700"

// defaultContactType is used when an appointment type advertises no
// available contact types.
const defaultContactType = "Healthie Video Call"

// GraphQLConfig holds configuration for the GraphQL transport.
type GraphQLConfig struct {
	APIURL   string
	Email    string
	Password string
	// Token is an optional pre-supplied bearer token; when set, credentials
	// are only needed once the token is rejected.
	Token          string
	ClinicTimezone *time.Location
	Timeout        time.Duration
	Logger         *logging.Logger
}

// GraphQLClient implements ehr.Client over Healthie's GraphQL API with
// bearer-token session management. Cancellation uses the by-id variant.
type GraphQLClient struct {
	apiURL     string
	email      string
	password   string
	httpClient *http.Client
	clinicTZ   *time.Location
	logger     *logging.Logger

	// mu guards the session token and the cached appointment/contact type.
	// Invalidation happens only inside the authenticated-call path, on an
	// HTTP 401/403 or an auth-looking GraphQL error.
	mu                sync.Mutex
	token             string
	appointmentTypeID string
	contactType       string
}

// NewGraphQLClient creates the structured-protocol transport.
func NewGraphQLClient(cfg GraphQLConfig) (*GraphQLClient, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("healthie: APIURL is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	tz := cfg.ClinicTimezone
	if tz == nil {
		tz = time.UTC
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &GraphQLClient{
		apiURL:     cfg.APIURL,
		email:      cfg.Email,
		password:   cfg.Password,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
		clinicTZ:   tz,
		logger:     logger.Component("healthie-graphql"),
	}, nil
}

type fieldMessage struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// flexID tolerates remote ids arriving as either JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	*f = flexID(strings.Trim(string(b), `"`))
	return nil
}

func joinMessages(messages []fieldMessage) string {
	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		parts = append(parts, m.Message)
	}
	return strings.Join(parts, "; ")
}

// ensureToken returns a valid bearer token, signing in if necessary.
func (c *GraphQLClient) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		return token, nil
	}

	if c.email == "" || c.password == "" {
		return "", ehr.Unavailable("no email/password credentials configured for Healthie")
	}

	c.logger.Info("authenticating with Healthie GraphQL API via signIn mutation")
	body, err := c.post(ctx, "", signInMutation, map[string]any{
		"email":    c.email,
		"password": c.password,
	})
	if err != nil {
		return "", ehr.Unavailable("Healthie signIn request failed: " + err.Error())
	}

	var data struct {
		SignIn struct {
			Token    string         `json:"token"`
			Messages []fieldMessage `json:"messages"`
		} `json:"signIn"`
	}
	if err := json.Unmarshal(body.Data, &data); err != nil {
		return "", ehr.Unavailable("Healthie signIn response malformed: " + err.Error())
	}
	if len(data.SignIn.Messages) > 0 {
		return "", ehr.Unavailable("Healthie signIn failed: " + joinMessages(data.SignIn.Messages))
	}
	if data.SignIn.Token == "" {
		return "", ehr.Unavailable("Healthie signIn returned no token")
	}

	c.mu.Lock()
	c.token = data.SignIn.Token
	c.mu.Unlock()
	c.logger.Info("authenticated with Healthie, token cached for subsequent requests")
	return data.SignIn.Token, nil
}

// post executes one GraphQL HTTP request. An empty token omits the
// Authorization header (used by signIn). Non-2xx statuses are returned as
// *httpStatusError so the caller can inspect the code.
func (c *GraphQLClient) post(ctx context.Context, token, query string, variables map[string]any) (*graphQLResponse, error) {
	payload, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return nil, fmt.Errorf("healthie: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("healthie: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("AuthorizationSource", "Web")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("healthie: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &httpStatusError{status: resp.StatusCode, body: string(body)}
	}

	var parsed graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("healthie: decode response: %w", err)
	}
	return &parsed, nil
}

type httpStatusError struct {
	status int
	body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.status, e.body)
}

// execute runs an authenticated GraphQL request. On an authorization failure
// (HTTP 401/403 or an auth-looking GraphQL error) the cached token is cleared
// and the request retried exactly once with fresh authentication.
func (c *GraphQLClient) execute(ctx context.Context, query string, variables map[string]any) (*graphQLResponse, error) {
	return c.executeInner(ctx, query, variables, true)
}

func (c *GraphQLClient) executeInner(ctx context.Context, query string, variables map[string]any, retryOnAuth bool) (*graphQLResponse, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.post(ctx, token, query, variables)
	if err != nil {
		var statusErr *httpStatusError
		if errors.As(err, &statusErr) && retryOnAuth &&
			(statusErr.status == http.StatusUnauthorized || statusErr.status == http.StatusForbidden) {
			c.logger.Warn("Healthie token rejected, retrying authentication", "status", statusErr.status)
			c.clearToken()
			return c.executeInner(ctx, query, variables, false)
		}
		return nil, ehr.Unavailable("Healthie GraphQL request failed: " + err.Error())
	}

	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		joined := strings.Join(msgs, "; ")
		if retryOnAuth && looksLikeAuthError(joined) {
			c.logger.Warn("Healthie GraphQL auth error, retrying authentication")
			c.clearToken()
			return c.executeInner(ctx, query, variables, false)
		}
		return nil, ehr.Unavailable("Healthie GraphQL error: " + joined)
	}

	return resp, nil
}

func (c *GraphQLClient) clearToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// looksLikeAuthError reports whether a GraphQL error message reads like a
// rejected or expired session rather than a business failure.
func looksLikeAuthError(message string) bool {
	msg := strings.ToLower(message)
	for _, key := range []string{
		"unauthorized",
		"not authorized",
		"forbidden",
		"expired",
		"invalid token",
		"jwt",
		"authentication",
	} {
		if strings.Contains(msg, key) {
			return true
		}
	}
	return false
}

// SearchPatients implements ehr.Client.
func (c *GraphQLClient) SearchPatients(ctx context.Context, keywords string) ([]ehr.Patient, error) {
	resp, err := c.execute(ctx, usersQuery, map[string]any{"keywords": keywords})
	if err != nil {
		return nil, err
	}

	var data struct {
		Users []struct {
			ID        flexID `json:"id"`
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
			DOB       string `json:"dob"`
		} `json:"users"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, ehr.Unavailable("Healthie users response malformed: " + err.Error())
	}

	patients := make([]ehr.Patient, 0, len(data.Users))
	for _, u := range data.Users {
		var dob *ehr.Date
		if u.DOB != "" {
			if parsed, err := ehr.ParseDate(u.DOB); err == nil {
				dob = &parsed
			}
		}
		patients = append(patients, ehr.Patient{
			PatientID:   string(u.ID),
			FirstName:   u.FirstName,
			LastName:    u.LastName,
			DateOfBirth: dob,
		})
	}
	return patients, nil
}

// ensureAppointmentType fetches and caches the first available appointment
// type and contact type for the lifetime of this client.
func (c *GraphQLClient) ensureAppointmentType(ctx context.Context) (string, string, error) {
	c.mu.Lock()
	typeID, contactType := c.appointmentTypeID, c.contactType
	c.mu.Unlock()
	if typeID != "" && contactType != "" {
		return typeID, contactType, nil
	}

	c.logger.Info("fetching appointment types from Healthie")
	resp, err := c.execute(ctx, appointmentTypesQuery, nil)
	if err != nil {
		return "", "", err
	}

	var data struct {
		AppointmentTypes []struct {
			ID                    flexID   `json:"id"`
			Name                  string   `json:"name"`
			AvailableContactTypes []string `json:"available_contact_types"`
		} `json:"appointmentTypes"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return "", "", ehr.Unavailable("Healthie appointmentTypes response malformed: " + err.Error())
	}
	if len(data.AppointmentTypes) == 0 {
		return "", "", &ehr.CreateError{Reason: "no appointment types configured in Healthie"}
	}

	first := data.AppointmentTypes[0]
	typeID = string(first.ID)
	contactType = defaultContactType
	if len(first.AvailableContactTypes) > 0 {
		contactType = first.AvailableContactTypes[0]
	}

	c.mu.Lock()
	c.appointmentTypeID = typeID
	c.contactType = contactType
	c.mu.Unlock()
	c.logger.Info("using appointment type", "id", typeID, "contact_type", contactType)
	return typeID, contactType, nil
}

// CreateAppointment implements ehr.Client. The returned appointment echoes
// the request's date and time; the remote echo is not trusted for display.
func (c *GraphQLClient) CreateAppointment(ctx context.Context, req ehr.AppointmentRequest) (*ehr.Appointment, error) {
	typeID, contactType, err := c.ensureAppointmentType(ctx)
	if err != nil {
		return nil, err
	}

	clinicTime := req.Date.At(req.Time, c.clinicTZ)
	resp, err := c.execute(ctx, createAppointmentMutation, map[string]any{
		"user_id":             req.PatientID,
		"datetime":            clinicTime.Format(healthieTimestampLayout),
		"appointment_type_id": typeID,
		"contact_type":        contactType,
	})
	if err != nil {
		return nil, err
	}

	var data struct {
		CreateAppointment struct {
			Appointment struct {
				ID       flexID `json:"id"`
				Date     string `json:"date"`
				PMStatus string `json:"pm_status"`
			} `json:"appointment"`
			Messages []fieldMessage `json:"messages"`
		} `json:"createAppointment"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, ehr.Unavailable("Healthie createAppointment response malformed: " + err.Error())
	}
	if len(data.CreateAppointment.Messages) > 0 {
		return nil, &ehr.CreateError{
			Reason:    joinMessages(data.CreateAppointment.Messages),
			PatientID: req.PatientID,
		}
	}

	appointmentID := string(data.CreateAppointment.Appointment.ID)
	if appointmentID == "" {
		appointmentID = ehr.UnknownAppointmentID
	}

	date := req.Date
	t := req.Time
	return &ehr.Appointment{
		AppointmentID: appointmentID,
		PatientID:     req.PatientID,
		Date:          &date,
		Time:          &t,
		Status:        ehr.StatusScheduled,
	}, nil
}

// CancelAppointment implements ehr.Client. This transport supports only the
// by-appointment-id variant.
func (c *GraphQLClient) CancelAppointment(ctx context.Context, target ehr.CancelTarget) (*ehr.Appointment, error) {
	if !target.ByID() {
		return nil, &ehr.CancelError{
			Reason:    "cancel by patient/date/time is not supported by the GraphQL transport",
			PatientID: target.PatientID,
		}
	}

	resp, err := c.execute(ctx, updateAppointmentMutation, map[string]any{
		"id":        target.AppointmentID,
		"pm_status": "Cancelled",
	})
	if err != nil {
		return nil, err
	}

	var data struct {
		UpdateAppointment struct {
			Appointment struct {
				ID       flexID `json:"id"`
				Date     string `json:"date"`
				PMStatus string `json:"pm_status"`
			} `json:"appointment"`
			Messages []fieldMessage `json:"messages"`
		} `json:"updateAppointment"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, ehr.Unavailable("Healthie updateAppointment response malformed: " + err.Error())
	}
	if len(data.UpdateAppointment.Messages) > 0 {
		return nil, &ehr.CancelError{
			Reason:        joinMessages(data.UpdateAppointment.Messages),
			AppointmentID: target.AppointmentID,
		}
	}

	// Parse the returned timestamp back into clinic-local date/time,
	// tolerating unparseable dates by leaving the fields absent.
	var date *ehr.Date
	var tod *ehr.TimeOfDay
	if aware, err := time.Parse(healthieTimestampLayout, data.UpdateAppointment.Appointment.Date); err == nil {
		local := aware.In(c.clinicTZ)
		d := ehr.DateOf(local)
		t := ehr.TimeOfDayOf(local)
		date = &d
		tod = &t
	}

	appointmentID := string(data.UpdateAppointment.Appointment.ID)
	if appointmentID == "" {
		appointmentID = target.AppointmentID
	}

	return &ehr.Appointment{
		AppointmentID: appointmentID,
		PatientID:     "",
		Date:          date,
		Time:          tod,
		Status:        ehr.StatusCancelled,
	}, nil
}

// HealthCheck implements ehr.Client. Any failure reports false, never an
// error.
func (c *GraphQLClient) HealthCheck(ctx context.Context) bool {
	if _, err := c.execute(ctx, healthCheckQuery, nil); err != nil {
		c.logger.Warn("Healthie GraphQL health check failed", "error", err)
		return false
	}
	return true
}

// Close releases the underlying connection pool.
func (c *GraphQLClient) Close() error {
	c.httpClient.CloseIdleConnections()
	c.logger.Info("Healthie GraphQL client closed")
	return nil
}
