package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/northbridgehealth/voice-agent/internal/config"
)

func TestBuildEHRServiceFake(t *testing.T) {
	svc, err := BuildEHRService(&appconfig.Config{HealthieAdapter: "fake"}, nil, nil)
	require.NoError(t, err)
	defer svc.Close()

	patients, err := svc.FindPatient(context.Background(), "marc", nil)
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, "Marc Camps", patients[0].FullName())
}

func TestBuildEHRServiceGraphQL(t *testing.T) {
	svc, err := BuildEHRService(&appconfig.Config{
		HealthieAdapter:  "graphql",
		HealthieAPIURL:   "https://api.gethealthie.com/graphql",
		HealthieEmail:    "front-desk@example.com",
		HealthiePassword: "secret",
		ClinicTimezone:   "America/New_York",
	}, nil, nil)
	require.NoError(t, err)
	assert.NoError(t, svc.Close())
}

func TestBuildEHRServiceBrowser(t *testing.T) {
	svc, err := BuildEHRService(&appconfig.Config{
		HealthieAdapter: "browser",
		HealthieBaseURL: "https://secure.gethealthie.com",
	}, nil, nil)
	require.NoError(t, err)
	assert.NoError(t, svc.Close())
}

func TestBuildEHRServiceUnknownAdapter(t *testing.T) {
	_, err := BuildEHRService(&appconfig.Config{HealthieAdapter: "carrier-pigeon"}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestBuildEHRServiceNilConfig(t *testing.T) {
	_, err := BuildEHRService(nil, nil, nil)
	assert.Error(t, err)
}
