// Package bootstrap wires configured services from application config.
package bootstrap

import (
	"fmt"
	"time"

	appconfig "github.com/northbridgehealth/voice-agent/internal/config"
	"github.com/northbridgehealth/voice-agent/internal/ehr"
	"github.com/northbridgehealth/voice-agent/internal/ehr/healthie"
	"github.com/northbridgehealth/voice-agent/internal/observability/metrics"
	"github.com/northbridgehealth/voice-agent/pkg/logging"
)

// BuildEHRService selects and constructs the configured Healthie transport
// and wraps it in the scheduling service facade. The adapter choice is a
// deploy-time decision; both transports expose identical semantics.
func BuildEHRService(cfg *appconfig.Config, logger *logging.Logger, m *metrics.EHRMetrics) (*ehr.Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	client, err := buildEHRClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("EHR client initialized", "adapter", cfg.HealthieAdapter)
	return ehr.NewService(client, ehr.WithLogger(logger), ehr.WithMetrics(m)), nil
}

func buildEHRClient(cfg *appconfig.Config, logger *logging.Logger) (ehr.Client, error) {
	switch cfg.HealthieAdapter {
	case "graphql":
		return healthie.NewGraphQLClient(healthie.GraphQLConfig{
			APIURL:         cfg.HealthieAPIURL,
			Email:          cfg.HealthieEmail,
			Password:       cfg.HealthiePassword,
			Token:          cfg.HealthieAPIToken,
			ClinicTimezone: ehr.ResolveTimezone(cfg.ClinicTimezone),
			Timeout:        30 * time.Second,
			Logger:         logger,
		})
	case "browser":
		return healthie.NewBrowserClient(healthie.BrowserConfig{
			Email:    cfg.HealthieEmail,
			Password: cfg.HealthiePassword,
			BaseURL:  cfg.HealthieBaseURL,
			Headless: cfg.HealthieHeadless,
			Logger:   logger,
		})
	case "fake":
		logger.Warn("using in-memory fake EHR client; no real scheduling will happen")
		return ehr.NewSeededFakeClient(), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown HEALTHIE_ADAPTER %q (want graphql, browser, or fake)", cfg.HealthieAdapter)
	}
}
