// Command agent runs the voice scheduling agent: an HTTP surface that takes
// tool-call webhooks from the voice platform and executes them against the
// Healthie EHR through the configured transport.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/northbridgehealth/voice-agent/internal/agent"
	"github.com/northbridgehealth/voice-agent/internal/app/bootstrap"
	"github.com/northbridgehealth/voice-agent/internal/config"
	"github.com/northbridgehealth/voice-agent/internal/ehr"
	"github.com/northbridgehealth/voice-agent/internal/http/handlers"
	appmiddleware "github.com/northbridgehealth/voice-agent/internal/http/middleware"
	"github.com/northbridgehealth/voice-agent/internal/observability/metrics"
	"github.com/northbridgehealth/voice-agent/pkg/logging"
)

func main() {
	// Load .env if present (development convenience).
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting voice scheduling agent",
		"env", cfg.Env,
		"port", cfg.Port,
		"adapter", cfg.HealthieAdapter,
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	ehrMetrics := metrics.NewEHRMetrics(registry)

	svc, err := bootstrap.BuildEHRService(cfg, logger, ehrMetrics)
	if err != nil {
		logger.Error("failed to build EHR service", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn("error closing EHR service", "error", err)
		}
	}()

	clinicTZ := ehr.ResolveTimezone(cfg.ClinicTimezone)
	tools := agent.NewTools(svc, clinicTZ, agent.WithToolLogger(logger))

	// Until an audio channel is attached, fillers surface in the logs so the
	// latency behavior is observable in every environment.
	ttsLogger := logger.Component("tts")
	fillers := agent.NewFillerSpeaker(agent.SpeakerFunc(func(text string) {
		ttsLogger.Info("speaking filler", "text", text)
	}), cfg.FillerDelay, logger)
	defer fillers.Stop()

	voiceTools := handlers.NewVoiceToolsHandler(handlers.VoiceToolsHandlerConfig{
		Tools:   tools,
		Fillers: fillers,
		Health:  svc,
		Logger:  logger,
	})

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	// Browser-transport operations can legitimately run for two minutes.
	r.Use(chimiddleware.Timeout(150 * time.Second))
	r.Use(appmiddleware.RequestLogger(logger))
	voiceTools.RegisterRoutes(r)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown incomplete", "error", err)
	}
	logger.Info("shutdown complete")
}
