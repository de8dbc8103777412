package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	waadapter "github.com/example/commerce-notifier/internal/adapters/whatsapp"
	"github.com/example/commerce-notifier/internal/config"
	"github.com/example/commerce-notifier/internal/httpapi"
	"github.com/example/commerce-notifier/internal/kafka/producer"
	kafkapublisher "github.com/example/commerce-notifier/internal/kafka/publisher"
	"github.com/example/commerce-notifier/internal/logger"
	"github.com/example/commerce-notifier/internal/metrics"
	"github.com/example/commerce-notifier/internal/notifier"
	"github.com/example/commerce-notifier/internal/providers/factory"
	waprovider "github.com/example/commerce-notifier/internal/providers/whatsapp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fail("config load", err)
	}

	baseLogger, err := logger.New(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		fail("logger init", err)
	}
	log := baseLogger.With().Str("service", "notifier-server").Logger()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	deps := notifier.Dependencies{
		Metrics: m,
		Logger:  log,
		Defaults: notifier.Defaults{
			LogLevel: cfg.App.LogLevel,
			Twilio:   cfg.Providers.Twilio,
		},
	}
	routerDeps := httpapi.Dependencies{
		Metrics:  m,
		Gatherer: reg,
		Logger:   log.With().Str("component", "http").Logger(),
	}

	if cfg.Kafka.Enabled() {
		prod, err := producer.New(cfg.Kafka.Brokers, log.With().Str("component", "kafka").Logger())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create kafka producer")
		}
		defer func() {
			if err := prod.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close kafka producer")
			}
		}()

		publisher := kafkapublisher.NewNotificationPublisher(prod, cfg.Kafka.NotificationTopic, log.With().Str("component", "notification-publisher").Logger())
		if publisher == nil {
			log.Fatal().Msg("failed to create notification publisher")
		}
		deps.Publisher = publisher
		routerDeps.Readiness = prod
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Providers.WhatsAppProvider))
	providerLogger := log.With().
		Str("component", "whatsapp-provider").
		Str("backend", backend).
		Logger()
	timeout := time.Duration(cfg.Timeouts.ProviderTimeoutSeconds) * time.Second
	newProvider := func(twilio config.TwilioConfig) (waprovider.Provider, error) {
		return factory.WhatsApp(backend, twilio, timeout, providerLogger)
	}

	adapter, err := waadapter.NewAdapter(newProvider, log.With().Str("component", "whatsapp-adapter").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise whatsapp adapter")
	}
	deps.Sender = adapter

	handler, err := notifier.NewHandler(deps)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise notifier")
	}
	routerDeps.Invoker = handler

	router, err := httpapi.NewRouter(httpapi.Config{
		MaxInFlight:   cfg.HTTP.MaxInFlight,
		RateLimit:     cfg.HTTP.RateLimit,
		ExposeMetrics: cfg.HTTP.ExposeMetrics,
	}, routerDeps)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise http router")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: timeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	log.Info().
		Int("port", cfg.App.Port).
		Str("backend", backend).
		Bool("kafka", cfg.Kafka.Enabled()).
		Msg("notifier server started")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server terminated with error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}
	log.Info().Msg("notifier server stopped")
}

func fail(stage string, err error) {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	logger.Fatal().Err(err).Str("stage", stage).Msg("notifier server init failed")
}
