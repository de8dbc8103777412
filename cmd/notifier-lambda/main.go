package main

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	waadapter "github.com/example/commerce-notifier/internal/adapters/whatsapp"
	"github.com/example/commerce-notifier/internal/config"
	"github.com/example/commerce-notifier/internal/logger"
	"github.com/example/commerce-notifier/internal/metrics"
	"github.com/example/commerce-notifier/internal/models"
	"github.com/example/commerce-notifier/internal/notifier"
	"github.com/example/commerce-notifier/internal/providers/factory"
	waprovider "github.com/example/commerce-notifier/internal/providers/whatsapp"
)

// Function invocations are short lived, so outcome events are not published
// to Kafka here and metrics are only kept for the lifetime of the container.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fail("config load", err)
	}

	baseLogger, err := logger.New(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		fail("logger init", err)
	}
	log := baseLogger.With().Str("service", "notifier-lambda").Logger()

	backend := strings.ToLower(strings.TrimSpace(cfg.Providers.WhatsAppProvider))
	providerLogger := log.With().
		Str("component", "whatsapp-provider").
		Str("backend", backend).
		Logger()
	timeout := time.Duration(cfg.Timeouts.ProviderTimeoutSeconds) * time.Second

	adapter, err := waadapter.NewAdapter(func(twilio config.TwilioConfig) (waprovider.Provider, error) {
		return factory.WhatsApp(backend, twilio, timeout, providerLogger)
	}, log.With().Str("component", "whatsapp-adapter").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise whatsapp adapter")
	}

	handler, err := notifier.NewHandler(notifier.Dependencies{
		Sender:  adapter,
		Metrics: metrics.New(prometheus.NewRegistry()),
		Logger:  log,
		Defaults: notifier.Defaults{
			LogLevel: cfg.App.LogLevel,
			Twilio:   cfg.Providers.Twilio,
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise notifier")
	}

	lambda.Start(func(ctx context.Context, raw json.RawMessage) (models.Response, error) {
		return handler.HandleJSON(ctx, raw), nil
	})
}

func fail(stage string, err error) {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	logger.Fatal().Err(err).Str("stage", stage).Msg("notifier lambda init failed")
}
