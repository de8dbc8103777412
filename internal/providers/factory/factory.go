package factory

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/commerce-notifier/internal/config"
	waprovider "github.com/example/commerce-notifier/internal/providers/whatsapp"
)

// Backends supported by WhatsApp.
const (
	BackendTwilio = "twilio"
	BackendMock   = "mock"
)

// WhatsApp constructs a WhatsApp provider for backend using the supplied
// credentials. Credentials are passed per call because they arrive with each
// invocation.
func WhatsApp(backend string, twilio config.TwilioConfig, timeout time.Duration, logger zerolog.Logger) (waprovider.Provider, error) {
	switch normalize(backend, BackendTwilio) {
	case BackendTwilio:
		provider, err := waprovider.NewTwilioProvider(twilio, logger, waprovider.WithTwilioTimeout(timeout))
		if err != nil {
			return nil, fmt.Errorf("factory: twilio whatsapp provider init: %w", err)
		}
		logger.Debug().
			Str("backend", BackendTwilio).
			Msg("whatsapp provider initialised")
		return provider, nil
	case BackendMock:
		logger.Debug().
			Str("backend", BackendMock).
			Msg("whatsapp provider initialised")
		return waprovider.NewMockProvider(logger), nil
	default:
		return nil, fmt.Errorf("factory: unsupported whatsapp provider backend %q", backend)
	}
}

func normalize(value, def string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return def
	}
	return value
}
