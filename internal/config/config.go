package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config captures all runtime configuration for the order notifier.
type Config struct {
	App       AppConfig
	HTTP      HTTPConfig
	Kafka     KafkaConfig
	Providers ProviderConfig
	Timeouts  TimeoutConfig
}

// AppConfig contains generic application level settings.
type AppConfig struct {
	Env      string
	Port     int
	LogLevel string
}

// HTTPConfig tunes the webhook server.
type HTTPConfig struct {
	MaxInFlight            int
	RateLimit              string
	ShutdownTimeoutSeconds int
	ExposeMetrics          bool
}

// KafkaConfig enables publishing notification outcome events. Publishing is
// off when Brokers is empty.
type KafkaConfig struct {
	Brokers           []string
	NotificationTopic string
}

// Enabled reports whether outcome events should be published.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// TwilioConfig stores Twilio credentials for WhatsApp delivery. Any empty
// field disables notifications without failing requests.
type TwilioConfig struct {
	AccountSID   string
	AuthToken    string
	WhatsAppFrom string
	BaseURL      string
}

// Complete reports whether every credential needed to send is present.
func (t TwilioConfig) Complete() bool {
	return strings.TrimSpace(t.AccountSID) != "" &&
		strings.TrimSpace(t.AuthToken) != "" &&
		strings.TrimSpace(t.WhatsAppFrom) != ""
}

// ProviderConfig wraps configuration for the messaging provider.
type ProviderConfig struct {
	WhatsAppProvider string
	Twilio           TwilioConfig
}

// TimeoutConfig contains timeout thresholds for outbound providers.
type TimeoutConfig struct {
	ProviderTimeoutSeconds int
}

// Load reads environment variables, applies defaults, validates required
// values and returns a populated Config instance.
func Load() (*Config, error) {
	_ = godotenv.Load()

	ldr := &envLoader{}

	cfg := &Config{}
	cfg.App.Env = ldr.getString("APP_ENV", "development", false)
	cfg.App.Port = ldr.getInt("APP_PORT", 8080, false)
	cfg.App.LogLevel = ldr.getString("LOG_LEVEL", "info", false)

	cfg.HTTP.MaxInFlight = ldr.getInt("HTTP_MAX_IN_FLIGHT", 64, false)
	cfg.HTTP.RateLimit = ldr.getString("HTTP_RATE_LIMIT", "600-M", false)
	cfg.HTTP.ShutdownTimeoutSeconds = ldr.getInt("SHUTDOWN_TIMEOUT_SECONDS", 15, false)
	cfg.HTTP.ExposeMetrics = ldr.getBool("HTTP_EXPOSE_METRICS", true, false)

	cfg.Kafka.Brokers = ldr.getStringSlice("KAFKA_BROKERS", false)
	cfg.Kafka.NotificationTopic = ldr.getString("KAFKA_NOTIFICATION_TOPIC", "commerce.notifications.status", cfg.Kafka.Enabled())

	cfg.Providers.WhatsAppProvider = ldr.getString("WHATSAPP_PROVIDER", "twilio", false)
	cfg.Providers.Twilio.AccountSID = ldr.getString("TWILIO_ACCOUNT_SID", "", false)
	cfg.Providers.Twilio.AuthToken = ldr.getString("TWILIO_AUTH_TOKEN", "", false)
	cfg.Providers.Twilio.WhatsAppFrom = ldr.getString("TWILIO_WHATSAPP_FROM", "", false)
	cfg.Providers.Twilio.BaseURL = ldr.getString("TWILIO_BASE_URL", "https://api.twilio.com/2010-04-01", false)

	cfg.Timeouts.ProviderTimeoutSeconds = ldr.getInt("PROVIDER_TIMEOUT_SECONDS", 30, false)

	switch strings.ToLower(cfg.Providers.WhatsAppProvider) {
	case "twilio", "mock":
	default:
		ldr.addError(fmt.Sprintf("WHATSAPP_PROVIDER must be twilio or mock, got %q", cfg.Providers.WhatsAppProvider))
	}
	if cfg.HTTP.MaxInFlight <= 0 {
		ldr.addError("HTTP_MAX_IN_FLIGHT must be positive")
	}
	if cfg.Timeouts.ProviderTimeoutSeconds <= 0 {
		ldr.addError("PROVIDER_TIMEOUT_SECONDS must be positive")
	}

	if err := ldr.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

type envLoader struct {
	errs []string
}

func (l *envLoader) validate() error {
	if len(l.errs) == 0 {
		return nil
	}
	return fmt.Errorf("config validation failed: %s", strings.Join(l.errs, "; "))
}

func (l *envLoader) getString(key, def string, required bool) string {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.TrimSpace(val)
		if val == "" {
			if required {
				l.addError(fmt.Sprintf("%s is required", key))
			}
			return def
		}
		return val
	}
	if required {
		l.addError(fmt.Sprintf("%s is required", key))
	}
	return def
}

func (l *envLoader) getInt(key string, def int, required bool) int {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.TrimSpace(val)
		if val == "" {
			if required {
				l.addError(fmt.Sprintf("%s is required", key))
			}
			return def
		}
		i, err := strconv.Atoi(val)
		if err != nil {
			l.addError(fmt.Sprintf("%s must be a valid integer", key))
			return def
		}
		return i
	}
	if required {
		l.addError(fmt.Sprintf("%s is required", key))
	}
	return def
}

func (l *envLoader) getBool(key string, def bool, required bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.TrimSpace(val)
		if val == "" {
			if required {
				l.addError(fmt.Sprintf("%s is required", key))
			}
			return def
		}
		parsed, err := strconv.ParseBool(val)
		if err != nil {
			l.addError(fmt.Sprintf("%s must be a valid boolean", key))
			return def
		}
		return parsed
	}
	if required {
		l.addError(fmt.Sprintf("%s is required", key))
	}
	return def
}

func (l *envLoader) getStringSlice(key string, required bool) []string {
	raw := l.getString(key, "", required)
	if raw == "" {
		if required {
			return nil
		}
		return []string{}
	}
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if required && len(out) == 0 {
		l.addError(fmt.Sprintf("%s must contain at least one entry", key))
	}
	return out
}

func (l *envLoader) addError(err string) {
	l.errs = append(l.errs, err)
}
