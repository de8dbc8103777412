package whatsapp

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/rs/zerolog"

	common "github.com/example/commerce-notifier/internal/adapters/common"
	"github.com/example/commerce-notifier/internal/config"
	"github.com/example/commerce-notifier/internal/models"
	"github.com/example/commerce-notifier/internal/phone"
	waprovider "github.com/example/commerce-notifier/internal/providers/whatsapp"
)

// ConfigMissingMessage is reported when any Twilio credential is absent.
const ConfigMissingMessage = "Twilio configuration missing - WhatsApp notifications disabled"

// ErrInvalidPhone is returned when the recipient cannot be turned into a
// WhatsApp address.
var ErrInvalidPhone = errors.New("Invalid phone number format")

// ProviderFactory builds a provider client for one invocation's credentials.
type ProviderFactory func(cfg config.TwilioConfig) (waprovider.Provider, error)

// Option customises adapter behaviour.
type Option func(*Adapter)

// WithRawBodyLimit overrides the maximum number of characters logged from the provider body.
func WithRawBodyLimit(limit int) Option {
	return func(a *Adapter) {
		if limit > 0 {
			a.maxRawChars = limit
		}
	}
}

// SendResult is the outcome of SendMessage. Failures are values, never errors.
type SendResult struct {
	Success     bool
	MessageSID  string
	Status      string
	Error       string
	Disabled    bool
	FailureType string
}

// Adapter sends order notifications over WhatsApp.
type Adapter struct {
	logger      zerolog.Logger
	newProvider ProviderFactory
	maxRawChars int
}

// NewAdapter constructs a WhatsApp adapter.
func NewAdapter(newProvider ProviderFactory, logger zerolog.Logger, opts ...Option) (*Adapter, error) {
	if newProvider == nil {
		return nil, errors.New("whatsapp adapter: provider factory is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	a := &Adapter{
		logger:      logger,
		newProvider: newProvider,
		maxRawChars: common.DefaultRawBodyLimit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a, nil
}

// SendMessage delivers body to the customer number to. Missing credentials
// put the adapter in degraded mode and are reported as an unsuccessful
// result. Provider failures are logged and returned in the result.
func (a *Adapter) SendMessage(ctx context.Context, cfg config.TwilioConfig, to, body string) SendResult {
	if !cfg.Complete() {
		a.logger.Warn().
			Bool("account_sid_set", strings.TrimSpace(cfg.AccountSID) != "").
			Bool("auth_token_set", strings.TrimSpace(cfg.AuthToken) != "").
			Bool("from_set", strings.TrimSpace(cfg.WhatsAppFrom) != "").
			Msg("twilio configuration missing, skipping whatsapp notification")
		return SendResult{Error: ConfigMissingMessage, Disabled: true}
	}

	raw, err := a.send(ctx, cfg, to, body)
	if err != nil {
		cause := common.Cause(err)
		event := a.logger.Error().
			Err(cause).
			Str("channel", models.ChannelWhatsApp).
			Str("failure_type", common.Class(err))
		if raw != nil {
			event = event.
				Int("provider_code", raw.Code).
				Str("provider_status", raw.Status).
				Str("provider_body", common.TruncateRaw(raw.Body, a.maxRawChars))
		}
		event.Msg("whatsapp send failed")
		return SendResult{Error: failureMessage(cause), FailureType: common.Class(err)}
	}

	a.logger.Info().
		Str("channel", models.ChannelWhatsApp).
		Str("provider_id", raw.ID).
		Str("provider_status", raw.Status).
		Msg("whatsapp message sent")
	return SendResult{Success: true, MessageSID: raw.ID, Status: raw.Status}
}

func (a *Adapter) send(ctx context.Context, cfg config.TwilioConfig, to, body string) (*waprovider.RawResponse, error) {
	provider, err := a.newProvider(cfg)
	if err != nil {
		return nil, common.WrapPermanent(err)
	}

	recipient := phone.FormatWhatsApp(to)
	if recipient == "" {
		return nil, common.WrapPermanent(ErrInvalidPhone)
	}

	raw, err := provider.Send(ctx, &waprovider.Payload{
		From: cfg.WhatsAppFrom,
		To:   recipient,
		Body: body,
	})
	if err != nil {
		return raw, classify(raw, err)
	}
	if raw == nil {
		return nil, common.WrapTransient(errors.New("whatsapp adapter: provider returned no response"))
	}
	return raw, nil
}

// failureMessage is the text reported to the caller: Twilio's own message
// when the API answered, otherwise the error itself.
func failureMessage(err error) string {
	var apiErr *waprovider.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

// classify maps Twilio error codes and HTTP statuses onto failure classes.
func classify(raw *waprovider.RawResponse, err error) error {
	code, ok := 0, false
	var apiErr *waprovider.APIError
	if errors.As(err, &apiErr) && apiErr.Code > 0 {
		code, ok = apiErr.Code, true
	} else if raw != nil {
		code, ok = waprovider.ErrorCode(raw.Body)
	}
	if ok {
		switch code {
		case 21610, 21612, 21614, 21211, 63003:
			return common.WrapPermanent(err)
		case 63018, 63016, 63015, 63002, 30001, 30003:
			return common.WrapTransient(err)
		}
	}
	if raw != nil {
		switch {
		case raw.Code == 429, raw.Code >= 500:
			return common.WrapTransient(err)
		case raw.Code >= 400:
			return common.WrapPermanent(err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return common.WrapTransient(err)
	}
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "timeout") || strings.Contains(lower, "temporary") {
		return common.WrapTransient(err)
	}
	return err
}
