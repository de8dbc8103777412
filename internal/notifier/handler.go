// Package notifier turns one Commerce order event into one WhatsApp
// notification and the web action response describing what happened.
package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	waadapter "github.com/example/commerce-notifier/internal/adapters/whatsapp"
	"github.com/example/commerce-notifier/internal/commerce"
	"github.com/example/commerce-notifier/internal/config"
	"github.com/example/commerce-notifier/internal/logger"
	"github.com/example/commerce-notifier/internal/message"
	"github.com/example/commerce-notifier/internal/metrics"
	"github.com/example/commerce-notifier/internal/models"
	"github.com/example/commerce-notifier/internal/phone"
)

const (
	loggerName       = "order-notification"
	processedMessage = "Order notification processed"
	internalError    = "Internal server error"
	otherEventType   = "other"
)

// Sender delivers a rendered message to a customer number.
type Sender interface {
	SendMessage(ctx context.Context, cfg config.TwilioConfig, to, body string) waadapter.SendResult
}

// NotificationPublisher receives the outcome of every processed notification.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, event models.NotificationEvent) error
}

// Defaults are deployment-level operational parameters. Twilio values only
// fill fields an invocation leaves empty.
type Defaults struct {
	LogLevel string
	Twilio   config.TwilioConfig
}

// Dependencies collects the collaborators of the Handler.
type Dependencies struct {
	Sender    Sender
	Publisher NotificationPublisher
	Metrics   *metrics.Metrics
	Logger    zerolog.Logger
	Defaults  Defaults
	Now       func() time.Time
	NewID     func() string
}

// Handler is the notifier entry point shared by the HTTP server and the
// function runtime.
type Handler struct {
	sender    Sender
	publisher NotificationPublisher
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	defaults  Defaults
	now       func() time.Time
	newID     func() string
}

// NewHandler validates deps and builds a Handler.
func NewHandler(deps Dependencies) (*Handler, error) {
	if deps.Sender == nil {
		return nil, errors.New("notifier: sender dependency is required")
	}
	if reflect.ValueOf(deps.Logger).IsZero() {
		deps.Logger = zerolog.Nop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	return &Handler{
		sender:    deps.Sender,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		defaults:  deps.Defaults,
		now:       deps.Now,
		newID:     deps.NewID,
	}, nil
}

// HandleJSON decodes a raw invocation object and handles it. Undecodable
// input is reported as an invalid event structure.
func (h *Handler) HandleJSON(ctx context.Context, raw []byte) models.Response {
	var params models.Params
	if err := json.Unmarshal(raw, &params); err != nil {
		h.logger.Error().Err(err).Msg("invocation is not a json object")
		h.observe("", string(commerce.KindInvalidStructure))
		return failure(commerce.ErrInvalidStructure)
	}
	return h.Handle(ctx, params)
}

// Handle processes one invocation. It never returns an error: every failure
// is encoded in the response, and panics become a 500 response.
func (h *Handler) Handle(ctx context.Context, params models.Params) (resp models.Response) {
	if params.Challenge != "" {
		h.logger.Info().Msg("answering webhook challenge")
		return models.OK(models.ChallengeBody{Challenge: params.Challenge})
	}

	invocationID := h.newID()
	level := params.LogLevel
	if strings.TrimSpace(level) == "" {
		level = h.defaults.LogLevel
	}
	log := logger.Named(h.logger, loggerName, level).With().
		Str("invocation_id", invocationID).
		Str("event_id", params.EventID).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Err(fmt.Errorf("panic: %v", r)).
				Str("type", params.Type).
				Msg("order notification failed")
			h.observe(params.Type, "internal_error")
			resp = models.Failure(http.StatusInternalServerError, internalError)
		}
	}()

	log.Info().Str("type", params.Type).Msg("processing commerce event")
	return h.process(ctx, log, invocationID, params)
}

func (h *Handler) process(ctx context.Context, log zerolog.Logger, invocationID string, params models.Params) models.Response {
	envelope := params.Envelope
	envelope.Type = strings.TrimSpace(envelope.Type)
	eventType := envelope.Type

	if err := commerce.Validate(envelope, log); err != nil {
		return h.reject(log, eventType, err)
	}

	extraction, err := commerce.Extract(envelope, eventType)
	if err != nil {
		return h.reject(log, eventType, err)
	}

	info := commerce.OrderInfoFrom(extraction.Order)
	log.Debug().
		Str("order_number", info.OrderNumber).
		Str("status", info.Status).
		Bool("has_shipment", extraction.Shipment != nil).
		Msg("order data extracted")

	customerPhone := phone.FromOrder(extraction.Order)
	if customerPhone == "" {
		return h.reject(log, eventType, commerce.ErrMissingPhone)
	}

	text := message.Generate(eventType, extraction.Order, info.CustomerName, info.OrderNumber, extraction.Shipment)

	result := h.sender.SendMessage(ctx, h.twilioConfig(params), customerPhone, text)
	outcome := outcomeOf(result)
	h.metrics.ObserveWhatsApp(outcome)
	h.observe(eventType, outcome)
	h.publish(ctx, log, invocationID, envelope, info.OrderNumber, result, outcome)

	body := models.NotificationBody{
		Success:       true,
		Message:       processedMessage,
		OrderNumber:   info.OrderNumber,
		CustomerPhone: customerPhone,
		WhatsAppSent:  result.Success,
	}
	if !result.Success {
		body.WhatsAppError = result.Error
	}

	log.Info().
		Str("order_number", info.OrderNumber).
		Bool("whatsapp_sent", result.Success).
		Msg("order notification processed")
	return models.OK(body)
}

func (h *Handler) reject(log zerolog.Logger, eventType string, err error) models.Response {
	reqErr, ok := commerce.AsRequestError(err)
	if !ok {
		log.Error().Err(err).Msg("order notification failed")
		h.observe(eventType, "internal_error")
		return models.Failure(http.StatusInternalServerError, internalError)
	}
	log.Warn().Str("kind", string(reqErr.Kind)).Msg(reqErr.Message)
	h.observe(eventType, string(reqErr.Kind))
	return failure(reqErr)
}

// twilioConfig takes credentials from the invocation, filling each absent
// field from the deployment defaults.
func (h *Handler) twilioConfig(params models.Params) config.TwilioConfig {
	cfg := h.defaults.Twilio
	cfg.AccountSID = firstNonEmpty(params.TwilioAccountSID, cfg.AccountSID)
	cfg.AuthToken = firstNonEmpty(params.TwilioAuthToken, cfg.AuthToken)
	cfg.WhatsAppFrom = firstNonEmpty(params.TwilioWhatsAppFrom, cfg.WhatsAppFrom)
	return cfg
}

func (h *Handler) publish(ctx context.Context, log zerolog.Logger, id string, envelope models.Envelope, orderNumber string, result waadapter.SendResult, outcome string) {
	if h.publisher == nil {
		return
	}
	event := models.NotificationEvent{
		ID:             id,
		EventID:        envelope.EventID,
		EventType:      envelope.Type,
		OrderNumber:    orderNumber,
		Channel:        models.ChannelWhatsApp,
		Outcome:        outcome,
		ProviderSID:    result.MessageSID,
		ProviderStatus: result.Status,
		FailureType:    result.FailureType,
		Error:          result.Error,
		Timestamp:      h.now().UTC(),
	}
	if err := h.publisher.PublishNotification(ctx, event); err != nil {
		log.Error().Err(err).Msg("failed to publish notification event")
	}
}

// observe counts a handled event. Only allow-listed types become label values
// so caller-supplied types cannot grow the series set.
func (h *Handler) observe(eventType, outcome string) {
	label := strings.TrimSpace(eventType)
	if !commerce.IsAllowed(label) {
		label = otherEventType
	}
	h.metrics.ObserveNotification(label, outcome)
}

func outcomeOf(result waadapter.SendResult) string {
	switch {
	case result.Success:
		return models.OutcomeSent
	case result.Disabled:
		return models.OutcomeDisabled
	default:
		return models.OutcomeFailed
	}
}

func failure(err *commerce.RequestError) models.Response {
	return models.Failure(err.StatusCode, err.Message)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
