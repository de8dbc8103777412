package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Scenario enumerates supported behaviours for the mock WhatsApp provider.
type Scenario string

const (
	ScenarioSuccess   Scenario = "success"
	ScenarioTransient Scenario = "transient"
	ScenarioPermanent Scenario = "permanent"
	ScenarioTimeout   Scenario = "timeout"
)

// Option customises the mock provider at construction time.
type Option func(*MockProvider)

// WithScenario overrides the default scenario.
func WithScenario(s Scenario) Option {
	return func(p *MockProvider) {
		p.defaultScenario = s
	}
}

// WithLatency sets the artificial latency inserted before responding.
func WithLatency(d time.Duration) Option {
	return func(p *MockProvider) {
		if d < 0 {
			d = 0
		}
		p.latency = d
	}
}

// WithClock swaps out the clock for deterministic timestamps in tests.
func WithClock(now func() time.Time) Option {
	return func(p *MockProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// MockProvider is a deterministic WhatsApp provider for local runs and tests.
// It records every payload it accepts or rejects.
type MockProvider struct {
	logger          zerolog.Logger
	defaultScenario Scenario
	latency         time.Duration
	now             func() time.Time

	mu   sync.Mutex
	sent []Payload
}

// NewMockProvider constructs a new mock WhatsApp provider.
func NewMockProvider(logger zerolog.Logger, opts ...Option) *MockProvider {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	p := &MockProvider{
		logger:          logger,
		defaultScenario: ScenarioSuccess,
		now:             time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Send simulates sending a WhatsApp payload.
func (p *MockProvider) Send(ctx context.Context, payload *Payload) (*RawResponse, error) {
	if payload == nil {
		return nil, errors.New("whatsapp mock: payload is required")
	}
	if strings.TrimSpace(payload.To) == "" {
		return nil, errors.New("whatsapp mock: recipient is required")
	}

	if err := p.wait(ctx); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.sent = append(p.sent, *payload)
	p.mu.Unlock()

	scenario := p.defaultScenario

	resp := &RawResponse{
		ID:        messageSID(),
		Code:      201,
		Status:    "queued",
		Body:      "mock: message queued",
		Timestamp: p.now(),
	}

	p.logger.Debug().Str("to", payload.To).Str("scenario", string(scenario)).Msg("whatsapp mock send")

	switch scenario {
	case ScenarioSuccess:
		return resp, nil
	case ScenarioTransient:
		resp.Code = 429
		resp.Status = "transient_failure"
		resp.Body = `{"code":63018,"message":"rate limited"}`
		return resp, &APIError{Code: 63018, HTTPStatus: resp.Code, Message: "rate limited"}
	case ScenarioPermanent:
		resp.Code = 400
		resp.Status = "permanent_failure"
		resp.Body = `{"code":21211,"message":"invalid 'To' phone number"}`
		return resp, &APIError{Code: 21211, HTTPStatus: resp.Code, Message: "invalid 'To' phone number"}
	case ScenarioTimeout:
		return nil, fmt.Errorf("whatsapp mock timeout: %w", context.DeadlineExceeded)
	default:
		resp.Status = "unknown"
		resp.Body = "mock: unknown scenario"
		return resp, fmt.Errorf("whatsapp mock unknown scenario: %s", scenario)
	}
}

// Sent returns a copy of the payloads the mock has received.
func (p *MockProvider) Sent() []Payload {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Payload, len(p.sent))
	copy(out, p.sent)
	return out
}

func (p *MockProvider) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.latency <= 0 {
		return nil
	}
	timer := time.NewTimer(p.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// messageSID mimics Twilio's SM-prefixed 34 character identifiers.
func messageSID() string {
	return "SM" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
