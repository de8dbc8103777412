package whatsapp_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	waadapter "github.com/example/commerce-notifier/internal/adapters/whatsapp"
	"github.com/example/commerce-notifier/internal/config"
	waprovider "github.com/example/commerce-notifier/internal/providers/whatsapp"
)

var creds = config.TwilioConfig{
	AccountSID:   "AC123",
	AuthToken:    "secret",
	WhatsAppFrom: "whatsapp:+14155238886",
}

type stubProvider struct {
	raw     *waprovider.RawResponse
	err     error
	payload *waprovider.Payload
}

func (s *stubProvider) Send(_ context.Context, payload *waprovider.Payload) (*waprovider.RawResponse, error) {
	s.payload = payload
	return s.raw, s.err
}

func newAdapter(t *testing.T, provider waprovider.Provider, log zerolog.Logger) (*waadapter.Adapter, *int) {
	t.Helper()
	built := 0
	adapter, err := waadapter.NewAdapter(func(config.TwilioConfig) (waprovider.Provider, error) {
		built++
		return provider, nil
	}, log)
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	return adapter, &built
}

func TestNewAdapterRequiresFactory(t *testing.T) {
	if _, err := waadapter.NewAdapter(nil, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for nil factory")
	}
}

func TestSendMessageSuccess(t *testing.T) {
	provider := &stubProvider{raw: &waprovider.RawResponse{ID: "SM1", Status: "queued", Code: 201}}
	adapter, built := newAdapter(t, provider, zerolog.Nop())

	res := adapter.SendMessage(context.Background(), creds, "(123) 456-7890", "hello")
	if !res.Success || res.MessageSID != "SM1" || res.Status != "queued" {
		t.Fatalf("unexpected result %+v", res)
	}
	if provider.payload.To != "whatsapp:+11234567890" {
		t.Fatalf("expected formatted recipient, got %s", provider.payload.To)
	}
	if provider.payload.From != creds.WhatsAppFrom || provider.payload.Body != "hello" {
		t.Fatalf("unexpected payload %+v", provider.payload)
	}

	adapter.SendMessage(context.Background(), creds, "1234567890", "again")
	if *built != 2 {
		t.Fatalf("expected a fresh provider per send, built %d", *built)
	}
}

func TestSendMessageMissingConfig(t *testing.T) {
	var buf bytes.Buffer
	provider := &stubProvider{}
	adapter, built := newAdapter(t, provider, zerolog.New(&buf))

	res := adapter.SendMessage(context.Background(), config.TwilioConfig{AccountSID: "AC"}, "1234567890", "hello")
	if res.Success || !res.Disabled {
		t.Fatalf("expected disabled result, got %+v", res)
	}
	if !strings.HasPrefix(res.Error, "Twilio configuration missing") {
		t.Fatalf("unexpected error %q", res.Error)
	}
	if *built != 0 {
		t.Fatalf("provider must not be built without credentials")
	}
	if !strings.Contains(buf.String(), `"level":"warn"`) {
		t.Fatalf("expected warning log, got %q", buf.String())
	}
}

func TestSendMessageInvalidPhone(t *testing.T) {
	provider := &stubProvider{}
	adapter, _ := newAdapter(t, provider, zerolog.Nop())

	res := adapter.SendMessage(context.Background(), creds, "n/a", "hello")
	if res.Success || res.Error != "Invalid phone number format" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.FailureType != "permanent" {
		t.Fatalf("expected permanent failure, got %s", res.FailureType)
	}
	if provider.payload != nil {
		t.Fatalf("provider must not be called for invalid numbers")
	}
}

func TestSendMessageProviderError(t *testing.T) {
	var buf bytes.Buffer
	provider := &stubProvider{err: errors.New("network down")}
	adapter, _ := newAdapter(t, provider, zerolog.New(&buf))

	res := adapter.SendMessage(context.Background(), creds, "+14155552671", "hello")
	if res.Success || res.Error != "network down" {
		t.Fatalf("expected provider message to surface unchanged, got %+v", res)
	}
	if res.FailureType != "unknown" {
		t.Fatalf("expected unknown failure type, got %s", res.FailureType)
	}
	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("expected error log, got %q", buf.String())
	}
}

func TestSendMessageClassification(t *testing.T) {
	cases := []struct {
		name     string
		scenario waprovider.Scenario
		want     string
	}{
		{"permanent", waprovider.ScenarioPermanent, "permanent"},
		{"transient", waprovider.ScenarioTransient, "transient"},
		{"timeout", waprovider.ScenarioTimeout, "transient"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			provider := waprovider.NewMockProvider(zerolog.Nop(), waprovider.WithScenario(tc.scenario))
			adapter, _ := newAdapter(t, provider, zerolog.Nop())
			res := adapter.SendMessage(context.Background(), creds, "+14155552671", "hello")
			if res.Success {
				t.Fatalf("expected failure")
			}
			if res.FailureType != tc.want {
				t.Fatalf("failure type = %s, want %s", res.FailureType, tc.want)
			}
		})
	}
}

func TestSendMessageFactoryError(t *testing.T) {
	adapter, err := waadapter.NewAdapter(func(config.TwilioConfig) (waprovider.Provider, error) {
		return nil, errors.New("boom")
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	res := adapter.SendMessage(context.Background(), creds, "+14155552671", "hello")
	if res.Success || res.Error != "boom" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestSendMessageReportsTwilioMessage(t *testing.T) {
	provider := &stubProvider{
		raw: &waprovider.RawResponse{Code: 400, Status: "Bad Request"},
		err: &waprovider.APIError{Code: 21211, HTTPStatus: 400, Message: "The 'To' number is not a valid phone number."},
	}
	adapter, _ := newAdapter(t, provider, zerolog.Nop())

	res := adapter.SendMessage(context.Background(), creds, "+14155552671", "hello")
	if res.Success || res.Error != "The 'To' number is not a valid phone number." {
		t.Fatalf("expected bare twilio message, got %+v", res)
	}
	if res.FailureType != "permanent" {
		t.Fatalf("failure type = %s, want permanent", res.FailureType)
	}
}
