package whatsapp_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	waprovider "github.com/example/commerce-notifier/internal/providers/whatsapp"
)

func TestMockProviderRecordsSends(t *testing.T) {
	provider := waprovider.NewMockProvider(zerolog.Nop())

	resp, err := provider.Send(context.Background(), &waprovider.Payload{To: "whatsapp:+1", Body: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(resp.ID, "SM") || len(resp.ID) != 34 {
		t.Fatalf("expected twilio-like sid, got %q", resp.ID)
	}
	sent := provider.Sent()
	if len(sent) != 1 || sent[0].Body != "hi" {
		t.Fatalf("unexpected recorded payloads %+v", sent)
	}
}

func TestMockProviderScenarios(t *testing.T) {
	cases := map[waprovider.Scenario]string{
		waprovider.ScenarioTransient: "rate limited",
		waprovider.ScenarioPermanent: "invalid 'To' phone number",
	}
	for scenario, want := range cases {
		provider := waprovider.NewMockProvider(zerolog.Nop(), waprovider.WithScenario(scenario))
		_, err := provider.Send(context.Background(), &waprovider.Payload{To: "whatsapp:+1"})
		var apiErr *waprovider.APIError
		if !errors.As(err, &apiErr) || apiErr.Message != want {
			t.Fatalf("scenario %s: expected api error %q, got %v", scenario, want, err)
		}
	}

	provider := waprovider.NewMockProvider(zerolog.Nop(), waprovider.WithScenario(waprovider.ScenarioTimeout))
	if _, err := provider.Send(context.Background(), &waprovider.Payload{To: "whatsapp:+1"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestMockProviderHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := waprovider.NewMockProvider(zerolog.Nop())
	if _, err := provider.Send(ctx, &waprovider.Payload{To: "whatsapp:+1"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(provider.Sent()) != 0 {
		t.Fatalf("cancelled send must not be recorded")
	}
}
