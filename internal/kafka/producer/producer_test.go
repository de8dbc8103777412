package producer

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestNewRequiresBrokers(t *testing.T) {
	if _, err := New(nil, zerolog.Nop()); err == nil {
		t.Fatalf("expected error without brokers")
	}
}

func TestToRecordHeadersCopiesValues(t *testing.T) {
	value := []byte("application/json")
	headers := toRecordHeaders(map[string][]byte{"content-type": value})
	if len(headers) != 1 || string(headers[0].Key) != "content-type" {
		t.Fatalf("unexpected headers %+v", headers)
	}
	value[0] = 'X'
	if string(headers[0].Value) != "application/json" {
		t.Fatalf("expected header value to be copied, got %s", headers[0].Value)
	}
	if toRecordHeaders(nil) != nil {
		t.Fatalf("expected nil headers for empty map")
	}
}

func TestDefaultConfigIsIdempotentProducer(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if !cfg.Producer.Idempotent || cfg.Net.MaxOpenRequests != 1 {
		t.Fatalf("expected idempotent producer settings")
	}
}
