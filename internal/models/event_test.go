package models_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/example/commerce-notifier/internal/models"
)

func TestParamsUnmarshal(t *testing.T) {
	raw := `{
		"type": "com.adobe.commerce.observer.sales_order_place_after",
		"source": "urn:uuid:com.adobe.commerce",
		"event_id": "evt-1",
		"data": {"value": {"increment_id": "000000008"}},
		"LOG_LEVEL": "debug",
		"TWILIO_ACCOUNT_SID": "AC123"
	}`

	var params models.Params
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.Type != "com.adobe.commerce.observer.sales_order_place_after" || params.Source != "urn:uuid:com.adobe.commerce" {
		t.Fatalf("unexpected envelope %+v", params.Envelope)
	}
	if params.EventID != "evt-1" || params.LogLevel != "debug" || params.TwilioAccountSID != "AC123" {
		t.Fatalf("unexpected params %+v", params)
	}
	if got, _ := params.Data.Value.String("increment_id"); got != "000000008" {
		t.Fatalf("unexpected value %v", params.Data.Value)
	}
}

func TestParamsUnmarshalToleratesFieldTypes(t *testing.T) {
	cases := map[string]struct {
		raw       string
		eventID   string
		challenge string
		hasValue  bool
	}{
		"numeric event id":  {raw: `{"type":"t","source":"s","event_id":42,"data":{"value":{"a":1}}}`, eventID: "42", hasValue: true},
		"numeric challenge": {raw: `{"challenge":12345}`, challenge: "12345"},
		"array data":        {raw: `{"type":"t","source":"s","data":[]}`},
		"string data":       {raw: `{"type":"t","source":"s","data":"oops"}`},
		"array value":       {raw: `{"type":"t","source":"s","data":{"value":[1]}}`},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var params models.Params
			if err := json.Unmarshal([]byte(tc.raw), &params); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if params.EventID != tc.eventID || params.Challenge != tc.challenge {
				t.Fatalf("unexpected params %+v", params)
			}
			if (params.Data.Value != nil) != tc.hasValue {
				t.Fatalf("value presence = %v, want %v", params.Data.Value != nil, tc.hasValue)
			}
		})
	}
}

func TestParamsUnmarshalRejectsNonObject(t *testing.T) {
	var params models.Params
	if err := json.Unmarshal([]byte(`[1,2]`), &params); !errors.Is(err, models.ErrNotObject) {
		t.Fatalf("expected ErrNotObject, got %v", err)
	}
	if err := json.Unmarshal([]byte(`{"type":`), &params); err == nil {
		t.Fatalf("expected syntax error")
	}
}

func TestEventDataUnmarshalNonObject(t *testing.T) {
	var envelope models.Envelope
	if err := json.Unmarshal([]byte(`{"type":"t","source":"s","data":"oops"}`), &envelope); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if envelope.Data.Value != nil {
		t.Fatalf("expected nil value, got %v", envelope.Data.Value)
	}
}
