package models

import (
	"encoding/json"
	"errors"

	"github.com/example/commerce-notifier/internal/payload"
)

// ErrNotObject is returned when an invocation is valid JSON but not an object.
var ErrNotObject = errors.New("invocation is not a json object")

// Envelope is the CloudEvents wrapper Adobe I/O Events delivers for Commerce
// observer events.
type Envelope struct {
	Type    string    `json:"type"`
	Source  string    `json:"source"`
	EventID string    `json:"event_id,omitempty"`
	Data    EventData `json:"data"`
}

// EventData carries the observer payload. Value is kept loosely typed because
// the Commerce payload shape varies by event and installed modules.
type EventData struct {
	Value payload.Object `json:"value"`
}

// UnmarshalJSON accepts any JSON value. Anything other than an object with an
// object under "value" leaves Value nil, which extraction reports as missing
// data.
func (d *EventData) UnmarshalJSON(data []byte) error {
	var obj payload.Object
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	value, _ := obj.Object("value")
	*d = EventData{Value: value}
	return nil
}

// Params is a single invocation: envelope fields merged with operational
// parameters, as delivered to the function entry point.
type Params struct {
	Envelope
	Challenge string `json:"challenge,omitempty"`

	LogLevel           string `json:"LOG_LEVEL,omitempty"`
	TwilioAccountSID   string `json:"TWILIO_ACCOUNT_SID,omitempty"`
	TwilioAuthToken    string `json:"TWILIO_AUTH_TOKEN,omitempty"`
	TwilioWhatsAppFrom string `json:"TWILIO_WHATSAPP_FROM,omitempty"`
}

// UnmarshalJSON decodes an invocation without rejecting it for field types.
// Scalars are read as text and non-object data is treated as absent, so
// validation and extraction decide what is wrong with an event.
func (p *Params) UnmarshalJSON(data []byte) error {
	var obj payload.Object
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if obj == nil {
		return ErrNotObject
	}

	eventData, _ := obj.Object("data")
	value, _ := eventData.Object("value")

	*p = Params{
		Envelope: Envelope{
			Type:    obj.StringOr("type", ""),
			Source:  obj.StringOr("source", ""),
			EventID: obj.StringOr("event_id", ""),
			Data:    EventData{Value: value},
		},
		Challenge:          obj.StringOr("challenge", ""),
		LogLevel:           obj.StringOr("LOG_LEVEL", ""),
		TwilioAccountSID:   obj.StringOr("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:    obj.StringOr("TWILIO_AUTH_TOKEN", ""),
		TwilioWhatsAppFrom: obj.StringOr("TWILIO_WHATSAPP_FROM", ""),
	}
	return nil
}
