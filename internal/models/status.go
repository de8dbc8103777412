package models

import "time"

// ChannelWhatsApp identifies the only delivery channel.
const ChannelWhatsApp = "whatsapp"

// Notification outcomes recorded on NotificationEvent.Outcome.
const (
	OutcomeSent     = "sent"
	OutcomeDisabled = "disabled"
	OutcomeFailed   = "failed"
)

// Failure classifications for provider errors.
const (
	FailureTypePermanent = "permanent"
	FailureTypeTransient = "transient"
	FailureTypeUnknown   = "unknown"
)

// NotificationEvent records what happened to one order notification. It is
// published for downstream auditing when a Kafka topic is configured.
type NotificationEvent struct {
	ID             string    `json:"id"`
	EventID        string    `json:"event_id,omitempty"`
	EventType      string    `json:"event_type"`
	OrderNumber    string    `json:"order_number,omitempty"`
	Channel        string    `json:"channel"`
	Outcome        string    `json:"outcome"`
	ProviderSID    string    `json:"provider_sid,omitempty"`
	ProviderStatus string    `json:"provider_status,omitempty"`
	FailureType    string    `json:"failure_type,omitempty"`
	Error          string    `json:"error,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}
