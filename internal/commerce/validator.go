package commerce

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/example/commerce-notifier/internal/models"
)

// Validate checks the envelope shape, origin and event type, in that order,
// and returns the first failure. A source outside the Commerce namespace is
// only logged since Adobe I/O may rewrite it.
func Validate(envelope models.Envelope, logger zerolog.Logger) error {
	eventType := strings.TrimSpace(envelope.Type)
	source := strings.TrimSpace(envelope.Source)

	if eventType == "" || source == "" {
		logger.Error().
			Str("type", envelope.Type).
			Str("source", envelope.Source).
			Msg("event missing type or source")
		return ErrInvalidStructure
	}

	if !strings.Contains(eventType, VendorNamespace) {
		logger.Error().Str("type", eventType).Msg("event type outside commerce namespace")
		return ErrInvalidSource
	}
	if !strings.Contains(source, VendorNamespace) {
		logger.Warn().Str("source", source).Msg("event source does not reference commerce namespace")
	}

	if !IsAllowed(eventType) {
		logger.Error().Str("type", eventType).Msg("unauthorized event type")
		return &RequestError{
			Kind:       KindUnauthorizedEventType,
			StatusCode: ErrUnauthorizedEventType.StatusCode,
			Message: fmt.Sprintf("Unauthorized event type: %s. Allowed types: %s",
				eventType, strings.Join(AllowedEventTypes(), ", ")),
		}
	}

	logger.Debug().Str("type", eventType).Str("event_id", envelope.EventID).Msg("event validated")
	return nil
}
