// Package phone normalizes free-form customer telephone numbers into E.164
// and into WhatsApp channel addresses.
package phone

import (
	"strings"

	"github.com/example/commerce-notifier/internal/payload"
)

// WhatsAppPrefix is the channel tag Twilio expects on WhatsApp addresses.
const WhatsAppPrefix = "whatsapp:"

// FormatE164 converts raw into an E.164-like number. It returns "" when raw
// holds no digits. The rules are heuristics: numbers already starting with
// "+" are trusted as is, a "00" prefix becomes "+", exactly ten digits are
// treated as US/Canada and anything else just gets a "+".
func FormatE164(raw string) string {
	cleaned := clean(raw)
	if cleaned == "" || cleaned == "+" {
		return ""
	}
	switch {
	case strings.HasPrefix(cleaned, "+"):
		return cleaned
	case strings.HasPrefix(cleaned, "00"):
		return "+" + cleaned[2:]
	case len(cleaned) == 10:
		return "+1" + cleaned
	default:
		return "+" + cleaned
	}
}

// FormatWhatsApp returns the whatsapp:+E164 address for raw, or "" when the
// number cannot be formatted. An existing channel tag is not duplicated.
func FormatWhatsApp(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) >= len(WhatsAppPrefix) && strings.EqualFold(raw[:len(WhatsAppPrefix)], WhatsAppPrefix) {
		raw = raw[len(WhatsAppPrefix):]
	}
	formatted := FormatE164(raw)
	if formatted == "" {
		return ""
	}
	return WhatsAppPrefix + formatted
}

// FromOrder finds the customer telephone on an order record. The first
// address entry with a telephone wins, then the billing address, then the
// shipping address.
func FromOrder(order payload.Object) string {
	number, _ := payload.FirstOf(
		func() (string, bool) { return fromAddresses(order) },
		func() (string, bool) { return fromNamedAddress(order, "billing_address") },
		func() (string, bool) { return fromNamedAddress(order, "shipping_address") },
	)
	return number
}

func fromAddresses(order payload.Object) (string, bool) {
	addresses, ok := order.Objects("addresses")
	if !ok {
		return "", false
	}
	for _, address := range addresses {
		if number, ok := address.String("telephone"); ok {
			return number, true
		}
	}
	return "", false
}

func fromNamedAddress(order payload.Object, key string) (string, bool) {
	address, ok := order.Object(key)
	if !ok {
		return "", false
	}
	return address.String("telephone")
}

// clean keeps digits and a "+" in leading position.
func clean(raw string) string {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	b.Grow(len(raw))
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
