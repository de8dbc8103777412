// Package message renders customer-facing WhatsApp texts for Commerce order
// events.
package message

import (
	"fmt"

	"github.com/example/commerce-notifier/internal/commerce"
	"github.com/example/commerce-notifier/internal/payload"
)

// DefaultCustomerName is used when the order carries no customer name.
const DefaultCustomerName = "Customer"

// Input carries everything a template may reference.
type Input struct {
	Name        string
	OrderNumber string
	Info        commerce.OrderInfo
	Tracking    string
}

type template func(in Input) (string, bool)

// templates is keyed by exact event type. It is independent from the
// authorization allow-list: an entry here never admits an event.
var templates = map[string]template{
	commerce.EventOrderCanceled: canceled,
	commerce.EventOrderPlaced:   placed,
	commerce.EventOrderShipped:  shipped,
	commerce.EventOrderSaved:    statusUpdated,
}

// Generate renders the message for eventType. Unknown types, and save events
// without a status, fall back to the order confirmation text.
func Generate(eventType string, order payload.Object, customerName, orderNumber string, shipment payload.Object) string {
	in := Input{
		Name:        customerName,
		OrderNumber: orderNumber,
		Info:        commerce.OrderInfoFrom(order),
		Tracking:    commerce.TrackingNumber(shipment),
	}
	if in.Name == "" {
		in.Name = DefaultCustomerName
	}

	if render, ok := templates[eventType]; ok {
		if text, ok := render(in); ok {
			return text
		}
	}
	text, _ := placed(in)
	return text
}

func canceled(in Input) (string, bool) {
	return fmt.Sprintf("Hi %s, your order #%s has been cancelled. If you have any questions, please contact us.",
		in.Name, in.OrderNumber), true
}

func placed(in Input) (string, bool) {
	return fmt.Sprintf("Hi %s, your order #%s for %s %s has been confirmed. Thank you for your purchase!",
		in.Name, in.OrderNumber, in.Info.Total, in.Info.Currency), true
}

func shipped(in Input) (string, bool) {
	text := fmt.Sprintf("Hi %s, your order #%s has been shipped!", in.Name, in.OrderNumber)
	if in.Tracking != "" {
		text += fmt.Sprintf(" Track your package using tracking number %s.", in.Tracking)
	}
	return text, true
}

func statusUpdated(in Input) (string, bool) {
	if in.Info.Status == "" {
		return "", false
	}
	return fmt.Sprintf("Hi %s, your order #%s status has been updated to %s.",
		in.Name, in.OrderNumber, in.Info.Status), true
}
