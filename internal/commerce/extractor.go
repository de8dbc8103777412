package commerce

import (
	"strings"

	"github.com/example/commerce-notifier/internal/models"
	"github.com/example/commerce-notifier/internal/payload"
)

// Extraction holds the order record and, for shipment events, the shipment
// record resolved from an event payload.
type Extraction struct {
	Order    payload.Object
	Shipment payload.Object
}

// OrderInfo is the canonical set of order fields used for messaging.
type OrderInfo struct {
	OrderNumber   string
	CustomerEmail string
	CustomerName  string
	Total         string
	Currency      string
	Status        string
}

// Extract resolves the order (and shipment) records from envelope.Data.Value.
// eventType decides whether the shipment fallback chain is used.
func Extract(envelope models.Envelope, eventType string) (Extraction, error) {
	value := envelope.Data.Value

	if eventType == EventOrderShipped {
		shipment, hasShipment := value.NonEmptyObject("shipment")
		if hasShipment {
			order, ok := payload.FirstObject(
				shipmentOrder(shipment),
				nestedOrder(value),
				wholeValue(value),
			)
			if !ok {
				return Extraction{}, ErrMissingOrderData
			}
			return Extraction{Order: order, Shipment: shipment}, nil
		}
		order, ok := payload.FirstObject(nestedOrder(value), wholeValue(value))
		if !ok {
			return Extraction{}, ErrMissingShipmentData
		}
		return Extraction{Order: order}, nil
	}

	order, ok := payload.FirstObject(nestedOrder(value), wholeValue(value))
	if !ok {
		return Extraction{}, ErrMissingOrderData
	}
	return Extraction{Order: order}, nil
}

func shipmentOrder(shipment payload.Object) payload.Lookup {
	return func() (payload.Object, bool) { return shipment.NonEmptyObject("order") }
}

func nestedOrder(value payload.Object) payload.Lookup {
	return func() (payload.Object, bool) { return value.NonEmptyObject("order") }
}

func wholeValue(value payload.Object) payload.Lookup {
	return func() (payload.Object, bool) { return value, !value.Empty() }
}

// OrderInfoFrom derives the canonical order fields from an order record.
func OrderInfoFrom(order payload.Object) OrderInfo {
	number, _ := order.FirstString("increment_id", "entity_id")
	status, _ := order.FirstString("status", "state")
	return OrderInfo{
		OrderNumber:   number,
		CustomerEmail: order.StringOr("customer_email", ""),
		CustomerName:  fullName(order.StringOr("customer_firstname", ""), order.StringOr("customer_lastname", "")),
		Total:         order.StringOr("grand_total", ""),
		Currency:      order.StringOr("order_currency_code", ""),
		Status:        status,
	}
}

func fullName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// TrackingNumber returns the first track's number, or "" without tracks.
func TrackingNumber(shipment payload.Object) string {
	tracks, ok := shipment.Objects("tracks")
	if !ok || len(tracks) == 0 {
		return ""
	}
	number, _ := tracks[0].FirstString("track_number", "number")
	return number
}
