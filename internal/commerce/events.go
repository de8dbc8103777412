// Package commerce validates Adobe Commerce observer events and extracts the
// order and shipment records they carry.
package commerce

// VendorNamespace must appear in every Commerce event type.
const VendorNamespace = "com.adobe.commerce"

const observerPrefix = VendorNamespace + ".observer."

// Commerce observer event types handled by the notifier.
const (
	EventOrderPlaced   = observerPrefix + "sales_order_place_after"
	EventOrderSaved    = observerPrefix + "sales_order_save_after"
	EventOrderShipped  = observerPrefix + "sales_order_shipment_save_after"
	EventOrderCanceled = observerPrefix + "sales_order_cancel_after"
)

// allowedEventTypes is the authorization allow-list. Message rendering keeps
// its own table in the message package.
var allowedEventTypes = [...]string{
	EventOrderPlaced,
	EventOrderSaved,
	EventOrderShipped,
	EventOrderCanceled,
}

// AllowedEventTypes returns a copy of the allow-list in its canonical order.
func AllowedEventTypes() []string {
	out := make([]string, len(allowedEventTypes))
	copy(out, allowedEventTypes[:])
	return out
}

// IsAllowed reports whether eventType is exactly one of the allowed types.
func IsAllowed(eventType string) bool {
	for _, allowed := range allowedEventTypes {
		if eventType == allowed {
			return true
		}
	}
	return false
}
