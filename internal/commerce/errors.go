package commerce

import (
	"errors"
	"net/http"
)

// Kind classifies caller-visible request failures.
type Kind string

const (
	KindInvalidStructure      Kind = "invalid_structure"
	KindInvalidSource         Kind = "invalid_source"
	KindUnauthorizedEventType Kind = "unauthorized_event_type"
	KindMissingOrderData      Kind = "missing_order_data"
	KindMissingShipmentData   Kind = "missing_shipment_data"
	KindMissingPhone          Kind = "missing_phone"
)

// RequestError is a structural problem with an inbound event. Its message is
// returned to the caller verbatim.
type RequestError struct {
	Kind       Kind
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return e.Message
}

// Is matches any RequestError of the same kind so sentinels work with
// errors.Is even when the message is dynamic.
func (e *RequestError) Is(target error) bool {
	var t *RequestError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinel request errors.
var (
	ErrInvalidStructure      = newRequestError(KindInvalidStructure, "Invalid event structure")
	ErrInvalidSource         = newRequestError(KindInvalidSource, "Invalid event source - not a Commerce event")
	ErrUnauthorizedEventType = newRequestError(KindUnauthorizedEventType, "Unauthorized event type")
	ErrMissingOrderData      = newRequestError(KindMissingOrderData, "Missing order data")
	ErrMissingShipmentData   = newRequestError(KindMissingShipmentData, "Missing shipment data")
	ErrMissingPhone          = newRequestError(KindMissingPhone, "Customer phone number not found")
)

func newRequestError(kind Kind, message string) *RequestError {
	return &RequestError{Kind: kind, StatusCode: http.StatusBadRequest, Message: message}
}

// AsRequestError unwraps err into a RequestError when it is one.
func AsRequestError(err error) (*RequestError, bool) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr, true
	}
	return nil, false
}
