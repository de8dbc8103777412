package models

import "net/http"

// Response mirrors the web action response contract. Successful responses set
// StatusCode and Body; failures only set Error.
type Response struct {
	StatusCode int            `json:"statusCode,omitempty"`
	Body       any            `json:"body,omitempty"`
	Error      *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse is the nested failure shape.
type ErrorResponse struct {
	StatusCode int       `json:"statusCode"`
	Body       ErrorBody `json:"body"`
}

// ErrorBody carries the caller-visible failure message.
type ErrorBody struct {
	Error string `json:"error"`
}

// NotificationBody is returned when an event was processed, whether or not
// the WhatsApp message went out.
type NotificationBody struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	OrderNumber   string `json:"orderNumber,omitempty"`
	CustomerPhone string `json:"customerPhone"`
	WhatsAppSent  bool   `json:"whatsappSent"`
	WhatsAppError string `json:"whatsappError,omitempty"`
}

// ChallengeBody echoes the webhook registration handshake.
type ChallengeBody struct {
	Challenge string `json:"challenge"`
}

// OK builds a 200 response.
func OK(body any) Response {
	return Response{StatusCode: http.StatusOK, Body: body}
}

// Failure builds an error response.
func Failure(statusCode int, message string) Response {
	return Response{Error: &ErrorResponse{StatusCode: statusCode, Body: ErrorBody{Error: message}}}
}

// HTTPStatus returns the status code the response should be served with.
func (r Response) HTTPStatus() int {
	if r.Error != nil {
		return r.Error.StatusCode
	}
	if r.StatusCode == 0 {
		return http.StatusOK
	}
	return r.StatusCode
}

// HTTPBody returns the value to serialize as the HTTP body.
func (r Response) HTTPBody() any {
	if r.Error != nil {
		return r.Error.Body
	}
	return r.Body
}
