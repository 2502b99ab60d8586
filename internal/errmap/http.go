// Package errmap translates domain and gateway errors into HTTP responses
// for the gateway facade.
package errmap

import (
	"context"
	"errors"
	"net/http"

	"github.com/aelexs/smsgateway/internal/domain"
)

// HTTPError represents an HTTP error response.
type HTTPError struct {
	StatusCode   int    `json:"-"`
	Code         string `json:"code"`
	Message      string `json:"message"`
	Provider     string `json:"provider,omitempty"`
	ProviderCode int    `json:"provider_code,omitempty"`
}

func (e HTTPError) Error() string {
	return e.Message
}

type httpMapping struct {
	err        error
	statusCode int
	code       string
}

// httpMappings is checked in order; first errors.Is match wins.
var httpMappings = []httpMapping{
	{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},

	// Validation errors
	{domain.ErrInvalidInput, http.StatusBadRequest, "INVALID_ARGUMENT"},
	{domain.ErrEmptyID, http.StatusBadRequest, "INVALID_ARGUMENT"},
	{domain.ErrInvalidPhoneNumber, http.StatusBadRequest, "INVALID_ARGUMENT"},
	{domain.ErrInvalidOriginator, http.StatusBadRequest, "INVALID_ARGUMENT"},

	// Gateway errors
	{domain.ErrProviderRejected, http.StatusUnprocessableEntity, "PROVIDER_REJECTED"},
	{domain.ErrProviderProtocol, http.StatusBadGateway, "PROVIDER_ERROR"},

	// Availability
	{domain.ErrUnavailable, http.StatusServiceUnavailable, "UNAVAILABLE"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "TIMEOUT"},
}

// ToHTTPError converts an error to an HTTP error. Gateway rejections carry
// the gateway's code and message; unstructured gateway failures and unknown
// errors expose no internal detail.
func ToHTTPError(err error) HTTPError {
	if err == nil {
		return HTTPError{StatusCode: http.StatusOK}
	}
	if pe, ok := domain.AsProviderError(err); ok {
		return fromProviderError(pe)
	}
	for _, m := range httpMappings {
		if errors.Is(err, m.err) {
			return HTTPError{StatusCode: m.statusCode, Code: m.code, Message: err.Error()}
		}
	}
	return HTTPError{StatusCode: http.StatusInternalServerError, Code: "INTERNAL", Message: "internal error"}
}

func fromProviderError(pe *domain.ProviderError) HTTPError {
	if pe.Kind == domain.KindCoded {
		return HTTPError{
			StatusCode:   http.StatusUnprocessableEntity,
			Code:         "PROVIDER_REJECTED",
			Message:      pe.Message,
			Provider:     pe.Provider,
			ProviderCode: pe.Code,
		}
	}
	if errors.Is(pe, domain.ErrUnavailable) {
		return HTTPError{StatusCode: http.StatusServiceUnavailable, Code: "UNAVAILABLE", Message: "gateway unavailable", Provider: pe.Provider}
	}
	if errors.Is(pe, context.DeadlineExceeded) {
		return HTTPError{StatusCode: http.StatusGatewayTimeout, Code: "TIMEOUT", Message: "gateway timed out", Provider: pe.Provider}
	}
	return HTTPError{StatusCode: http.StatusBadGateway, Code: "PROVIDER_ERROR", Message: "unexpected gateway response", Provider: pe.Provider}
}

// ToHTTPStatusCode extracts just the HTTP status code for an error.
func ToHTTPStatusCode(err error) int {
	return ToHTTPError(err).StatusCode
}
