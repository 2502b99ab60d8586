package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain error conditions.
// Use errors.Is() for matching - never compare error strings.
var (
	// Value validation errors
	ErrEmptyID               = errors.New("ID cannot be empty")
	ErrInvalidPhoneNumber    = errors.New("invalid phone number format")
	ErrInvalidOriginator     = errors.New("invalid originator")
	ErrUnknownDeliveryStatus = errors.New("unknown delivery status")
	ErrInvalidInput          = errors.New("invalid input")

	// Resource errors
	ErrNotFound = errors.New("resource not found")

	// Gateway errors. ProviderError matches exactly one of these.
	ErrProviderRejected = errors.New("gateway rejected request")
	ErrProviderProtocol = errors.New("unexpected gateway response")

	// Operational errors
	ErrUnavailable = errors.New("service temporarily unavailable")

	// Configuration errors
	ErrConfigRequired = errors.New("required configuration key missing")
)

// ErrorKind tags a ProviderError as coded or unstructured.
type ErrorKind int

const (
	// KindCoded is a business-level rejection with a gateway code and message.
	KindCoded ErrorKind = iota + 1
	// KindUnstructured is an unexpected status, an unparseable body or a
	// transport failure.
	KindUnstructured
)

func (k ErrorKind) String() string {
	switch k {
	case KindCoded:
		return "coded"
	case KindUnstructured:
		return "unstructured"
	default:
		return "unknown"
	}
}

// ProviderError is the failure type returned by every gateway adapter.
// The Provider field names the gateway; the shape is the same for all of them.
type ProviderError struct {
	Provider   string
	Kind       ErrorKind
	Code       int    // gateway error code, KindCoded only
	Message    string // gateway error message, KindCoded only
	StatusCode int    // HTTP status, 0 when no response was received
	Body       string // raw response body or document
	Err        error  // underlying cause, if any
}

// NewCodedError creates a KindCoded ProviderError.
func NewCodedError(provider string, code int, message string) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Kind:     KindCoded,
		Code:     code,
		Message:  message,
	}
}

// NewUnstructuredError creates a KindUnstructured ProviderError carrying the
// whole body. Only Error() shortens it.
func NewUnstructuredError(provider string, statusCode int, body string, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Kind:       KindUnstructured,
		StatusCode: statusCode,
		Body:       body,
		Err:        cause,
	}
}

func (e *ProviderError) Error() string {
	if e.Kind == KindCoded {
		return fmt.Sprintf("%s: error %d: %s", e.Provider, e.Code, e.Message)
	}
	msg := fmt.Sprintf("%s: unexpected response", e.Provider)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %q", msg, TruncateBody(e.Body))
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// TruncateBody shortens body to MaxErrorBodyLength for error strings and logs.
func TruncateBody(body string) string {
	if len(body) <= MaxErrorBodyLength {
		return body
	}
	return body[:MaxErrorBodyLength] + "...(truncated)"
}

// Unwrap returns the underlying cause.
func (e *ProviderError) Unwrap() error { return e.Err }

// Is matches ErrProviderRejected for coded errors and ErrProviderProtocol for
// unstructured ones.
func (e *ProviderError) Is(target error) bool {
	switch target {
	case ErrProviderRejected:
		return e.Kind == KindCoded
	case ErrProviderProtocol:
		return e.Kind == KindUnstructured
	}
	return false
}

// AsProviderError extracts a ProviderError from the chain.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry. Gateway failures are retryable only when they
// report unavailability; retry policy belongs to the caller.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// clientErrors enumerates all domain errors that represent caller-side issues.
var clientErrors = []error{
	ErrEmptyID,
	ErrInvalidPhoneNumber,
	ErrInvalidOriginator,
	ErrInvalidInput,
	ErrNotFound,
}

// IsClientError returns true if the error represents a client-side issue
// that will not succeed on retry without client-side changes.
func IsClientError(err error) bool {
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsNotFound returns true if the error represents a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
