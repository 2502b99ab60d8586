// Package sms defines the gateway-independent capability for sending SMS and
// querying delivery status. Adapters live in sub-packages.
package sms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aelexs/smsgateway/internal/domain"
)

// Client abstracts an SMS gateway so callers can swap providers.
type Client interface {
	// SendMessage submits msg for delivery to the given number and returns
	// the identifier to use for later status queries.
	SendMessage(ctx context.Context, to domain.PhoneNumber, msg domain.Message) (domain.MessageID, error)

	// MessageStatus returns the current delivery state of a sent message.
	MessageStatus(ctx context.Context, id domain.MessageID) (domain.DeliveryStatus, error)
}

// HTTPClient executes HTTP requests. *http.Client satisfies it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewHTTPClient returns the transport used by the gateway adapters. Timeouts
// live here; adapters define none of their own.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = domain.HTTPTimeout
	}
	return &http.Client{Timeout: timeout}
}

// maxResponseBytes bounds how much of a gateway response is read.
const maxResponseBytes = 1 << 20

// ReadBody reads and closes a response body.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return b, nil
}
