// Package domain contains the SMS value types shared by every gateway adapter.
// No external dependencies beyond uuid - this is the innermost ring.
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Message is the free-text body of an SMS. Length limits are enforced by the
// gateway, not here.
type Message string

func (m Message) String() string { return string(m) }

// MessageID correlates a sent message with later status queries. It is opaque:
// some gateways accept a client-generated reference, others issue their own.
type MessageID struct {
	value string
}

// NewMessageID creates a MessageID from a raw string. Any non-empty value is accepted.
func NewMessageID(raw string) (MessageID, error) {
	if raw == "" {
		return MessageID{}, ErrEmptyID
	}
	return MessageID{value: raw}, nil
}

// MustMessageID creates a MessageID, panicking on invalid input. Use only in tests.
func MustMessageID(raw string) MessageID {
	id, err := NewMessageID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// GenerateMessageID creates a new random MessageID.
func GenerateMessageID() MessageID {
	return MessageID{value: uuid.NewString()}
}

func (id MessageID) String() string { return id.value }
func (id MessageID) IsZero() bool   { return id.value == "" }

// DeliveryStatus is the lifecycle state of a submitted message.
// The set is closed; gateway failures surface as errors, never as a status.
type DeliveryStatus int

const (
	StatusPending DeliveryStatus = iota + 1
	StatusSent
	StatusDelivered
	StatusRead
)

// Wire codes shared by both gateways.
const (
	statusCodePending   = "PEND"
	statusCodeSent      = "SENT"
	statusCodeDelivered = "DELIVRD"
	statusCodeRead      = "READ"
)

// ParseDeliveryStatus maps a gateway status code to a DeliveryStatus.
// Unknown codes fail with ErrUnknownDeliveryStatus rather than defaulting.
func ParseDeliveryStatus(code string) (DeliveryStatus, error) {
	switch code {
	case statusCodePending:
		return StatusPending, nil
	case statusCodeSent:
		return StatusSent, nil
	case statusCodeDelivered:
		return StatusDelivered, nil
	case statusCodeRead:
		return StatusRead, nil
	default:
		return 0, fmt.Errorf("status %q: %w", code, ErrUnknownDeliveryStatus)
	}
}

// Code returns the wire code for the status, or "" for the zero value.
func (s DeliveryStatus) Code() string {
	switch s {
	case StatusPending:
		return statusCodePending
	case StatusSent:
		return statusCodeSent
	case StatusDelivered:
		return statusCodeDelivered
	case StatusRead:
		return statusCodeRead
	default:
		return ""
	}
}

func (s DeliveryStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSent:
		return "sent"
	case StatusDelivered:
		return "delivered"
	case StatusRead:
		return "read"
	default:
		return "unknown"
	}
}
