package domain

import (
	"fmt"
	"regexp"
)

// phonePattern accepts an optional '+' followed by 7-15 digits. Gateways apply
// their own dialing-prefix conventions on top of this.
var phonePattern = regexp.MustCompile(`^\+?\d{7,15}$`)

// PhoneNumber is a value object representing an SMS recipient.
// Always valid in memory; use NewPhoneNumber to construct.
type PhoneNumber struct {
	value string
}

// NewPhoneNumber creates a PhoneNumber from a raw string.
func NewPhoneNumber(raw string) (PhoneNumber, error) {
	if raw == "" {
		return PhoneNumber{}, fmt.Errorf("phone number cannot be empty: %w", ErrInvalidPhoneNumber)
	}
	if !phonePattern.MatchString(raw) {
		return PhoneNumber{}, fmt.Errorf("phone number %q is not valid: %w", raw, ErrInvalidPhoneNumber)
	}
	return PhoneNumber{value: raw}, nil
}

// MustPhoneNumber creates a PhoneNumber, panicking on invalid input. Use only in tests.
func MustPhoneNumber(raw string) PhoneNumber {
	p, err := NewPhoneNumber(raw)
	if err != nil {
		panic(err)
	}
	return p
}

func (p PhoneNumber) String() string { return p.value }
func (p PhoneNumber) IsZero() bool   { return p.value == "" }

// Masked returns the number with everything but the last 4 digits hidden.
// Numbers shorter than 5 characters are fully masked.
func (p PhoneNumber) Masked() string {
	if len(p.value) <= 4 {
		return "****"
	}
	return "***" + p.value[len(p.value)-4:]
}
