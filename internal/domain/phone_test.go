package domain_test

import (
	"testing"

	"github.com/aelexs/smsgateway/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhoneNumber(t *testing.T) {
	t.Run("valid numbers", func(t *testing.T) {
		valid := []string{
			"0412345678",       // AU local
			"+61412345678",     // AU international
			"+14155552671",     // US
			"1234567",          // Minimum 7 digits
			"+123456789012345", // Maximum 15 digits
		}
		for _, raw := range valid {
			p, err := domain.NewPhoneNumber(raw)
			require.NoError(t, err, "expected %q to be valid", raw)
			assert.Equal(t, raw, p.String())
			assert.False(t, p.IsZero())
		}
	})

	tests := []struct {
		name string
		raw  string
	}{
		{"empty string", ""},
		{"too short", "+123456"},
		{"too long", "+1234567890123456"},
		{"contains letters", "+1415555ABCD"},
		{"contains spaces", "0412 345 678"},
		{"plus in the middle", "04+12345678"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.NewPhoneNumber(tt.raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidPhoneNumber)
		})
	}

	t.Run("zero value is zero", func(t *testing.T) {
		var p domain.PhoneNumber
		assert.True(t, p.IsZero())
		assert.Empty(t, p.String())
	})

	t.Run("MustPhoneNumber panics on invalid", func(t *testing.T) {
		assert.Panics(t, func() {
			domain.MustPhoneNumber("invalid")
		})
	})
}

func TestPhoneNumber_Masked(t *testing.T) {
	assert.Equal(t, "***5678", domain.MustPhoneNumber("0412345678").Masked())
	assert.Equal(t, "****", domain.PhoneNumber{}.Masked())
}
