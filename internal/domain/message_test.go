package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aelexs/smsgateway/internal/domain"
)

func TestMessageID(t *testing.T) {
	t.Run("any non-empty value", func(t *testing.T) {
		id, err := domain.NewMessageID("abc")
		require.NoError(t, err)
		assert.Equal(t, "abc", id.String())
		assert.False(t, id.IsZero())
	})

	t.Run("empty string returns error", func(t *testing.T) {
		_, err := domain.NewMessageID("")
		assert.ErrorIs(t, err, domain.ErrEmptyID)
	})

	t.Run("generate creates distinct IDs", func(t *testing.T) {
		a := domain.GenerateMessageID()
		b := domain.GenerateMessageID()
		assert.False(t, a.IsZero())
		assert.NotEqual(t, a, b)
	})
}

func TestParseDeliveryStatus(t *testing.T) {
	tests := []struct {
		code string
		want domain.DeliveryStatus
	}{
		{"PEND", domain.StatusPending},
		{"SENT", domain.StatusSent},
		{"DELIVRD", domain.StatusDelivered},
		{"READ", domain.StatusRead},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, err := domain.ParseDeliveryStatus(tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.code, got.Code())
		})
	}

	for _, code := range []string{"", "pend", "EXPIRED", "UNDVBL"} {
		t.Run("rejects "+code, func(t *testing.T) {
			_, err := domain.ParseDeliveryStatus(code)
			assert.ErrorIs(t, err, domain.ErrUnknownDeliveryStatus)
		})
	}
}
