package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aelexs/smsgateway/internal/domain"
)

func TestToken_NeedsRefresh(t *testing.T) {
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		expires time.Time
		want    bool
	}{
		{"already expired", now.Add(-time.Second), true},
		{"expires exactly at margin", now.Add(domain.TokenRefreshMargin), true},
		{"inside margin", now.Add(30 * time.Second), true},
		{"just outside margin", now.Add(domain.TokenRefreshMargin + time.Second), false},
		{"an hour left", now.Add(time.Hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := domain.Token{Value: "t", Expires: tt.expires}
			assert.Equal(t, tt.want, tok.NeedsRefresh(now))
		})
	}
}

func TestExpiredToken(t *testing.T) {
	tok := domain.ExpiredToken()

	assert.True(t, tok.NeedsRefresh(time.Now()))
	assert.True(t, tok.Value.IsEmpty())
}
