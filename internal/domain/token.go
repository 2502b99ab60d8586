package domain

import "time"

// Token is a bearer credential with an absolute expiry.
type Token struct {
	Value   SecretString
	Expires time.Time
}

// ExpiredToken returns a placeholder token that is already past its expiry,
// forcing a refresh before first use.
func ExpiredToken() Token {
	return Token{Expires: time.Unix(0, 0).UTC()}
}

// NeedsRefresh reports whether the remaining validity at now is below
// TokenRefreshMargin.
func (t Token) NeedsRefresh(now time.Time) bool {
	return !now.Add(TokenRefreshMargin).Before(t.Expires)
}
