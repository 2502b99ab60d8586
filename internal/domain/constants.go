package domain

import "time"

const (
	// TokenRefreshMargin is how long before expiry a bearer token is replaced.
	TokenRefreshMargin = 1 * time.Minute

	// HTTPTimeout is the default transport timeout for gateway calls.
	// Operations define no timeout of their own.
	HTTPTimeout = 30 * time.Second

	// MaxErrorBodyLength bounds how much of a gateway body is rendered in
	// error strings and logs. ProviderError.Body itself is not shortened.
	MaxErrorBodyLength = 1024

	// Graceful shutdown of the gateway facade
	GracefulShutdownTimeout = 30 * time.Second
	ShutdownDrainDelay      = 2 * time.Second
	ShutdownHTTPTimeout     = 20 * time.Second
	ShutdownOTELTimeout     = 5 * time.Second
)
