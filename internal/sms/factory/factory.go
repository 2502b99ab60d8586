// Package factory builds the sms.Client selected by configuration.
package factory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aelexs/smsgateway/internal/config"
	"github.com/aelexs/smsgateway/internal/domain"
	"github.com/aelexs/smsgateway/internal/observability"
	"github.com/aelexs/smsgateway/internal/sms"
	"github.com/aelexs/smsgateway/internal/sms/formgw"
	"github.com/aelexs/smsgateway/internal/sms/oauthgw"
	"github.com/aelexs/smsgateway/internal/sms/snsgw"
)

// Deps are the collaborators shared by every provider.
type Deps struct {
	HTTP    sms.HTTPClient
	Logger  *slog.Logger
	Metrics *observability.SMSMetrics
	Clock   domain.Clock
}

// New returns the client for cfg.SMS.Provider.
func New(ctx context.Context, cfg *config.Config, deps Deps) (sms.Client, error) {
	switch cfg.SMS.Provider {
	case config.ProviderLog:
		return sms.NewLogClient(deps.Logger), nil

	case config.ProviderFormGW:
		fc, ok := formgw.NewConfig(cfg.FormGW.Username, cfg.FormGW.Password, cfg.FormGW.Originator)
		if !ok {
			return nil, fmt.Errorf("sms factory: formgw originator %q: %w", cfg.FormGW.Originator, domain.ErrInvalidOriginator)
		}
		client, err := formgw.New(cfg.FormGW.BaseURL, fc, deps.HTTP, deps.Logger, deps.Metrics)
		if err != nil {
			return nil, fmt.Errorf("sms factory: %w", err)
		}
		return client, nil

	case config.ProviderOAuthGW:
		client, err := oauthgw.New(cfg.OAuthGW.BaseURL, oauthgw.Config{
			ClientID:     cfg.OAuthGW.ClientID,
			ClientSecret: cfg.OAuthGW.ClientSecret,
			TokenInQuery: cfg.OAuthGW.TokenInQuery,
		}, deps.HTTP, deps.Logger, deps.Metrics, deps.Clock)
		if err != nil {
			return nil, fmt.Errorf("sms factory: %w", err)
		}
		return client, nil

	case config.ProviderSNS:
		publisher, err := snsgw.NewPublisher(ctx, snsgw.AWSConfig{
			Endpoint: cfg.SNS.Endpoint,
			Region:   cfg.AWS.Region,
			Timeout:  cfg.HTTP.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("sms factory: %w", err)
		}
		client, err := snsgw.New(publisher, cfg.SNS.SenderID, deps.Logger, deps.Metrics)
		if err != nil {
			return nil, fmt.Errorf("sms factory: %w", err)
		}
		return client, nil

	default:
		return nil, fmt.Errorf("sms factory: provider %q: %w", cfg.SMS.Provider, domain.ErrInvalidInput)
	}
}
