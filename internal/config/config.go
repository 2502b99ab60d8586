// Package config provides configuration loading using koanf.
// Precedence: environment variables, then compiled defaults.
package config

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/aelexs/smsgateway/internal/domain"
)

// Gateway providers selectable through SMS_PROVIDER.
const (
	ProviderLog     = "log"
	ProviderFormGW  = "formgw"
	ProviderOAuthGW = "oauthgw"
	ProviderSNS     = "sns"
)

// Config holds all service configuration.
type Config struct {
	// Environment identifier: "local", "dev", "prod"
	Environment string `koanf:"environment"`

	Log    LogConfig    `koanf:"log"`
	Server ServerConfig `koanf:"server"`
	HTTP   HTTPConfig   `koanf:"http"`
	SMS    SMSConfig    `koanf:"sms"`

	FormGW  FormGWConfig  `koanf:"formgw"`
	OAuthGW OAuthGWConfig `koanf:"oauthgw"`
	SNS     SNSConfig     `koanf:"sns"`
	AWS     AWSConfig     `koanf:"aws"`

	OTEL OTELConfig `koanf:"otel"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ServerConfig holds the gateway facade settings.
type ServerConfig struct {
	HTTPPort int `koanf:"http_port"`
}

// HTTPConfig holds outbound transport settings.
type HTTPConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

// SMSConfig selects the gateway.
type SMSConfig struct {
	Provider string `koanf:"provider"` // "log", "formgw", "oauthgw" or "sns"
}

// FormGWConfig holds the form gateway account.
type FormGWConfig struct {
	BaseURL    string              `koanf:"base_url"`
	Username   string              `koanf:"username"`
	Password   domain.SecretString `koanf:"password"`
	Originator string              `koanf:"originator"`
}

// OAuthGWConfig holds the OAuth2 gateway client credentials.
type OAuthGWConfig struct {
	BaseURL      string              `koanf:"base_url"`
	ClientID     string              `koanf:"client_id"`
	ClientSecret domain.SecretString `koanf:"client_secret"`
	TokenInQuery bool                `koanf:"token_in_query"` // GET query grant instead of POST form
}

// SNSConfig holds Amazon SNS SMS settings.
type SNSConfig struct {
	Endpoint string `koanf:"endpoint"` // empty for the default AWS endpoint
	SenderID string `koanf:"sender_id"`
}

// AWSConfig holds AWS SDK configuration.
type AWSConfig struct {
	Region string `koanf:"region"`
}

// OTELConfig holds OpenTelemetry configuration.
type OTELConfig struct {
	Endpoint string `koanf:"endpoint"` // empty disables OTLP export
}

// envSections are the top-level keys read from the environment. Other
// variables are ignored.
var envSections = map[string]bool{
	"environment": true,
	"log":         true,
	"server":      true,
	"http":        true,
	"sms":         true,
	"formgw":      true,
	"oauthgw":     true,
	"sns":         true,
	"aws":         true,
	"otel":        true,
}

func defaults() *Config {
	return &Config{
		Environment: "local",
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Server: ServerConfig{
			HTTPPort: 8080,
		},
		HTTP: HTTPConfig{
			Timeout: domain.HTTPTimeout,
		},
		SMS: SMSConfig{
			Provider: ProviderLog,
		},
		AWS: AWSConfig{
			Region: "us-east-1",
		},
	}
}

// envKey maps FORMGW_BASE_URL to formgw.base_url: the first underscore
// separates the section, the rest belong to the field name.
func envKey(s string) string {
	key := strings.ToLower(s)
	section, field, nested := strings.Cut(key, "_")
	if !envSections[section] {
		return ""
	}
	if !nested {
		if section != "environment" {
			return ""
		}
		return section
	}
	return section + "." + field
}

// Load loads configuration from environment variables over compiled
// defaults and validates the keys the selected provider needs.
func Load(_ context.Context) (*Config, error) {
	k := koanf.New(".")

	cfg := defaults()

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.SMS.Provider {
	case ProviderLog:
		if cfg.IsProd() {
			return fmt.Errorf("%w: sms.provider (log provider not allowed in prod)", domain.ErrConfigRequired)
		}
	case ProviderFormGW:
		return requireAll(map[string]bool{
			"formgw.base_url":   cfg.FormGW.BaseURL != "",
			"formgw.username":   cfg.FormGW.Username != "",
			"formgw.password":   !cfg.FormGW.Password.IsEmpty(),
			"formgw.originator": cfg.FormGW.Originator != "",
		})
	case ProviderOAuthGW:
		return requireAll(map[string]bool{
			"oauthgw.base_url":      cfg.OAuthGW.BaseURL != "",
			"oauthgw.client_id":     cfg.OAuthGW.ClientID != "",
			"oauthgw.client_secret": !cfg.OAuthGW.ClientSecret.IsEmpty(),
		})
	case ProviderSNS:
		return requireAll(map[string]bool{
			"aws.region": cfg.AWS.Region != "",
		})
	default:
		return fmt.Errorf("sms.provider %q: %w", cfg.SMS.Provider, domain.ErrInvalidInput)
	}
	return nil
}

// requireAll lists every missing key, sorted.
func requireAll(present map[string]bool) error {
	var missing []string
	for key, ok := range present {
		if !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return fmt.Errorf("%w: %s", domain.ErrConfigRequired, strings.Join(missing, ", "))
}

// IsLocal returns true if running in local development environment.
func (c *Config) IsLocal() bool {
	return c.Environment == "local"
}

// IsProd returns true if running in production environment.
func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}
