package oauthgw

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aelexs/smsgateway/internal/domain"
	"github.com/aelexs/smsgateway/internal/observability"
	"github.com/aelexs/smsgateway/internal/sms"
	"github.com/aelexs/smsgateway/internal/tokencache"
)

const (
	tokenPath  = "/v1/oauth/token"
	tokenScope = "SMS"
)

type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   json.Number `json:"expires_in"` // seconds; some deployments send it quoted
}

// freshen returns a bearer token with at least domain.TokenRefreshMargin of
// validity left, refreshing it first if needed. The check and the refresh
// happen while holding the token cell, so concurrent callers share a single
// refresh.
func (c *Client) freshen(ctx context.Context) (domain.Token, error) {
	return tokencache.Modify(ctx, c.tokens, func(ctx context.Context, current domain.Token) (domain.Token, domain.Token, error) {
		if !current.NeedsRefresh(c.clock.Now()) {
			return current, current, nil
		}
		fresh, err := c.token(ctx)
		if err != nil {
			return current, domain.Token{}, err
		}
		return fresh, fresh, nil
	})
}

// token requests a new bearer token with the client-credentials grant.
func (c *Client) token(ctx context.Context) (tok domain.Token, err error) {
	ctx, span := tracer.Start(ctx, "oauthgw.token")
	defer func() {
		c.metrics.RecordTokenRefresh(ctx, ProviderName, err)
		observability.EndSpan(span, err)
	}()

	requestedAt := c.clock.Now()

	form := url.Values{}
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret.Expose())
	form.Set("grant_type", "client_credentials")
	form.Set("scope", tokenScope)

	req, err := c.tokenRequest(ctx, form)
	if err != nil {
		return domain.Token{}, fmt.Errorf("oauthgw: build token request: %w", err)
	}

	tok, err = c.decodeToken(req, requestedAt)
	if err != nil {
		c.logger.ErrorContext(ctx, "token refresh failed", slog.String("error", err.Error()))
		return domain.Token{}, err
	}

	c.logger.DebugContext(ctx, "token refreshed", slog.Time("expires", tok.Expires))
	return tok, nil
}

// tokenRequest encodes the grant as a POST form body, or as a GET query when
// Config.TokenInQuery is set.
func (c *Client) tokenRequest(ctx context.Context, form url.Values) (*http.Request, error) {
	if c.cfg.TokenInQuery {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+tokenPath+"?"+form.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) decodeToken(req *http.Request, requestedAt time.Time) (domain.Token, error) {
	status, body, err := c.do(req)
	if err != nil {
		return domain.Token{}, err
	}
	if status != http.StatusOK {
		return domain.Token{}, domain.NewUnstructuredError(ProviderName, status, string(body), nil)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return domain.Token{}, domain.NewUnstructuredError(ProviderName, status, string(body), err)
	}
	seconds, err := tr.ExpiresIn.Int64()
	if err != nil || tr.AccessToken == "" {
		return domain.Token{}, domain.NewUnstructuredError(ProviderName, status, string(body), err)
	}

	return domain.Token{
		Value:   domain.SecretString(tr.AccessToken),
		Expires: requestedAt.Add(time.Duration(seconds) * time.Second),
	}, nil
}

// do executes req and reads the whole body. Transport failures come back as
// unstructured ProviderErrors.
func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, domain.NewUnstructuredError(ProviderName, 0, "", err)
	}
	body, err := sms.ReadBody(resp)
	if err != nil {
		return 0, nil, domain.NewUnstructuredError(ProviderName, resp.StatusCode, "", err)
	}
	return resp.StatusCode, body, nil
}
