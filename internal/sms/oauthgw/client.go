// Package oauthgw implements sms.Client for the JSON gateway authenticated
// with OAuth2 client-credentials bearer tokens.
package oauthgw

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"

	"github.com/aelexs/smsgateway/internal/domain"
	"github.com/aelexs/smsgateway/internal/observability"
	"github.com/aelexs/smsgateway/internal/sms"
	"github.com/aelexs/smsgateway/internal/tokencache"
)

// ProviderName tags errors, logs and metrics from this adapter.
const ProviderName = "oauthgw"

const messagesPath = "/v1/sms/messages"

var tracer = otel.Tracer("sms/oauthgw")

var _ sms.Client = (*Client)(nil)

// Config holds the OAuth2 client credentials.
type Config struct {
	ClientID     string
	ClientSecret domain.SecretString

	// TokenInQuery sends the grant as GET query parameters instead of a
	// POST form body, for gateways that only accept that form.
	TokenInQuery bool
}

// Client talks to the OAuth2 JSON gateway. It is safe for concurrent use;
// the cached bearer token is its only shared state.
type Client struct {
	baseURL string
	cfg     Config
	http    sms.HTTPClient
	logger  *slog.Logger
	metrics *observability.SMSMetrics
	clock   domain.Clock
	tokens  *tokencache.Cell[domain.Token]
}

// New creates a Client for the gateway at baseURL. The token cell starts with
// an already-expired placeholder, so the first call fetches a real token.
func New(baseURL string, cfg Config, httpClient sms.HTTPClient, logger *slog.Logger, metrics *observability.SMSMetrics, clock domain.Clock) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret.IsEmpty() {
		return nil, fmt.Errorf("oauthgw: new client: client credentials: %w", domain.ErrInvalidInput)
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("oauthgw: new client: base url %q: %w", baseURL, domain.ErrInvalidInput)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		cfg:     cfg,
		http:    httpClient,
		logger:  logger.With(slog.String("provider", ProviderName)),
		metrics: metrics,
		clock:   clock,
		tokens:  tokencache.New(domain.ExpiredToken()),
	}, nil
}

type sendRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

type sendResponse struct {
	MessageID string `json:"messageId"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// SendMessage submits msg and returns the gateway-issued message id.
func (c *Client) SendMessage(ctx context.Context, to domain.PhoneNumber, msg domain.Message) (id domain.MessageID, err error) {
	ctx, span := tracer.Start(ctx, "oauthgw.SendMessage")
	defer func() {
		c.metrics.RecordCall(ctx, ProviderName, "send", err)
		observability.EndSpan(span, err)
	}()

	if to.IsZero() {
		return domain.MessageID{}, fmt.Errorf("oauthgw: send: %w", domain.ErrInvalidPhoneNumber)
	}

	id, err = c.send(ctx, to, msg)
	if err != nil {
		c.logger.ErrorContext(ctx, "send sms failed",
			slog.String("recipient", to.Masked()),
			slog.String("error", err.Error()),
		)
		return domain.MessageID{}, err
	}
	c.logger.DebugContext(ctx, "sms accepted",
		slog.String("message_id", id.String()),
		slog.String("recipient", to.Masked()),
	)
	return id, nil
}

func (c *Client) send(ctx context.Context, to domain.PhoneNumber, msg domain.Message) (domain.MessageID, error) {
	tok, err := c.freshen(ctx)
	if err != nil {
		return domain.MessageID{}, err
	}

	payload, err := json.Marshal(sendRequest{To: to.String(), Body: msg.String()})
	if err != nil {
		return domain.MessageID{}, fmt.Errorf("oauthgw: marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(payload))
	if err != nil {
		return domain.MessageID{}, fmt.Errorf("oauthgw: build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	authorize(req, tok)

	status, body, err := c.do(req)
	if err != nil {
		return domain.MessageID{}, err
	}
	if status != http.StatusAccepted {
		return domain.MessageID{}, domain.NewUnstructuredError(ProviderName, status, string(body), nil)
	}

	var sr sendResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return domain.MessageID{}, domain.NewUnstructuredError(ProviderName, status, string(body), err)
	}
	id, err := domain.NewMessageID(sr.MessageID)
	if err != nil {
		return domain.MessageID{}, domain.NewUnstructuredError(ProviderName, status, string(body), err)
	}
	return id, nil
}

// MessageStatus queries the status sub-resource of a sent message.
func (c *Client) MessageStatus(ctx context.Context, id domain.MessageID) (status domain.DeliveryStatus, err error) {
	ctx, span := tracer.Start(ctx, "oauthgw.MessageStatus")
	defer func() {
		c.metrics.RecordCall(ctx, ProviderName, "status", err)
		observability.EndSpan(span, err)
	}()

	status, err = c.status(ctx, id)
	if err != nil {
		c.logger.ErrorContext(ctx, "message status failed",
			slog.String("message_id", id.String()),
			slog.String("error", err.Error()),
		)
		return 0, err
	}
	return status, nil
}

func (c *Client) status(ctx context.Context, id domain.MessageID) (domain.DeliveryStatus, error) {
	tok, err := c.freshen(ctx)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+messagesPath+"/"+url.PathEscape(id.String()), nil)
	if err != nil {
		return 0, fmt.Errorf("oauthgw: build status request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	authorize(req, tok)

	code, body, err := c.do(req)
	if err != nil {
		return 0, err
	}
	if code != http.StatusOK {
		return 0, domain.NewUnstructuredError(ProviderName, code, string(body), nil)
	}

	var sr statusResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return 0, domain.NewUnstructuredError(ProviderName, code, string(body), err)
	}
	status, err := domain.ParseDeliveryStatus(sr.Status)
	if err != nil {
		return 0, domain.NewUnstructuredError(ProviderName, code, string(body), err)
	}
	return status, nil
}

func authorize(req *http.Request, tok domain.Token) {
	req.Header.Set("Authorization", "Bearer "+tok.Value.Expose())
}
