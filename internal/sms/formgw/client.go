// Package formgw implements sms.Client for the form-encoded gateway: form
// POSTs authenticated with username and password, answered with plain-text
// codes on send and an XML document on status checks.
package formgw

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/aelexs/smsgateway/internal/domain"
	"github.com/aelexs/smsgateway/internal/observability"
	"github.com/aelexs/smsgateway/internal/sms"
)

// ProviderName tags errors, logs and metrics from this adapter.
const ProviderName = "formgw"

const (
	sendPath   = "/api/v3.2"
	statusPath = "/api/v3.2/checkstatus"

	// countryCode replaces the trunk digit of a local number.
	countryCode = "61"

	successBody = "0"
)

// codedBodyPattern matches "<code> <message>" failure bodies.
var codedBodyPattern = regexp.MustCompile(`(?s)^(\d+)\s*(.*)$`)

var tracer = otel.Tracer("sms/formgw")

var _ sms.Client = (*Client)(nil)

// Client talks to the form gateway. It holds no mutable state and is safe for
// concurrent use.
type Client struct {
	baseURL string
	cfg     Config
	http    sms.HTTPClient
	logger  *slog.Logger
	metrics *observability.SMSMetrics
}

// New creates a Client for the gateway at baseURL. cfg must come from
// NewConfig; a config without an originator is refused.
func New(baseURL string, cfg Config, httpClient sms.HTTPClient, logger *slog.Logger, metrics *observability.SMSMetrics) (*Client, error) {
	if cfg.Originator.IsZero() {
		return nil, fmt.Errorf("formgw: new client: %w", domain.ErrInvalidOriginator)
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("formgw: new client: base url %q: %w", baseURL, domain.ErrInvalidInput)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		cfg:     cfg,
		http:    httpClient,
		logger:  logger.With(slog.String("provider", ProviderName)),
		metrics: metrics,
	}, nil
}

// SendMessage submits msg with a freshly generated reference, which becomes
// the returned MessageID.
func (c *Client) SendMessage(ctx context.Context, to domain.PhoneNumber, msg domain.Message) (id domain.MessageID, err error) {
	ctx, span := tracer.Start(ctx, "formgw.SendMessage")
	defer func() {
		c.metrics.RecordCall(ctx, ProviderName, "send", err)
		observability.EndSpan(span, err)
	}()

	if to.IsZero() {
		return domain.MessageID{}, fmt.Errorf("formgw: send: %w", domain.ErrInvalidPhoneNumber)
	}

	reference := uuid.NewString()
	form := c.credentials()
	form.Set("ACTION", "send")
	form.Set("ORIGINATOR", c.cfg.Originator.String())
	form.Set("REFERENCE", reference)
	form.Set("RECIPIENT", internationalize(to))
	form.Set("MESSAGE_TEXT", msg.String())

	c.logger.DebugContext(ctx, "sending sms",
		slog.String("reference", reference),
		slog.String("recipient", to.Masked()),
	)

	if err := c.send(ctx, form); err != nil {
		c.logger.ErrorContext(ctx, "send sms failed",
			slog.String("reference", reference),
			slog.String("recipient", to.Masked()),
			slog.String("error", err.Error()),
		)
		return domain.MessageID{}, err
	}
	return domain.MustMessageID(reference), nil
}

func (c *Client) send(ctx context.Context, form url.Values) error {
	status, body, err := c.post(ctx, sendPath, form)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return domain.NewUnstructuredError(ProviderName, status, string(body), nil)
	}
	return parseSendBody(string(body))
}

// MessageStatus checks the delivery state of the message sent with reference id.
func (c *Client) MessageStatus(ctx context.Context, id domain.MessageID) (status domain.DeliveryStatus, err error) {
	ctx, span := tracer.Start(ctx, "formgw.MessageStatus")
	defer func() {
		c.metrics.RecordCall(ctx, ProviderName, "status", err)
		observability.EndSpan(span, err)
	}()

	form := c.credentials()
	form.Set("REFERENCE", id.String())

	status, err = c.checkStatus(ctx, form)
	if err != nil {
		c.logger.ErrorContext(ctx, "message status failed",
			slog.String("reference", id.String()),
			slog.String("error", err.Error()),
		)
		return 0, err
	}
	c.logger.DebugContext(ctx, "message status",
		slog.String("reference", id.String()),
		slog.String("status", status.Code()),
	)
	return status, nil
}

func (c *Client) checkStatus(ctx context.Context, form url.Values) (domain.DeliveryStatus, error) {
	code, body, err := c.post(ctx, statusPath, form)
	if err != nil {
		return 0, err
	}
	if code != http.StatusOK {
		return 0, domain.NewUnstructuredError(ProviderName, code, string(body), nil)
	}
	return parseStatusDocument(body)
}

func (c *Client) credentials() url.Values {
	form := url.Values{}
	form.Set("USERNAME", c.cfg.Username)
	form.Set("PASSWORD", c.cfg.Password.Expose())
	return form
}

// post sends form to path and returns the status code and body. Transport
// failures come back as unstructured ProviderErrors.
func (c *Client) post(ctx context.Context, path string, form url.Values) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, nil, fmt.Errorf("formgw: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

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

// internationalize swaps the leading trunk digit for the country code.
// The number is assumed to carry exactly one leading trunk digit and must not
// be zero.
func internationalize(to domain.PhoneNumber) string {
	return countryCode + to.String()[1:]
}

// parseSendBody interprets the send response: "0" is success, "<code> <text>"
// is a coded failure and anything else is unstructured.
func parseSendBody(body string) error {
	trimmed := strings.TrimSpace(body)
	if trimmed == successBody {
		return nil
	}
	m := codedBodyPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return domain.NewUnstructuredError(ProviderName, http.StatusOK, body, nil)
	}
	code, err := strconv.Atoi(m[1])
	if err != nil {
		return domain.NewUnstructuredError(ProviderName, http.StatusOK, body, err)
	}
	return domain.NewCodedError(ProviderName, code, strings.TrimSpace(m[2]))
}

type statusDocument struct {
	XMLName      xml.Name `xml:"response"`
	Status       *string  `xml:"message>status"`
	ErrorCode    *string  `xml:"errorcode"`
	ErrorMessage *string  `xml:"errormessage"`
}

// parseStatusDocument extracts message/status. When that fails it falls back
// to errorcode/errormessage, and when that fails too the whole document is
// returned in an unstructured error.
func parseStatusDocument(raw []byte) (domain.DeliveryStatus, error) {
	var doc statusDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return 0, domain.NewUnstructuredError(ProviderName, http.StatusOK, string(raw), err)
	}

	var statusErr error
	if doc.Status != nil {
		status, err := domain.ParseDeliveryStatus(strings.TrimSpace(*doc.Status))
		if err == nil {
			return status, nil
		}
		statusErr = err
	}

	if doc.ErrorCode != nil && doc.ErrorMessage != nil {
		code, err := strconv.Atoi(strings.TrimSpace(*doc.ErrorCode))
		if err == nil {
			return 0, domain.NewCodedError(ProviderName, code, strings.TrimSpace(*doc.ErrorMessage))
		}
		statusErr = errors.Join(statusErr, err)
	}

	return 0, domain.NewUnstructuredError(ProviderName, http.StatusOK, string(raw), statusErr)
}
