// Package snsgw implements sms.Client on Amazon SNS direct SMS publishing.
//
// SNS has no per-message delivery lookup, so MessageStatus reports
// StatusSent for the most recent sms.DefaultIssuedLimit messages this client
// published and ErrNotFound otherwise.
package snsgw

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/smithy-go"
	"go.opentelemetry.io/otel"

	"github.com/aelexs/smsgateway/internal/domain"
	"github.com/aelexs/smsgateway/internal/observability"
	"github.com/aelexs/smsgateway/internal/sms"
)

// ProviderName tags errors, logs and metrics from this adapter.
const ProviderName = "sns"

const (
	attrSenderID = "AWS.SNS.SMS.SenderID"
	attrSMSType  = "AWS.SNS.SMS.SMSType"
)

// senderIDPattern is the alphanumeric sender id SNS accepts.
var senderIDPattern = regexp.MustCompile(`^[A-Za-z0-9]{1,11}$`)

var tracer = otel.Tracer("sms/snsgw")

// Publisher is the subset of the SNS API the client needs. The real
// *sns.Client satisfies it.
type Publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// AWSConfig holds SNS connection parameters.
type AWSConfig struct {
	// Endpoint overrides the default AWS endpoint, e.g. a LocalStack URL.
	// Static test credentials are used when it is set.
	Endpoint string

	Region string

	// Timeout is the HTTP client timeout for SNS requests.
	Timeout time.Duration
}

// NewPublisher creates an SNS client from cfg.
func NewPublisher(ctx context.Context, cfg AWSConfig) (*sns.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.Endpoint != "" {
		opts = append(opts,
			awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider("test", "test", ""),
			),
		)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	if cfg.Timeout > 0 {
		awsCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	var snsOpts []func(*sns.Options)
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		snsOpts = append(snsOpts, func(o *sns.Options) {
			o.BaseEndpoint = &endpoint
		})
	}
	return sns.NewFromConfig(awsCfg, snsOpts...), nil
}

var _ sms.Client = (*Client)(nil)

// Client publishes transactional SMS through SNS.
type Client struct {
	publisher Publisher
	senderID  string
	logger    *slog.Logger
	metrics   *observability.SMSMetrics
	published *sms.IssuedIDs
}

// New creates a Client. senderID is optional; when set it must be a valid
// originator (1-11 alphanumerics).
func New(publisher Publisher, senderID string, logger *slog.Logger, metrics *observability.SMSMetrics) (*Client, error) {
	if senderID != "" && !senderIDPattern.MatchString(senderID) {
		return nil, fmt.Errorf("sns: new client: sender id %q: %w", senderID, domain.ErrInvalidOriginator)
	}
	return &Client{
		publisher: publisher,
		senderID:  senderID,
		logger:    logger.With(slog.String("provider", ProviderName)),
		metrics:   metrics,
		published: sms.NewIssuedIDs(sms.DefaultIssuedLimit),
	}, nil
}

// SendMessage publishes msg to the E.164 form of to. The SNS message id is
// returned.
func (c *Client) SendMessage(ctx context.Context, to domain.PhoneNumber, msg domain.Message) (id domain.MessageID, err error) {
	ctx, span := tracer.Start(ctx, "sns.SendMessage")
	defer func() {
		c.metrics.RecordCall(ctx, ProviderName, "send", err)
		observability.EndSpan(span, err)
	}()

	if to.IsZero() {
		return domain.MessageID{}, fmt.Errorf("sns: send: %w", domain.ErrInvalidPhoneNumber)
	}

	id, err = c.publish(ctx, to, msg)
	if err != nil {
		c.logger.ErrorContext(ctx, "send sms failed",
			slog.String("recipient", to.Masked()),
			slog.String("error", err.Error()),
		)
		return domain.MessageID{}, err
	}

	c.published.Add(id)

	c.logger.DebugContext(ctx, "sms published",
		slog.String("message_id", id.String()),
		slog.String("recipient", to.Masked()),
	)
	return id, nil
}

func (c *Client) publish(ctx context.Context, to domain.PhoneNumber, msg domain.Message) (domain.MessageID, error) {
	attrs := map[string]types.MessageAttributeValue{
		attrSMSType: {DataType: aws.String("String"), StringValue: aws.String("Transactional")},
	}
	if c.senderID != "" {
		attrs[attrSenderID] = types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(c.senderID)}
	}

	out, err := c.publisher.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(e164(to)),
		Message:           aws.String(msg.String()),
		MessageAttributes: attrs,
	})
	if err != nil {
		return domain.MessageID{}, classify(err)
	}
	if out == nil || out.MessageId == nil {
		return domain.MessageID{}, domain.NewUnstructuredError(ProviderName, 0, "publish returned no message id", nil)
	}

	id, err := domain.NewMessageID(*out.MessageId)
	if err != nil {
		return domain.MessageID{}, domain.NewUnstructuredError(ProviderName, 0, "publish returned empty message id", err)
	}
	return id, nil
}

// MessageStatus reports StatusSent for ids published by this client that are
// still remembered.
func (c *Client) MessageStatus(ctx context.Context, id domain.MessageID) (status domain.DeliveryStatus, err error) {
	_, span := tracer.Start(ctx, "sns.MessageStatus")
	defer func() {
		c.metrics.RecordCall(ctx, ProviderName, "status", err)
		observability.EndSpan(span, err)
	}()

	if !c.published.Contains(id) {
		return 0, fmt.Errorf("sns: message %s: %w", id, domain.ErrNotFound)
	}
	return domain.StatusSent, nil
}

// classify turns SNS API errors into unstructured provider failures that
// carry the AWS error code. Throttling is reported as unavailable.
func classify(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return domain.NewUnstructuredError(ProviderName, 0, "", err)
	}

	body := apiErr.ErrorCode() + ": " + apiErr.ErrorMessage()
	switch apiErr.ErrorCode() {
	case "Throttling", "ThrottlingException", "ThrottledException":
		return domain.NewUnstructuredError(ProviderName, 0, body, fmt.Errorf("%w: %w", domain.ErrUnavailable, err))
	default:
		return domain.NewUnstructuredError(ProviderName, 0, body, err)
	}
}

func e164(p domain.PhoneNumber) string {
	s := p.String()
	if strings.HasPrefix(s, "+") {
		return s
	}
	return "+" + s
}
