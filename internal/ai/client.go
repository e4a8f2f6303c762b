package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/calwhisper/calwhisper/internal/logging"
)

// Client calls the Workers AI REST API.
type Client struct {
	accountID string
	apiToken  string
	baseURL   string
	client    *http.Client
	logger    logging.Logger
	metrics   MetricsRecorder
}

// MetricsRecorder records model invocation metrics. Implemented by
// instrumentation.Metrics; a nil recorder disables recording.
type MetricsRecorder interface {
	RecordModelRequest(ctx context.Context, model, status string, duration time.Duration)
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the structured logger used for request logging.
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics sets the metrics recorder for model invocations.
func WithMetrics(m MetricsRecorder) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a new Workers AI client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		accountID: cfg.AccountID,
		apiToken:  cfg.APIToken,
		baseURL:   cfg.BaseURL,
		client:    cfg.HTTPClient,
		logger:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Run invokes a model with the given messages and returns its text output.
// The result envelope may carry the text as a bare string or as an object
// with a response field; both are handled.
func (c *Client) Run(ctx context.Context, model string, messages []Message) (string, error) {
	start := time.Now()
	text, err := c.run(ctx, model, messages)

	status := logging.StatusSuccess
	if err != nil {
		status = logging.StatusError
	}
	if c.metrics != nil {
		c.metrics.RecordModelRequest(ctx, model, status, time.Since(start))
	}
	c.logger.Debug("model invocation finished",
		logging.KeyModel, model,
		logging.KeyStatus, status,
		logging.KeyDuration, time.Since(start).String())

	return text, err
}

func (c *Client) run(ctx context.Context, model string, messages []Message) (string, error) {
	body, err := json.Marshal(runRequest{Messages: messages})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/accounts/%s/ai/run/%s",
		c.baseURL, url.PathEscape(c.accountID), url.PathEscape(model))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiToken)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var envelope runResponse
		if err := json.Unmarshal(respBody, &envelope); err != nil || len(envelope.Errors) == 0 {
			return "", fmt.Errorf("API error %d: %s", resp.StatusCode, string(respBody))
		}
		return "", fmt.Errorf("API error %d: %s", resp.StatusCode, envelope.Errors[0].Message)
	}

	var envelope runResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if !envelope.Success && len(envelope.Errors) > 0 {
		return "", fmt.Errorf("model invocation failed: %s", envelope.Errors[0].Message)
	}

	return decodeResult(envelope.Result), nil
}
