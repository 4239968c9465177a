package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/harlanhaskins/claude-agent-go/hooks"
	"github.com/harlanhaskins/claude-agent-go/pkg/models"
)

const (
	defaultBaseURL = "https://api.anthropic.com/v1"
	apiVersion     = "2023-06-01"

	betaFiles    = "files-api-2025-04-14"
	betaThinking = "interleaved-thinking-2025-05-14"

	// DefaultRequestTimeout bounds a single messages request.
	DefaultRequestTimeout = 300 * time.Second

	// DefaultOverallTimeout bounds a request including retries.
	DefaultOverallTimeout = 600 * time.Second
)

// Config configures a Client.
type Config struct {
	// APIKey authenticates requests. Required.
	APIKey string

	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string

	// RequestTimeout bounds each HTTP request. Defaults to 300s.
	RequestTimeout time.Duration

	// OverallTimeout bounds a send including retries. Defaults to 600s.
	OverallTimeout time.Duration

	// MaxRetries is the number of retries on 429/5xx responses.
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff.
	RetryDelay time.Duration

	HTTPClient *http.Client
	Hooks      *hooks.Bus
	Logger     *slog.Logger
}

// Client talks to the messages and files endpoints. It is stateless
// except for the per-client uploaded-file cache: two sends referencing
// the same local path upload the file exactly once.
type Client struct {
	apiKey         string
	baseURL        string
	httpClient     *http.Client
	requestTimeout time.Duration
	overallTimeout time.Duration
	maxRetries     int
	retryDelay     time.Duration
	hooks          *hooks.Bus
	logger         *slog.Logger

	uploadMu sync.Mutex
	uploads  map[string]string // absolute local path -> provider file id
}

// New creates a provider client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.OverallTimeout <= 0 {
		cfg.OverallTimeout = DefaultOverallTimeout
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		apiKey:         cfg.APIKey,
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient:     cfg.HTTPClient,
		requestTimeout: cfg.RequestTimeout,
		overallTimeout: cfg.OverallTimeout,
		maxRetries:     cfg.MaxRetries,
		retryDelay:     cfg.RetryDelay,
		hooks:          cfg.Hooks,
		logger:         cfg.Logger.With("component", "anthropic"),
		uploads:        make(map[string]string),
	}, nil
}

// SendMessage resolves file attachments, posts the request, and decodes
// the assistant reply, preserving tool_use ids and raw inputs.
func (c *Client) SendMessage(ctx context.Context, req *MessageRequest) (*models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, c.overallTimeout)
	defer cancel()

	if err := c.resolveAttachments(ctx, req.Messages); err != nil {
		return nil, err
	}

	body, err := json.Marshal(encodeRequest(req, false))
	if err != nil {
		return nil, &ProviderError{Kind: ProviderErrProtocol, Message: "encode request", Cause: err}
	}

	respBody, err := c.postMessages(ctx, body, req)
	if err != nil {
		return nil, err
	}

	var decoded wireResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, &ProviderError{Kind: ProviderErrDecode, Message: "decode response", Cause: err}
	}
	if decoded.Role != string(models.RoleAssistant) {
		return nil, &ProviderError{Kind: ProviderErrProtocol, Message: fmt.Sprintf("unexpected role %q", decoded.Role)}
	}

	return &models.Message{
		Role:    models.RoleAssistant,
		Model:   decoded.Model,
		Content: decoded.Content,
	}, nil
}

func (c *Client) postMessages(ctx context.Context, body []byte, req *MessageRequest) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(c.retryDelay) * math.Pow(2, float64(attempt-1)))
			select {
			case <-ctx.Done():
				return nil, &ProviderError{Kind: ProviderErrTransport, Cause: ctx.Err()}
			case <-time.After(delay):
			}
		}

		respBody, retryable, err := c.postMessagesOnce(ctx, body, req)
		if err == nil {
			return respBody, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
		c.logger.Debug("retrying provider request", "attempt", attempt+1, "error", err)
	}
	return nil, lastErr
}

func (c *Client) postMessagesOnce(ctx context.Context, body []byte, req *MessageRequest) (respBody []byte, retryable bool, err error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, false, &ProviderError{Kind: ProviderErrTransport, Cause: err}
	}
	c.setHeaders(httpReq, usesFiles(req.Messages), req.Thinking)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, true, &ProviderError{Kind: ProviderErrTransport, Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, &ProviderError{Kind: ProviderErrTransport, Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		provErr := &ProviderError{
			Kind:    ProviderErrStatus,
			Status:  resp.StatusCode,
			Message: apiErrorMessage(raw),
			Body:    string(raw),
		}
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retryable, provErr
	}
	return raw, false, nil
}

func apiErrorMessage(body []byte) string {
	var decoded wireError
	if err := json.Unmarshal(body, &decoded); err == nil && decoded.Error.Message != "" {
		return decoded.Error.Message
	}
	return "request failed"
}

func (c *Client) setHeaders(req *http.Request, files, thinking bool) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	var betas []string
	if files {
		betas = append(betas, betaFiles)
	}
	if thinking {
		betas = append(betas, betaThinking)
	}
	if len(betas) > 0 {
		req.Header.Set("anthropic-beta", strings.Join(betas, ","))
	}
}
