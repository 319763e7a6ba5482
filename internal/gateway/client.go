package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/jafarshop/cartsync/internal/config"
	"github.com/jafarshop/cartsync/pkg/errors"
)

// TokenSource supplies the session credential. ok is false when nobody is signed in.
type TokenSource interface {
	Token() (token string, ok bool)
}

// StaticToken is a TokenSource for a fixed token; empty means signed out
type StaticToken string

func (t StaticToken) Token() (string, bool) {
	return string(t), t != ""
}

type Client struct {
	baseURL    string
	authScheme string
	tokens     TokenSource
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*rawResponse]
	logger     *zap.Logger
}

type rawResponse struct {
	status int
	body   []byte
}

// serverFailure makes 5xx answers count against the breaker while keeping the body
type serverFailure struct {
	resp *rawResponse
}

func (e *serverFailure) Error() string {
	return fmt.Sprintf("server error: status %d", e.resp.status)
}

// NewClient creates a new backend REST client
func NewClient(cfg config.BackendConfig, breakerCfg config.BreakerConfig, tokens TokenSource, logger *zap.Logger) *Client {
	// Normalize base URL - no trailing slash, endpoint paths carry their own
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")

	authScheme := cfg.AuthScheme
	if authScheme == "" {
		authScheme = "Token"
	}

	c := &Client{
		baseURL:    baseURL,
		authScheme: authScheme,
		tokens:     tokens,
		httpClient: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}

	c.breaker = gobreaker.NewCircuitBreaker[*rawResponse](gobreaker.Settings{
		Name:    "backend",
		Timeout: breakerCfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerCfg.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			// a caller giving up is not a backend failure
			return err == nil || stderrors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return c
}

// Authenticated reports whether a session credential is available
func (c *Client) Authenticated() bool {
	_, ok := c.tokens.Token()
	return ok
}

// Do sends one JSON request and decodes a successful response into out.
// Non-success answers come back as pkg/errors types carrying the server's message.
func (c *Client) Do(ctx context.Context, method, path string, in, out interface{}) error {
	op := method + " " + path

	token, ok := c.tokens.Token()
	if !ok {
		return &errors.ErrUnauthorized{Message: "authentication required"}
	}

	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", c.authScheme+" "+token)
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.breaker.Execute(func() (*rawResponse, error) {
		httpResp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer httpResp.Body.Close()

		data, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		raw := &rawResponse{status: httpResp.StatusCode, body: data}
		if raw.status >= http.StatusInternalServerError {
			return nil, &serverFailure{resp: raw}
		}
		return raw, nil
	})
	if err != nil {
		var failure *serverFailure
		if !stderrors.As(err, &failure) {
			c.logger.Warn("Backend request failed",
				zap.String("op", op),
				zap.String("request_id", requestID),
				zap.Error(err),
			)
			return &errors.ErrTransport{Op: op, Err: err}
		}
		resp = failure.resp
	}

	c.logger.Debug("Backend request",
		zap.String("op", op),
		zap.String("request_id", requestID),
		zap.Int("status", resp.status),
	)

	if resp.status < 200 || resp.status >= 300 {
		return statusError(resp.status, resp.body, path)
	}

	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response from %s: %w", op, err)
	}
	return nil
}

func statusError(status int, body []byte, path string) error {
	message := extractMessage(body)

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &errors.ErrUnauthorized{Message: message}
	case http.StatusNotFound:
		return &errors.ErrNotFound{Resource: "endpoint", ID: path, Message: message}
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return &errors.ErrValidation{Message: message}
	default:
		return &errors.ErrUpstream{Status: status, Message: message}
	}
}
