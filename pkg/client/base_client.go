package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

const maxErrorBody = 512

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// BaseClient performs single-attempt GET requests against one provider.
// Requests pass through a rate limiter and a circuit breaker; a failed
// attempt is returned to the caller as is.
type BaseClient struct {
	name           string
	client         HTTPClient
	logger         *zap.Logger
	circuitBreaker *gobreaker.CircuitBreaker
	limiter        *rate.Limiter
}

type ClientConfig struct {
	Timeout           time.Duration
	Threshold         int
	BreakerTimeout    time.Duration
	RequestsPerSecond float64
	Burst             int
}

func NewBaseClient(name string, config ClientConfig, logger *zap.Logger) *BaseClient {
	httpClient := &http.Client{
		Timeout: config.Timeout,
	}

	breakerSettings := gobreaker.Settings{
		Name:         name,
		MaxRequests:  1,
		Timeout:      config.BreakerTimeout,
		IsSuccessful: providerHealthy,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				zap.String("client", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
	if config.Threshold > 0 {
		threshold := uint32(config.Threshold)
		breakerSettings.ReadyToTrip = func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		}
	}

	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}
	burst := config.Burst
	if burst <= 0 {
		burst = 1
	}

	return &BaseClient{
		name:           name,
		client:         httpClient,
		logger:         logger,
		circuitBreaker: gobreaker.NewCircuitBreaker(breakerSettings),
		limiter:        rate.NewLimiter(limit, burst),
	}
}

// callerCanceled marks a request abandoned because the caller's context
// ended, as opposed to the provider timing out.
type callerCanceled struct {
	err error
}

func (e *callerCanceled) Error() string { return e.err.Error() }
func (e *callerCanceled) Unwrap() error { return e.err }

// providerHealthy reports whether err leaves the provider's health untouched.
// Caller cancellations and rejected requests (4xx other than 429) do not
// count toward tripping the breaker.
func providerHealthy(err error) bool {
	if err == nil {
		return true
	}
	var canceled *callerCanceled
	if errors.As(err, &canceled) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		code := statusErr.StatusCode
		return code >= 400 && code < 500 && code != http.StatusTooManyRequests
	}
	return false
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *BaseClient) WithHTTPClient(client HTTPClient) *BaseClient {
	c.client = client
	return c
}

type rawResponse struct {
	body        []byte
	contentType string
}

// GetJSON issues a GET to endpoint with params and decodes the JSON body
// into out. Errors are *LookupError.
func (c *BaseClient) GetJSON(ctx context.Context, op, endpoint string, params url.Values, out interface{}) error {
	reqURL := endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return transportError(op, fmt.Errorf("rate limit wait canceled: %w", err))
	}

	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		raw, err := c.doGet(ctx, reqURL)
		if err != nil && ctx.Err() != nil {
			return nil, &callerCanceled{err: err}
		}
		return raw, err
	})
	if err != nil {
		c.logger.Warn("HTTP request failed",
			zap.String("client", c.name),
			zap.String("url", reqURL),
			zap.Error(err))
		return transportError(op, err)
	}

	raw := result.(*rawResponse)
	if err := decodeJSON(raw, out); err != nil {
		c.logger.Warn("Failed to decode response",
			zap.String("client", c.name),
			zap.String("url", reqURL),
			zap.Error(err))
		return payloadError(op, err)
	}

	return nil
}

func (c *BaseClient) doGet(ctx context.Context, reqURL string) (*rawResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body failed: %w", err)
	}

	c.logger.Debug("Request successful",
		zap.String("client", c.name),
		zap.String("url", reqURL),
		zap.Int("status", resp.StatusCode),
		zap.Int("body_size", len(body)))

	return &rawResponse{body: body, contentType: resp.Header.Get("Content-Type")}, nil
}

func decodeJSON(raw *rawResponse, out interface{}) error {
	if len(bytes.TrimSpace(raw.body)) == 0 {
		return errors.New("empty response body")
	}

	var reader io.Reader = bytes.NewReader(raw.body)
	// JSON is UTF-8 unless the provider declares otherwise.
	if _, params, err := mime.ParseMediaType(raw.contentType); err == nil {
		if label := params["charset"]; label != "" && !strings.EqualFold(label, "utf-8") {
			reader, err = charset.NewReaderLabel(label, reader)
			if err != nil {
				return fmt.Errorf("unsupported charset %q: %w", label, err)
			}
		}
	}

	if err := json.NewDecoder(reader).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
