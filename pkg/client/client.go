// Package client talks to the PRD review API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/timeout"
	"github.com/felixgeelhaar/prdreview/pkg/domain/review"
	"go.uber.org/zap"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://127.0.0.1:8000"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 8 << 20

// Client is a stateless review API client. It never retries and is safe for
// concurrent use.
type Client struct {
	baseURL string
	opts    options
}

// New creates a client for baseURL. Trailing slashes are stripped.
func New(baseURL string, opts ...Option) *Client {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: NormalizeBaseURL(baseURL),
		opts:    o,
	}
}

// NormalizeBaseURL trims surrounding space and trailing slashes.
func NormalizeBaseURL(u string) string {
	return strings.TrimRight(strings.TrimSpace(u), "/")
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// DocsURL is the server's interactive API documentation.
func (c *Client) DocsURL() string {
	return c.baseURL + "/docs"
}

// SchemaURL is the server's JSON schema of a review response.
func (c *Client) SchemaURL() string {
	return c.baseURL + "/schema"
}

type requestIDKey struct{}

// WithRequestID attaches an id sent as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type exchange struct {
	status int
	body   []byte
}

// bodyError is a response whose status arrived but whose body did not.
type bodyError struct {
	status int
	err    error
}

func (e *bodyError) Error() string { return fmt.Sprintf("read body (status %d): %v", e.status, e.err) }
func (e *bodyError) Unwrap() error { return e.err }

// do performs one HTTP round trip bounded by d. The body is read inside the
// bound so a slow server cannot stall the caller.
func (c *Client) do(ctx context.Context, d time.Duration, method, path string, body []byte) (exchange, error) {
	t := timeout.New[exchange](timeout.Config{DefaultTimeout: d})
	return t.Execute(ctx, d, func(ctx context.Context) (exchange, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return exchange{}, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		if c.opts.userAgent != "" {
			req.Header.Set("User-Agent", c.opts.userAgent)
		}
		if id := requestID(ctx); id != "" {
			req.Header.Set("X-Request-ID", id)
		}

		resp, err := c.opts.httpClient.Do(req)
		if err != nil {
			return exchange{}, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return exchange{}, &bodyError{status: resp.StatusCode, err: err}
		}
		return exchange{status: resp.StatusCode, body: data}, nil
	})
}

// CheckHealth probes GET /health. It reports false on any failure and never
// returns an error.
func (c *Client) CheckHealth(ctx context.Context) bool {
	ex, err := c.do(ctx, c.opts.healthTimeout, http.MethodGet, "/health", nil)
	if err != nil {
		c.opts.logger.Debug("health probe failed", zap.String("base_url", c.baseURL), zap.Error(err))
		return false
	}
	return isSuccess(ex.status)
}

// SubmitReview posts req to /review and returns the validated verdict. Every
// failure is an *APIError.
func (c *Client) SubmitReview(ctx context.Context, req review.ReviewRequest) (*review.ReviewResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode review request: %w", err)
	}

	log := c.opts.logger.With(zap.String("request_id", requestID(ctx)))
	started := time.Now()

	ex, err := c.do(ctx, c.opts.timeout, http.MethodPost, "/review", payload)
	if err != nil {
		log.Warn("review request failed", zap.Error(err), zap.Duration("elapsed", time.Since(started)))
		return nil, transportError(err)
	}

	log.Debug("review response received",
		zap.Int("status", ex.status),
		zap.Int("bytes", len(ex.body)),
		zap.Duration("elapsed", time.Since(started)))

	if !isSuccess(ex.status) {
		return nil, &APIError{Kind: KindRejected, Status: ex.status, Message: rejectionMessage(ex)}
	}

	result, err := review.Decode(ex.body)
	if err != nil {
		log.Warn("review payload rejected", zap.Error(err))
		return nil, &APIError{
			Kind:    KindMalformed,
			Status:  ex.status,
			Message: "Server returned a malformed review: " + err.Error(),
			Err:     err,
		}
	}
	return result, nil
}

// transportError classifies a failed round trip. A truncated body still
// carries the status the server answered with.
func transportError(err error) *APIError {
	var be *bodyError
	if !errors.As(err, &be) {
		return &APIError{Kind: KindUnreachable, Message: UnreachableMessage, Err: err}
	}
	if !isSuccess(be.status) {
		return &APIError{
			Kind:    KindRejected,
			Status:  be.status,
			Message: fmt.Sprintf("Request failed with status %d", be.status),
			Err:     err,
		}
	}
	return &APIError{
		Kind:    KindMalformed,
		Status:  be.status,
		Message: "Server returned a malformed review: " + err.Error(),
		Err:     err,
	}
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// rejectionMessage prefers the body's detail field. A JSON body without one
// gets the generic message; a body that is not JSON is passed through.
func rejectionMessage(ex exchange) string {
	generic := fmt.Sprintf("Request failed with status %d", ex.status)

	var body map[string]json.RawMessage
	if err := json.Unmarshal(ex.body, &body); err != nil {
		if text := strings.TrimSpace(string(ex.body)); text != "" {
			return text
		}
		return generic
	}

	raw, ok := body["detail"]
	if !ok || string(raw) == "null" {
		return generic
	}
	var detail string
	if err := json.Unmarshal(raw, &detail); err == nil {
		if detail == "" {
			return generic
		}
		return detail
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return string(raw)
	}
	return compact.String()
}
