// Package apiclient is the single HTTP entry point to the TrackPro backend.
// It attaches bearer tokens and normalizes every failure into *xerrors.APIError.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	xerrors "trackpro-client/internal/pkg/errors"
)

const (
	RequestIDHeader = "X-Request-ID"

	maxErrorBody    = 64 << 10
	maxResponseBody = 32 << 20
)

// TokenSource yields the current session token; "" means anonymous.
type TokenSource interface {
	Get(ctx context.Context) (string, error)
}

// Request describes one backend call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is JSON encoded unless Raw is set.
	Body any
	// Raw is sent verbatim with ContentType, e.g. a multipart form.
	Raw           io.Reader
	ContentType   string
	ContentLength int64
	// Auth requires a bearer token.
	Auth bool
	// Token overrides the token source, e.g. for a detached logout call.
	Token string
}

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	// RateLimit in requests per second; 0 disables throttling.
	RateLimit float64
	RateBurst int
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
	logger     *zap.Logger
}

func New(cfg Config, tokens TokenSource, logger *zap.Logger) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
		tokens:     tokens,
		limiter:    limiter,
		logger:     logger,
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// Do executes req and decodes a JSON response into out (which may be nil).
// A 204 response leaves out untouched.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	token := req.Token
	if req.Auth && token == "" {
		if c.tokens != nil {
			t, err := c.tokens.Get(ctx)
			if err != nil {
				return fmt.Errorf("read session token: %w", err)
			}
			token = t
		}
		if token == "" {
			return xerrors.NewAPIError(http.StatusUnauthorized, "Missing auth token", xerrors.CodeUnauthorized)
		}
	}

	httpReq, err := c.build(ctx, req, token)
	if err != nil {
		return err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return xerrors.NewNetworkError(err)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", httpReq.Method),
			zap.String("path", req.Path),
			zap.String("request_id", httpReq.Header.Get(RequestIDHeader)),
			zap.Error(err),
		)
		return xerrors.NewNetworkError(err)
	}
	defer resp.Body.Close()

	c.logger.Debug("request completed",
		zap.String("method", httpReq.Method),
		zap.String("path", req.Path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", httpReq.Header.Get(RequestIDHeader)),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := ParseError(resp)
		if resp.StatusCode == http.StatusPaymentRequired {
			apiErr.Code = xerrors.CodeSubscriptionRequired
		}
		return apiErr
	}

	if resp.StatusCode == http.StatusNoContent || out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))
		return nil
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("decode %s %s response: %w", httpReq.Method, req.Path, err)
	}
	return nil
}

func (c *Client) build(ctx context.Context, req Request, token string) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	contentType := "application/json"
	switch {
	case req.Raw != nil:
		body = req.Raw
		if req.ContentType != "" {
			contentType = req.ContentType
		}
	case req.Body != nil:
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if req.Raw != nil && req.ContentLength > 0 {
		httpReq.ContentLength = req.ContentLength
	}

	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(RequestIDHeader, ulid.Make().String())
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	return httpReq, nil
}

// ParseError turns a non-2xx response into an APIError using the
// {error, code} body when it is JSON, or a status based message otherwise.
func ParseError(resp *http.Response) *xerrors.APIError {
	fallback := fmt.Sprintf("Request failed (%d)", resp.StatusCode)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || !gjson.ValidBytes(raw) {
		return xerrors.NewAPIError(resp.StatusCode, fallback, "")
	}

	parsed := gjson.ParseBytes(raw)
	message := parsed.Get("error").String()
	if message == "" {
		message = fallback
	}
	return xerrors.NewAPIError(resp.StatusCode, message, parsed.Get("code").String())
}
