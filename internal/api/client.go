package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	apperrors "github.com/charlesng35/storedesk/pkg/errors"
	"github.com/charlesng35/storedesk/pkg/logger"
	"github.com/charlesng35/storedesk/pkg/metrics"
)

const (
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 64 << 10
)

// TokenSource supplies the bearer token attached to every request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

// Token implements TokenSource.
func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// StaticToken returns a TokenSource that always yields token.
func StaticToken(token string) TokenSource {
	return TokenFunc(func(context.Context) (string, error) { return token, nil })
}

// Config bundles the options required to build a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  float64 // requests per second, zero disables limiting
	Burst      int
	Tokens     TokenSource
	HTTPClient *http.Client
}

// Client is the typed boundary to the StoreDesk backend.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  TokenSource
	limiter *rate.Limiter
	log     *zap.Logger
}

// New constructs a Client.
func New(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("api: base url is required")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("api: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("api: base url %q must be absolute", raw)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		baseURL: base,
		http:    httpClient,
		tokens:  cfg.Tokens,
		limiter: limiter,
		log:     logger.WithModule("api"),
	}, nil
}

// request describes a single backend call. Route is the templated path used as metrics label.
type request struct {
	method string
	route  string
	path   string
	query  url.Values
	body   any

	// anonymous requests are sent without a bearer token.
	anonymous bool
}

// Page is a single page of a paginated collection.
type Page[T any] struct {
	Data    []T  `json:"data"`
	HasMore bool `json:"has_more"`
}

type errorBody struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return apperrors.ErrRateLimit.WithInternal(err)
		}
	}

	target := c.baseURL.JoinPath(req.path)
	if len(req.query) > 0 {
		target.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("api: encode %s body: %w", req.route, err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target.String(), body)
	if err != nil {
		return fmt.Errorf("api: build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil && !req.anonymous {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return apperrors.ErrUnauthorized.WithInternal(err)
		}
		if token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.APILatency.WithLabelValues(req.method, req.route, "error").Observe(time.Since(start).Seconds())
		c.log.Debug("request failed", zap.String("method", req.method), zap.String("route", req.route), zap.Error(err))
		return apperrors.ErrNetwork.WithInternal(err)
	}
	defer resp.Body.Close()
	metrics.APILatency.WithLabelValues(req.method, req.route, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperrors.ErrInternalServer.WithInternal(fmt.Errorf("api: decode %s response: %w", req.route, err))
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var parsed errorBody
	var code, message string
	if len(raw) > 0 && json.Unmarshal(raw, &parsed) == nil {
		switch {
		case parsed.Error != nil:
			code, message = parsed.Error.Code, parsed.Error.Message
		case parsed.Message != "":
			message = parsed.Message
		default:
			message = parsed.Detail
		}
	}
	return apperrors.FromStatus(resp.StatusCode, code, message)
}

func setIf(values url.Values, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		values.Set(key, value)
	}
}

func idPath(prefix, id string, suffix ...string) string {
	parts := append([]string{prefix, url.PathEscape(id)}, suffix...)
	return strings.Join(parts, "/")
}
