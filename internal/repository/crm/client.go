// Package crm is the typed client for the CRM REST API.
package crm

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

	xerrors "marketplace-service/internal/pkg/errors"
	"marketplace-service/internal/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client performs authenticated, rate limited calls against the CRM.
type Client struct {
	cfg     Config
	http    *http.Client
	tokens  *TokenSource
	limiter *rate.Limiter
	logger  *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the transport, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTokenCache shares tokens through the given cache.
func WithTokenCache(cache TokenCache) Option {
	return func(c *Client) {
		c.tokens.cache = cache
	}
}

func NewClient(cfg Config, logger *zap.Logger, opts ...Option) *Client {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	c := &Client{
		cfg:     cfg,
		http:    &http.Client{},
		limiter: rate.NewLimiter(limit, cfg.Burst),
		logger:  logger.Named("crm"),
	}
	c.tokens = NewTokenSource(cfg, nil, nil, c.logger)
	for _, opt := range opts {
		opt(c)
	}
	c.tokens.http = c.http
	return c
}

// log prefers the request-scoped logger so CRM calls carry the request id.
func (c *Client) log(ctx context.Context) *zap.Logger {
	if l := logger.FromContext(ctx, nil); l != nil {
		return l.Named("crm")
	}
	return c.logger
}

type pageInfo struct {
	MoreRecords bool `json:"more_records"`
	Page        int  `json:"page"`
	PerPage     int  `json:"per_page"`
	Count       int  `json:"count"`
}

type envelope[T any] struct {
	Data []T      `json:"data"`
	Info pageInfo `json:"info"`
}

// WriteResult is the per-record outcome of a create, update or delete.
type WriteResult struct {
	Code    string `json:"code"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Details struct {
		ID string `json:"id"`
	} `json:"details"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// do sends one request. out is left untouched on 204.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) (int, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return 0, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
	}

	status, err := c.attempt(ctx, method, path, query, payload, out)
	if status == http.StatusUnauthorized {
		// Token revoked or expired early; refresh once.
		c.tokens.Invalidate(ctx)
		status, err = c.attempt(ctx, method, path, query, payload, out)
	}
	return status, err
}

func (c *Client) attempt(ctx context.Context, method, path string, query url.Values, payload []byte, out any) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		// Wait fails early when the deadline cannot fit the next slot.
		if errors.Is(ctx.Err(), context.Canceled) {
			return 0, classifyTransport(method, path, err)
		}
		return 0, fmt.Errorf("crm %s %s: %w: %v", method, path, xerrors.ErrUpstreamTimeout, err)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	endpoint := strings.TrimRight(c.cfg.APIURL, "/") + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log(ctx).Warn("crm request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err),
		)
		return 0, classifyTransport(method, path, err)
	}
	defer resp.Body.Close()

	c.log(ctx).Debug("crm request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, classifyTransport(method, path, err)
	}

	if resp.StatusCode/100 != 2 {
		apiErr := &APIError{Method: method, Path: path, Status: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(raw, &eb) == nil {
			apiErr.Code, apiErr.Message = eb.Code, eb.Message
		}
		if resp.StatusCode != http.StatusUnauthorized {
			c.log(ctx).Warn("crm returned an error",
				zap.String("method", method),
				zap.String("path", path),
				zap.Int("status", resp.StatusCode),
				zap.String("code", apiErr.Code),
			)
		}
		return resp.StatusCode, apiErr
	}

	if out != nil && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s %s: %w: %v", method, path, xerrors.ErrUpstream, err)
		}
	}
	return resp.StatusCode, nil
}

// listAll follows more_records until exhausted or MaxPages is reached.
func listAll[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	out := make([]T, 0)
	for page := 1; page <= c.cfg.MaxPages; page++ {
		q := cloneValues(query)
		q.Set("page", strconv.Itoa(page))
		q.Set("per_page", strconv.Itoa(c.cfg.PageSize))

		var env envelope[T]
		status, err := c.do(ctx, http.MethodGet, path, q, nil, &env)
		if err != nil {
			return nil, err
		}
		if status == http.StatusNoContent {
			break
		}
		out = append(out, env.Data...)
		if !env.Info.MoreRecords {
			break
		}
		if page == c.cfg.MaxPages {
			c.log(ctx).Warn("crm listing truncated", zap.String("path", path), zap.Int("pages", page))
		}
	}
	return out, nil
}

// getOne fetches a single record; an empty answer is ErrNotFound.
func getOne[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	var zero T
	var env envelope[T]
	status, err := c.do(ctx, http.MethodGet, path, query, nil, &env)
	if err != nil {
		return zero, err
	}
	if status == http.StatusNoContent || len(env.Data) == 0 {
		return zero, fmt.Errorf("crm GET %s: %w", path, xerrors.ErrNotFound)
	}
	return env.Data[0], nil
}

// write sends {"data":[record]} and returns the first per-record result.
func write(ctx context.Context, c *Client, method, path string, record any) (WriteResult, error) {
	var body any
	if record != nil {
		body = map[string]any{"data": []any{record}}
	}

	var env envelope[WriteResult]
	if _, err := c.do(ctx, method, path, nil, body, &env); err != nil {
		return WriteResult{}, err
	}
	if len(env.Data) == 0 {
		return WriteResult{}, fmt.Errorf("crm %s %s: %w: empty write result", method, path, xerrors.ErrUpstream)
	}
	return env.Data[0], nil
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v)+2)
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}

func fieldsQuery(fields []string) url.Values {
	q := url.Values{}
	if len(fields) > 0 {
		q.Set("fields", strings.Join(fields, ","))
	}
	return q
}
