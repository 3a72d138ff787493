package crm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	xerrors "marketplace-service/internal/pkg/errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// TokenCache stores the current access token. Get returns "" on a miss.
type TokenCache interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string, ttl time.Duration) error
	Delete(ctx context.Context) error
}

// MemoryTokenCache keeps the token in process.
type MemoryTokenCache struct {
	mu      sync.Mutex
	token   string
	expires time.Time
	now     func() time.Time
}

func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{now: time.Now}
}

func (m *MemoryTokenCache) Get(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" || !m.now().Before(m.expires) {
		return "", nil
	}
	return m.token, nil
}

func (m *MemoryTokenCache) Set(_ context.Context, token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.expires = m.now().Add(ttl)
	return nil
}

func (m *MemoryTokenCache) Delete(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

// RedisTokenCache shares the token across replicas.
type RedisTokenCache struct {
	client redis.Cmdable
	key    string
}

func NewRedisTokenCache(client redis.Cmdable, key string) *RedisTokenCache {
	if key == "" {
		key = "crm:access_token"
	}
	return &RedisTokenCache{client: client, key: key}
}

func (r *RedisTokenCache) Get(ctx context.Context) (string, error) {
	tok, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return tok, err
}

func (r *RedisTokenCache) Set(ctx context.Context, token string, ttl time.Duration) error {
	return r.client.Set(ctx, r.key, token, ttl).Err()
}

func (r *RedisTokenCache) Delete(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}

// TokenSource exchanges the refresh token for access tokens and caches them.
type TokenSource struct {
	cfg    Config
	http   *http.Client
	cache  TokenCache
	logger *zap.Logger

	// refreshMu collapses concurrent refreshes into one grant.
	refreshMu sync.Mutex
}

func NewTokenSource(cfg Config, httpClient *http.Client, cache TokenCache, logger *zap.Logger) *TokenSource {
	if cache == nil {
		cache = NewMemoryTokenCache()
	}
	return &TokenSource{cfg: cfg, http: httpClient, cache: cache, logger: logger}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	Error       string `json:"error"`
}

// Token returns a cached access token or performs a refresh-token grant.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	if tok := ts.cached(ctx); tok != "" {
		return tok, nil
	}

	ts.refreshMu.Lock()
	defer ts.refreshMu.Unlock()

	if tok := ts.cached(ctx); tok != "" {
		return tok, nil
	}
	return ts.refresh(ctx)
}

// Invalidate drops the cached token after the CRM rejected it.
func (ts *TokenSource) Invalidate(ctx context.Context) {
	if err := ts.cache.Delete(ctx); err != nil {
		ts.logger.Warn("failed to drop crm token", zap.Error(err))
	}
}

func (ts *TokenSource) cached(ctx context.Context) string {
	tok, err := ts.cache.Get(ctx)
	if err != nil {
		ts.logger.Warn("crm token cache unavailable", zap.Error(err))
		return ""
	}
	return tok
}

func (ts *TokenSource) refresh(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {ts.cfg.ClientID},
		"client_secret": {ts.cfg.ClientSecret},
		"refresh_token": {ts.cfg.RefreshToken},
	}

	ctx, cancel := context.WithTimeout(ctx, ts.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.cfg.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.http.Do(req)
	if err != nil {
		return "", classifyTransport(http.MethodPost, "token", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", classifyTransport(http.MethodPost, "token", err)
	}
	if resp.StatusCode/100 != 2 {
		return "", &APIError{Method: http.MethodPost, Path: "token", Status: resp.StatusCode}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("decode token response: %w: %v", xerrors.ErrUpstream, err)
	}
	if tr.AccessToken == "" {
		ts.logger.Error("crm token grant rejected", zap.String("error", tr.Error))
		return "", fmt.Errorf("crm token grant: %w: %s", xerrors.ErrUpstream, tr.Error)
	}

	ttl := time.Duration(tr.ExpiresIn)*time.Second - tokenSkew
	if ttl <= 0 {
		ttl = time.Duration(tr.ExpiresIn) * time.Second / 2
	}
	if ttl > 0 {
		if err := ts.cache.Set(ctx, tr.AccessToken, ttl); err != nil {
			ts.logger.Warn("failed to cache crm token", zap.Error(err))
		}
	}

	ts.logger.Info("crm access token refreshed", zap.Duration("ttl", ttl))
	return tr.AccessToken, nil
}
