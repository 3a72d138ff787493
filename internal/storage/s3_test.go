package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(endpoint string) Config {
	return Config{
		Endpoint:     endpoint,
		AccessKey:    "access",
		SecretKey:    "secret",
		UsePathStyle: true,
	}
}

func TestNewS3ObjectStorage(t *testing.T) {
	t.Run("credentials are required", func(t *testing.T) {
		_, err := NewS3ObjectStorage(Config{AccessKey: "a"})
		assert.Error(t, err)
	})

	t.Run("default presign expiration", func(t *testing.T) {
		s, err := NewS3ObjectStorage(testConfig("localhost:9000"))
		require.NoError(t, err)
		assert.Equal(t, defaultPresignExpiration, s.PresignExpiration())
	})

	t.Run("options apply", func(t *testing.T) {
		s, err := NewS3ObjectStorage(testConfig("localhost:9000"),
			WithPresignExpiration(time.Minute),
			WithLogger(zap.NewNop()),
		)
		require.NoError(t, err)
		assert.Equal(t, time.Minute, s.PresignExpiration())
	})
}

func TestPresignPut(t *testing.T) {
	s, err := NewS3ObjectStorage(testConfig("localhost:9000"))
	require.NoError(t, err)

	_, _, err = s.PresignPut(context.Background(), "", "key", "", 0)
	assert.Error(t, err)

	raw, expiresAt, err := s.PresignPut(context.Background(), "products", "bolt_1700000000000", "image/png", 5*time.Minute)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), expiresAt, 5*time.Second)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "http", u.Scheme)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/products/bolt_1700000000000", u.Path)
	assert.Equal(t, "300", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}

func TestDelete(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, r.Method+" "+r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	s, err := NewS3ObjectStorage(testConfig(srv.URL))
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), "certificates", "iso_1700000000000"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"DELETE /certificates/iso_1700000000000"}, calls)
}
