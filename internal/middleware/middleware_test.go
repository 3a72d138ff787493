package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketplace-service/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVerifier map[string]*jwt.Claims

func (s stubVerifier) VerifyAccessToken(token string) (*jwt.Claims, error) {
	if c, ok := s[token]; ok {
		return c, nil
	}
	return nil, errors.New("bad token")
}

func serve(r *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[http.CanonicalHeaderKey(k)] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	m := NewAuthMiddleware(stubVerifier{
		"seller-token": {UserID: "u1", AccountID: "v1", Role: jwt.RoleSeller},
		"buyer-token":  {UserID: "u2", AccountID: "a1", Role: jwt.RoleBuyer},
	})

	r := gin.New()
	r.GET("/any", m.Auth(), func(c *gin.Context) {
		c.String(http.StatusOK, GetAccountID(c)+"/"+GetUserID(c))
	})
	r.POST("/seller", append(m.SellerOnly(), func(c *gin.Context) { c.Status(http.StatusOK) })...)

	t.Run("missing token", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/any", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"message":"missing authorization token","error":"unauthorized"}`, w.Body.String())
	})

	t.Run("invalid token", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/any", http.Header{"Authorization": {"Bearer nope"}})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("header token", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/any", http.Header{"Authorization": {"Bearer seller-token"}})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "v1/u1", w.Body.String())
	})

	t.Run("query token", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/any?token=buyer-token", nil)
		assert.Equal(t, "a1/u2", w.Body.String())
	})

	t.Run("role enforced", func(t *testing.T) {
		w := serve(r, http.MethodPost, "/seller", http.Header{"Authorization": {"Bearer buyer-token"}})
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = serve(r, http.MethodPost, "/seller", http.Header{"Authorization": {"Bearer seller-token"}})
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRequestIDAndLogging(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(RequestID(), LoggingMiddleware(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) {
		Logger(c, zap.NewNop()).Info("inside")
		c.Status(http.StatusOK)
	})
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	w := serve(r, http.MethodGet, "/ok", http.Header{HeaderRequestID: {"req-1"}})
	assert.Equal(t, "req-1", w.Header().Get(HeaderRequestID))

	w = serve(r, http.MethodGet, "/ok", nil)
	assert.Len(t, w.Header().Get(HeaderRequestID), 26, "ulid")

	serve(r, http.MethodGet, "/boom", nil)

	inside := logs.FilterMessage("inside").All()
	require.Len(t, inside, 2)
	assert.Equal(t, "req-1", inside[0].ContextMap()["request_id"])

	served := logs.FilterMessage("request served").All()
	require.Len(t, served, 2)
	assert.Equal(t, int64(http.StatusOK), served[0].ContextMap()["status"])
	assert.Equal(t, 1, logs.FilterMessage("request failed").Len())
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	r := gin.New()
	r.Use(RecoveryMiddleware(zap.New(core)))
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	w := serve(r, http.MethodGet, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"Internal Server Error. Please try again after sometime.","error":"internal_error"}`, w.Body.String())
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS(DefaultCORSConfig([]string{"https://shop.test"})))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodOptions, "/x", http.Header{"Origin": {"https://shop.test"}})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://shop.test", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")

	w = serve(r, http.MethodGet, "/x", http.Header{"Origin": {"https://evil.test"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	wild := gin.New()
	wild.Use(CORS(DefaultCORSConfig([]string{"*"})))
	wild.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	w = serve(wild, http.MethodGet, "/x", http.Header{"Origin": {"https://any.test"}})
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(20 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) {
		select {
		case <-c.Request.Context().Done():
			c.Status(http.StatusGatewayTimeout)
		case <-time.After(time.Second):
			c.Status(http.StatusOK)
		}
	})

	w := serve(r, http.MethodGet, "/slow", nil)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}
