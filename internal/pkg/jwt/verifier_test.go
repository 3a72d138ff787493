package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, key *rsa.PrivateKey, method jwt.SigningMethod, claims *Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims() *Claims {
	now := time.Now()
	return &Claims{
		UserID:    "u1",
		Email:     "jane@acme.test",
		Role:      RoleSeller,
		AccountID: "v1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "platform",
			Audience:  []string{"marketplace"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

func TestVerifyAccessToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	v := NewVerifier(&key.PublicKey, "platform", "marketplace")

	t.Run("valid", func(t *testing.T) {
		claims, err := v.VerifyAccessToken(sign(t, key, jwt.SigningMethodRS256, validClaims()))
		require.NoError(t, err)
		assert.Equal(t, "v1", claims.AccountID)
		assert.True(t, claims.IsSeller())
	})

	t.Run("wrong issuer", func(t *testing.T) {
		c := validClaims()
		c.Issuer = "someone-else"
		_, err := v.VerifyAccessToken(sign(t, key, jwt.SigningMethodRS256, c))
		assert.Error(t, err)
	})

	t.Run("wrong audience", func(t *testing.T) {
		c := validClaims()
		c.Audience = []string{"other"}
		_, err := v.VerifyAccessToken(sign(t, key, jwt.SigningMethodRS256, c))
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		c := validClaims()
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		_, err := v.VerifyAccessToken(sign(t, key, jwt.SigningMethodRS256, c))
		assert.Error(t, err)
	})

	t.Run("within clock skew", func(t *testing.T) {
		c := validClaims()
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-10 * time.Second))
		_, err := v.VerifyAccessToken(sign(t, key, jwt.SigningMethodRS256, c))
		assert.NoError(t, err)
	})

	t.Run("expiry is required", func(t *testing.T) {
		c := validClaims()
		c.ExpiresAt = nil
		_, err := v.VerifyAccessToken(sign(t, key, jwt.SigningMethodRS256, c))
		assert.ErrorIs(t, err, jwt.ErrTokenRequiredClaimMissing)
	})

	t.Run("unknown role", func(t *testing.T) {
		c := validClaims()
		c.Role = "admin"
		_, err := v.VerifyAccessToken(sign(t, key, jwt.SigningMethodRS256, c))
		assert.ErrorIs(t, err, ErrUnknownRole)
	})

	t.Run("no account", func(t *testing.T) {
		c := validClaims()
		c.AccountID = ""
		_, err := v.VerifyAccessToken(sign(t, key, jwt.SigningMethodRS256, c))
		assert.ErrorIs(t, err, ErrNoAccount)
	})

	t.Run("issuer and audience optional", func(t *testing.T) {
		open := NewVerifier(&key.PublicKey, "", "")
		c := validClaims()
		c.Issuer, c.Audience = "anyone", nil
		_, err := open.VerifyAccessToken(sign(t, key, jwt.SigningMethodRS384, c))
		assert.NoError(t, err)
	})

	t.Run("hmac rejected", func(t *testing.T) {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims()).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = v.VerifyAccessToken(tok)
		assert.Error(t, err)
	})

	t.Run("other key", func(t *testing.T) {
		other, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		_, err = v.VerifyAccessToken(sign(t, other, jwt.SigningMethodRS256, validClaims()))
		assert.Error(t, err)
	})
}

func TestLoadVerifier(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "pub.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), 0o600))

	cfg := Config{PubPath: path, Issuer: "platform", Audience: "marketplace"}
	require.True(t, cfg.Enabled())
	v, err := LoadVerifier(cfg)
	require.NoError(t, err)

	_, err = v.VerifyAccessToken(sign(t, key, jwt.SigningMethodRS256, validClaims()))
	assert.NoError(t, err)

	_, err = ParseRSAPublicKey([]byte("not pem"))
	assert.Error(t, err)
}

func TestParseRSAPublicKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "platform"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	certDER, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	blocks := map[string][]byte{
		"pkcs1":       pem.EncodeToMemory(&pem.Block{Type: "RSA PUBLIC KEY", Bytes: x509.MarshalPKCS1PublicKey(&key.PublicKey)}),
		"certificate": pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER}),
		"bundle with leading junk": append(
			pem.EncodeToMemory(&pem.Block{Type: "EC PARAMETERS", Bytes: []byte{0x06, 0x01}}),
			pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})...,
		),
	}
	for name, data := range blocks {
		t.Run(name, func(t *testing.T) {
			pub, err := ParseRSAPublicKey(data)
			require.NoError(t, err)
			assert.True(t, key.PublicKey.Equal(pub))
		})
	}

	t.Run("no key block", func(t *testing.T) {
		_, err := ParseRSAPublicKey(pem.EncodeToMemory(&pem.Block{Type: "EC PARAMETERS", Bytes: []byte{0x06, 0x01}}))
		assert.Error(t, err)
	})
}
