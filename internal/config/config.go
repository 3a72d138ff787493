package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"marketplace-service/internal/db"
	"marketplace-service/internal/pkg/jwt"
	"marketplace-service/internal/repository/crm"
	"marketplace-service/internal/storage"
)

const DefaultBasePath = "/server/b2b_backend_function"

type AppConfig struct {
	// Server
	HTTPAddr       string
	BasePath       string
	Env            string
	CORSOrigins    []string
	RequestTimeout time.Duration

	// CRM
	CRM crm.Config

	// Optional subsystems, disabled when their address is empty
	Redis    db.RedisConfig
	Postgres db.PostgresConfig
	Storage  StorageConfig
	JWT      jwt.Config

	// Lease of the Redis locks; see LockLease
	LockTTL time.Duration
}

// lockMargin is added on top of the longest critical section.
const lockMargin = 5 * time.Second

// LockLease returns LOCK_TTL raised to outlast the longest critical section:
// three sequential CRM calls, or the whole request when that is longer.
func (c AppConfig) LockLease() time.Duration {
	bound := 3 * c.CRM.Timeout
	if c.RequestTimeout > bound {
		bound = c.RequestTimeout
	}
	if floor := bound + lockMargin; c.LockTTL < floor {
		return floor
	}
	return c.LockTTL
}

type StorageConfig struct {
	S3 storage.Config

	ProductsBucket          string
	ProductsPublicURL       string
	CertificationsBucket    string
	CertificationsPublicURL string
}

func (s StorageConfig) Enabled() bool {
	return s.S3.AccessKey != "" && s.S3.SecretKey != ""
}

// PublicURL returns explicit, or the path-style endpoint URL of bucket when unset.
func (s StorageConfig) PublicURL(explicit, bucket string) string {
	if explicit != "" || s.S3.Endpoint == "" {
		return explicit
	}
	endpoint := strings.TrimRight(s.S3.Endpoint, "/")
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if s.S3.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	return endpoint + "/" + bucket
}

func (c AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// Load loads environment variables into AppConfig.
func Load() AppConfig {
	return AppConfig{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8000"),
		BasePath:       strings.TrimSuffix(getEnv("BASE_PATH", DefaultBasePath), "/"),
		Env:            getEnv("APP_ENV", "production"),
		CORSOrigins:    getEnvSlice("CORS_ORIGINS", []string{"*"}),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 20*time.Second),

		CRM: crm.Config{
			APIURL:       getEnv("CRM_API_URL", "https://www.zohoapis.com/crm/v8"),
			AuthURL:      getEnv("CRM_AUTH_URL", "https://accounts.zoho.com/oauth/v2/token"),
			ClientID:     getEnv("CLIENTID", ""),
			ClientSecret: getEnv("CLIENT_SECRET", ""),
			RefreshToken: getEnv("REFRESH_TOKEN", ""),
			Timeout:      getEnvDuration("CRM_TIMEOUT", 15*time.Second),
			RateLimit:    getEnvFloat("CRM_RATE_LIMIT", 10),
			PageSize:     getEnvInt("CRM_PAGE_SIZE", 200),
			MaxPages:     getEnvInt("CRM_MAX_PAGES", 25),
		},

		Redis: db.RedisConfig{
			ClusterMode: getEnvBool("REDIS_CLUSTER", false),
			Addresses:   getEnvSlice("REDIS_ADDR", nil),
			Password:    getEnv("REDIS_PASS", ""),
			DB:          getEnvInt("REDIS_DB", 0),
			PoolSize:    getEnvInt("REDIS_POOL_SIZE", 10),
		},
		LockTTL: getEnvDuration("LOCK_TTL", 0),

		Postgres: db.PostgresConfig{
			URL:      getEnv("DATABASE_URL", ""),
			MaxConns: int32(getEnvInt("DATABASE_MAX_CONNS", 5)),
		},

		Storage: StorageConfig{
			S3: storage.Config{
				Endpoint:          getEnv("STORAGE_ENDPOINT", ""),
				Region:            getEnv("STORAGE_REGION", "us-east-1"),
				AccessKey:         getEnv("STORAGE_ACCESS_KEY", ""),
				SecretKey:         getEnv("STORAGE_SECRET_KEY", ""),
				UseSSL:            getEnvBool("STORAGE_USE_SSL", true),
				UsePathStyle:      getEnvBool("STORAGE_PATH_STYLE", false),
				PresignExpiration: getEnvDuration("STORAGE_PRESIGN_EXPIRY", 15*time.Minute),
			},
			ProductsBucket:          getEnv("STORAGE_PRODUCTS_BUCKET", "products"),
			ProductsPublicURL:       getEnv("STORAGE_PRODUCTS_PUBLIC_URL", ""),
			CertificationsBucket:    getEnv("STORAGE_CERTIFICATIONS_BUCKET", "certifications"),
			CertificationsPublicURL: getEnv("STORAGE_CERTIFICATIONS_PUBLIC_URL", ""),
		},

		JWT: jwt.Config{
			PubPath:  getEnv("JWT_PUBLIC_KEY_PATH", ""),
			Issuer:   getEnv("JWT_ISSUER", ""),
			Audience: getEnv("JWT_AUDIENCE", ""),
		},
	}
}

// --- Helper functions ---

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

// getEnvDuration accepts Go durations ("20s") or plain seconds ("20").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
