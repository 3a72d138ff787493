package crm

import "time"

// Config carries everything the client needs; nothing is read from the
// environment here.
type Config struct {
	APIURL       string // e.g. https://www.zohoapis.com/crm/v8
	AuthURL      string // token endpoint for the refresh-token grant
	ClientID     string
	ClientSecret string
	RefreshToken string

	Timeout   time.Duration // per upstream call
	RateLimit float64       // requests per second, <= 0 disables limiting
	Burst     int
	PageSize  int
	MaxPages  int
}

const (
	defaultTimeout  = 15 * time.Second
	defaultPageSize = 200
	defaultMaxPages = 25
	defaultBurst    = 5

	// tokenSkew is subtracted from expires_in so a token is never used at the edge.
	tokenSkew = 60 * time.Second
)

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.PageSize <= 0 || c.PageSize > defaultPageSize {
		c.PageSize = defaultPageSize
	}
	if c.MaxPages <= 0 {
		c.MaxPages = defaultMaxPages
	}
	if c.Burst <= 0 {
		c.Burst = defaultBurst
	}
	return c
}
