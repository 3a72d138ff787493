// internal/pkg/jwt/claims.go
package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
)

// Claims represents the platform-issued access token claims
type Claims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role"`       // buyer or seller
	AccountID string `json:"account_id"` // CRM Accounts id for buyers, Vendors id for sellers
	jwt.RegisteredClaims
}

// HasRole checks if the claims carry the given role
func (c *Claims) HasRole(role string) bool {
	return c.Role == role
}

func (c *Claims) IsSeller() bool {
	return c.HasRole(RoleSeller)
}
