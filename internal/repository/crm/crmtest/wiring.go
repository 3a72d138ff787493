package crmtest

import (
	"time"

	"marketplace-service/internal/repository/crm"

	"go.uber.org/zap"
)

// Config returns client settings pointing at s with throwaway credentials.
func (s *Server) Config() crm.Config {
	return crm.Config{
		APIURL:       s.APIURL(),
		AuthURL:      s.AuthURL(),
		ClientID:     "client",
		ClientSecret: "secret",
		RefreshToken: "refresh",
		Timeout:      2 * time.Second,
	}
}

// Repositories returns typed modules backed by s.
func (s *Server) Repositories() *crm.Repositories {
	return crm.NewRepositories(crm.NewClient(s.Config(), zap.NewNop()))
}
