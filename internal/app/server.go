// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"marketplace-service/internal/config"
	"marketplace-service/internal/db"
	"marketplace-service/internal/domain/media"
	buyerHandler "marketplace-service/internal/handlers/buyer"
	dealHandler "marketplace-service/internal/handlers/deal"
	mediaHandler "marketplace-service/internal/handlers/media"
	productHandler "marketplace-service/internal/handlers/product"
	sellerHandler "marketplace-service/internal/handlers/seller"
	wsHandler "marketplace-service/internal/handlers/websocket"
	"marketplace-service/internal/middleware"
	"marketplace-service/internal/pkg/jwt"
	"marketplace-service/internal/pkg/lock"
	"marketplace-service/internal/repository/crm"
	"marketplace-service/internal/repository/postgres"
	buyerUsecase "marketplace-service/internal/service/buyer"
	catalogUsecase "marketplace-service/internal/service/catalog"
	dealUsecase "marketplace-service/internal/service/deal"
	mediaUsecase "marketplace-service/internal/service/media"
	sellerUsecase "marketplace-service/internal/service/seller"
	"marketplace-service/internal/storage"
	"marketplace-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const crmTokenKey = "crm:access_token"

type Server struct {
	cfg    config.AppConfig
	logger *zap.Logger
	http   *http.Server

	stopHub context.CancelFunc
	closers []func()
}

func NewServer(cfg config.AppConfig, logger *zap.Logger) *Server {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	return &Server{cfg: cfg, logger: logger}
}

// Init connects the optional backends and builds the HTTP server.
func (s *Server) Init(ctx context.Context) error {
	checks := map[string]HealthCheck{}

	// ----- Redis (optional) -----
	var redisClient redis.UniversalClient
	if len(s.cfg.Redis.Addresses) > 0 {
		client, err := db.NewRedis(s.cfg.Redis)
		if err != nil {
			return err
		}
		redisClient = client
		s.closers = append(s.closers, func() { _ = client.Close() })
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		s.logger.Info("redis connected", zap.Strings("addresses", s.cfg.Redis.Addresses))
	}

	// ----- CRM -----
	var crmOpts []crm.Option
	var locker lock.Locker = lock.NewLocalLocker()
	if redisClient != nil {
		crmOpts = append(crmOpts, crm.WithTokenCache(crm.NewRedisTokenCache(redisClient, crmTokenKey)))
		locker = lock.NewRedisLocker(redisClient, s.cfg.LockLease(), s.logger)
	}
	repos := crm.NewRepositories(crm.NewClient(s.cfg.CRM, s.logger, crmOpts...))

	// ----- WebSocket Hub -----
	hub := websocket.NewHub(s.logger)
	hubCtx, stopHub := context.WithCancel(context.Background())
	s.stopHub = stopHub
	go hub.Run(hubCtx)

	dealOpts := []dealUsecase.Option{dealUsecase.WithEventPublisher(hub)}

	// ----- PostgreSQL (optional) -----
	if s.cfg.Postgres.URL != "" {
		pool, err := db.ConnectDB(ctx, s.cfg.Postgres)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, pool.Close)
		checks["postgres"] = pool.Ping

		ledger := postgres.NewFeedbackRepository(pool)
		if err := ledger.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("failed to prepare feedback ledger: %w", err)
		}
		dealOpts = append(dealOpts, dealUsecase.WithFeedbackLedger(ledger))
		s.logger.Info("postgres connected, duplicate feedback is rejected")
	}

	// ----- Object storage (optional) -----
	var objects mediaUsecase.ObjectStore
	if s.cfg.Storage.Enabled() {
		store, err := storage.NewS3ObjectStorage(s.cfg.Storage.S3, storage.WithLogger(s.logger))
		if err != nil {
			return err
		}
		objects = store
	} else {
		s.logger.Warn("object storage not configured, image uploads and deletes are disabled")
	}
	st := s.cfg.Storage
	mediaService := mediaUsecase.NewMediaService(objects, map[media.Kind]mediaUsecase.Bucket{
		media.KindProducts: {
			Name:      st.ProductsBucket,
			PublicURL: st.PublicURL(st.ProductsPublicURL, st.ProductsBucket),
		},
		media.KindCertifications: {
			Name:      st.CertificationsBucket,
			PublicURL: st.PublicURL(st.CertificationsPublicURL, st.CertificationsBucket),
		},
	}, s.logger)

	// ----- JWT (optional) -----
	var authMiddleware *middleware.AuthMiddleware
	if s.cfg.JWT.Enabled() {
		verifier, err := jwt.LoadVerifier(s.cfg.JWT)
		if err != nil {
			return err
		}
		authMiddleware = middleware.NewAuthMiddleware(verifier)
	}

	// ----- Services (Usecases) -----
	catalogService := catalogUsecase.NewCatalogService(repos.Products, repos.Vendors, repos.Certifications, mediaService, s.logger)
	sellerService := sellerUsecase.NewSellerService(repos.Contacts, repos.Vendors, repos.Certifications, s.logger)
	buyerService := buyerUsecase.NewBuyerService(repos.Contacts, repos.Accounts, repos.Deals, s.logger)
	dealService := dealUsecase.NewDealService(repos.Deals, repos.Vendors, locker, s.logger, dealOpts...)

	// ----- Handlers -----
	handlers := &Handlers{
		ProductHandler: productHandler.NewProductHandler(catalogService),
		SellerHandler:  sellerHandler.NewSellerHandler(sellerService),
		BuyerHandler:   buyerHandler.NewBuyerHandler(buyerService),
		DealHandler:    dealHandler.NewDealHandler(dealService),
		UploadHandler:  mediaHandler.NewUploadHandler(mediaService),
		WSHandler:      wsHandler.NewWebSocketHandler(hub, s.cfg.CORSOrigins, s.logger),
		Health:         healthHandler(checks, s.logger),
		AuthMiddleware: authMiddleware,
	}

	engine := NewRouter(s.logger, handlers, RouterOptions{
		BasePath:       s.cfg.BasePath,
		CORSOrigins:    s.cfg.CORSOrigins,
		RequestTimeout: s.cfg.RequestTimeout,
	})

	s.http = &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// Run blocks serving HTTP until Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info("http server listening", zap.String("addr", s.cfg.HTTPAddr), zap.String("base_path", s.cfg.BasePath))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then stops the hub and closes backends.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.http != nil {
		err = s.http.Shutdown(ctx)
	}
	if s.stopHub != nil {
		s.stopHub()
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	return err
}
