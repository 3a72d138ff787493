// internal/app/router.go
package app

import (
	"time"

	buyerHandler "marketplace-service/internal/handlers/buyer"
	dealHandler "marketplace-service/internal/handlers/deal"
	mediaHandler "marketplace-service/internal/handlers/media"
	productHandler "marketplace-service/internal/handlers/product"
	sellerHandler "marketplace-service/internal/handlers/seller"
	wsHandler "marketplace-service/internal/handlers/websocket"
	"marketplace-service/internal/middleware"
	"marketplace-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	ProductHandler *productHandler.ProductHandler
	SellerHandler  *sellerHandler.SellerHandler
	BuyerHandler   *buyerHandler.BuyerHandler
	DealHandler    *dealHandler.DealHandler
	UploadHandler  *mediaHandler.UploadHandler
	WSHandler      *wsHandler.WebSocketHandler
	Health         gin.HandlerFunc

	// nil leaves the API open, as the platform gateway authenticates callers
	AuthMiddleware *middleware.AuthMiddleware
}

type RouterOptions struct {
	BasePath       string
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// NewRouter builds the engine with the middleware stack and all routes.
func NewRouter(logger *zap.Logger, h *Handlers, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.LoggingMiddleware(logger),
		middleware.RecoveryMiddleware(logger),
		middleware.CORS(middleware.DefaultCORSConfig(opts.CORSOrigins)),
		middleware.Timeout(opts.RequestTimeout),
	)
	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "route not found")
	})

	SetupRouter(r, logger, h, opts.BasePath)
	return r
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers, basePath string) {
	api := r.Group(basePath)

	// ==================== Health Check ====================
	api.GET("/health", h.Health)
	if basePath != "" {
		r.GET("/health", h.Health)
	}

	var authed, sellers, buyers []gin.HandlerFunc
	if m := h.AuthMiddleware; m != nil {
		authed = []gin.HandlerFunc{m.Auth()}
		sellers = m.SellerOnly()
		buyers = m.BuyerOnly()
	}

	// ==================== WebSocket ====================
	api.GET("/ws", with(authed, h.WSHandler.HandleConnection)...)
	api.GET("/ws/stats", with(authed, h.WSHandler.Stats)...)

	// ==================== Buyers ====================
	api.GET("/getBuyer/:id", with(authed, h.BuyerHandler.GetBuyer)...)
	api.PUT("/buyer/:id", with(buyers, h.BuyerHandler.UpdateBuyer)...)
	api.GET("/getBuyerDeals/:id", with(authed, h.BuyerHandler.GetBuyerDeals)...)

	// ==================== Sellers ====================
	api.GET("/getSeller/:id", with(authed, h.SellerHandler.GetSeller)...)
	api.PUT("/seller/:id", with(sellers, h.SellerHandler.UpdateSeller)...)
	api.GET("/getVendors", with(authed, h.SellerHandler.GetVendors)...)
	api.GET("/searchSellers/:word", with(authed, h.SellerHandler.SearchSellers)...)
	api.GET("/searchSellerRating/:rating", with(authed, h.SellerHandler.SearchSellerRating)...)
	api.GET("/searchSellerCertification/:certificate", with(authed, h.SellerHandler.SearchSellerCertification)...)

	// ==================== Certifications ====================
	api.GET("/getSellerCertifications/:id", with(authed, h.SellerHandler.GetCertifications)...)
	api.POST("/postSellerCertifications/:id", with(sellers, h.SellerHandler.CreateCertification)...)
	api.PUT("/putSellerCertifications/:id", with(sellers, h.SellerHandler.UpdateCertification)...)
	api.DELETE("/deleteSellerCertifications/:id", with(sellers, h.SellerHandler.DeleteCertification)...)

	// ==================== Products ====================
	api.GET("/getProducts", with(authed, h.ProductHandler.GetProducts)...)
	api.GET("/getSellerProducts/:id", with(authed, h.ProductHandler.GetSellerProducts)...)
	api.POST("/postProduct", with(sellers, h.ProductHandler.CreateProduct)...)
	api.PUT("/putProduct/:id", with(sellers, h.ProductHandler.UpdateProduct)...)
	api.DELETE("/product/:id", with(sellers, h.ProductHandler.DeleteProduct)...)
	api.GET("/search/:type/:word", with(authed, h.ProductHandler.Search)...)
	api.GET("/searchRating/:rating", with(authed, h.ProductHandler.SearchRating)...)

	// ==================== Deals ====================
	api.POST("/postDeal", with(buyers, h.DealHandler.CreateDeal)...)
	api.PUT("/deal/:id", with(authed, h.DealHandler.UpdateDeal)...)
	api.GET("/getSellerDeals/:id", with(authed, h.DealHandler.GetSellerDeals)...)
	api.POST("/postFeedback", with(buyers, h.DealHandler.SubmitFeedback)...)

	// ==================== Uploads ====================
	api.POST("/uploads/:kind", with(sellers, h.UploadHandler.PresignUpload)...)

	logger.Info("routes registered", zap.String("base_path", basePath), zap.Bool("auth", h.AuthMiddleware != nil))
}

func with(chain []gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(chain)+1)
	out = append(out, chain...)
	return append(out, handler)
}
