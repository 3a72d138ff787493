// internal/handlers/seller/seller.go
package seller

import (
	"marketplace-service/internal/domain/vendor"
	"marketplace-service/internal/pkg/response"
	service "marketplace-service/internal/service/seller"

	"github.com/gin-gonic/gin"
)

type SellerHandler struct {
	sellerService *service.SellerService
}

func NewSellerHandler(sellerService *service.SellerService) *SellerHandler {
	return &SellerHandler{
		sellerService: sellerService,
	}
}

// ========== Profile ==========

// GetSeller merges the seller's contact with its vendor record
func (h *SellerHandler) GetSeller(c *gin.Context) {
	result, err := h.sellerService.GetSeller(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *SellerHandler) UpdateSeller(c *gin.Context) {
	var req vendor.UpdateSellerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request")
		return
	}

	if err := h.sellerService.UpdateSeller(c.Request.Context(), c.Param("id"), &req); err != nil {
		response.FromError(c, err)
		return
	}
	response.Code(c, "")
}

// ========== Directory ==========

func (h *SellerHandler) GetVendors(c *gin.Context) {
	h.respond(c, func() ([]vendor.VendorWithCertifications, error) {
		return h.sellerService.ListVendors(c.Request.Context())
	})
}

func (h *SellerHandler) SearchSellers(c *gin.Context) {
	h.respond(c, func() ([]vendor.VendorWithCertifications, error) {
		return h.sellerService.SearchSellers(c.Request.Context(), c.Param("word"))
	})
}

func (h *SellerHandler) SearchSellerRating(c *gin.Context) {
	h.respond(c, func() ([]vendor.VendorWithCertifications, error) {
		return h.sellerService.SearchSellersByRating(c.Request.Context(), c.Param("rating"))
	})
}

func (h *SellerHandler) SearchSellerCertification(c *gin.Context) {
	h.respond(c, func() ([]vendor.VendorWithCertifications, error) {
		return h.sellerService.SearchSellersByCertification(c.Request.Context(), c.Param("certificate"))
	})
}

func (h *SellerHandler) respond(c *gin.Context, fetch func() ([]vendor.VendorWithCertifications, error)) {
	result, err := fetch()
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}
