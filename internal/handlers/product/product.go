// internal/handlers/product/product.go
package product

import (
	"marketplace-service/internal/domain/product"
	"marketplace-service/internal/pkg/response"
	service "marketplace-service/internal/service/catalog"

	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	catalogService *service.CatalogService
}

func NewProductHandler(catalogService *service.CatalogService) *ProductHandler {
	return &ProductHandler{
		catalogService: catalogService,
	}
}

// GetProducts returns every product enriched with its seller
func (h *ProductHandler) GetProducts(c *gin.Context) {
	result, err := h.catalogService.ListProducts(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}

// Search handles /search/:type/:word where type is category or word
func (h *ProductHandler) Search(c *gin.Context) {
	result, err := h.catalogService.SearchProducts(c.Request.Context(), c.Param("type"), c.Param("word"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *ProductHandler) SearchRating(c *gin.Context) {
	result, err := h.catalogService.SearchProductsByRating(c.Request.Context(), c.Param("rating"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}

// GetSellerProducts lists the products of one vendor, unenriched
func (h *ProductHandler) GetSellerProducts(c *gin.Context) {
	result, err := h.catalogService.SellerProducts(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req product.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request")
		return
	}

	code, err := h.catalogService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Code(c, code)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var req product.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request")
		return
	}

	if err := h.catalogService.UpdateProduct(c.Request.Context(), c.Param("id"), &req); err != nil {
		response.FromError(c, err)
		return
	}
	response.Code(c, "")
}

// DeleteProduct removes the product and, when the body names one, its image
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	var req product.DeleteProductRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ValidationError(c, "invalid request")
			return
		}
	}

	if err := h.catalogService.DeleteProduct(c.Request.Context(), c.Param("id"), req.FileURL); err != nil {
		response.FromError(c, err)
		return
	}
	response.Code(c, "")
}
