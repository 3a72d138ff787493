// internal/handlers/seller/certifications.go
package seller

import (
	"marketplace-service/internal/domain/certification"
	"marketplace-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// GetCertifications lists the certifications of vendor :id
func (h *SellerHandler) GetCertifications(c *gin.Context) {
	result, err := h.sellerService.ListCertifications(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}

// CreateCertification adds a certification to vendor :id
func (h *SellerHandler) CreateCertification(c *gin.Context) {
	var req certification.CertificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request")
		return
	}

	code, err := h.sellerService.CreateCertification(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Code(c, code)
}

// UpdateCertification edits certification :id
func (h *SellerHandler) UpdateCertification(c *gin.Context) {
	var req certification.CertificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request")
		return
	}

	code, err := h.sellerService.UpdateCertification(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Code(c, code)
}

func (h *SellerHandler) DeleteCertification(c *gin.Context) {
	code, err := h.sellerService.DeleteCertification(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Code(c, code)
}
