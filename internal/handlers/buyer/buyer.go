// internal/handlers/buyer/buyer.go
package buyer

import (
	"marketplace-service/internal/domain/buyer"
	"marketplace-service/internal/pkg/response"
	service "marketplace-service/internal/service/buyer"

	"github.com/gin-gonic/gin"
)

type BuyerHandler struct {
	buyerService *service.BuyerService
}

func NewBuyerHandler(buyerService *service.BuyerService) *BuyerHandler {
	return &BuyerHandler{
		buyerService: buyerService,
	}
}

// GetBuyer merges the buyer's contact with its account
func (h *BuyerHandler) GetBuyer(c *gin.Context) {
	result, err := h.buyerService.GetBuyer(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *BuyerHandler) UpdateBuyer(c *gin.Context) {
	var req buyer.UpdateBuyerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request")
		return
	}

	if err := h.buyerService.UpdateBuyer(c.Request.Context(), c.Param("id"), &req); err != nil {
		response.FromError(c, err)
		return
	}
	response.Code(c, "")
}

// GetBuyerDeals lists deals of buyer account :id
func (h *BuyerHandler) GetBuyerDeals(c *gin.Context) {
	result, err := h.buyerService.BuyerDeals(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}
