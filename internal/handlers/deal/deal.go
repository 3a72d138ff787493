// internal/handlers/deal/deal.go
package deal

import (
	"marketplace-service/internal/domain/deal"
	"marketplace-service/internal/pkg/response"
	service "marketplace-service/internal/service/deal"

	"github.com/gin-gonic/gin"
)

type DealHandler struct {
	dealService *service.DealService
}

func NewDealHandler(dealService *service.DealService) *DealHandler {
	return &DealHandler{
		dealService: dealService,
	}
}

func (h *DealHandler) CreateDeal(c *gin.Context) {
	var req deal.CreateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request")
		return
	}

	code, err := h.dealService.CreateDeal(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Code(c, code)
}

// UpdateDeal moves the deal along its stages or changes its quantity
func (h *DealHandler) UpdateDeal(c *gin.Context) {
	var req deal.UpdateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request")
		return
	}

	if err := h.dealService.UpdateDeal(c.Request.Context(), c.Param("id"), &req); err != nil {
		response.FromError(c, err)
		return
	}
	response.Code(c, "")
}

func (h *DealHandler) GetSellerDeals(c *gin.Context) {
	result, err := h.dealService.SellerDeals(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}

// SubmitFeedback rates the vendor of a closed deal
func (h *DealHandler) SubmitFeedback(c *gin.Context) {
	var req deal.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request")
		return
	}

	if err := h.dealService.SubmitFeedback(c.Request.Context(), &req); err != nil {
		response.FromError(c, err)
		return
	}
	response.Code(c, "")
}
