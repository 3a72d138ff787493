// internal/handlers/media/upload.go
package media

import (
	"marketplace-service/internal/domain/media"
	"marketplace-service/internal/pkg/response"
	service "marketplace-service/internal/service/media"

	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	mediaService *service.MediaService
}

func NewUploadHandler(mediaService *service.MediaService) *UploadHandler {
	return &UploadHandler{
		mediaService: mediaService,
	}
}

// PresignUpload hands the browser a URL to PUT the image to directly
func (h *UploadHandler) PresignUpload(c *gin.Context) {
	var req media.UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request")
		return
	}

	ticket, err := h.mediaService.PresignUpload(c.Request.Context(), media.Kind(c.Param("kind")), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, ticket)
}
