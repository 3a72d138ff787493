// internal/pkg/response/response.go
package response

import (
	"net/http"

	xerrors "marketplace-service/internal/pkg/errors"

	"github.com/gin-gonic/gin"
)

// GenericFailure is shown for every server-side failure; the frontend toasts it verbatim.
const GenericFailure = "Internal Server Error. Please try again after sometime."

var clientFallback = map[int]string{
	http.StatusBadRequest:          "invalid request",
	http.StatusConflict:            "resource already exists",
	http.StatusUnprocessableEntity: "request cannot be applied in the current state",
}

// ErrorBody defines the failure payload. Raw upstream errors never reach it.
type ErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// CodeBody is returned by write endpoints.
type CodeBody struct {
	Code string `json:"code"`
}

// Success writes the payload as-is with 200.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Code writes the CRM result code of a write operation.
func Code(c *gin.Context, code string) {
	if code == "" {
		code = "SUCCESS"
	}
	c.JSON(http.StatusOK, CodeBody{Code: code})
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, message, kind string) {
	// Abort before writing so later handlers in the chain stay silent.
	c.Abort()
	c.JSON(status, ErrorBody{Message: message, Error: kind})
}

// ValidationError sends a 400 Bad Request response for invalid input.
func ValidationError(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message, "invalid_input")
}

// Unauthorized sends a 401 Unauthorized response.
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message, "unauthorized")
}

// NotFound sends a 404 Not Found response.
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message, "not_found")
}

// FromError translates an error chain into status, message and kind.
// Only xerrors.ClientError text is echoed; upstream errors that map onto a
// client status get a fixed message so CRM paths and codes never leak.
func FromError(c *gin.Context, err error) {
	status := xerrors.HTTPStatus(err)
	message := GenericFailure
	switch status {
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		if msg, ok := xerrors.ClientMessage(err); ok {
			message = msg
		} else {
			message = clientFallback[status]
		}
	case http.StatusNotFound:
		message = "resource not found"
	case http.StatusGatewayTimeout:
		message = "Upstream request timed out. Please retry."
	}
	Error(c, status, message, xerrors.Kind(err))
}
