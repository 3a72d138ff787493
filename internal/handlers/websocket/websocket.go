// internal/handlers/websocket/websocket.go
package handlers

import (
	"net/http"
	"slices"

	"marketplace-service/internal/middleware"
	"marketplace-service/internal/pkg/response"
	ws "marketplace-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWebSocketHandler accepts upgrades from the given origins; empty or "*" allows any.
func NewWebSocketHandler(hub *ws.Hub, origins []string, logger *zap.Logger) *WebSocketHandler {
	anyOrigin := len(origins) == 0 || slices.Contains(origins, "*")
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return anyOrigin || origin == "" || slices.Contains(origins, origin)
			},
		},
		logger: logger,
	}
}

// HandleConnection subscribes the caller to deal events of one account.
// With auth enabled the account comes from the token; ?account= must agree.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	accountID := c.Query("account")
	if middleware.IsAuthenticated(c) {
		tokenAccount := middleware.GetAccountID(c)
		if accountID != "" && accountID != tokenAccount {
			response.Error(c, http.StatusForbidden, ws.ErrAccountMismatch.Error(), "forbidden")
			return
		}
		accountID = tokenAccount
	}
	if accountID == "" {
		response.ValidationError(c, ws.ErrMissingAccount.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			zap.Error(err),
			zap.String("ip", c.ClientIP()),
		)
		return
	}

	client := ws.NewClient(h.hub, conn, accountID, middleware.GetRole(c))
	if err := h.hub.Register(client); err != nil {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, err.Error()))
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

// Stats reports open connections
func (h *WebSocketHandler) Stats(c *gin.Context) {
	response.Success(c, gin.H{
		"total_connections": h.hub.TotalClients(),
	})
}
