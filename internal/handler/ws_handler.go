package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shareloop/service-booking/internal/realtime"
	"github.com/shareloop/service-booking/pkg/auth"
	"github.com/shareloop/service-booking/pkg/middleware"
)

// WebSocketHandler upgrades authenticated requests onto the realtime hub.
type WebSocketHandler struct {
	hub    *realtime.Hub
	logger *zap.Logger
}

func NewWebSocketHandler(hub *realtime.Hub, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, logger: logger}
}

// RegisterRoutes registers GET /ws. Browsers pass the token as ?token=.
func (h *WebSocketHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	r.GET("/ws", middleware.AuthMiddleware(jwtManager), h.Serve)
}

// Serve handles GET /ws?feed=items.
func (h *WebSocketHandler) Serve(c *gin.Context) {
	caller := middleware.GetCaller(c)
	if err := h.hub.Serve(c.Writer, c.Request, caller.UserID, c.Query("feed") == "items"); err != nil {
		// Failed handshakes are answered by the upgrader itself.
		h.logger.Warn("websocket upgrade failed", zap.String("user_id", caller.UserID.String()), zap.Error(err))
	}
}
