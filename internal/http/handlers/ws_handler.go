package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Magpiefelt/Hockey-app-sub001/internal/http/handlers/common"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/logger"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/models"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/service"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin проверяется CORS middleware до апгрейда.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler подключает админку к каналу событий в реальном времени.
type WSHandler struct {
	hub    *ws.Hub
	tokens *service.TokenManager
}

// NewWSHandler создаёт новый хэндлер.
func NewWSHandler(hub *ws.Hub, tokens *service.TokenManager) *WSHandler {
	return &WSHandler{hub: hub, tokens: tokens}
}

// Connect обрабатывает GET /admin/ws. Токен передаётся query-параметром,
// так как браузерный WebSocket не умеет выставлять заголовки.
func (h *WSHandler) Connect(c *gin.Context) {
	raw := c.Query("token")
	userID, role, err := h.tokens.ParseAccess(raw)
	if err != nil || userID == uuid.Nil {
		common.RespondUnauthorized(c, "токен невалиден")
		return
	}
	if role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "недостаточно прав"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if logger.Log != nil {
			logger.Log.WithError(err).Warn("ws: upgrade failed")
		}
		return
	}

	ws.NewClient(h.hub, conn)
}
