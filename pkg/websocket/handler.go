package websocket

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type HandlerConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	PingInterval    time.Duration
	PongTimeout     time.Duration
	AllowedOrigins  []string
}

type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	config   HandlerConfig
}

func NewHandler(hub *Hub, config HandlerConfig) *Handler {
	h := &Handler{
		hub:    hub,
		config: config,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  config.ReadBufferSize,
		WriteBufferSize: config.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// HandleWebSocket expects the auth middleware to have stored user_id and user_role.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	userID, ok := c.Get("user_id")
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": gin.H{"code": "UNAUTHORIZED", "message": "authentication required"}})
		return
	}
	oid, ok := userID.(primitive.ObjectID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": gin.H{"code": "UNAUTHORIZED", "message": "invalid user"}})
		return
	}
	role := c.GetString("user_role")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := NewClient(h.hub, conn, oid.Hex(), role, h.config.PingInterval, h.config.PongTimeout)
	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.config.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.config.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
