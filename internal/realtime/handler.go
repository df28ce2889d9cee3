package realtime

import (
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/ripple-app/backend/internal/auth"
	"github.com/ripple-app/backend/internal/logger"
	"go.uber.org/zap"
)

// Handler owns the WebSocket upgrade endpoint and the monitoring routes.
// Connections start unauthenticated; identity is bound either from a JWT
// presented at upgrade time or by a later "authenticate" event.
type Handler struct {
	hub  *Hub
	auth *auth.Service
}

// NewHandler creates the HTTP-facing side of the realtime layer.
func NewHandler(hub *Hub, authService *auth.Service) *Handler {
	return &Handler{hub: hub, auth: authService}
}

// HandleWebSocket upgrades the request and runs the connection pumps
// until the client goes away.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // origin checking handled by CORS config upstream
		CompressionMode:    websocket.CompressionContextTakeover,
	})
	if err != nil {
		logger.Log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(h.hub, conn)
	session := client.Session()

	// Bind identity eagerly when the client presented a valid token.
	if userID := h.tokenUserID(c); userID != "" {
		h.hub.Authenticate(session.ID, userID)
	}
	session.RemoteAddr = c.ClientIP()
	session.UserAgent = c.GetHeader("User-Agent")

	client.TrySend(mustMarshal(NewEvent("connected", map[string]interface{}{
		"sessionId":  session.ID,
		"serverTime": time.Now().UTC().UnixMilli(),
	})))

	go client.WritePump()
	client.ReadPump() // blocks until disconnect
}

// tokenUserID resolves an optional JWT from query param or Authorization
// header. Absence or invalidity is not an error at this layer.
func (h *Handler) tokenUserID(c *gin.Context) string {
	if h.auth == nil {
		return ""
	}
	token := c.Query("token")
	if token == "" {
		token = auth.BearerToken(c.GetHeader("Authorization"))
	}
	if token == "" {
		return ""
	}
	userID, err := h.auth.VerifyToken(token)
	if err != nil {
		logger.Log.Debug("websocket token rejected", zap.Error(err))
		return ""
	}
	return userID
}

// HandleMetrics reports hub statistics for monitoring.
func (h *Handler) HandleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"realtime":     h.hub.GetMetrics(),
		"online_users": h.hub.OnlineUsers(),
		"timestamp":    time.Now().UTC(),
	})
}

// HandleOnlineStatus checks which of the given users have a live session.
func (h *Handler) HandleOnlineStatus(c *gin.Context) {
	var req struct {
		UserIDs []string `json:"user_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	statuses := make(map[string]bool, len(req.UserIDs))
	for _, id := range req.UserIDs {
		statuses[id] = h.hub.IsUserOnline(id)
	}
	c.JSON(http.StatusOK, gin.H{
		"statuses":  statuses,
		"timestamp": time.Now().UTC(),
	})
}

// Hub exposes the router, mainly for wiring at startup.
func (h *Handler) Hub() *Hub {
	return h.hub
}

func mustMarshal(ev *Event) []byte {
	data, err := ev.marshal()
	if err != nil {
		logger.Log.Error("marshal welcome event", zap.Error(err))
		return []byte("{}")
	}
	return data
}
