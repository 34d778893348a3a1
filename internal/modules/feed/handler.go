package feed

import (
	"log"
	"net/http"
	"time"

	"photojournal/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict origins once the front end has a fixed host.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades authenticated clients to a websocket that streams
// entry events from the Hub.
type Handler struct {
	hub        *Hub
	jwtService *jwt.Service
	cookieName string
}

func NewHandler(hub *Hub, jwtService *jwt.Service, cookieName string) *Handler {
	return &Handler{hub: hub, jwtService: jwtService, cookieName: cookieName}
}

// HandleWebSocket serves GET /ws. Browsers cannot set headers on a
// websocket dial, so the token is taken from ?token= or the session
// cookie.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		if cookie, err := c.Cookie(h.cookieName); err == nil {
			token = cookie
		}
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
		return
	}

	claims, err := h.jwtService.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}
	userID := claims.UserID

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("feed: websocket upgrade failed: %v", err)
		return
	}

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go h.pingLoop(userID, conn)

	// The feed is one-way; the read loop only consumes control frames
	// and notices the peer going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) pingLoop(userID int64, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		if !h.hub.IsOnline(userID) {
			return
		}
		if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
			h.hub.Unregister(userID)
			return
		}
	}
}
