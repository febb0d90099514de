package websocket

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Server upgrades HTTP requests into hub clients.
type Server struct {
	Hub      *Hub
	upgrader websocket.Upgrader
}

// NewServer creates a WebSocket server with its own hub. Browser connections
// are accepted only from allowedOrigins, the same list the CORS middleware
// enforces; requests without an Origin header (non-browser clients) pass.
func NewServer(allowedOrigins []string) *Server {
	return &Server{
		Hub: NewHub(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if origin == allowed {
						return true
					}
				}
				return false
			},
		},
	}
}

// Start runs the hub loop.
func (s *Server) Start() {
	go s.Hub.Run()
	logrus.Info("WebSocket server started")
}

// Stop shuts the hub down.
func (s *Server) Stop() {
	s.Hub.Stop()
	logrus.Info("WebSocket server stopped")
}

// HandlePoolsWebSocket upgrades a connection for pool event streaming.
func (s *Server) HandlePoolsWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := NewClient(conn, s.Hub, generateClientID())
	if addr, ok := c.Get("user_address"); ok {
		client.SetAuth(addr.(string))
	}
	s.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}

// HandleWebSocketStats reports connection statistics.
func (s *Server) HandleWebSocketStats(c *gin.Context) {
	stats := s.Hub.GetStats()
	stats.ActiveConnections = s.Hub.GetClientCount()
	stats.TotalSubscriptions = s.Hub.GetSubscriptionCount()
	stats.LastUpdate = time.Now()
	c.JSON(http.StatusOK, stats)
}

func generateClientID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// RegisterRoutes mounts the WebSocket endpoints.
func (s *Server) RegisterRoutes(router *gin.Engine) {
	ws := router.Group("/ws")
	{
		ws.GET("/pools", s.HandlePoolsWebSocket)
		ws.GET("/stats", s.HandleWebSocketStats)
	}
}
