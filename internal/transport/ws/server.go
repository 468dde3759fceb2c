package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	domainauth "mealvision-server/internal/domain/auth"
	"mealvision-server/internal/platform/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers cannot set Authorization headers on websocket dials, so the
	// token travels as a query parameter and origins are not restricted.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server upgrades progress stream requests and parks them in the hub.
type Server struct {
	hub    *Hub
	auth   *domainauth.Service
	logger *logging.Logger
}

func NewServer(hub *Hub, auth *domainauth.Service, logger *logging.Logger) *Server {
	return &Server{hub: hub, auth: auth, logger: logger}
}

// Register wires the websocket endpoint into the public API group. The
// endpoint authenticates itself via the token query parameter.
func (s *Server) Register(api *gin.RouterGroup) {
	api.GET("/ws/progress", s.handleProgress)
}

func (s *Server) handleProgress(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "token query parameter required"})
		return
	}

	session, err := s.auth.Resolve(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid or expired session"})
		return
	}

	socket, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.WarnTag("WS", "upgrade failed for %s: %v", session.OwnerID, err)
		return
	}

	conn := NewConnection(uuid.NewString(), session.OwnerID, socket)
	s.hub.Register(conn)
	s.logger.InfoTag("WS", "progress stream opened for %s (%d active)", session.OwnerID, s.hub.Count())

	// Reads only serve to notice the client going away.
	go func() {
		defer s.hub.Unregister(conn.ID())
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
