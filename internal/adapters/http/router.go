// Package http wires the gin router: the websocket endpoint, the REST
// observability surface, and the middleware stack.
package http

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coderoom/hub/internal/adapters/ws"
	"github.com/coderoom/hub/internal/config"
	"github.com/coderoom/hub/internal/hub"
)

// ClientTokenMiddleware tags every browser with a stable token cookie. The
// token is not an identity and not a connection id; it only lets logs
// correlate reconnects from the same client.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(cfg *config.Config, router *hub.Router, rooms *hub.RoomTable) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("CodeRoomSessions", store))
	r.Use(ClientTokenMiddleware())

	r.GET("/health", handleHealth)

	h := &restHandlers{rooms: rooms, cfg: cfg}
	ctrl := ws.NewController(router, cfg)

	api := r.Group("/api")
	api.GET("/ws", ctrl.Handle)
	api.GET("/rooms", h.listRooms)
	api.GET("/rooms/:id/members", h.roomMembers)
	api.GET("/rtc/config", h.rtcConfig)

	return r
}
