package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"

	"github.com/coderoom/hub/internal/config"
	"github.com/coderoom/hub/internal/domain"
	"github.com/coderoom/hub/internal/hub"
)

func handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

type restHandlers struct {
	rooms *hub.RoomTable
	cfg   *config.Config
}

// listRooms exposes the active rooms for monitoring. Empty rooms are deleted
// eagerly on last leave, so they can never show up here.
func (h *restHandlers) listRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.rooms.List()})
}

func (h *restHandlers) roomMembers(c *gin.Context) {
	roomID := domain.RoomID(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{
		"room":    roomID,
		"members": h.rooms.Members(roomID),
		"count":   h.rooms.Size(roomID),
	})
}

// rtcConfig hands clients the ICE servers to use for their peer connections.
// The hub brokers the handshake but never carries media; this is the only
// WebRTC-aware surface it has.
func (h *restHandlers) rtcConfig(c *gin.Context) {
	cfg := webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{URLs: h.cfg.StunServers},
		},
	}
	c.JSON(http.StatusOK, cfg)
}
