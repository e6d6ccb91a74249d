// Package ws is the websocket transport adapter: it upgrades connections,
// runs the read/write pumps, and dispatches inbound frames into the hub.
package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/coderoom/hub/internal/config"
	"github.com/coderoom/hub/internal/domain"
	"github.com/coderoom/hub/internal/hub"
	"github.com/coderoom/hub/internal/protocol"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Controller struct {
	Router *hub.Router
	cfg    *config.Config
}

func NewController(router *hub.Router, cfg *config.Config) *Controller {
	return &Controller{Router: router, cfg: cfg}
}

// Handle upgrades the request and registers the connection with the hub. The
// connection identifier is assigned here, once, for the transport's lifetime.
func (ctl *Controller) Handle(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("upgrade failed")
		return
	}

	id := domain.ConnID(uuid.NewString())
	conn := newWSConn(ws, ctl.cfg.SendQueueSize)

	if err := ctl.Router.Connect(id, conn); err != nil {
		log.Error().Err(err).Str("module", "ws").Str("conn", string(id)).Msg("register failed")
		conn.Close()
		return
	}
	log.Info().Str("module", "ws").Str("conn", string(id)).Msg("connected")

	go ctl.writePump(conn)
	go ctl.readPump(id, conn)
}

func (ctl *Controller) pongWait() time.Duration {
	if ctl.cfg.PongWait > 0 {
		return ctl.cfg.PongWait
	}
	return 60 * time.Second
}

// readPump owns all reads on the connection. When it returns, for whatever
// reason, the connection is treated as disconnected.
func (ctl *Controller) readPump(id domain.ConnID, c *wsConn) {
	defer func() {
		log.Info().Str("module", "ws").Str("conn", string(id)).Msg("read pump closing")
		ctl.Router.Disconnect(id)
	}()

	pongWait := ctl.pongWait()
	limit := ctl.cfg.ReadLimit
	if limit <= 0 {
		limit = maxMessageSize
	}
	c.conn.SetReadLimit(limit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "ws").Str("conn", string(id)).Msg("read error")
			}
			return
		}
		ctl.handleFrame(id, c, data)
	}
}

// writePump owns all writes on the connection: queued frames plus periodic
// transport pings.
func (ctl *Controller) writePump(c *wsConn) {
	pingPeriod := ctl.pongWait() * 9 / 10
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "ws").Msg("write error")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleFrame classifies one inbound frame. Malformed frames are answered with
// an error frame to the offender only and otherwise dropped; they never reach
// the room and never crash the hub.
func (ctl *Controller) handleFrame(id domain.ConnID, c *wsConn, data []byte) {
	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "ws").Str("conn", string(id)).Msg("bad json")
		ctl.sendError(c, "bad_payload")
		return
	}

	switch env.Type {
	case protocol.TypeJoinRoom:
		ctl.handleJoin(id, c, data)
	case protocol.TypeLeaveRoom:
		ctl.Router.Leave(id)
	case protocol.TypeContentChange:
		ctl.handleContentChange(id, c, data)
	case protocol.TypeDrawOp:
		ctl.handleDrawOp(id, c, data)
	case protocol.TypeClearCanvas:
		ctl.handleClearCanvas(id, c, data)
	case protocol.TypeChatMessage:
		ctl.handleChat(id, c, data)
	case protocol.TypeSignal:
		ctl.handleSignal(id, c, data)
	case protocol.TypePing:
		ctl.sendJSON(c, protocol.Pong{Type: protocol.TypePong})
	default:
		log.Warn().Str("module", "ws").Str("type", string(env.Type)).Msg("unknown frame type")
	}
}

func (ctl *Controller) sendJSON(c *wsConn, v any) {
	b, err := protocol.Encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("encode")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *Controller) sendError(c *wsConn, msg string) {
	ctl.sendJSON(c, protocol.ErrorFrame{Type: protocol.TypeError, Error: msg})
}
