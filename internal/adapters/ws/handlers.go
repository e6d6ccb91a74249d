package ws

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/coderoom/hub/internal/domain"
	"github.com/coderoom/hub/internal/protocol"
)

func (ctl *Controller) handleJoin(id domain.ConnID, c *wsConn, data []byte) {
	var p protocol.JoinRoom
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" {
		log.Warn().Str("module", "ws").Str("conn", string(id)).Msg("bad join payload")
		ctl.sendError(c, "bad_payload")
		return
	}

	prior, err := ctl.Router.Join(id, p.Room, p.Username)
	if err != nil {
		ctl.sendError(c, "join_failed")
		return
	}

	// The joiner alone receives the pre-join roster and initiates a handshake
	// toward each listed member.
	ctl.sendJSON(c, protocol.ExistingMembers{Type: protocol.TypeExistingMembers, Members: prior})
}

func (ctl *Controller) handleContentChange(id domain.ConnID, c *wsConn, data []byte) {
	var p protocol.ContentChange
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" {
		ctl.sendError(c, "bad_payload")
		return
	}
	frame, _ := protocol.Encode(protocol.ContentUpdate{Type: protocol.TypeContentUpdate, Content: p.Content})
	ctl.Router.Relay(id, p.Room, false, frame)
}

func (ctl *Controller) handleDrawOp(id domain.ConnID, c *wsConn, data []byte) {
	var p protocol.DrawOp
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" {
		ctl.sendError(c, "bad_payload")
		return
	}
	frame, _ := protocol.Encode(protocol.DrawOp{Type: protocol.TypeDrawOp, Data: p.Data})
	ctl.Router.Relay(id, p.Room, false, frame)
}

func (ctl *Controller) handleClearCanvas(id domain.ConnID, c *wsConn, data []byte) {
	var p protocol.ClearCanvas
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" {
		ctl.sendError(c, "bad_payload")
		return
	}
	frame, _ := protocol.Encode(protocol.ClearCanvas{Type: protocol.TypeClearCanvas})
	ctl.Router.Relay(id, p.Room, false, frame)
}

func (ctl *Controller) handleChat(id domain.ConnID, c *wsConn, data []byte) {
	var p protocol.ChatMessage
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" {
		ctl.sendError(c, "bad_payload")
		return
	}
	// Inclusive fan-out: the sender's UI renders the echo, not a local copy.
	frame, _ := protocol.Encode(protocol.ChatMessage{
		Type:     protocol.TypeChatMessage,
		Text:     p.Text,
		Username: p.Username,
		Time:     p.Time,
		Sender:   id,
	})
	ctl.Router.Relay(id, p.Room, true, frame)
}

func (ctl *Controller) handleSignal(id domain.ConnID, c *wsConn, data []byte) {
	var p protocol.Signal
	if err := json.Unmarshal(data, &p); err != nil || p.Target == "" {
		ctl.sendError(c, "bad_payload")
		return
	}
	ctl.Router.Signal(id, p.Target, p.Payload)
}
