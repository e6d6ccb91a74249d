// Package protocol defines the wire format for all hub traffic. Every frame is
// a single JSON object with a "type" discriminator; unknown fields are ignored
// so clients and server can evolve independently.
package protocol

import (
	"encoding/json"

	"github.com/coderoom/hub/internal/domain"
)

// Type identifies what kind of frame is being sent.
type Type string

const (
	// Client → server
	TypeJoinRoom      Type = "join-room"
	TypeLeaveRoom     Type = "leave-room"
	TypeContentChange Type = "content-change"
	TypeClearCanvas   Type = "clear-canvas"
	TypePing          Type = "ping"

	// Both directions
	TypeDrawOp      Type = "draw-op"
	TypeChatMessage Type = "chat-message"
	TypeSignal      Type = "signal"

	// Server → client
	TypeExistingMembers Type = "existing-members"
	TypeMemberJoined    Type = "member-joined"
	TypeMemberLeft      Type = "member-left"
	TypeContentUpdate   Type = "content-update"
	TypePong            Type = "pong"
	TypeError           Type = "error"
)

// Envelope is the minimal decode used to dispatch an inbound frame.
type Envelope struct {
	Type Type `json:"type"`
}

// JoinRoom asks the hub to place the connection into a room. Sending it while
// already in another room moves the connection there.
type JoinRoom struct {
	Type     Type          `json:"type"`
	Room     domain.RoomID `json:"room"`
	Username string        `json:"username"`
}

// LeaveRoom leaves the current room without dropping the transport.
type LeaveRoom struct {
	Type Type `json:"type"`
}

// ContentChange carries the editor's full content to the rest of the room.
type ContentChange struct {
	Type    Type          `json:"type"`
	Room    domain.RoomID `json:"room,omitempty"`
	Content string        `json:"content"`
}

// ContentUpdate is the exclusive-fan-out echo of a ContentChange.
type ContentUpdate struct {
	Type    Type   `json:"type"`
	Content string `json:"content"`
}

// DrawOp carries one whiteboard stroke or shape. The hub never inspects Data.
// Room is set client → server only.
type DrawOp struct {
	Type Type            `json:"type"`
	Room domain.RoomID   `json:"room,omitempty"`
	Data json.RawMessage `json:"data"`
}

// ClearCanvas wipes the whiteboard for everyone else in the room.
type ClearCanvas struct {
	Type Type          `json:"type"`
	Room domain.RoomID `json:"room,omitempty"`
}

// ChatMessage is delivered to ALL room members including the sender: the echo
// the sender receives is the canonical copy, so its UI never appends locally.
// Sender is filled in by the hub on the way out.
type ChatMessage struct {
	Type     Type          `json:"type"`
	Room     domain.RoomID `json:"room,omitempty"`
	Text     string        `json:"text"`
	Username string        `json:"username"`
	Time     string        `json:"time"`
	Sender   domain.ConnID `json:"sender,omitempty"`
}

// Signal is an opaque handshake blob relayed point-to-point. Inbound it names
// a Target; outbound the hub rewrites it to carry the Origin instead. The hub
// keeps no per-pair handshake state whatsoever.
type Signal struct {
	Type    Type            `json:"type"`
	Target  domain.ConnID   `json:"target,omitempty"`
	Origin  domain.ConnID   `json:"origin,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// ExistingMembers is sent to a joiner alone: the members that were already in
// the room, in registry order. The joiner initiates a handshake toward each;
// existing members never initiate toward the newcomer.
type ExistingMembers struct {
	Type    Type                `json:"type"`
	Members []domain.MemberInfo `json:"members"`
}

// MemberJoined is the presence notice broadcast to the rest of the room.
type MemberJoined struct {
	Type     Type          `json:"type"`
	ID       domain.ConnID `json:"id"`
	Username string        `json:"username"`
}

// MemberLeft is broadcast to the remaining members of a departed peer's room.
type MemberLeft struct {
	Type Type          `json:"type"`
	ID   domain.ConnID `json:"id"`
}

// Ping/Pong are an application-level liveness probe on top of transport pings.
type Ping struct {
	Type Type `json:"type"`
}

type Pong struct {
	Type Type `json:"type"`
}

// ErrorFrame reports a protocol error to the offending connection only.
type ErrorFrame struct {
	Type  Type   `json:"type"`
	Error string `json:"error"`
}

// Encode marshals a frame for the wire.
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}
