package hub

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/coderoom/hub/internal/domain"
	"github.com/coderoom/hub/internal/protocol"
)

// Publisher forwards room-scoped frames to peer hub instances. Optional; wired
// when the Kafka bridge is enabled.
type Publisher interface {
	Publish(room domain.RoomID, f Frame)
}

// Router classifies inbound events, keeps Registry and RoomTable in agreement,
// and computes each event's delivery set. It is also the connection lifecycle
// manager: transport disconnects funnel into Disconnect, which is idempotent.
type Router struct {
	reg   *Registry
	rooms *RoomTable
	pub   Publisher
}

func NewRouter(reg *Registry, rooms *RoomTable) *Router {
	return &Router{reg: reg, rooms: rooms}
}

// SetPublisher attaches the cross-instance bridge. Must be called before the
// router starts receiving traffic.
func (rt *Router) SetPublisher(p Publisher) { rt.pub = p }

// Connect registers a new transport connection. No room yet; the client sends
// join-room when it is ready.
func (rt *Router) Connect(id domain.ConnID, conn SignalConnection) error {
	return rt.reg.Register(id, conn)
}

// Join places the connection into a room and returns the pre-join member
// snapshot, which the caller relays to the joiner as existing-members. A join
// while already in another room moves the connection: the old room gets a
// member-left notice, the new one a member-joined. The rest of the new room is
// notified here; the newcomer alone initiates the pairwise handshakes.
func (rt *Router) Join(id domain.ConnID, roomID domain.RoomID, name string) ([]domain.MemberInfo, error) {
	name = domain.ClampDisplayName(name)
	prev, err := rt.reg.SetRoom(id, roomID, name)
	if err != nil {
		return nil, err
	}
	conn, ok := rt.reg.Conn(id)
	if !ok {
		// Removed between SetRoom and here; the disconnect path owns cleanup.
		return nil, domain.ErrUnknownConnection
	}

	if prev != "" {
		rt.rooms.Leave(prev, id)
		if prev != roomID {
			rt.notifyLeft(prev, id)
		}
	}

	prior := rt.rooms.Join(roomID, id, name, conn)
	if _, ok := rt.reg.Conn(id); !ok {
		// Lost a race with a concurrent kick: the registry entry is gone, so
		// undo the membership to keep both tables in agreement.
		rt.rooms.Leave(roomID, id)
		return nil, domain.ErrUnknownConnection
	}
	log.Info().Str("module", "hub.router").Str("conn", string(id)).Str("room", string(roomID)).
		Int("existing", len(prior)).Msg("joined room")

	frame, _ := protocol.Encode(protocol.MemberJoined{Type: protocol.TypeMemberJoined, ID: id, Username: name})
	rt.relayFrame(id, roomID, false, frame, false)
	return prior, nil
}

// Leave is the graceful variant: the connection stays registered, only its
// room membership is dropped.
func (rt *Router) Leave(id domain.ConnID) (domain.RoomID, bool) {
	roomID, ok := rt.reg.ClearRoom(id)
	if !ok {
		return "", false
	}
	rt.rooms.Leave(roomID, id)
	rt.notifyLeft(roomID, id)
	log.Info().Str("module", "hub.router").Str("conn", string(id)).Str("room", string(roomID)).Msg("left room")
	return roomID, true
}

// Disconnect handles transport-level loss: remove every trace of the
// connection, then tell the room it is gone. Safe to call more than once; the
// second call finds nothing to remove and emits nothing.
func (rt *Router) Disconnect(id domain.ConnID) {
	conn, _ := rt.reg.Conn(id)
	roomID, ok := rt.reg.Remove(id)
	if !ok {
		return
	}
	if conn != nil {
		conn.Close()
	}
	if roomID != "" {
		rt.rooms.Leave(roomID, id)
		rt.notifyLeft(roomID, id)
	}
	log.Info().Str("module", "hub.router").Str("conn", string(id)).Str("room", string(roomID)).Msg("disconnected")
}

// Relay fans a frame out to a room. inclusive selects whether the sender gets
// its own event back: true for chat (canonical echo), false for collaborative
// edits and presence notices. An empty or unknown room drops the event
// silently; that is the normal case right after a room empties.
func (rt *Router) Relay(from domain.ConnID, roomID domain.RoomID, inclusive bool, frame Frame) {
	rt.relayFrame(from, roomID, inclusive, frame, true)
}

// Signal forwards an opaque handshake payload to a single target connection,
// rewritten to carry the origin. Never broadcast; never tracked. A target that
// has since disconnected drops the message with a warning, and the initiator
// learns of the departure through the member-left notice instead.
func (rt *Router) Signal(origin, target domain.ConnID, payload json.RawMessage) {
	conn, ok := rt.reg.Conn(target)
	if !ok {
		log.Warn().Str("module", "hub.router").Str("origin", string(origin)).
			Str("target", string(target)).Msg("signal target unknown, dropping")
		return
	}
	frame, _ := protocol.Encode(protocol.Signal{Type: protocol.TypeSignal, Origin: origin, Payload: payload})
	if err := conn.TrySend(Frame(frame)); err != nil {
		rt.Disconnect(target)
	}
}

// DeliverLocal fans a bridged frame from another hub instance out to the local
// members of the room. The originating sender lives on the other instance, so
// delivery here is unconditional.
func (rt *Router) DeliverLocal(roomID domain.RoomID, frame Frame) {
	rm := rt.rooms.get(roomID)
	if rm == nil {
		return
	}
	res := rm.broadcast("", true, frame)
	rt.kick(res.Dropped)
}

func (rt *Router) relayFrame(from domain.ConnID, roomID domain.RoomID, inclusive bool, frame Frame, bridge bool) {
	rm := rt.rooms.get(roomID)
	if rm == nil {
		log.Debug().Str("module", "hub.router").Str("room", string(roomID)).Msg("relay to empty room, dropped")
		return
	}
	res := rm.broadcast(from, inclusive, frame)
	rt.kick(res.Dropped)
	if bridge && rt.pub != nil {
		rt.pub.Publish(roomID, frame)
	}
}

func (rt *Router) notifyLeft(roomID domain.RoomID, id domain.ConnID) {
	frame, _ := protocol.Encode(protocol.MemberLeft{Type: protocol.TypeMemberLeft, ID: id})
	rt.relayFrame(id, roomID, false, frame, false)
}

// kick disconnects members whose outbound queue overflowed. The slow
// connection is dropped, not the room.
func (rt *Router) kick(ids []domain.ConnID) {
	for _, id := range ids {
		log.Warn().Str("module", "hub.router").Str("conn", string(id)).Msg("outbound queue overflow, kicking")
		rt.Disconnect(id)
	}
}
