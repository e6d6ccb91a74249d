package hub

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/coderoom/hub/internal/domain"
)

type regEntry struct {
	name string
	room domain.RoomID
	conn SignalConnection
}

// Registry is the single source of truth for "who is where": it maps each live
// connection to its transport endpoint, display name, and current room.
// The Router is its only mutation surface.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]*regEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.ConnID]*regEntry)}
}

// Register creates an entry with no room and no name. Connection identifiers
// are transport-assigned and unique, but a collision is still an error rather
// than a silent overwrite.
func (r *Registry) Register(id domain.ConnID, conn SignalConnection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; ok {
		return domain.ErrDuplicateConnection
	}
	r.conns[id] = &regEntry{conn: conn}
	log.Debug().Str("module", "hub.registry").Str("conn", string(id)).Msg("registered")
	return nil
}

// SetRoom records the connection's room and display name. Calling it while the
// connection is already in a different room moves it; the previous room is
// returned so the caller can clean up membership there. This matches a client
// re-joining without a clean disconnect.
func (r *Registry) SetRoom(id domain.ConnID, room domain.RoomID, name string) (prev domain.RoomID, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return "", domain.ErrUnknownConnection
	}
	prev = e.room
	e.room = room
	e.name = name
	return prev, nil
}

// ClearRoom drops the room association but keeps the connection registered.
// Used for a graceful leave.
func (r *Registry) ClearRoom(id domain.ConnID) (domain.RoomID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok || e.room == "" {
		return "", false
	}
	room := e.room
	e.room = ""
	return room, true
}

// Remove deletes the entry and returns the room it was in, if any, so the
// caller can notify the remaining members. Idempotent: removing an unknown
// connection reports ok=false and does nothing.
func (r *Registry) Remove(id domain.ConnID) (room domain.RoomID, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return "", false
	}
	delete(r.conns, id)
	log.Debug().Str("module", "hub.registry").Str("conn", string(id)).Str("room", string(e.room)).Msg("removed")
	return e.room, true
}

// RoomOf returns the connection's current room, used by every handler that
// does not itself carry one.
func (r *Registry) RoomOf(id domain.ConnID) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok || e.room == "" {
		return "", false
	}
	return e.room, true
}

// Conn returns the transport endpoint for a connection, used by the signaling
// relay to address frames by connection identifier.
func (r *Registry) Conn(id domain.ConnID) (SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok {
		return nil, false
	}
	return e.conn, true
}

// Name returns the display name recorded at join time, "" before any join.
func (r *Registry) Name(id domain.ConnID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[id]; ok {
		return e.name
	}
	return ""
}
