package hub

import (
	"sync"

	"github.com/coderoom/hub/internal/domain"
)

// RoomTable maps room identifiers to their member sets. Rooms are created
// implicitly on first join and deleted eagerly when the last member leaves, so
// empty rooms never linger or show up in listings.
//
// Lock order is always table.mu before room.mu, never the reverse.
type RoomTable struct {
	mu    sync.Mutex
	rooms map[domain.RoomID]*room
}

func NewRoomTable() *RoomTable {
	return &RoomTable{rooms: make(map[domain.RoomID]*room)}
}

// Join adds the connection to the room, creating the room if needed, and
// returns the snapshot of members present before this join, in insertion
// order.
func (t *RoomTable) Join(roomID domain.RoomID, id domain.ConnID, name string, conn SignalConnection) []domain.MemberInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	rm, ok := t.rooms[roomID]
	if !ok {
		rm = newRoom(roomID)
		t.rooms[roomID] = rm
	}
	return rm.add(id, name, conn)
}

// Leave removes the connection from the room; the room entry is discarded when
// its member set becomes empty. A no-op for unknown rooms or non-members.
func (t *RoomTable) Leave(roomID domain.RoomID, id domain.ConnID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rm, ok := t.rooms[roomID]
	if !ok {
		return
	}
	rm.remove(id)
	if rm.size() == 0 {
		delete(t.rooms, roomID)
	}
}

// Members returns the current member set; an empty slice, never an error, for
// unknown rooms.
func (t *RoomTable) Members(roomID domain.RoomID) []domain.MemberInfo {
	t.mu.Lock()
	rm, ok := t.rooms[roomID]
	t.mu.Unlock()
	if !ok {
		return []domain.MemberInfo{}
	}
	return rm.snapshot()
}

// Size reports the member count, for observability only.
func (t *RoomTable) Size(roomID domain.RoomID) int {
	t.mu.Lock()
	rm, ok := t.rooms[roomID]
	t.mu.Unlock()
	if !ok {
		return 0
	}
	return rm.size()
}

// List returns the active rooms with their member counts.
func (t *RoomTable) List() []domain.RoomInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.RoomInfo, 0, len(t.rooms))
	for id, rm := range t.rooms {
		out = append(out, domain.RoomInfo{ID: id, Members: rm.size()})
	}
	return out
}

// get returns the live room, or nil. Callers fan out through room.broadcast,
// which is safe against a concurrent Leave emptying the room: broadcasting to
// an emptied room is a no-op.
func (t *RoomTable) get(roomID domain.RoomID) *room {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rooms[roomID]
}
