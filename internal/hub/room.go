package hub

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/coderoom/hub/internal/domain"
)

type member struct {
	id   domain.ConnID
	name string
	conn SignalConnection
}

// room owns one collaboration session's member set. Members are kept in
// insertion order so the pre-join snapshot handed to newcomers is
// deterministic. The mutex is held across an entire fan-out, which serializes
// event delivery per room while independent rooms proceed in parallel.
type room struct {
	id      domain.RoomID
	mu      sync.Mutex
	members []member
}

func newRoom(id domain.RoomID) *room {
	return &room{id: id}
}

// add appends the member and returns the snapshot of members present before
// this join.
func (rm *room) add(id domain.ConnID, name string, conn SignalConnection) []domain.MemberInfo {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	prior := rm.snapshotLocked()
	rm.members = append(rm.members, member{id: id, name: name, conn: conn})
	return prior
}

func (rm *room) remove(id domain.ConnID) bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	for i, m := range rm.members {
		if m.id == id {
			rm.members = append(rm.members[:i], rm.members[i+1:]...)
			return true
		}
	}
	return false
}

func (rm *room) size() int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return len(rm.members)
}

func (rm *room) snapshot() []domain.MemberInfo {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.snapshotLocked()
}

func (rm *room) snapshotLocked() []domain.MemberInfo {
	out := make([]domain.MemberInfo, 0, len(rm.members))
	for _, m := range rm.members {
		out = append(out, domain.MemberInfo{ID: m.id, Name: m.name})
	}
	return out
}

// broadcast delivers a frame to the room's members. With inclusive=false the
// originator is skipped (collaborative edits: the sender already applied its
// own change); with inclusive=true it is not (chat: the echo the sender gets
// back is the canonical copy). Delivery is TrySend only, so one stalled member
// can never hold up the rest; members whose queue overflows are reported in
// PublishResult.Dropped for the router to disconnect.
func (rm *room) broadcast(from domain.ConnID, inclusive bool, f Frame) PublishResult {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	res := PublishResult{}
	for _, m := range rm.members {
		if !inclusive && m.id == from {
			continue
		}
		if err := m.conn.TrySend(f); err != nil {
			res.Dropped = append(res.Dropped, m.id)
			continue
		}
		res.Sent++
	}
	log.Debug().Str("module", "hub.room").Str("room", string(rm.id)).Str("from", string(from)).
		Int("sent", res.Sent).Int("dropped", len(res.Dropped)).Msg("broadcast")
	return res
}
