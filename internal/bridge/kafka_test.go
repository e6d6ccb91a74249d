package bridge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coderoom/hub/internal/hub"
)

// stubConn records frames delivered to a local member.
type stubConn struct{ frames []hub.Frame }

func (s *stubConn) TrySend(f hub.Frame) error { s.frames = append(s.frames, f); return nil }
func (s *stubConn) Close()                    {}

func newLocalHub(t *testing.T) (*hub.Router, *stubConn) {
	t.Helper()
	reg := hub.NewRegistry()
	rooms := hub.NewRoomTable()
	router := hub.NewRouter(reg, rooms)
	conn := &stubConn{}
	require.NoError(t, router.Connect("local", conn))
	_, err := router.Join("local", "r", "local")
	require.NoError(t, err)
	return router, conn
}

func TestHandleDeliversPeerFrames(t *testing.T) {
	router, conn := newLocalHub(t)
	b := &Bridge{instance: "me", router: router}
	before := len(conn.frames)

	payload, err := json.Marshal(Envelope{
		Instance: "peer",
		Room:     "r",
		Frame:    json.RawMessage(`{"type":"chat-message","text":"hi"}`),
	})
	require.NoError(t, err)
	b.handle(payload)

	require.Len(t, conn.frames, before+1)
	assert.JSONEq(t, `{"type":"chat-message","text":"hi"}`, string(conn.frames[len(conn.frames)-1]))
}

func TestHandleSkipsOwnInstance(t *testing.T) {
	router, conn := newLocalHub(t)
	b := &Bridge{instance: "me", router: router}
	before := len(conn.frames)

	payload, err := json.Marshal(Envelope{Instance: "me", Room: "r", Frame: json.RawMessage(`{}`)})
	require.NoError(t, err)
	b.handle(payload)

	assert.Len(t, conn.frames, before, "own records must not loop back")
}

func TestHandleUnknownRoomIsNoop(t *testing.T) {
	router, _ := newLocalHub(t)
	b := &Bridge{instance: "me", router: router}
	payload, err := json.Marshal(Envelope{Instance: "peer", Room: "elsewhere", Frame: json.RawMessage(`{}`)})
	require.NoError(t, err)
	b.handle(payload) // must not panic

	b.handle([]byte("not json")) // malformed records are dropped
}
