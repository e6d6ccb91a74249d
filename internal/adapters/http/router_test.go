package http_test

import (
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapter "github.com/coderoom/hub/internal/adapters/http"
	"github.com/coderoom/hub/internal/config"
	"github.com/coderoom/hub/internal/domain"
	"github.com/coderoom/hub/internal/hub"
	"github.com/coderoom/hub/internal/protocol"
)

const readTimeout = 2 * time.Second

func newTestServer(t *testing.T) (*httptest.Server, *hub.RoomTable) {
	t.Helper()
	cfg := &config.Config{
		Mode:          "release",
		Secret:        "test-secret",
		ReadLimit:     65536,
		SendQueueSize: 64,
		PongWait:      60 * time.Second,
		StunServers:   []string{"stun:stun.example.org:3478"},
	}
	reg := hub.NewRegistry()
	rooms := hub.NewRoomTable()
	router := hub.NewRouter(reg, rooms)
	srv := httptest.NewServer(adapter.SetupRouter(cfg, router, rooms))
	t.Cleanup(srv.Close)
	return srv, rooms
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func send(t *testing.T, c *websocket.Conn, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, c.WriteMessage(websocket.TextMessage, b))
}

// readFrame blocks until the next frame or fails the test on timeout.
func readFrame(t *testing.T, c *websocket.Conn) (protocol.Type, []byte) {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(readTimeout)))
	_, data, err := c.ReadMessage()
	require.NoError(t, err)
	var env protocol.Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env.Type, data
}

func join(t *testing.T, c *websocket.Conn, room, name string) []domain.MemberInfo {
	t.Helper()
	send(t, c, protocol.JoinRoom{Type: protocol.TypeJoinRoom, Room: domain.RoomID(room), Username: name})
	typ, data := readFrame(t, c)
	require.Equal(t, protocol.TypeExistingMembers, typ)
	var em protocol.ExistingMembers
	require.NoError(t, json.Unmarshal(data, &em))
	return em.Members
}

func TestJoinFlowAndPresence(t *testing.T) {
	srv, rooms := newTestServer(t)

	a := dial(t, srv)
	members := join(t, a, "r", "alice")
	assert.Empty(t, members)

	b := dial(t, srv)
	members = join(t, b, "r", "bob")
	require.Len(t, members, 1)
	assert.Equal(t, "alice", members[0].Name)
	aliceID := members[0].ID

	// A is told about B exactly once.
	typ, data := readFrame(t, a)
	require.Equal(t, protocol.TypeMemberJoined, typ)
	var mj protocol.MemberJoined
	require.NoError(t, json.Unmarshal(data, &mj))
	assert.Equal(t, "bob", mj.Username)
	bobID := mj.ID
	assert.NotEqual(t, aliceID, bobID)

	assert.Equal(t, 2, rooms.Size("r"))
}

func TestChatEchoAndExclusiveEdits(t *testing.T) {
	srv, _ := newTestServer(t)

	a := dial(t, srv)
	join(t, a, "r", "alice")
	b := dial(t, srv)
	join(t, b, "r", "bob")
	readFrame(t, a) // member-joined bob

	send(t, a, protocol.ChatMessage{Type: protocol.TypeChatMessage, Room: "r", Text: "hi", Username: "alice", Time: "10:00"})

	// Inclusive fan-out: both sides, sender included, get the canonical echo.
	for _, c := range []*websocket.Conn{a, b} {
		typ, data := readFrame(t, c)
		require.Equal(t, protocol.TypeChatMessage, typ)
		var cm protocol.ChatMessage
		require.NoError(t, json.Unmarshal(data, &cm))
		assert.Equal(t, "hi", cm.Text)
		assert.Equal(t, "alice", cm.Username)
		assert.NotEmpty(t, cm.Sender)
	}

	// Exclusive fan-out: the editor's own change never comes back to it.
	send(t, a, protocol.ContentChange{Type: protocol.TypeContentChange, Room: "r", Content: "package main"})
	typ, data := readFrame(t, b)
	require.Equal(t, protocol.TypeContentUpdate, typ)
	var cu protocol.ContentUpdate
	require.NoError(t, json.Unmarshal(data, &cu))
	assert.Equal(t, "package main", cu.Content)

	// A's next frame is the pong for its ping, not a content-update echo.
	send(t, a, protocol.Ping{Type: protocol.TypePing})
	typ, _ = readFrame(t, a)
	assert.Equal(t, protocol.TypePong, typ)
}

func TestSignalRelayAndDeparture(t *testing.T) {
	srv, rooms := newTestServer(t)

	a := dial(t, srv)
	join(t, a, "r", "alice")
	b := dial(t, srv)
	existing := join(t, b, "r", "bob")
	aliceID := existing[0].ID
	_, data := readFrame(t, a) // member-joined bob
	var mj protocol.MemberJoined
	require.NoError(t, json.Unmarshal(data, &mj))
	bobID := mj.ID

	// Newcomer initiates: B signals toward A; A receives it with B as origin.
	send(t, b, protocol.Signal{Type: protocol.TypeSignal, Target: aliceID, Payload: json.RawMessage(`{"sdp":"offer"}`)})
	typ, data := readFrame(t, a)
	require.Equal(t, protocol.TypeSignal, typ)
	var sig protocol.Signal
	require.NoError(t, json.Unmarshal(data, &sig))
	assert.Equal(t, bobID, sig.Origin)
	assert.JSONEq(t, `{"sdp":"offer"}`, string(sig.Payload))

	// Abrupt disconnect of B: A gets exactly one member-left.
	require.NoError(t, b.Close())
	typ, data = readFrame(t, a)
	require.Equal(t, protocol.TypeMemberLeft, typ)
	var ml protocol.MemberLeft
	require.NoError(t, json.Unmarshal(data, &ml))
	assert.Equal(t, bobID, ml.ID)

	require.Eventually(t, func() bool { return rooms.Size("r") == 1 }, readTimeout, 10*time.Millisecond)

	// Signaling toward the departed peer is silently dropped.
	send(t, a, protocol.Signal{Type: protocol.TypeSignal, Target: bobID, Payload: json.RawMessage(`{}`)})
	send(t, a, protocol.Ping{Type: protocol.TypePing})
	typ, _ = readFrame(t, a)
	assert.Equal(t, protocol.TypePong, typ, "no error frame for a stale signal target")
}

func TestRestSurface(t *testing.T) {
	srv, _ := newTestServer(t)

	a := dial(t, srv)
	join(t, a, "r", "alice")

	resp, err := nethttp.Get(srv.URL + "/api/rooms")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"r"`)

	resp, err = nethttp.Get(srv.URL + "/api/rooms/r/members")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "alice")

	resp, err = nethttp.Get(srv.URL + "/api/rtc/config")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "stun:stun.example.org:3478")

	resp, err = nethttp.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
}
