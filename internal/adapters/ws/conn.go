package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/coderoom/hub/internal/hub"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second

	// Maximum inbound frame size. 64 KB is enough for SDP blobs.
	maxMessageSize = 64 * 1024
)

var errConnClosed = errors.New("connection closed")

// wsConn wraps one websocket with a bounded outbound queue. The queue is what
// makes delivery fire-and-forget: a stalled peer fills its own queue and gets
// kicked, it never stalls the room.
type wsConn struct {
	conn *websocket.Conn
	send chan hub.Frame

	mu     sync.RWMutex
	closed bool
}

func newWSConn(conn *websocket.Conn, queueSize int) *wsConn {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &wsConn{
		conn: conn,
		send: make(chan hub.Frame, queueSize),
	}
}

func (c *wsConn) TrySend(f hub.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errConnClosed
	}
	select {
	case c.send <- f:
	default:
		return hub.ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}
