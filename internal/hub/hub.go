// Package hub is the room & signaling core: connection registry, room table,
// and the event router that computes fan-out sets and delivery order. It knows
// nothing about websockets; transports plug in through SignalConnection.
package hub

import (
	"errors"

	"github.com/coderoom/hub/internal/domain"
)

// Frame is one marshaled wire message.
type Frame []byte

// ErrBackpressure is returned by TrySend when a connection's outbound queue is
// full. The router reacts by disconnecting that connection, never by blocking.
var ErrBackpressure = errors.New("backpressure")

// SignalConnection abstracts a live transport endpoint.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend queues a frame without blocking.
	TrySend(Frame) error
	Close()
}

// PublishResult reports delivery stats and backpressure victims of one fan-out.
type PublishResult struct {
	Sent    int
	Dropped []domain.ConnID
}
