package http

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

const sendTimeout = 30 * time.Second

// wsTransport adapts a websocket connection to rt.Transport. The closed
// flag is the last observed state: it flips on the first failed send,
// explicit close, or read-loop exit, and never flips back.
type wsTransport struct {
	id     string
	conn   *websocket.Conn
	closed atomic.Bool
}

func newWSTransport(conn *websocket.Conn) *wsTransport {
	return &wsTransport{
		id:   uuid.NewString(),
		conn: conn,
	}
}

func (t *wsTransport) ID() string {
	return t.id
}

func (t *wsTransport) Open() bool {
	return !t.closed.Load()
}

// Send writes one event frame under a deadline. A failed or timed-out
// write marks the transport closed so the broker's next pass collects it.
func (t *wsTransport) Send(ctx context.Context, frame []byte) error {
	if t.closed.Load() {
		return net.ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := t.conn.Write(ctx, websocket.MessageText, frame); err != nil {
		t.closed.Store(true)
		return err
	}
	return nil
}

func (t *wsTransport) Close(reason string) error {
	if t.closed.Swap(true) {
		return nil
	}
	return t.conn.Close(websocket.StatusNormalClosure, reason)
}

// DisableIdleTimeout is a no-op here: the read loop already blocks
// without an idle deadline, and the send deadline stays in place so a
// stalled subscriber cannot pin fan-out goroutines.
func (t *wsTransport) DisableIdleTimeout() {}

// markClosed records that the peer side of the connection is gone without
// attempting a close handshake.
func (t *wsTransport) markClosed() {
	t.closed.Store(true)
}
