package relay

import (
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/castlegate/gambit/internal/wire"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second
	// Send pings to the peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum inbound frame size.
	maxFrameSize = 4096
)

// Client connection states.
const (
	stateOpen int32 = iota
	stateClosing
	stateClosed
)

// Client wraps one websocket connection. The read pump decodes frames and
// hands them to the dispatcher; the write pump drains the send queue. The id
// is the client's stable roster index, which is what sessions hold on to.
type Client struct {
	id     uint64
	conn   *websocket.Conn
	send   chan []byte
	state  atomic.Int32
	logger *logrus.Logger
}

func newClient(conn *websocket.Conn, sendQueueSize int, logger *logrus.Logger) *Client {
	if sendQueueSize <= 0 {
		sendQueueSize = 256
	}
	return &Client{
		conn:   conn,
		send:   make(chan []byte, sendQueueSize),
		logger: logger,
	}
}

// trySend queues a frame for delivery. Frames for clients that are not open
// are silently skipped, and a full queue drops the frame rather than block
// the dispatcher.
func (c *Client) trySend(payload []byte) {
	if c.state.Load() != stateOpen {
		return
	}
	select {
	case c.send <- payload:
	default:
		c.logger.WithField("client", c.id).Debug("send queue full, dropping frame")
	}
}

// beginClose moves an open client into the closing state and tears the
// connection down, which unwinds both pumps. trySend refuses frames as soon
// as the state leaves open, so a closing client drops broadcasts instead of
// queueing them behind the close.
func (c *Client) beginClose() {
	if !c.state.CompareAndSwap(stateOpen, stateClosing) {
		return
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
	c.conn.Close()
}

// readPump relays inbound frames to the dispatcher until the connection
// closes, then retires the client from the roster. Session participant and
// spectator lists are left alone; broadcasts skip ids missing from the
// roster.
func (c *Client) readPump(d *Dispatcher, r *roster) {
	defer func() {
		c.state.Store(stateClosed)
		r.remove(c.id)
		c.conn.Close()
		c.logger.WithField("client", c.id).Info("client disconnected")
	}()

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.WithField("client", c.id).Warnf("read error: %v", err)
			}
			return
		}
		d.Submit(c, wire.Decode(frame))
	}
}

// writePump sends queued frames and keepalive pings until the connection
// dies. The send channel is never closed; the pump exits on write failure.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
