package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// wsSendBufferSize must exceed the replay snapshot (activity ring
	// plus status keys plus counters) so registration never overflows
	// a fresh client's queue.
	wsSendBufferSize = 512

	// wsWriteTimeout bounds a single frame write.
	wsWriteTimeout = 10 * time.Second

	// wsPingInterval is how often the server pings idle clients.
	wsPingInterval = 30 * time.Second

	// wsPongTimeout is how long a client may stay silent before the
	// connection is considered dead.
	wsPongTimeout = 60 * time.Second

	// wsMaxMessageSize caps inbound frames. The stream is one-way, so
	// anything beyond a control frame is a misbehaving client.
	wsMaxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Read-only stream on a site-local service; dashboards are
		// served from other hosts on the same network.
		return true
	},
}

// wsClient is one websocket connection fed by the hub.
type wsClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// handleEvents upgrades the connection and streams gateway events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &wsClient{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, wsSendBufferSize),
	}

	s.hub.register(client)
	s.logger.Info("websocket client connected", "remote", conn.RemoteAddr().String())

	go client.writePump()
	go client.readPump()
}

// trySend queues a frame without blocking. A nil frame is ignored.
// Callers hold the hub lock, which is what makes the queue-or-fail
// check race-free against channel close.
func (c *wsClient) trySend(data []byte) bool {
	if data == nil {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// readPump discards inbound frames until the connection dies. The
// stream is one-way, but reading is still required so close and pong
// control frames are processed.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister(c)
		//nolint:errcheck // connection is being discarded
		c.conn.Close()
	}()

	c.conn.SetReadLimit(wsMaxMessageSize)
	//nolint:errcheck // deadline errors surface via ReadMessage
	c.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump drains the send queue onto the wire and pings the client
// while the queue is idle.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		//nolint:errcheck // connection is being discarded
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// The hub dropped or closed this client.
				//nolint:errcheck // best-effort close frame
				c.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(wsWriteTimeout))
				return
			}
			//nolint:errcheck // a dead deadline surfaces on the write below
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // a dead deadline surfaces on the write below
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
