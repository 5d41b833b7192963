// internal/ws/client.go
package ws

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/sirupsen/logrus"
)

const (
	sendBuffer   = 64
	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
	readLimit    = 64 << 10
)

// Client is one WebSocket connection. Writes go through a buffered
// channel drained by a single writer goroutine.
type Client struct {
	conn *websocket.Conn
	send chan interface{}
	log  *logrus.Entry

	closeOnce sync.Once
	closed    chan struct{}

	// Set by the reader goroutine once the connection holds a seat.
	mu       sync.Mutex
	playerID string
	roomID   string
}

func newClient(conn *websocket.Conn, log *logrus.Entry) *Client {
	return &Client{
		conn:   conn,
		send:   make(chan interface{}, sendBuffer),
		log:    log,
		closed: make(chan struct{}),
	}
}

// queue enqueues v without blocking. A client that cannot keep up is
// disconnected.
func (c *Client) queue(v interface{}) {
	select {
	case <-c.closed:
		return
	default:
	}
	select {
	case c.send <- v:
	default:
		c.log.Warn("Send buffer full, dropping connection")
		c.close(websocket.StatusPolicyViolation, "client too slow")
	}
}

func (c *Client) close(code websocket.StatusCode, reason string) {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.conn.Close(code, reason)
	})
}

// writeLoop drains the send buffer and pings the peer until the
// connection closes.
func (c *Client) writeLoop(ctx context.Context) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		case v := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, c.conn, v)
			cancel()
			if err != nil {
				c.log.WithError(err).Debug("Write failed")
				c.close(websocket.StatusInternalError, "write failed")
				return
			}
		case <-ping.C:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Ping(pctx)
			cancel()
			if err != nil {
				c.log.WithError(err).Debug("Ping failed")
				c.close(websocket.StatusGoingAway, "ping timeout")
				return
			}
		}
	}
}

func (c *Client) seat() (playerID, roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerID, c.roomID
}

func (c *Client) setSeat(playerID, roomID string) {
	c.mu.Lock()
	c.playerID, c.roomID = playerID, roomID
	c.mu.Unlock()
}
