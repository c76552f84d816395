package realtime

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/polkiloo/fooddispatch/internal/domain/model"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client is one authenticated websocket connection.
type Client struct {
	id       string
	identity model.Identity
	conn     *websocket.Conn
	send     chan []byte

	// rooms is guarded by the hub mutex.
	rooms map[string]struct{}
}

// NewClient wraps conn. conn may be nil for clients that are only read from
// their send channel.
func NewClient(conn *websocket.Conn, identity model.Identity, buffer int) *Client {
	if buffer <= 0 {
		buffer = 1
	}
	return &Client{
		id:       uuid.NewString(),
		identity: identity,
		conn:     conn,
		send:     make(chan []byte, buffer),
		rooms:    make(map[string]struct{}),
	}
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) Identity() model.Identity {
	return c.identity
}

// Messages exposes the outgoing queue. It is closed when the hub drops the client.
func (c *Client) Messages() <-chan []byte {
	return c.send
}

// enqueue must be called with the hub read lock held so that send is not
// closed concurrently.
func (c *Client) enqueue(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// writePump drains the send queue to the socket and keeps the peer alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(deadline())
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(deadline())
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func deadlineAfter(d time.Duration) time.Time {
	return time.Now().Add(d)
}

func deadline() time.Time {
	return deadlineAfter(writeWait)
}
