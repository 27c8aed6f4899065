package game

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one transport connection. The arena only ever touches send.
type Client struct {
	id    string
	arena *Arena
	conn  *websocket.Conn
	send  chan []byte

	closed bool
}

func newClient(id string, arena *Arena, conn *websocket.Conn, buffer int) *Client {
	return &Client{
		id:    id,
		arena: arena,
		conn:  conn,
		send:  make(chan []byte, buffer),
	}
}

// Enqueue hands a message to the write pump without blocking.
func (c *Client) Enqueue(message []byte) bool {
	if c.closed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// close ends the write pump. Only the arena goroutine calls it.
func (c *Client) close() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) receiveMessage() {
	defer func() {
		c.arena.Disconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithField("client", c.id).WithError(err).Warn("Connection closed unexpectedly")
			}
			return
		}

		c.arena.Receive(c, message)
	}
}

func (c *Client) sendMessage() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.WithField("client", c.id).WithError(err).Debug("Write failed")
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

// ServeWebSocket upgrades the request and attaches the connection to the arena
// under a fresh identity.
func ServeWebSocket(arena *Arena, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Error("Failed to upgrade connection to websocket")
		return
	}

	client := newClient(uuid.New().String(), arena, conn, arena.sendBuffer)
	if !arena.Connect(client) {
		conn.Close()
		return
	}

	go client.receiveMessage()
	go client.sendMessage()
}
