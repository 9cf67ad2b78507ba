package room

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Client is one websocket connection. A client may sit in several rooms.
type Client struct {
	id     string
	userID uuid.UUID
	conn   *websocket.Conn
	send   chan []byte
	hub    *Hub

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	rooms map[uuid.UUID]uuid.UUID // draft id -> team id

	done      chan struct{}
	closeOnce sync.Once
}

func newClient(h *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, h.config.SendBuffer),
		hub:    h,
		ctx:    ctx,
		cancel: cancel,
		rooms:  make(map[uuid.UUID]uuid.UUID),
		done:   make(chan struct{}),
	}
}

func (c *Client) setRoom(draftID, teamID uuid.UUID) {
	c.mu.Lock()
	c.rooms[draftID] = teamID
	c.mu.Unlock()
}

func (c *Client) clearRoom(draftID uuid.UUID) {
	c.mu.Lock()
	delete(c.rooms, draftID)
	c.mu.Unlock()
}

func (c *Client) inRoom(draftID uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.rooms[draftID]
	return ok
}

func (c *Client) teamIn(draftID uuid.UUID) uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rooms[draftID]
}

func (c *Client) joined() []uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]uuid.UUID, 0, len(c.rooms))
	for id := range c.rooms {
		out = append(out, id)
	}
	return out
}

// enqueue queues data for the write pump. It returns false when the buffer
// is full.
func (c *Client) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.cancel()
		c.conn.Close()
	})
}

func (c *Client) writePump() {
	cfg := c.hub.config
	ticker := time.NewTicker(cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.id).
					Msg("failed to write message to websocket")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().
					Err(err).
					Str("connection_id", c.id).
					Msg("failed to send ping")
				return
			}
		}
	}
}

func (c *Client) readPump() {
	cfg := c.hub.config
	defer func() {
		c.hub.disconnect(c)
		c.close()
	}()

	c.conn.SetReadLimit(cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.id).
					Msg("unexpected websocket close error")
			}
			return
		}

		c.hub.dispatch(c, message)
		c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	}
}
