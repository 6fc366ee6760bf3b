package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lazysearch/lazysearch/internal/index"
	"github.com/lazysearch/lazysearch/internal/search"
	"github.com/lazysearch/lazysearch/internal/search/state"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// cacheKey combines the key sent by the client with a server-side epoch, so
// either side can force a cache clear.
type cacheKey struct {
	client string
	epoch  int
}

// Client is one connected search session.
type Client struct {
	ID          string
	Index       string
	ConnectedAt time.Time

	hub        *Hub
	conn       *websocket.Conn
	controller *search.Controller

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	send   chan []byte
	closed bool
	input  InputPayload
	epoch  int
}

// Info is a snapshot of a session for listings.
type Info struct {
	ID          string    `json:"id"`
	Index       string    `json:"index"`
	Active      bool      `json:"active"`
	Status      string    `json:"status"`
	Query       string    `json:"query"`
	Page        int       `json:"page"`
	ConnectedAt time.Time `json:"connectedAt"`
}

func (c *Client) info() Info {
	c.mu.Lock()
	in := c.input
	c.mu.Unlock()

	return Info{
		ID:          c.ID,
		Index:       c.Index,
		Active:      c.controller.Active(),
		Status:      c.controller.State().Status.String(),
		Query:       in.Query,
		Page:        in.Page,
		ConnectedAt: c.ConnectedAt,
	}
}

// enqueue queues a message unless the session is closed. Slow clients lose
// messages rather than block the caller.
func (c *Client) enqueue(msgType string, payload interface{}) {
	data, err := encode(msgType, payload)
	if err != nil {
		c.hub.logger.Error().Err(err).Str("type", msgType).Msg("Failed to encode message")
		return
	}

	c.enqueueRaw(data)
}

func (c *Client) enqueueRaw(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.hub.logger.Warn().Str("session", c.ID).Msg("Send buffer full, dropping message")
	}
}

func (c *Client) sendState(s state.State) {
	c.enqueue(TypeState, s)
}

func (c *Client) sendError(err error) {
	c.enqueue(TypeError, ErrorPayload{Error: err.Error(), Code: index.Code(err)})
}

// shutdown stops the controller and closes the send channel. It is safe to
// call more than once.
func (c *Client) shutdown() {
	c.controller.Close()

	c.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// activate checks the index and opens the controller gate once it answers.
func (c *Client) activate() {
	ctx, cancel := context.WithTimeout(c.ctx, c.hub.config.PingTimeout)
	defer cancel()

	if err := c.hub.backend.Ping(ctx, c.Index); err != nil {
		if ctx.Err() != nil {
			return
		}
		c.hub.logger.Warn().Err(err).Str("session", c.ID).Str("index", c.Index).Msg("Index not ready")
		c.sendError(err)
		return
	}

	c.enqueue(TypeReady, ReadyPayload{SessionID: c.ID, Index: c.Index})
	c.controller.Activate()
}

// params builds controller inputs from the latest client input.
func (c *Client) params() search.Params {
	c.mu.Lock()
	defer c.mu.Unlock()

	return search.Params{
		IndexName:   c.Index,
		Query:       c.input.Query,
		Filters:     c.input.Filters,
		Page:        c.input.Page,
		HitsPerPage: c.input.HitsPerPage,
		Delay:       c.hub.config.Delay,
		Key:         cacheKey{client: rawKey(c.input.Key), epoch: c.epoch},
	}
}

func rawKey(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	return string(raw)
}

func (c *Client) handle(msg inbound) {
	switch msg.Type {
	case TypeInput:
		var in InputPayload
		if err := json.Unmarshal(msg.Payload, &in); err != nil {
			c.hub.logger.Debug().Err(err).Str("session", c.ID).Msg("Invalid input payload")
			return
		}
		if in.HitsPerPage <= 0 {
			in.HitsPerPage = c.hub.config.HitsPerPage
		}
		c.mu.Lock()
		c.input = in
		c.mu.Unlock()
		c.controller.Update(c.params())

	case TypeClearCache:
		c.controller.ClearCache()

	case TypeReset:
		c.controller.Reset()

	case TypeRefresh:
		if !c.controller.Active() {
			go c.activate()
			return
		}
		c.bump()

	default:
		c.hub.logger.Debug().Str("session", c.ID).Str("type", msg.Type).Msg("Unknown message type")
	}
}

// bump advances the server-side epoch, clearing the cache before the next
// search.
func (c *Client) bump() {
	c.mu.Lock()
	c.epoch++
	c.mu.Unlock()
	c.controller.Update(c.params())
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug().Err(err).Str("session", c.ID).Msg("Connection closed unexpectedly")
			}
			break
		}

		select {
		case c.hub.incoming <- incomingMessage{client: c, message: message}:
		case <-c.hub.done:
			return
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
