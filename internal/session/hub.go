// Package session serves search controllers to WebSocket clients. Each
// connection owns one controller; the hub routes client input to it and
// streams every state change back.
package session

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lazysearch/lazysearch/internal/search"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Backend resolves indexes and checks that they answer.
type Backend interface {
	search.Resolver
	Ping(ctx context.Context, name string) error
}

// Observer receives controller events plus session lifecycle events.
type Observer interface {
	search.Observer
	SessionOpened()
	SessionClosed()
}

// Config holds per-session defaults.
type Config struct {
	DefaultIndex string
	Delay        time.Duration
	HitsPerPage  int
	PingTimeout  time.Duration
	// StaleResults keeps previous results visible while a search runs.
	StaleResults bool
}

// incomingMessage wraps a message from a client.
type incomingMessage struct {
	client  *Client
	message []byte
}

// Hub manages search sessions.
type Hub struct {
	backend  Backend
	config   Config
	observer Observer
	logger   zerolog.Logger

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	incoming   chan incomingMessage
	bump       chan chan int
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a new session hub.
func NewHub(backend Backend, cfg Config, logger zerolog.Logger) *Hub {
	if cfg.HitsPerPage <= 0 {
		cfg.HitsPerPage = search.DefaultHitsPerPage
	}
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = 10 * time.Second
	}
	return &Hub{
		backend:    backend,
		config:     cfg,
		logger:     logger.With().Str("component", "session").Logger(),
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		incoming:   make(chan incomingMessage, 256),
		bump:       make(chan chan int),
		done:       make(chan struct{}),
	}
}

// SetObserver registers the receiver of search and session events. It must
// be called before Run.
func (h *Hub) SetObserver(o Observer) {
	h.observer = o
}

// Run starts the hub's main loop. It returns when ctx is done, closing all
// sessions.
func (h *Hub) Run(ctx context.Context) {
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			if h.observer != nil {
				h.observer.SessionOpened()
			}
			h.logger.Debug().Str("session", client.ID).Str("index", client.Index).Msg("Session opened")
			go client.activate()

		case client := <-h.unregister:
			h.remove(client)

		case incoming := <-h.incoming:
			h.mu.RLock()
			_, ok := h.clients[incoming.client]
			h.mu.RUnlock()
			if !ok {
				continue
			}
			var msg inbound
			if err := json.Unmarshal(incoming.message, &msg); err != nil {
				h.logger.Debug().Err(err).Str("session", incoming.client.ID).Msg("Invalid message")
				continue
			}
			incoming.client.handle(msg)

		case reply := <-h.bump:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()
			for _, client := range clients {
				client.bump()
			}
			reply <- len(clients)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()
	if !ok {
		return
	}

	client.shutdown()
	if h.observer != nil {
		h.observer.SessionClosed()
	}
	h.logger.Debug().Str("session", client.ID).Msg("Session closed")
}

func (h *Hub) closeAll() {
	close(h.done)

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		h.remove(client)
	}
}

// BumpKeys advances the cache key of every session, so each one clears its
// index cache and searches again. It returns the number of sessions bumped.
func (h *Hub) BumpKeys(ctx context.Context) (int, error) {
	reply := make(chan int, 1)
	select {
	case h.bump <- reply:
	case <-h.done:
		return 0, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	select {
	case n := <-reply:
		return n, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Broadcast sends a message to all connected sessions.
func (h *Hub) Broadcast(msgType string, payload interface{}) error {
	data, err := encode(msgType, payload)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		client.enqueueRaw(data)
	}
	return nil
}

// Count returns the number of connected sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Sessions lists connected sessions, oldest first.
func (h *Hub) Sessions() []Info {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	out := make([]Info, 0, len(clients))
	for _, client := range clients {
		out = append(out, client.info())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ConnectedAt.Before(out[j].ConnectedAt)
	})
	return out
}

// HandleWebSocket upgrades the connection and starts a session on the index
// named by the "index" query parameter.
func (h *Hub) HandleWebSocket(c echo.Context) error {
	name := c.QueryParam("index")
	if name == "" {
		name = h.config.DefaultIndex
	}
	if name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "index is required")
	}
	if _, ok := h.backend.Resolve(name); !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown index: "+name)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		ID:          uuid.New().String(),
		Index:       name,
		ConnectedAt: time.Now(),
		hub:         h,
		conn:        conn,
		ctx:         ctx,
		cancel:      cancel,
		send:        make(chan []byte, 256),
		input:       InputPayload{HitsPerPage: h.config.HitsPerPage},
	}
	client.controller = search.New(h.backend, client.params(), h.controllerOptions(client)...)

	select {
	case h.register <- client:
	case <-h.done:
		client.shutdown()
		conn.Close()
		return nil
	}

	go client.writePump()
	go client.readPump()

	return nil
}

func (h *Hub) controllerOptions(client *Client) []search.Option {
	opts := []search.Option{
		search.WithLogger(h.logger.With().Str("session", client.ID).Logger()),
		search.WithOnChange(client.sendState),
	}
	if h.observer != nil {
		opts = append(opts, search.WithObserver(h.observer))
	}
	if h.config.StaleResults {
		opts = append(opts, search.WithStaleResults())
	}
	return opts
}
