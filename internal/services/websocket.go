package services

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/chachabrian/tourbook-backend/internal/bookings"
	"github.com/chachabrian/tourbook-backend/internal/models"
	"github.com/chachabrian/tourbook-backend/internal/views"
	"github.com/chachabrian/tourbook-backend/internal/workflow"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Origins are restricted by the CORS layer in front
	},
}

// BookingSource yields an owner's current bookings in store order.
type BookingSource interface {
	Bookings(ctx context.Context, ownerID uint) ([]models.Booking, error)
}

// Client represents a WebSocket client. Each connection keeps its own view
// session.
type Client struct {
	ID       uint
	UserType string
	Conn     *websocket.Conn
	Send     chan []byte
	Hub      *Hub

	mutex   sync.Mutex
	session views.Session

	// closed by the hub once the client is in its set
	registered chan struct{}
}

// Hub maintains the set of active clients and pushes booking changes to
// every session of the owner.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	done       chan struct{}
	source     BookingSource
	now        func() time.Time
}

// NewHub creates a new WebSocket hub
func NewHub(source BookingSource) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		source:     source,
		now:        time.Now,
	}
}

// Run starts the hub
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mutex.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				client.Conn.Close()
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			close(client.registered)
			log.Printf("[WS] client %d connected", client.ID)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mutex.Unlock()
			log.Printf("[WS] client %d disconnected", client.ID)
		}
	}
}

// WebSocket message types
type WebSocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

const (
	MessageProjection     = "projection"
	MessageBookingChanged = "booking_changed"
	MessageError          = "error"

	CommandSetViewMode   = "set_view_mode"
	CommandSelectStage   = "select_stage"
	CommandSelectBooking = "select_booking"
	CommandSetFilter     = "set_filter"
)

// BookingChanged is pushed when a booking in the owner's store changes.
type BookingChanged struct {
	BookingID string                  `json:"bookingId,omitempty"`
	Kind      bookings.StoreEventKind `json:"kind"`
}

type clientCommand struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type commandData struct {
	Mode      string `json:"mode"`
	Stage     string `json:"stage"`
	BookingID string `json:"bookingId"`
	Query     string `json:"query"`
	Bucket    string `json:"bucket"`
}

func encode(msgType string, data interface{}) []byte {
	payload, err := json.Marshal(WebSocketMessage{Type: msgType, Data: data})
	if err != nil {
		log.Printf("[WS] error marshaling %s: %v", msgType, err)
		return nil
	}
	return payload
}

// deliver queues a message for one client, dropping it when the client is
// not keeping up.
func (c *Client) deliver(message []byte) {
	if message == nil {
		return
	}
	select {
	case c.Send <- message:
	default:
		log.Printf("[WS] could not send to client %d (channel full)", c.ID)
	}
}

func (c *Client) Session() views.Session {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.session
}

func (c *Client) updateSession(fn func(views.Session) views.Session) {
	c.mutex.Lock()
	c.session = fn(c.session)
	c.mutex.Unlock()
}

// sendProjection loads the owner's bookings and queues a projection for
// one client. It runs on the client's goroutine so a slow load never holds
// up the hub loop.
func (h *Hub) sendProjection(ctx context.Context, client *Client) {
	list, err := h.source.Bookings(ctx, client.ID)
	if err != nil {
		log.Printf("[WS] projection for client %d failed: %v", client.ID, err)
		h.deliverTo(client, encode(MessageError, map[string]string{"error": err.Error()}))
		return
	}
	h.deliverTo(client, encode(MessageProjection, views.Project(list, client.Session(), h.now())))
}

// deliverTo queues a message for a client that is still registered. The
// read lock keeps unregister from closing Send underneath the write.
func (h *Hub) deliverTo(client *Client, message []byte) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	if h.clients[client] {
		client.deliver(message)
	}
}

// NotifyOwner pushes a store change and a fresh projection to every open
// session of the owner.
func (h *Hub) NotifyOwner(ownerID uint, event bookings.StoreEvent) {
	h.mutex.RLock()
	var targets []*Client
	for client := range h.clients {
		if client.ID == ownerID {
			targets = append(targets, client)
		}
	}
	h.mutex.RUnlock()
	if len(targets) == 0 {
		return
	}

	list, err := h.source.Bookings(context.Background(), ownerID)
	if err != nil {
		log.Printf("[WS] owner %d bookings unavailable: %v", ownerID, err)
		return
	}
	changed := encode(MessageBookingChanged, BookingChanged{BookingID: event.BookingID, Kind: event.Kind})
	now := h.now()

	h.mutex.RLock()
	defer h.mutex.RUnlock()
	for _, client := range targets {
		if !h.clients[client] {
			continue
		}
		client.deliver(changed)
		client.deliver(encode(MessageProjection, views.Project(list, client.Session(), now)))
	}
}

// GetConnectedClients returns the number of connected clients
func (h *Hub) GetConnectedClients() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// HandleWebSocket handles WebSocket connections
func HandleWebSocket(hub *Hub, w http.ResponseWriter, r *http.Request, userID uint, userType string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] upgrade error: %v", err)
		return
	}

	session := views.DefaultSession().WithMode(views.ParseViewMode(r.URL.Query().Get("view")))
	client := &Client{
		ID:       userID,
		UserType: userType,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		Hub:      hub,
		session:  session,

		registered: make(chan struct{}),
	}

	select {
	case client.Hub.register <- client:
	case <-client.Hub.done:
		conn.Close()
		return
	}

	// Start goroutines for reading and writing
	go client.writePump()
	go client.readPump()
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	select {
	case <-c.registered:
		c.Hub.sendProjection(context.Background(), c)
	case <-c.Hub.done:
		return
	}

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] read error: %v", err)
			}
			break
		}

		var cmd clientCommand
		if err := json.Unmarshal(message, &cmd); err != nil {
			log.Printf("[WS] error unmarshaling message: %v", err)
			continue
		}
		c.handleCommand(cmd)
	}
}

// handleCommand applies a session command and replies with a projection.
// Session commands never touch booking state.
func (c *Client) handleCommand(cmd clientCommand) {
	var data commandData
	if len(cmd.Data) > 0 {
		if err := json.Unmarshal(cmd.Data, &data); err != nil {
			c.deliver(encode(MessageError, map[string]string{"error": "invalid command data"}))
			return
		}
	}

	switch cmd.Type {
	case CommandSetViewMode:
		c.updateSession(func(s views.Session) views.Session { return s.WithMode(views.ParseViewMode(data.Mode)) })
	case CommandSelectStage:
		c.updateSession(func(s views.Session) views.Session { return s.SelectStage(data.Stage) })
	case CommandSelectBooking:
		c.updateSession(func(s views.Session) views.Session { return s.Select(data.BookingID) })
	case CommandSetFilter:
		bucket, _ := workflow.ParseBucket(data.Bucket)
		c.updateSession(func(s views.Session) views.Session { return s.WithFilter(data.Query, bucket) })
	default:
		c.deliver(encode(MessageError, map[string]string{"error": "unknown command " + cmd.Type}))
		return
	}
	c.Hub.sendProjection(context.Background(), c)
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	defer c.Conn.Close()

	for {
		select {
		case message, ok := <-c.Send:
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] write error: %v", err)
				return
			}
		case <-c.Hub.done:
			return
		}
	}
}
