package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chachabrian/tourbook-backend/internal/bookings"
	"github.com/chachabrian/tourbook-backend/internal/models"
	"github.com/chachabrian/tourbook-backend/internal/workflow"
	"github.com/gorilla/websocket"
)

type staticSource struct {
	mutex    sync.Mutex
	bookings map[uint][]models.Booking
}

func (s *staticSource) Bookings(ctx context.Context, ownerID uint) ([]models.Booking, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return append([]models.Booking(nil), s.bookings[ownerID]...), nil
}

type received struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func dial(t *testing.T, hub *Hub, ownerID uint, query string) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		HandleWebSocket(hub, w, r, ownerID, "artist")
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func next(t *testing.T, conn *websocket.Conn) received {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg received
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func projectionMode(t *testing.T, msg received) string {
	t.Helper()
	if msg.Type != MessageProjection {
		t.Fatalf("expected projection, got %s", msg.Type)
	}
	var p struct {
		Session struct {
			Mode string `json:"mode"`
		} `json:"session"`
		List  json.RawMessage `json:"list"`
		Board json.RawMessage `json:"board"`
	}
	if err := json.Unmarshal(msg.Data, &p); err != nil {
		t.Fatalf("decode projection: %v", err)
	}
	if p.Session.Mode == "kanban" && len(p.Board) == 0 {
		t.Fatalf("kanban projection without board")
	}
	if p.Session.Mode == "list" && len(p.List) == 0 {
		t.Fatalf("list projection without list")
	}
	return p.Session.Mode
}

func newTestHub(t *testing.T) (*Hub, *staticSource) {
	t.Helper()
	source := &staticSource{bookings: map[uint][]models.Booking{
		7: {{ID: "b1", OwnerID: 7, VenueName: "The Fillmore", Stage: workflow.StageIntro}},
	}}
	hub := NewHub(source)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub, source
}

func TestWebSocketSessionCommands(t *testing.T) {
	hub, _ := newTestHub(t)
	conn := dial(t, hub, 7, "?view=kanban")

	if mode := projectionMode(t, next(t, conn)); mode != "kanban" {
		t.Fatalf("initial mode = %s", mode)
	}

	if err := conn.WriteJSON(map[string]interface{}{"type": CommandSetViewMode, "data": map[string]string{"mode": "list"}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if mode := projectionMode(t, next(t, conn)); mode != "list" {
		t.Fatalf("mode after command = %s", mode)
	}

	if err := conn.WriteJSON(map[string]interface{}{"type": "teleport"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if msg := next(t, conn); msg.Type != MessageError {
		t.Fatalf("expected error for unknown command, got %s", msg.Type)
	}
}

func TestNotifyOwnerPushesChange(t *testing.T) {
	hub, source := newTestHub(t)
	mine := dial(t, hub, 7, "")
	next(t, mine)

	source.mutex.Lock()
	source.bookings[7][0].Stage = workflow.StageOffer
	source.mutex.Unlock()
	hub.NotifyOwner(7, bookings.StoreEvent{Kind: bookings.EventReconciled, BookingID: "b1"})

	msg := next(t, mine)
	if msg.Type != MessageBookingChanged {
		t.Fatalf("expected booking_changed, got %s", msg.Type)
	}
	var changed BookingChanged
	json.Unmarshal(msg.Data, &changed)
	if changed.BookingID != "b1" || changed.Kind != bookings.EventReconciled {
		t.Fatalf("changed = %+v", changed)
	}
	projection := next(t, mine)
	if !strings.Contains(string(projection.Data), `"stage":"offer"`) {
		t.Fatalf("projection does not carry the new stage: %s", projection.Data)
	}
}

type gatedSource struct {
	staticSource
	gate map[uint]chan struct{}
}

func (s *gatedSource) Bookings(ctx context.Context, ownerID uint) ([]models.Booking, error) {
	if gate, ok := s.gate[ownerID]; ok {
		<-gate
	}
	return s.staticSource.Bookings(ctx, ownerID)
}

func TestSlowProjectionDoesNotStallHub(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	source := &gatedSource{
		staticSource: staticSource{bookings: map[uint][]models.Booking{
			7: {{ID: "b1", OwnerID: 7, VenueName: "The Fillmore", Stage: workflow.StageIntro}},
		}},
		gate: map[uint]chan struct{}{9: gate},
	}
	hub := NewHub(source)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	dial(t, hub, 9, "")
	fast := dial(t, hub, 7, "")
	if mode := projectionMode(t, next(t, fast)); mode != "list" {
		t.Fatalf("initial mode = %s", mode)
	}
	if n := hub.GetConnectedClients(); n != 2 {
		t.Fatalf("connected clients = %d, want 2", n)
	}
}
