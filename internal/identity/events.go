package identity

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Session lifecycle event types pushed to subscribers.
const (
	EventSignedIn        = "session.signed_in"
	EventHydrated        = "session.hydrated"
	EventWalletConnected = "session.wallet_connected"
	EventSignedOut       = "session.signed_out"
)

// Event is one session state change, delivered to every live
// subscription of the affected identity.
type Event struct {
	Type      string    `json:"type"`
	UserID    string    `json:"user_id"`
	State     State     `json:"state"`
	Timestamp time.Time `json:"timestamp"`
}

type subscriber struct {
	id     string
	userID string
	conn   *websocket.Conn
	send   chan Event
}

// Hub pushes session events over WebSocket connections, one stream per
// signed-in browser tab.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]*subscriber
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subscribers: make(map[string]*subscriber),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
}

// Publish delivers an event to every subscription of the user. Slow
// subscribers are skipped rather than blocking the publisher.
func (h *Hub) Publish(event Event) {
	event.Timestamp = time.Now()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subscribers {
		if sub.userID != event.UserID {
			continue
		}
		select {
		case sub.send <- event:
		default:
			h.logger.Warn("dropping session event for slow subscriber",
				zap.String("subscriber_id", sub.id),
				zap.String("event_type", event.Type))
		}
	}
}

// HandleConnection upgrades the request and streams session events for
// the given user until the peer disconnects.
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	sub := &subscriber{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
		send:   make(chan Event, 16),
	}

	h.mu.Lock()
	h.subscribers[sub.id] = sub
	h.mu.Unlock()

	go h.writePump(sub)
	go h.readPump(sub)
	return nil
}

func (h *Hub) writePump(sub *subscriber) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		sub.conn.Close()
	}()

	for {
		select {
		case event, ok := <-sub.send:
			if !ok {
				sub.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := sub.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) readPump(sub *subscriber) {
	defer h.remove(sub)
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	if _, ok := h.subscribers[sub.id]; ok {
		delete(h.subscribers, sub.id)
		close(sub.send)
	}
	h.mu.Unlock()
	sub.conn.Close()
}
