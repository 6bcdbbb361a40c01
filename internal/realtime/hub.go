package realtime

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

// Message is the wire format of every fan-out event. Topic plus UpdateType
// identify the transition; DealID routes room delivery.
type Message struct {
	Topic      string      `json:"topic"`
	DealID     uint        `json:"deal_id,omitempty"`
	UpdateType string      `json:"update_type"`
	Payload    interface{} `json:"payload,omitempty"`
	SentAt     time.Time   `json:"sent_at"`
}

// subscriber wraps a connection with its write lock. The underlying
// connection allows only one concurrent writer, and Publish runs from
// arbitrary request goroutines.
type subscriber struct {
	conn *websocket.Conn
	wmu  sync.Mutex
}

func (s *subscriber) write(data []byte) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub fans state transitions out to websocket subscribers: every event goes
// to the global room, and events carrying a deal id additionally go to that
// deal's room. Delivery is best-effort; dead connections are dropped.
type Hub struct {
	mu     sync.RWMutex
	global map[*websocket.Conn]*subscriber
	rooms  map[uint]map[*websocket.Conn]*subscriber
}

func NewHub() *Hub {
	return &Hub{
		global: make(map[*websocket.Conn]*subscriber),
		rooms:  make(map[uint]map[*websocket.Conn]*subscriber),
	}
}

// Publish implements services.Publisher.
func (h *Hub) Publish(topic string, dealID uint, payload any, updateType string) error {
	data, err := json.Marshal(Message{
		Topic:      topic,
		DealID:     dealID,
		UpdateType: updateType,
		Payload:    payload,
		SentAt:     time.Now(),
	})
	if err != nil {
		return err
	}

	h.mu.RLock()
	subs := make([]*subscriber, 0, len(h.global))
	for _, s := range h.global {
		subs = append(subs, s)
	}
	if dealID != 0 {
		for _, s := range h.rooms[dealID] {
			subs = append(subs, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range subs {
		if err := s.write(data); err != nil {
			log.Printf("dropping stale websocket connection: %v", err)
			h.remove(s.conn)
		}
	}
	return nil
}

func (h *Hub) add(c *websocket.Conn, dealID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := &subscriber{conn: c}
	if dealID == 0 {
		h.global[c] = s
		return
	}
	if h.rooms[dealID] == nil {
		h.rooms[dealID] = make(map[*websocket.Conn]*subscriber)
	}
	h.rooms[dealID][c] = s
}

func (h *Hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.global, c)
	for id, room := range h.rooms {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, id)
		}
	}
}

// Handler subscribes the connection to the global room (dealID 0) or a
// per-deal room and blocks until the peer disconnects.
func (h *Hub) Handler(dealID func(*websocket.Conn) uint) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		id := dealID(c)
		h.add(c, id)
		defer func() {
			h.remove(c)
			c.Close()
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}
}
