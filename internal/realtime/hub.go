package realtime

import (
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait (seconds) are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Event is a change notification for an office entity, broadcast to every
// connected client after the mutating transaction commits.
type Event struct {
	Entity string `json:"entity"` // floor, room, seat, employee, floorplan, assignment
	Action string `json:"action"` // created, updated, deleted, assigned, unassigned
	ID     int64  `json:"id"`
}

// Publisher publishes events to Redis for cross-instance fan-out.
type Publisher interface {
	PublishEvent(ev Event) error
}

// Subscriber subscribes to the shared event channel and invokes handler
// for every incoming event.
type Subscriber interface {
	Subscribe(handler func(ev Event)) (cancel func(), err error)
}

// Hub maintains the set of WebSocket clients and broadcasts change events.
// With Redis configured, events are published once and every instance
// (this one included) delivers them to its local clients via the
// subscription, so no client sees an event twice.
type Hub struct {
	clients   map[string]*Client
	mu        sync.RWMutex
	logger    *zap.Logger
	pub       Publisher
	cancelSub func()
}

// NewHub creates the hub and, when a subscriber is given, starts
// listening for events from other instances. pub and sub may be nil for
// single-instance, local-only operation.
func NewHub(logger *zap.Logger, pub Publisher, sub Subscriber) *Hub {
	h := &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
		pub:     pub,
	}
	if sub != nil {
		cancel, err := sub.Subscribe(h.broadcastLocal)
		if err != nil {
			logger.Warn("event subscription failed, falling back to local broadcast", zap.Error(err))
			h.pub = nil
		} else {
			h.cancelSub = cancel
		}
	}
	return h
}

// Register adds a connected client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("event client connected", zap.String("client_id", c.ID))
}

// Unregister removes a client.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.ID)
	h.mu.Unlock()
	h.logger.Debug("event client disconnected", zap.String("client_id", c.ID))
}

// Notify broadcasts a change event. With Redis it publishes only; the
// subscription callback performs the single local delivery.
func (h *Hub) Notify(entity, action string, id int64) {
	ev := Event{Entity: entity, Action: action, ID: id}
	if h.pub != nil {
		if err := h.pub.PublishEvent(ev); err == nil {
			return
		}
	}
	h.broadcastLocal(ev)
}

func (h *Hub) broadcastLocal(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- ev:
		default:
			// buffer full, skip
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close stops the Redis subscription, if any.
func (h *Hub) Close() {
	if h.cancelSub != nil {
		h.cancelSub()
	}
}
