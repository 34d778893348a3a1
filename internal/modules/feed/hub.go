package feed

import (
	"sync"

	"photojournal/internal/config"
	"photojournal/internal/domain"

	"github.com/gorilla/websocket"
)

// Event is pushed to connected clients when an entry changes.
type Event struct {
	Type    string        `json:"type"` // entry_created | entry_updated | entry_deleted
	OwnerID int64         `json:"owner_id"`
	EntryID int64         `json:"entry_id"`
	Entry   *domain.Entry `json:"entry,omitempty"`
}

// Hub tracks one websocket connection per user and routes entry events
// under the deployment's visibility policy: private deployments notify
// only the owner, public ones notify everyone connected.
type Hub struct {
	visibility  config.Visibility
	connections map[int64]*websocket.Conn
	mutex       sync.RWMutex
}

func NewHub(visibility config.Visibility) *Hub {
	return &Hub{
		visibility:  visibility,
		connections: make(map[int64]*websocket.Conn),
	}
}

func (h *Hub) Register(userID int64, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if oldConn, exists := h.connections[userID]; exists && oldConn != nil {
		_ = oldConn.Close()
	}

	h.connections[userID] = conn
}

func (h *Hub) Unregister(userID int64) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if conn, exists := h.connections[userID]; exists && conn != nil {
		_ = conn.Close()
		delete(h.connections, userID)
	}
}

func (h *Hub) IsOnline(userID int64) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	_, exists := h.connections[userID]
	return exists
}

func (h *Hub) OnlineCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.connections)
}

// EntryCreated implements journal.Notifier.
func (h *Hub) EntryCreated(e domain.Entry) {
	h.publish(Event{Type: "entry_created", OwnerID: e.UserID, EntryID: e.ID, Entry: &e})
}

func (h *Hub) EntryUpdated(e domain.Entry) {
	h.publish(Event{Type: "entry_updated", OwnerID: e.UserID, EntryID: e.ID, Entry: &e})
}

func (h *Hub) EntryDeleted(ownerID, entryID int64) {
	h.publish(Event{Type: "entry_deleted", OwnerID: ownerID, EntryID: entryID})
}

func (h *Hub) publish(ev Event) {
	if h.visibility == config.VisibilityPrivate {
		h.sendToUser(ev.OwnerID, ev)
		return
	}

	h.mutex.RLock()
	ids := make([]int64, 0, len(h.connections))
	for id := range h.connections {
		ids = append(ids, id)
	}
	h.mutex.RUnlock()

	for _, id := range ids {
		h.sendToUser(id, ev)
	}
}

func (h *Hub) sendToUser(userID int64, ev Event) bool {
	h.mutex.RLock()
	conn, exists := h.connections[userID]
	h.mutex.RUnlock()

	if !exists || conn == nil {
		return false
	}

	if err := conn.WriteJSON(ev); err != nil {
		h.Unregister(userID)
		return false
	}

	return true
}

func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for userID, conn := range h.connections {
		if conn != nil {
			_ = conn.Close()
		}
		delete(h.connections, userID)
	}
}
