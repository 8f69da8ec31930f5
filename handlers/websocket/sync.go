package websocket

import (
	"collab-server/core"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second // under pongWait so a live peer always answers in time
	sendBuffer = 16
)

type (
	// SyncMessage is one client intent on the room channel.
	SyncMessage struct {
		Action   string  `json:"action"`
		Text     *string `json:"text,omitempty"`
		Language *string `json:"language,omitempty"`
	}

	ErrorMessage struct {
		Error string `json:"error"`
	}

	subscriber struct {
		id        string
		roomID    string
		conn      *websocket.Conn
		send      chan []byte
		closeOnce sync.Once
	}

	// Hub tracks which connections are subscribed to which room and fans
	// every accepted update out to all of them. All mutation of room
	// state goes through the store; the hub only routes snapshots.
	Hub struct {
		store       core.RoomStore
		upgrader    websocket.Upgrader
		mu          sync.RWMutex
		subscribers map[string]map[string]*subscriber
	}
)

func NewHub(store core.RoomStore) *Hub {
	return &Hub{
		store: store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		subscribers: make(map[string]map[string]*subscriber),
	}
}

// ServeWS upgrades the request and binds the connection to the room in
// the path for the connection's lifetime.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	if roomID == "" {
		http.Error(w, "room id is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithField("error", err).Error("Failed to upgrade connection")
		return
	}

	sub := &subscriber{
		id:     ulid.Make().String(),
		roomID: roomID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
	}
	h.register(sub)

	logrus.WithFields(logrus.Fields{
		"room_id":       roomID,
		"subscriber_id": sub.id,
	}).Info("Subscriber connected")

	go sub.writePump()
	h.readPump(r.Context(), sub)
}

// ActiveRooms reports the current subscriber count per room.
func (h *Hub) ActiveRooms() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rooms := make(map[string]int, len(h.subscribers))
	for roomID, subs := range h.subscribers {
		rooms[roomID] = len(subs)
	}
	return rooms
}

// Close disconnects every subscriber. Used on shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, subs := range h.subscribers {
		for _, sub := range subs {
			sub.close()
		}
	}
	h.subscribers = make(map[string]map[string]*subscriber)
}

func (h *Hub) register(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subscribers[sub.roomID] == nil {
		h.subscribers[sub.roomID] = make(map[string]*subscriber)
	}
	h.subscribers[sub.roomID][sub.id] = sub
}

func (h *Hub) unregister(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.subscribers[sub.roomID]; ok {
		if _, ok := subs[sub.id]; ok {
			delete(subs, sub.id)
			sub.close()
			if len(subs) == 0 {
				delete(h.subscribers, sub.roomID)
			}
		}
	}
}

// readPump reads and dispatches messages one at a time until the
// connection dies. A dropped connection only ends this subscription;
// room state and other subscribers are untouched.
func (h *Hub) readPump(ctx context.Context, sub *subscriber) {
	defer func() {
		h.unregister(sub)
		sub.conn.Close()
		logrus.WithFields(logrus.Fields{
			"room_id":       sub.roomID,
			"subscriber_id": sub.id,
		}).Info("Subscriber disconnected")
	}()

	_ = sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := sub.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithFields(logrus.Fields{
					"error":   err,
					"room_id": sub.roomID,
				}).Warn("Subscriber read error")
			}
			return
		}
		h.dispatch(ctx, sub, raw)
	}
}

// dispatch handles one inbound message completely before the caller
// reads the next one from the same connection.
func (h *Hub) dispatch(ctx context.Context, sub *subscriber, raw []byte) {
	var msg SyncMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.sendTo(sub, ErrorMessage{Error: "invalid message"})
		return
	}

	switch msg.Action {
	case "get":
		room, err := h.store.Get(ctx, sub.roomID)
		if errors.Is(err, core.ErrRoomNotFound) {
			// First subscriber of a fresh room instantiates it with
			// defaults.
			room, err = h.store.Upsert(ctx, sub.roomID, nil, nil)
		}
		if err != nil {
			logrus.WithField("error", err).Error("Failed to load room")
			h.sendTo(sub, ErrorMessage{Error: "failed to load room"})
			return
		}
		h.sendTo(sub, room)

	case "update":
		room, err := h.store.Upsert(ctx, sub.roomID, msg.Text, msg.Language)
		if err != nil {
			logrus.WithField("error", err).Error("Failed to update room")
			h.sendTo(sub, ErrorMessage{Error: "failed to update room"})
			return
		}
		h.broadcast(sub.roomID, room)

	default:
		h.sendTo(sub, ErrorMessage{Error: fmt.Sprintf("unknown action: %q", msg.Action)})
	}
}

// broadcast queues the payload for every subscriber of the room,
// including the one that caused it.
func (h *Hub) broadcast(roomID string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		logrus.WithField("error", err).Error("Failed to marshal broadcast")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subscribers[roomID] {
		select {
		case sub.send <- raw:
		default:
			// A subscriber that cannot drain its buffer must not stall
			// the room; it misses this snapshot and resyncs on its next
			// "get".
			logrus.WithFields(logrus.Fields{
				"room_id":       roomID,
				"subscriber_id": sub.id,
			}).Warn("Subscriber send buffer full, skipping")
		}
	}
}

func (h *Hub) sendTo(sub *subscriber, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		logrus.WithField("error", err).Error("Failed to marshal message")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if subs, ok := h.subscribers[sub.roomID]; !ok || subs[sub.id] == nil {
		return
	}

	select {
	case sub.send <- raw:
	default:
		logrus.WithFields(logrus.Fields{
			"room_id":       sub.roomID,
			"subscriber_id": sub.id,
		}).Warn("Subscriber send buffer full, skipping")
	}
}

func (sub *subscriber) close() {
	sub.closeOnce.Do(func() {
		close(sub.send)
	})
}

// writePump owns all writes on the connection: queued messages plus the
// keepalive pings that let readPump detect dead peers.
func (sub *subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sub.conn.Close()
	}()

	for {
		select {
		case raw, ok := <-sub.send:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = sub.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := sub.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}

		case <-ticker.C:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
