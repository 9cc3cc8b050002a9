package kds

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-ordering/utils"
)

// Event types
const (
	EventOrderCreated = "order_created"
	EventOrderUpdate  = "order_update"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 16
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Conn is the part of *websocket.Conn the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type client struct {
	conn Conn
	role string
	send chan []byte
}

// Hub keeps the connected admin/tracking clients and fans out order events.
// Every client has its own writer goroutine, so a stalled socket never holds
// up the caller of Broadcast.
type Hub struct {
	clients map[Conn]*client
	mutex   sync.Mutex
	log     *logrus.Entry
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[Conn]*client),
		log:     utils.Component("kds"),
	}
}

func (h *Hub) Register(conn Conn, role string) {
	cl := &client{conn: conn, role: role, send: make(chan []byte, sendBuffer)}

	h.mutex.Lock()
	if _, ok := h.clients[conn]; ok {
		h.mutex.Unlock()
		return
	}
	h.clients[conn] = cl
	h.mutex.Unlock()

	h.log.WithField("role", role).Debug("Client connected")
	go h.writePump(cl)
}

// Unregister stops the client's writer, which then closes the connection.
func (h *Hub) Unregister(conn Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.removeLocked(conn)
}

func (h *Hub) removeLocked(conn Conn) {
	if cl, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(cl.send)
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Broadcast queues the event for every client. A client whose queue is full
// is dropped.
func (h *Hub) Broadcast(event string, data interface{}) {
	payload, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		utils.ErrorLogger.WithField("event", event).Errorf("Error marshaling message: %v", err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn, cl := range h.clients {
		select {
		case cl.send <- payload:
		default:
			h.log.WithFields(logrus.Fields{"role": cl.role, "event": event}).Warn("Dropping slow client")
			h.removeLocked(conn)
		}
	}
	h.log.WithFields(logrus.Fields{"event": event, "clients": len(h.clients)}).Debug("Broadcast queued")
}

// writePump owns all writes to one connection and closes it on exit.
func (h *Hub) writePump(cl *client) {
	defer cl.conn.Close()

	for payload := range cl.send {
		cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.WithField("role", cl.role).Warnf("Dropping client: %v", err)
			h.mutex.Lock()
			if h.clients[cl.conn] == cl {
				h.removeLocked(cl.conn)
			}
			h.mutex.Unlock()
			return
		}
	}
}
