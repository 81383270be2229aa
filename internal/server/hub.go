package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/emrgen/notebook/internal/docsync"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 64
)

// Event is a message pushed to the browsers watching a project.
type Event struct {
	Type      string                `json:"type"`
	ProjectID string                `json:"projectId"`
	Snapshot  *docsync.Snapshot     `json:"snapshot,omitempty"`
	Tables    []docsync.TableMirror `json:"tables,omitempty"`
}

const (
	EventSnapshot  = "snapshot"
	EventReconcile = "reconcile"
)

type client struct {
	id        string
	projectID string
	conn      *websocket.Conn
	send      chan []byte
}

var _ docsync.Reconciler = (*Hub)(nil)

// Hub fans project events out to websocket clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[string]*client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[string]*client)}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.projectID] == nil {
		h.clients[c.projectID] = make(map[string]*client)
	}
	h.clients[c.projectID][c.id] = c
	logrus.Infof("client %s joined project %s", c.id, c.projectID)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.clients[c.projectID]
	if _, ok := room[c.id]; !ok {
		return
	}
	delete(room, c.id)
	close(c.send)
	if len(room) == 0 {
		delete(h.clients, c.projectID)
	}
	logrus.Infof("client %s left project %s", c.id, c.projectID)
}

// Clients is the number of clients watching a project.
func (h *Hub) Clients(projectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[projectID])
}

func (h *Hub) broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		logrus.Errorf("encode %s event: %v", ev.Type, err)
		return
	}

	h.mu.RLock()
	var slow []*client
	for _, c := range h.clients[ev.ProjectID] {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	// drop on slow client
	for _, c := range slow {
		logrus.Warnf("dropping slow client %s", c.id)
		h.unregister(c)
	}
}

// Reconcile pushes the attributes every rendered table must carry.
func (h *Hub) Reconcile(projectID string, mirrors []docsync.TableMirror) {
	if mirrors == nil {
		mirrors = []docsync.TableMirror{}
	}
	h.broadcast(Event{Type: EventReconcile, ProjectID: projectID, Tables: mirrors})
}

// Publish pushes a sync snapshot.
func (h *Hub) Publish(snap docsync.Snapshot) {
	h.broadcast(Event{Type: EventSnapshot, ProjectID: snap.ProjectID, Snapshot: &snap})
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleEvents upgrades the request and streams the events of a project.
// The last snapshot is sent right after connecting.
func (s *Handlers) HandleEvents(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	sess, err := s.workspace.Open(r.Context(), projectID)
	if err != nil {
		errorResponse(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Errorf("websocket upgrade error: %v", err)
		return
	}

	c := &client{
		id:        uuid.New().String(),
		projectID: sess.ProjectID,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
	}
	snap := sess.Snapshot()
	if data, err := json.Marshal(Event{Type: EventSnapshot, ProjectID: sess.ProjectID, Snapshot: &snap}); err == nil {
		c.send <- data
	}
	s.hub.register(c)

	go s.hub.writePump(c)
	go s.hub.readPump(c)
}

// readPump only drains control frames; clients edit through the REST API.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.Warnf("websocket closed unexpectedly for %s: %v", c.id, err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logrus.Warnf("websocket write error for %s: %v", c.id, err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
