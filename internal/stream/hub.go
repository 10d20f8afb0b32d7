// Package stream broadcasts simulation frames to websocket clients as JSON
// and forwards their commands back to the caller.
package stream

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jaxs-ribs/arena-sub001/internal/logging"
	"github.com/jaxs-ribs/arena-sub001/internal/sim"
)

// Message is one JSON frame sent to clients.
type Message struct {
	Type        string             `json:"type"`
	Tick        int                `json:"tick"`
	Time        float64            `json:"time"`
	Bodies      []sim.BodySnapshot `json:"bodies,omitempty"`
	Contacts    int                `json:"contacts"`
	Unsupported int                `json:"unsupported"`
	MaxDepth    float64            `json:"max_depth"`
}

// Command is a client request. Push applies Force to Body (negative for
// the designated body); Release drops it; Reset restarts the scene.
type Command struct {
	Type  string     `json:"type"`
	Body  int        `json:"body"`
	Force [3]float64 `json:"force"`
}

const (
	TypeHello = "hello"
	TypeFrame = "frame"

	CommandPush    = "push"
	CommandRelease = "release"
	CommandReset   = "reset"
	CommandPause   = "pause"
)

// Hub implements sim.Observer. Frames arriving faster than the configured
// rate are dropped; the newest frame is always kept for clients that
// connect later.
type Hub struct {
	log         logging.Logger
	upgrader    websocket.Upgrader
	minInterval time.Duration
	commands    chan Command

	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex
	latest  *Message
	last    time.Time
}

// NewHub limits broadcasts to maxFPS frames per second; zero means every
// frame.
func NewHub(log logging.Logger, maxFPS int) *Hub {
	h := &Hub{
		log: logging.OrNop(log),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		commands: make(chan Command, 64),
		clients:  make(map[*websocket.Conn]*sync.Mutex),
	}
	if maxFPS > 0 {
		h.minInterval = time.Second / time.Duration(maxFPS)
	}
	return h
}

// Commands delivers client commands. Commands are dropped when nobody
// drains the channel.
func (h *Hub) Commands() <-chan Command { return h.commands }

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) OnStep(f sim.Frame) {
	now := time.Now()
	h.mu.Lock()
	if h.minInterval > 0 && !h.last.IsZero() && now.Sub(h.last) < h.minInterval {
		h.mu.Unlock()
		return
	}
	h.last = now
	msg := &Message{
		Type:        TypeFrame,
		Tick:        f.Tick,
		Time:        f.Time,
		Bodies:      f.Bodies,
		Contacts:    len(f.Report.Contacts),
		Unsupported: len(f.Report.Unsupported),
		MaxDepth:    f.Report.MaxDepth,
	}
	h.latest = msg
	h.mu.Unlock()
	h.broadcast(msg)
}

func (h *Hub) broadcast(msg *Message) {
	h.mu.RLock()
	var failed []*websocket.Conn
	for conn, mu := range h.clients {
		mu.Lock()
		err := conn.WriteJSON(msg)
		mu.Unlock()
		if err != nil {
			h.log.Warnf("stream: write to %s: %v", conn.RemoteAddr(), err)
			failed = append(failed, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range failed {
		h.drop(conn)
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
	h.mu.Unlock()
}

// Handler serves the websocket at /ws.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.ServeWS)
	return mux
}

// ServeWS upgrades the request, sends a hello and the latest frame, then
// reads commands until the client goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("stream: upgrade: %v", err)
		return
	}

	// Held until the greeting is out so no broadcast overtakes it.
	connMu := &sync.Mutex{}
	connMu.Lock()
	h.mu.Lock()
	h.clients[conn] = connMu
	latest := h.latest
	h.mu.Unlock()
	defer h.drop(conn)
	h.log.Debugf("stream: client %s connected", conn.RemoteAddr())

	err = conn.WriteJSON(Message{Type: TypeHello})
	if err == nil && latest != nil {
		err = conn.WriteJSON(latest)
	}
	connMu.Unlock()
	if err != nil {
		return
	}

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warnf("stream: read: %v", err)
			}
			return
		}
		select {
		case h.commands <- cmd:
		default:
			h.log.Warnf("stream: command queue full, dropping %s", cmd.Type)
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
