package observability

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// MaxStatusConnectionsTotal and MaxStatusConnectionsPerIP bound the
// status feed's WebSocket fan-out the same way the teacher's game hub
// bounds its player-facing socket: a fixed ceiling, never unbounded
// per-connection state.
const (
	MaxStatusConnectionsTotal = 200
	MaxStatusConnectionsPerIP = 5
)

var statusUpgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: 512,
	CheckOrigin:     func(r *http.Request) bool { return true }, // read-only feed, no credentials exchanged
}

// TickEvent is one message the status feed pushes: the tick just
// committed and its content hash. Never the snapshot itself — the
// snapshot/command TCP listeners are the wire protocol; this feed is
// an operator convenience only.
type TickEvent struct {
	Tick uint64 `json:"tick"`
	Hash uint64 `json:"hash"`
}

// StatusFeed is a read-only WebSocket broadcaster: it reads client
// messages only to discard them, and every connected client receives
// the same tick/hash event stream.
type StatusFeed struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]string // conn -> source ip

	perIPCount sync.Map // ip -> *int32
}

// NewStatusFeed returns an empty status feed ready to accept
// connections via ServeHTTP and publish via Publish.
func NewStatusFeed() *StatusFeed {
	return &StatusFeed{clients: make(map[*websocket.Conn]string)}
}

// Publish pushes event to every currently connected client. A client
// whose write fails is dropped; each write carries a one-second
// deadline, so Publish never blocks on a slow reader beyond that single
// failed write.
func (f *StatusFeed) Publish(event TickEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for conn, ip := range f.clients {
		conn.SetWriteDeadline(time.Now().Add(time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			delete(f.clients, conn)
			f.release(ip)
		}
	}
}

// Count reports how many status-feed clients are currently connected.
func (f *StatusFeed) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

// ServeHTTP upgrades the request to a WebSocket and registers the
// connection, enforcing the total and per-IP connection caps before
// upgrading.
func (f *StatusFeed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f.Count() >= MaxStatusConnectionsTotal {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	ip := clientIP(r)
	if !f.acquire(ip) {
		http.Error(w, "too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := statusUpgrader.Upgrade(w, r, nil)
	if err != nil {
		f.release(ip)
		log.Printf("⚠️  status feed upgrade error: %v", err)
		return
	}

	f.mu.Lock()
	f.clients[conn] = ip
	f.mu.Unlock()

	go func() {
		defer func() {
			f.mu.Lock()
			delete(f.clients, conn)
			f.mu.Unlock()
			f.release(ip)
			conn.Close()
		}()
		// Read-only feed: drain and discard until the client disconnects,
		// the same idle-reader pattern a write-only hub needs to notice a
		// closed socket.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (f *StatusFeed) acquire(ip string) bool {
	actual, _ := f.perIPCount.LoadOrStore(ip, new(int32))
	counter := actual.(*int32)
	for {
		current := atomic.LoadInt32(counter)
		if int(current) >= MaxStatusConnectionsPerIP {
			return false
		}
		if atomic.CompareAndSwapInt32(counter, current, current+1) {
			return true
		}
	}
}

func (f *StatusFeed) release(ip string) {
	if val, ok := f.perIPCount.Load(ip); ok {
		atomic.AddInt32(val.(*int32), -1)
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx >= 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
