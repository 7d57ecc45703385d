// Package fanout runs the non-blocking TCP broadcast server that pushes
// every committed tick's wire frame out to connected subscribers. The
// simulation thread calls Broadcast and returns immediately: a slow or
// stalled subscriber can only ever lose its own oldest queued frame, it
// can never block the tick loop or any other subscriber.
package fanout

import (
	"errors"
	"log"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"holdfast/internal/observability"
	"holdfast/internal/wire"
)

// DefaultQueueSize bounds how many frames a single subscriber can be
// behind before its oldest queued frame is dropped to make room for the
// newest one.
const DefaultQueueSize = 64

// ConnectRateLimit and ConnectRateBurst cap how many new subscriber
// connections a single IP may open per second before further connects
// are rejected and logged, same per-IP token-bucket policy as
// internal/api/ratelimit.go's IPRateLimiter applied here to connects
// rather than requests.
const (
	ConnectRateLimit = 2
	ConnectRateBurst = 5
)

// connectLimiterCleanupInterval bounds how long a per-IP limiter entry
// is kept after its last connect attempt before it is evicted.
const connectLimiterCleanupInterval = 5 * time.Minute

// subscriber is one connected client's outbound frame queue.
type subscriber struct {
	conn   net.Conn
	frames chan []byte
	addr   string
}

// Server accepts subscriber connections and broadcasts frames to all of
// them.
type Server struct {
	listener  net.Listener
	queueSize int
	connLimit *connectLimiter

	mu   sync.Mutex
	subs map[*subscriber]struct{}

	register   chan *subscriber
	unregister chan *subscriber
	broadcast  chan []byte
	done       chan struct{}
	wg         sync.WaitGroup
}

// connectLimiterEntry tracks one IP's connect-rate token bucket.
type connectLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// connectLimiter is a per-IP token bucket guarding how fast new
// subscriber connections are accepted, grounded on
// internal/api/ratelimit.go's IPRateLimiter (sync.Map of per-source
// limiters plus a periodic cleanup goroutine to bound memory).
type connectLimiter struct {
	entries sync.Map // map[string]*connectLimiterEntry
	done    chan struct{}
}

func newConnectLimiter(done chan struct{}) *connectLimiter {
	cl := &connectLimiter{done: done}
	go cl.cleanupLoop()
	return cl
}

func (cl *connectLimiter) allow(ip string) bool {
	now := time.Now()
	if v, ok := cl.entries.Load(ip); ok {
		e := v.(*connectLimiterEntry)
		e.lastSeen = now
		return e.limiter.Allow()
	}
	e := &connectLimiterEntry{
		limiter:  rate.NewLimiter(rate.Limit(ConnectRateLimit), ConnectRateBurst),
		lastSeen: now,
	}
	actual, _ := cl.entries.LoadOrStore(ip, e)
	return actual.(*connectLimiterEntry).limiter.Allow()
}

func (cl *connectLimiter) cleanupLoop() {
	ticker := time.NewTicker(connectLimiterCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-cl.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-connectLimiterCleanupInterval)
			cl.entries.Range(func(key, value any) bool {
				if value.(*connectLimiterEntry).lastSeen.Before(cutoff) {
					cl.entries.Delete(key)
				}
				return true
			})
		}
	}
}

// Listen binds addr and returns a Server ready to Run. queueSize <= 0
// falls back to DefaultQueueSize.
func Listen(addr string, queueSize int) (*Server, error) {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	done := make(chan struct{})
	return &Server{
		listener:   ln,
		queueSize:  queueSize,
		connLimit:  newConnectLimiter(done),
		subs:       make(map[*subscriber]struct{}),
		register:   make(chan *subscriber),
		unregister: make(chan *subscriber),
		broadcast:  make(chan []byte, 16),
		done:       done,
	}, nil
}

// Run accepts connections and fans out broadcast frames until Close is
// called. It blocks, so callers run it in its own goroutine.
func (s *Server) Run() {
	s.wg.Add(1)
	go s.acceptLoop()

	for {
		select {
		case sub := <-s.register:
			s.mu.Lock()
			s.subs[sub] = struct{}{}
			s.mu.Unlock()
			log.Printf("📡 snapshot subscriber connected: %s (total=%d)", sub.addr, s.Count())
		case sub := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.subs[sub]; ok {
				delete(s.subs, sub)
				close(sub.frames)
			}
			s.mu.Unlock()
		case frame := <-s.broadcast:
			s.mu.Lock()
			for sub := range s.subs {
				enqueueDropOldest(sub.frames, frame)
			}
			s.mu.Unlock()
		case <-s.done:
			return
		}
	}
}

// Broadcast queues frame for delivery to every current subscriber. It
// never blocks: if the internal broadcast channel is momentarily full,
// the oldest queued frame is dropped in its place.
func (s *Server) Broadcast(frame []byte) {
	enqueueDropOldest(s.broadcast, frame)
}

// Count reports how many subscribers are currently connected.
func (s *Server) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Close stops accepting new connections, disconnects every subscriber,
// and waits for internal goroutines to exit.
func (s *Server) Close() error {
	close(s.done)
	err := s.listener.Close()
	s.wg.Wait()

	s.mu.Lock()
	for sub := range s.subs {
		sub.conn.Close()
	}
	s.mu.Unlock()
	return err
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Printf("⚠️  snapshot accept error: %v", err)
			continue
		}

		ip := connectIP(conn)
		if !s.connLimit.allow(ip) {
			log.Printf("⚠️  snapshot connect from %s rate-limited, dropping connection", ip)
			conn.Close()
			continue
		}

		if tcpConn, ok := conn.(*net.TCPConn); ok {
			if err := tcpConn.SetNoDelay(true); err != nil {
				log.Printf("⚠️  snapshot TCP_NODELAY failed: %v", err)
			}
		}

		sub := &subscriber{
			conn:   conn,
			frames: make(chan []byte, s.queueSize),
			addr:   conn.RemoteAddr().String(),
		}
		select {
		case s.register <- sub:
		case <-s.done:
			conn.Close()
			return
		}
		go s.writeLoop(sub)
	}
}

func (s *Server) writeLoop(sub *subscriber) {
	defer sub.conn.Close()
	for frame := range sub.frames {
		if err := wire.WriteFrame(sub.conn, frame); err != nil {
			log.Printf("⚠️  dropping snapshot subscriber %s: %v", sub.addr, err)
			select {
			case s.unregister <- sub:
			case <-s.done:
			}
			return
		}
	}
}

// connectIP extracts the bare IP from a subscriber connection's remote
// address, falling back to the full address if it carries no port.
func connectIP(conn net.Conn) string {
	addr := conn.RemoteAddr().String()
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

// enqueueDropOldest sends frame on ch without blocking. If ch is full,
// its oldest buffered item is discarded to make room for frame, so a
// slow reader always sees the most recent data rather than the deepest
// backlog.
func enqueueDropOldest(ch chan []byte, frame []byte) {
	select {
	case ch <- frame:
		return
	default:
	}
	select {
	case <-ch:
		observability.IncDroppedFrames()
	default:
	}
	select {
	case ch <- frame:
	default:
	}
}
