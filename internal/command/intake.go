package command

import (
	"bufio"
	"log"
	"net"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// QueueSize bounds how many parsed commands can be waiting for the
// scheduler to drain at the top of the next tick before new ones start
// displacing the oldest, same drop-oldest policy as the snapshot
// fan-out's subscriber queues.
const QueueSize = 256

// RateLimit and RateBurst cap how many lines per second a single
// connection may submit before its lines are rejected and logged
// without being queued.
const (
	RateLimit = 20
	RateBurst = 40
)

// Intake is the command-intake TCP listener: it accepts connections,
// parses one command per line, and feeds well-formed commands onto a
// shared bounded queue for the scheduler to drain each tick.
type Intake struct {
	listener net.Listener
	queue    chan Command

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	done  chan struct{}
	wg    sync.WaitGroup
}

// Listen binds addr and returns an Intake ready to Run.
func Listen(addr string) (*Intake, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Intake{
		listener: ln,
		queue:    make(chan Command, QueueSize),
		conns:    make(map[net.Conn]struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Queue exposes the channel the scheduler reads parsed commands from.
func (in *Intake) Queue() <-chan Command { return in.queue }

// Run accepts connections until Close is called. It blocks, so callers
// run it in its own goroutine.
func (in *Intake) Run() {
	for {
		conn, err := in.listener.Accept()
		if err != nil {
			select {
			case <-in.done:
				return
			default:
			}
			log.Printf("⚠️  command intake accept error: %v", err)
			continue
		}
		in.mu.Lock()
		in.conns[conn] = struct{}{}
		in.mu.Unlock()

		in.wg.Add(1)
		go in.handleConn(conn)
	}
}

// Close stops accepting new connections and disconnects every client.
func (in *Intake) Close() error {
	close(in.done)
	err := in.listener.Close()

	in.mu.Lock()
	for conn := range in.conns {
		conn.Close()
	}
	in.mu.Unlock()

	in.wg.Wait()
	return err
}

func (in *Intake) handleConn(conn net.Conn) {
	defer in.wg.Done()
	defer func() {
		in.mu.Lock()
		delete(in.conns, conn)
		in.mu.Unlock()
		conn.Close()
	}()

	limiter := rate.NewLimiter(RateLimit, RateBurst)
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !limiter.Allow() {
			log.Printf("⚠️  command intake: %s rate-limited, dropping %q", conn.RemoteAddr(), line)
			continue
		}

		cmd, err := ParseLine(line)
		if err != nil {
			log.Printf("⚠️  command intake: rejecting %q from %s: %v", line, conn.RemoteAddr(), err)
			continue
		}

		select {
		case in.queue <- cmd:
		default:
			select {
			case <-in.queue:
			default:
			}
			select {
			case in.queue <- cmd:
			default:
			}
			log.Printf("⚠️  command queue full, dropped oldest command to admit %q", line)
		}
	}
}

// DrainNow returns every command currently queued without blocking,
// called once at the start of each tick.
func DrainNow(queue <-chan Command) []Command {
	var cmds []Command
	for {
		select {
		case cmd := <-queue:
			cmds = append(cmds, cmd)
		default:
			return cmds
		}
	}
}
