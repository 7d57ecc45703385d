package fanout

import (
	"net"
	"testing"
	"time"

	"holdfast/internal/wire"
)

func TestBroadcastDeliversFrameToSubscriber(t *testing.T) {
	s, err := Listen("127.0.0.1:0", 4)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer s.Close()
	go s.Run()

	conn, err := net.Dial("tcp", s.listener.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	waitForCount(t, s, 1)

	s.Broadcast([]byte("tick-1"))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	got, err := wire.ReadFrame(conn)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if string(got) != "tick-1" {
		t.Fatalf("got frame %q, want %q", got, "tick-1")
	}
}

func TestDropOldestNeverBlocksOnAFullQueue(t *testing.T) {
	s, err := Listen("127.0.0.1:0", 1)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer s.Close()
	go s.Run()

	conn, err := net.Dial("tcp", s.listener.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	waitForCount(t, s, 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			s.Broadcast([]byte("frame"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcast blocked under a full subscriber queue")
	}
}

func TestConnectLimiterRejectsBeyondBurst(t *testing.T) {
	cl := newConnectLimiter(make(chan struct{}))

	for i := 0; i < ConnectRateBurst; i++ {
		if !cl.allow("203.0.113.1") {
			t.Fatalf("connect %d within burst was rejected", i)
		}
	}
	if cl.allow("203.0.113.1") {
		t.Fatal("connect beyond burst was allowed")
	}
	if !cl.allow("203.0.113.2") {
		t.Fatal("a different IP was rejected by another IP's exhausted bucket")
	}
}

func waitForCount(t *testing.T, s *Server, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.Count() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("subscriber count never reached %d", want)
}
