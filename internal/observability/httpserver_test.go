package observability

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeEngineStatus struct {
	tick        uint64
	hash        uint64
	subscribers int
}

func (f fakeEngineStatus) Tick() uint64        { return f.tick }
func (f fakeEngineStatus) LatestHash() uint64  { return f.hash }
func (f fakeEngineStatus) SubscriberCount() int { return f.subscribers }

func TestHealthzReturnsOK(t *testing.T) {
	r := NewRouter(RouterConfig{Engine: fakeEngineStatus{}, DisableLogging: true})
	ts := httptest.NewServer(r)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestStatusReflectsEngine(t *testing.T) {
	r := NewRouter(RouterConfig{
		Engine:         fakeEngineStatus{tick: 42, hash: 0xdead, subscribers: 3},
		DisableLogging: true,
	})
	ts := httptest.NewServer(r)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/status")
	if err != nil {
		t.Fatalf("GET /status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Tick != 42 || body.Hash != 0xdead || body.Subscribers != 3 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestMetricsEndpointServesPrometheusFormat(t *testing.T) {
	r := NewRouter(RouterConfig{Engine: fakeEngineStatus{}, DisableLogging: true})
	ts := httptest.NewServer(r)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestStatusFeedRouteMountedOnlyWhenProvided(t *testing.T) {
	without := NewRouter(RouterConfig{Engine: fakeEngineStatus{}, DisableLogging: true})
	wts := httptest.NewServer(without)
	defer wts.Close()

	resp, err := http.Get(wts.URL + "/ws/status")
	if err != nil {
		t.Fatalf("GET /ws/status: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusSwitchingProtocols {
		t.Fatalf("expected /ws/status to be unmounted without a StatusFeed")
	}
}
