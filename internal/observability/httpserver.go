package observability

import (
	"encoding/json"
	"log"
	"net/http"
	"net/http/pprof"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// EngineStatus is the minimal read-only view the admin HTTP surface
// needs from the running engine. Kept to three methods so this package
// never has to import the engine or snapshot packages.
type EngineStatus interface {
	Tick() uint64
	LatestHash() uint64
	SubscriberCount() int
}

// RouterConfig carries the dependencies NewRouter needs to build the
// admin HTTP surface.
type RouterConfig struct {
	// Engine is queried by the /status endpoint. Required.
	Engine EngineStatus

	// CORSOrigins overrides the default allow-list.
	CORSOrigins []string

	// DisableLogging turns off the request logger middleware, same
	// knob the teacher's router exposes for benchmarking.
	DisableLogging bool

	// StatusFeed, if set, is mounted at /ws/status as a read-only
	// WebSocket tick/hash feed.
	StatusFeed *StatusFeed
}

// statusResponse is the JSON body /status returns.
type statusResponse struct {
	Tick        uint64 `json:"tick"`
	Hash        uint64 `json:"hash"`
	Subscribers int    `json:"subscribers"`
}

// NewRouter builds the admin HTTP router. Pure: it opens no listener
// and starts no goroutine, so it is safe to exercise directly with
// httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	limiter := rate.NewLimiter(50, 100)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !limiter.Allow() {
				http.Error(w, "rate limited", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, req)
		})
	})

	origins := cfg.CORSOrigins
	if origins == nil {
		origins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(statusResponse{
			Tick:        cfg.Engine.Tick(),
			Hash:        cfg.Engine.LatestHash(),
			Subscribers: cfg.Engine.SubscriberCount(),
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	if cfg.StatusFeed != nil {
		r.Get("/ws/status", cfg.StatusFeed.ServeHTTP)
	}

	// pprof: bound to this same router rather than a second listener,
	// but StartServer below still only binds ObservAddr, which Load's
	// default keeps on 127.0.0.1 — never expose this on a public addr.
	r.HandleFunc("/debug/pprof/", pprof.Index)
	r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	r.HandleFunc("/debug/pprof/profile", pprof.Profile)
	r.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	r.HandleFunc("/debug/pprof/trace", pprof.Trace)

	return r
}

// StartServer launches the admin HTTP surface on addr. It blocks, so
// callers run it in its own goroutine; a non-graceful ListenAndServe
// error is logged rather than returned since there is no listener for
// the caller to retry.
func StartServer(addr string, cfg RouterConfig) {
	log.Printf("📊 observability server starting on %s", addr)
	if err := http.ListenAndServe(addr, NewRouter(cfg)); err != nil {
		log.Printf("⚠️  observability server error: %v", err)
	}
}
