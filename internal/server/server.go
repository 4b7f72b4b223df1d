// Package server exposes the tracker over HTTP: experiment listings with
// live recommendations, the transition endpoints, the keyword registry,
// and a token-protected dashboard.
package server

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/serptrack/serptrack/internal/engine"
	"github.com/serptrack/serptrack/internal/lifecycle"
	"github.com/serptrack/serptrack/internal/store"
)

type Server struct {
	store     *store.SQLiteStore
	svc       *lifecycle.Service
	advisor   *engine.Advisor
	host      string
	port      int
	token     string
	tokenFile string
	locks     keyedLocks
	startTime time.Time
}

func New(s *store.SQLiteStore, svc *lifecycle.Service, advisor *engine.Advisor, host string, port int, tokenFile string) *Server {
	return &Server{
		store:     s,
		svc:       svc,
		advisor:   advisor,
		host:      host,
		port:      port,
		token:     generateToken(),
		tokenFile: tokenFile,
		startTime: time.Now(),
	}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/users/{userID}", func(r chi.Router) {
		r.Get("/experiments", s.handleListExperiments)
		r.Get("/experiment", s.handleGetExperiment)
		r.Get("/recommendation", s.handleRecommendation)
		r.Get("/rewrite-plan", s.handleRewritePlan)
		r.Get("/meta-plan", s.handleMetaPlan)

		r.Post("/implement", s.handleImplement)
		r.Post("/pivot", s.handlePivot)
		r.Post("/optimize-meta", s.handleOptimizeMeta)
		r.Post("/rewrite", s.handleConfirmRewrite)
		r.Post("/extend", s.handleExtendWait)
		r.Post("/refresh", s.handleRefresh)

		r.Get("/assignments", s.handleGetAssignments)
		r.Put("/assignments", s.handlePutAssignments)
	})

	r.Get("/dashboard", s.authMiddleware(http.HandlerFunc(s.handleDashboard)).ServeHTTP)

	return r
}

func (s *Server) Start() error {
	if s.tokenFile != "" {
		if err := os.WriteFile(s.tokenFile, []byte(s.token), 0600); err != nil {
			fmt.Printf("Warning: failed to write token file: %v\n", err)
		}
	}

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) Token() string {
	return s.token
}

// keyedLocks serializes transitions per (user, page). Two concurrent
// pivots for the same page would otherwise both archive the same cycle.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedLocks) lock(userID, pageURL string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	key := userID + "\x00" + pageURL
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func generateToken() string {
	bytes := make([]byte, 4)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to a simple token if crypto/rand fails
		return "a1b2c3d4"
	}
	return hex.EncodeToString(bytes)
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
