// Package status exposes a small local HTTP surface over the live session:
// health, the current timer projection and the active workspace scope. It is
// what widgets and shell integrations poll instead of linking the client.
package status

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Kieransaunders/iTimedIT-sub000/internal/timer"
	"github.com/Kieransaunders/iTimedIT-sub000/internal/workspace"
	"github.com/Kieransaunders/iTimedIT-sub000/pkg/types"
)

// Config holds server configuration.
type Config struct {
	Port         int
	EnableCORS   bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:         7823,
		EnableCORS:   true,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Server is the status HTTP server.
type Server struct {
	config     *Config
	router     *chi.Mux
	httpSrv    *http.Server
	controller *timer.Controller
	workspace  *workspace.Manager
}

// New creates a new Server instance.
func New(cfg *Config, controller *timer.Controller, ws *workspace.Manager) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	s := &Server{
		config:     cfg,
		router:     chi.NewRouter(),
		controller: controller,
		workspace:  ws,
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for the server.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RealIP)

	if s.config.EnableCORS {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}
}

// setupRoutes configures all routes.
func (s *Server) setupRoutes() {
	r := s.router

	r.Get("/healthz", s.health)
	r.Get("/status", s.getStatus)
	r.Get("/timer", s.getTimer)
	r.Get("/workspace", s.getWorkspace)
}

// StatusResponse is the aggregate poll payload.
type StatusResponse struct {
	Scope          types.WorkspaceScope `json:"scope"`
	SessionState   timer.SessionState   `json:"sessionState"`
	ElapsedSeconds int64                `json:"elapsedSeconds"`
	NetworkError   bool                 `json:"networkError"`
	Switching      bool                 `json:"switching"`
}

// WorkspaceResponse describes the active scope and available switches.
type WorkspaceResponse struct {
	Scope       types.WorkspaceScope `json:"scope"`
	Memberships []types.Membership   `json:"memberships"`
	Switching   bool                 `json:"switching"`
	LastError   string               `json:"lastError,omitempty"`
}

// TimerResponse wraps the live projection so idle serializes as an explicit
// null rather than a missing body.
type TimerResponse struct {
	Timer          *types.RunningTimer `json:"timer"`
	ElapsedSeconds int64               `json:"elapsedSeconds"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Scope:          s.workspace.Scope(),
		SessionState:   s.controller.State(),
		ElapsedSeconds: s.controller.Elapsed(),
		NetworkError:   s.controller.NetworkError(),
		Switching:      s.workspace.Switching(),
	})
}

func (s *Server) getTimer(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TimerResponse{
		Timer:          s.controller.Current(),
		ElapsedSeconds: s.controller.Elapsed(),
	})
}

func (s *Server) getWorkspace(w http.ResponseWriter, r *http.Request) {
	ms := s.workspace.Memberships()
	if ms == nil {
		ms = []types.Membership{}
	}
	writeJSON(w, http.StatusOK, WorkspaceResponse{
		Scope:       s.workspace.Scope(),
		Memberships: ms,
		Switching:   s.workspace.Switching(),
		LastError:   s.workspace.LastError(),
	})
}

// Handler returns the router, used by tests and embedding callers.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening on the configured port. It blocks until the server
// exits.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	return s.httpSrv.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}
