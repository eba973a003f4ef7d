package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anujk/carrydash/pkg/models"
	"github.com/anujk/carrydash/pkg/scanner"
)

type Server struct {
	scanner   *scanner.Scanner
	scheduler *scanner.Scheduler
	symbols   []string
	hub       *Hub
	logger    *logrus.Logger
	port      string
}

func NewServer(sc *scanner.Scanner, sched *scanner.Scheduler, symbols []string, logger *logrus.Logger, port string) *Server {
	s := &Server{
		scanner:   sc,
		scheduler: sched,
		symbols:   symbols,
		hub:       NewHub(logger),
		logger:    logger,
		port:      port,
	}
	sched.Subscribe(func(result models.CycleResult) {
		s.hub.Broadcast(newSnapshotView(result))
	})
	return s
}

func (s *Server) Start() error {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/snapshot", s.handleSnapshot)
	mux.HandleFunc("/api/refresh", s.handleRefresh)
	mux.HandleFunc("/api/symbols", s.handleSymbols)
	mux.HandleFunc("/ws", s.hub.HandleConnection)

	// Enable CORS for the dashboard frontend
	handler := corsMiddleware(mux)

	s.logger.Infof("Starting API server on port %s", s.port)
	return http.ListenAndServe(":"+s.port, handler)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, http.StatusOK, newSnapshotView(s.scanner.Latest()))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	result := s.scheduler.Refresh(ctx)
	s.writeJSON(w, http.StatusOK, newSnapshotView(result))
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbols": s.symbols,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("Failed to encode JSON response")
	}
}
