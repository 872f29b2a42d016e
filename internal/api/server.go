// Package api is the thin HTTP surface in front of the matching engine.
// Everything beyond accepting a batch-match request, decoding it, and
// calling into the engine is out of scope here — routing and JSON only.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/pinggolf/redblue-matcher/internal/config"
	"github.com/pinggolf/redblue-matcher/internal/engine"
	"github.com/pinggolf/redblue-matcher/internal/export"
	"github.com/pinggolf/redblue-matcher/internal/store"
)

// Server wires the HTTP router to a single Engine.
type Server struct {
	config  *config.Config
	engine  *engine.Engine
	cleaner store.Cleaner
	router  *mux.Router
}

// NewServer creates a Server and registers its routes.
func NewServer(cfg *config.Config, eng *engine.Engine, cleaner store.Cleaner) *Server {
	s := &Server{
		config:  cfg,
		engine:  eng,
		cleaner: cleaner,
		router:  mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

// Router returns the configured HTTP handler with CORS applied.
func (s *Server) Router() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
	return c.Handler(s.router)
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/batch-match", s.handleBatchMatch).Methods("POST")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type batchMatchRequest struct {
	BillIDs        []string `json:"bill_ids"`
	Concurrency    int      `json:"concurrency,omitempty"`
	TimeoutSeconds int      `json:"bill_timeout_seconds,omitempty"`
	CleanFirst     bool     `json:"clean_first,omitempty"`
}

// handleBatchMatch runs BatchMatch synchronously and returns a summary.
// The request blocks until every bill has finished; progress for long
// batches is visible only through the NATS progress subjects.
func (s *Server) handleBatchMatch(w http.ResponseWriter, r *http.Request) {
	var req batchMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.BillIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bill_ids must not be empty"})
		return
	}

	concurrency := req.Concurrency
	if concurrency <= 0 {
		concurrency = s.config.BillConcurrency
	}
	billTimeout := s.config.BillTimeout
	if req.TimeoutSeconds > 0 {
		billTimeout = time.Duration(req.TimeoutSeconds) * time.Second
	}

	ctx := r.Context()
	if req.CleanFirst && s.cleaner != nil {
		if err := s.cleaner.DeleteMatchesForBills(ctx, req.BillIDs); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
	}

	result := s.engine.BatchMatch(ctx, req.BillIDs, concurrency, billTimeout)

	if s.config.ResultsExportDir != "" {
		if path, err := export.WriteBatchResult(s.config.ResultsExportDir, &result); err != nil {
			log.Printf("failed to export batch result: %v", err)
		} else {
			result.ExportPath = path
		}
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
