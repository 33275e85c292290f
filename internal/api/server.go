package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/quantfold/trading-engine/internal/engine"
	"github.com/quantfold/trading-engine/internal/logger"
	"github.com/quantfold/trading-engine/internal/monitoring"
)

// Server is the engine's HTTP status and control surface
type Server struct {
	log    *logger.Logger
	engine *engine.Engine
	health *monitoring.HealthChecker
	srv    *http.Server
}

// NewServer creates the API server on the given port
func NewServer(port int, eng *engine.Engine, health *monitoring.HealthChecker, log *logger.Logger) *Server {
	s := &Server{
		log:    log,
		engine: eng,
		health: health,
	}

	r := mux.NewRouter()
	r.Handle("/health", health).Methods(http.MethodGet)
	r.Handle("/metrics", monitoring.NewMetricsHandler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	v1.HandleFunc("/positions", s.handlePositions).Methods(http.MethodGet)
	v1.HandleFunc("/risk/events", s.handleRiskEvents).Methods(http.MethodGet)
	v1.HandleFunc("/limits", s.handleUpdateLimits).Methods(http.MethodPatch)
	v1.HandleFunc("/emergency/reset", s.handleEmergencyReset).Methods(http.MethodPost)

	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start serves HTTP until Shutdown is called
func (s *Server) Start() error {
	s.log.Info("API server listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Status())
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	state := s.engine.Ledger().Snapshot()
	writeJSON(w, http.StatusOK, state.Positions)
}

func (s *Server) handleRiskEvents(w http.ResponseWriter, r *http.Request) {
	events := s.engine.Ledger().RiskEvents(100)
	writeJSON(w, http.StatusOK, events)
}

// handleUpdateLimits applies a validated risk limit update. The body
// is a flat map of parameter name to value; unknown keys reject the
// whole update.
func (s *Server) handleUpdateLimits(w http.ResponseWriter, r *http.Request) {
	var updates map[string]float64
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return
	}
	if len(updates) == 0 {
		writeError(w, http.StatusBadRequest, "no parameters given")
		return
	}

	if err := s.engine.Enforcer().ApplyUpdate(updates); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Enforcer().Limits())
}

// handleEmergencyReset clears the emergency stop latch. This is the
// explicit operator action; nothing in the engine calls it.
func (s *Server) handleEmergencyReset(w http.ResponseWriter, r *http.Request) {
	s.engine.Ledger().ResetEmergencyStop()
	s.log.Critical("emergency stop reset requested via API")
	writeJSON(w, http.StatusOK, map[string]bool{
		"emergency_active": s.engine.Ledger().EmergencyStopped(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
