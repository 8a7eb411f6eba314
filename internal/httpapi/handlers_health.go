package httpapi

import (
	"net/http"

	"github.com/withobsrvr/referral-accrual-engine/internal/store"
)

type healthBody struct {
	Status string `json:"status"`
}

// handleHealthz always returns 200 once the process is serving; it says
// nothing about the store (grounded on the corpus's /health handlers).
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, healthBody{Status: "healthy"})
}

// handleReadyz additionally pings the store, so an orchestrator can hold
// traffic back from an instance that came up without a working connection.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := store.Ping(r.Context(), s.db); err != nil {
		respondError(w, "store not reachable", http.StatusServiceUnavailable)
		return
	}
	respondJSON(w, http.StatusOK, healthBody{Status: "ready"})
}
