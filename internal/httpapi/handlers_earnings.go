package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/withobsrvr/referral-accrual-engine/internal/earnings"
)

// handleEarnings implements GET /api/referral/earnings (spec.md §4.5, §6).
func (s *Server) handleEarnings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	userID, err := strconv.ParseInt(q.Get("user_id"), 10, 64)
	if err != nil || userID == 0 {
		respondError(w, "user_id is required", http.StatusBadRequest)
		return
	}

	from, err := parseOptionalTime(q.Get("from"))
	if err != nil {
		respondError(w, "invalid from timestamp", http.StatusBadRequest)
		return
	}
	to, err := parseOptionalTime(q.Get("to"))
	if err != nil {
		respondError(w, "invalid to timestamp", http.StatusBadRequest)
		return
	}

	includeBreakdown := q.Get("include_breakdown") == "true"
	breakdownLimit := intParam(q, "breakdown_limit", s.defaults.BreakdownLimit, 1, 500)

	query := earnings.Query{
		UserID:           userID,
		From:             from,
		To:               to,
		IncludeBreakdown: includeBreakdown,
		BreakdownLimit:   breakdownLimit,
	}

	view, err := s.earnings.View(r.Context(), query)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newEarningsResponse(userID, view, query))
}

func parseOptionalTime(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
