package httpapi

import (
	"net/http"
	"strconv"

	"github.com/withobsrvr/referral-accrual-engine/internal/domain"
	"github.com/withobsrvr/referral-accrual-engine/internal/store"
)

// handleNetwork implements GET /api/referral/network (spec.md §4.7, §6).
func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	userID, err := strconv.ParseInt(q.Get("user_id"), 10, 64)
	if err != nil || userID == 0 {
		respondError(w, "user_id is required", http.StatusBadRequest)
		return
	}

	maxLevels := intParam(q, "max_levels", s.defaults.MaxLevels, 1, 5)
	limitPerLevel := intParam(q, "limit_per_level", s.defaults.LimitPerLevel, 1, 500)

	repo := store.New(s.db)
	levels, err := domain.Downline(r.Context(), repo, userID, maxLevels, limitPerLevel)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newNetworkResponse(userID, maxLevels, limitPerLevel, levels))
}

// intParam parses a bounded integer query parameter, falling back to
// fallback when absent or malformed, and clamping to [min, max].
func intParam(q map[string][]string, key string, fallback, min, max int) int {
	raw, ok := q[key]
	if !ok || len(raw) == 0 || raw[0] == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw[0])
	if err != nil {
		return fallback
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
