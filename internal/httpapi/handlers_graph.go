package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/withobsrvr/referral-accrual-engine/internal/domain"
	"github.com/withobsrvr/referral-accrual-engine/internal/store"
)

// handleRegister implements POST /api/referral/register (spec.md §6).
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.ChildUserID == 0 || req.ReferralCode == "" {
		respondError(w, "child_user_id and referral_code are required", http.StatusBadRequest)
		return
	}

	tx, err := s.db.BeginTx(r.Context(), nil)
	if err != nil {
		respondError(w, "could not start transaction", http.StatusInternalServerError)
		return
	}
	defer tx.Rollback()

	repo := store.New(tx)
	parentID, err := domain.AssignReferrer(r.Context(), repo, req.ChildUserID, req.ReferralCode)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if err := tx.Commit(); err != nil {
		respondError(w, "could not commit transaction", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, registerResponse{
		Status:   "linked",
		ChildID:  req.ChildUserID,
		ParentID: parentID,
	})
}

// handleGenerate implements POST /api/referral/generate.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.UserID == 0 {
		respondError(w, "user_id is required", http.StatusBadRequest)
		return
	}

	repo := store.New(s.db)
	code, err := domain.GetOrAssignReferralCode(r.Context(), repo, req.UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, generateResponse{UserID: req.UserID, ReferralCode: code})
}

// handleUserLookup implements the supplemented GET /api/referral/user
// endpoint, mirroring original_source's username-to-id lookup.
func (s *Server) handleUserLookup(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		respondError(w, "username query parameter is required", http.StatusBadRequest)
		return
	}

	repo := store.New(s.db)
	user, err := repo.GetUserByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondError(w, "no user found with that username", http.StatusNotFound)
			return
		}
		respondError(w, "store error", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, userLookupResponse{
		UserID:       user.ID,
		Username:     user.Username,
		ReferralCode: user.ReferralCode,
		ReferrerID:   user.ReferrerID,
	})
}
