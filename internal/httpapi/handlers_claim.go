package httpapi

import (
	"encoding/json"
	"net/http"
)

// defaultClaimToken is used when a claim request omits token, mirroring
// original_source/app.py's ReferralClaimRequest.token default.
const defaultClaimToken = "USDC"

// handleClaimPreview implements POST /api/referral/claim (spec.md §4.6, §6).
func (s *Server) handleClaimPreview(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Token == "" {
		req.Token = defaultClaimToken
	}
	if req.UserID == 0 {
		respondError(w, "user_id is required", http.StatusBadRequest)
		return
	}

	preview, err := s.claim.PreviewClaim(r.Context(), req.UserID, req.Token)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newClaimPreviewResponse(preview))
}

// handleClaimExecute implements POST /api/referral/claim/execute.
func (s *Server) handleClaimExecute(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Token == "" {
		req.Token = defaultClaimToken
	}
	if req.UserID == 0 {
		respondError(w, "user_id is required", http.StatusBadRequest)
		return
	}

	batch, err := s.claim.ExecuteClaim(r.Context(), req.UserID, req.Token)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newClaimExecuteResponse(batch))
}
