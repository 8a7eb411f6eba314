package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/withobsrvr/referral-accrual-engine/internal/domain"
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

type errorBody struct {
	Detail string `json:"detail"`
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, errorBody{Detail: message})
}

// respondDomainError translates a *domain.Error into the HTTP status
// spec.md §7's propagation policy assigns to its Kind: rule violations
// are 400-class, store faults and unexpected errors are 500.
func respondDomainError(w http.ResponseWriter, err error) {
	var derr *domain.Error
	if !errors.As(err, &derr) {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	status := http.StatusBadRequest
	switch derr.Kind {
	case domain.KindUnknownUser, domain.KindUnknownCode:
		status = http.StatusNotFound
	case domain.KindAlreadyReferred, domain.KindSelfReferral, domain.KindCycle,
		domain.KindInvalidEvent, domain.KindNoBalance, domain.KindNothingToClaim:
		status = http.StatusBadRequest
	case domain.KindConflictRetry:
		status = http.StatusConflict
	case domain.KindMisconfigured, domain.KindStoreError:
		status = http.StatusInternalServerError
	}

	respondError(w, derr.Error(), status)
}
