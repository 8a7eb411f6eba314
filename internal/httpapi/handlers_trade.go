package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/withobsrvr/referral-accrual-engine/internal/accrual"
)

// handleTradeWebhook implements POST /api/webhook/trade (spec.md §4.4, §6).
func (s *Server) handleTradeWebhook(w http.ResponseWriter, r *http.Request) {
	var req tradeWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.TradeID == "" || req.Chain == "" || req.FeeToken == "" || req.TraderID == 0 {
		respondError(w, "trade_id, trader_id, chain, and fee_token are required", http.StatusBadRequest)
		return
	}

	res, err := s.accrual.Ingest(r.Context(), accrual.Event{
		TradeID:    req.TradeID,
		TraderID:   req.TraderID,
		Chain:      req.Chain,
		FeeToken:   req.FeeToken,
		FeeAmount:  req.FeeAmount,
		ExecutedAt: req.ExecutedAt,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newTradeWebhookResponse(res))
}
