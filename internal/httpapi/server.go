// Package httpapi exposes the accrual engine's HTTP surface (spec.md §6).
package httpapi

import (
	"database/sql"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/withobsrvr/referral-accrual-engine/internal/accrual"
	"github.com/withobsrvr/referral-accrual-engine/internal/claim"
	"github.com/withobsrvr/referral-accrual-engine/internal/earnings"
	"github.com/withobsrvr/referral-accrual-engine/internal/logging"
)

// Defaults bounds the caller-tunable query parameters per spec.md §6.
type Defaults struct {
	MaxLevels      int
	LimitPerLevel  int
	BreakdownLimit int
	TreasuryUserID int64
}

// Server wires every engine package to its HTTP handlers.
type Server struct {
	db       *sql.DB
	accrual  *accrual.Engine
	earnings *earnings.Aggregator
	claim    *claim.Engine
	logger   *logging.ComponentLogger
	defaults Defaults
}

// New builds a Server and its gorilla/mux router.
func New(db *sql.DB, logger *logging.ComponentLogger, defaults Defaults) *Server {
	if defaults.MaxLevels <= 0 {
		defaults.MaxLevels = 3
	}
	if defaults.LimitPerLevel <= 0 {
		defaults.LimitPerLevel = 50
	}
	if defaults.BreakdownLimit <= 0 {
		defaults.BreakdownLimit = 50
	}

	return &Server{
		db:       db,
		accrual:  accrual.New(db, defaults.MaxLevels, defaults.TreasuryUserID),
		earnings: earnings.New(db, defaults.BreakdownLimit),
		claim:    claim.New(db),
		logger:   logger,
		defaults: defaults,
	}
}

// Router returns the fully configured *mux.Router, wrapped with the
// request-id and access-log middleware.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReadyz).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/referral/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/referral/generate", s.handleGenerate).Methods(http.MethodPost)
	api.HandleFunc("/referral/user", s.handleUserLookup).Methods(http.MethodGet)
	api.HandleFunc("/webhook/trade", s.handleTradeWebhook).Methods(http.MethodPost)
	api.HandleFunc("/referral/network", s.handleNetwork).Methods(http.MethodGet)
	api.HandleFunc("/referral/earnings", s.handleEarnings).Methods(http.MethodGet)
	api.HandleFunc("/referral/claim", s.handleClaimPreview).Methods(http.MethodPost)
	api.HandleFunc("/referral/claim/execute", s.handleClaimExecute).Methods(http.MethodPost)

	return withRequestID(withAccessLog(s.logger, r))
}
