package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// User mirrors the users table row (spec.md §3).
type User struct {
	ID            int64
	Username      string
	ReferralCode  string
	ReferrerID    *int64
	IsTreasury    bool
	CreatedAt     time.Time
}

// Trade mirrors the trades table row.
type Trade struct {
	ID         int64
	TradeID    string
	Chain      string
	TraderID   int64
	FeeToken   string
	FeeAmount  decimal.Decimal
	ExecutedAt time.Time
}

// AccrualEntry mirrors one append-only accrual_entries row.
type AccrualEntry struct {
	ID                int64
	TradeID           int64
	TradeBusinessID   string
	Chain             string
	BeneficiaryUserID int64
	Kind              AccrualKind
	Token             string
	Amount            decimal.Decimal
	ExecutedAt        time.Time
}

// LedgerRow mirrors one accrual_ledger aggregate row, keyed by
// (user_id, kind, token).
type LedgerRow struct {
	UserID        int64
	Kind          AccrualKind
	Token         string
	AccruedAmount decimal.Decimal
	ClaimedAmount decimal.Decimal
	UpdatedAt     time.Time
}

// Unclaimed returns accrued - claimed for this row.
func (r LedgerRow) Unclaimed() decimal.Decimal {
	return r.AccruedAmount.Sub(r.ClaimedAmount)
}

// PayoutBatch mirrors one payout_batches row.
type PayoutBatch struct {
	ID        int64
	UserID    int64
	Token     string
	Amount    decimal.Decimal
	Status    string
	CreatedAt time.Time
}

// NetworkUser is one entry in a downline level (C7).
type NetworkUser struct {
	UserID     int64
	Username   string
	JoinedAt   time.Time
	ReferrerID *int64
}

// NetworkLevel is one level of a downline walk.
type NetworkLevel struct {
	Level int
	Users []NetworkUser
}
