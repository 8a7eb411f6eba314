// Package claim implements the claim engine (C6): executing and
// previewing a user's claimable balance for a token.
package claim

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/withobsrvr/referral-accrual-engine/internal/domain"
	"github.com/withobsrvr/referral-accrual-engine/internal/store"
)

// Preview is the result of PreviewClaim.
type Preview struct {
	UserID  int64
	Token   string
	Total   decimal.Decimal
	PerKind map[domain.AccrualKind]decimal.Decimal
}

// Batch is the result of ExecuteClaim.
type Batch struct {
	BatchID   int64
	UserID    int64
	Token     string
	Amount    decimal.Decimal
	Status    string
	PerKind   map[domain.AccrualKind]decimal.Decimal
	CreatedAt time.Time
}

// Engine wires a *sql.DB to the claim operations.
type Engine struct {
	db *sql.DB
}

// New builds an Engine.
func New(db *sql.DB) *Engine {
	return &Engine{db: db}
}

// PreviewClaim mirrors ExecuteClaim's steps 1-3 without taking a lock or
// writing anything (spec.md §4.6's UI-facing preview operation).
func (e *Engine) PreviewClaim(ctx context.Context, userID int64, token string) (Preview, error) {
	repo := store.New(e.db)

	rows, err := repo.LedgerRowsAllTime(ctx, userID)
	if err != nil {
		return Preview{}, domain.Wrap(domain.KindStoreError, err)
	}

	filtered := make([]domain.LedgerRow, 0, len(rows))
	for _, row := range rows {
		if row.Token == token {
			filtered = append(filtered, row)
		}
	}
	if len(filtered) == 0 {
		return Preview{}, domain.New(domain.KindNoBalance, "no ledger balance for this token")
	}

	total, perKind := sumClaimable(filtered)
	if !total.IsPositive() {
		return Preview{}, domain.New(domain.KindNothingToClaim, "nothing left to claim")
	}

	return Preview{UserID: userID, Token: token, Total: total, PerKind: perKind}, nil
}

// ExecuteClaim implements spec.md §4.6 in one transaction.
func (e *Engine) ExecuteClaim(ctx context.Context, userID int64, token string) (Batch, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return Batch{}, domain.Wrap(domain.KindStoreError, fmt.Errorf("begin claim tx: %w", err))
	}
	defer tx.Rollback()

	repo := store.New(tx)

	rows, err := repo.LedgerRowsForUpdate(ctx, userID, token)
	if err != nil {
		return Batch{}, domain.Wrap(domain.KindStoreError, err)
	}
	if len(rows) == 0 {
		return Batch{}, domain.New(domain.KindNoBalance, "no ledger balance for this token")
	}

	total, perKind := sumClaimable(rows)
	if !total.IsPositive() {
		return Batch{}, domain.New(domain.KindNothingToClaim, "nothing left to claim")
	}

	if err := repo.MarkClaimableClaimed(ctx, userID, token, domain.ClaimableKinds); err != nil {
		return Batch{}, domain.Wrap(domain.KindStoreError, err)
	}

	batchID, createdAt, err := repo.InsertPayoutBatch(ctx, userID, token, total)
	if err != nil {
		return Batch{}, domain.Wrap(domain.KindStoreError, err)
	}

	if err := tx.Commit(); err != nil {
		return Batch{}, domain.Wrap(domain.KindStoreError, err)
	}

	return Batch{
		BatchID:   batchID,
		UserID:    userID,
		Token:     token,
		Amount:    total,
		Status:    "pending",
		PerKind:   perKind,
		CreatedAt: createdAt,
	}, nil
}

// sumClaimable restricts rows to the claimable kinds, sums strictly
// positive unclaimed amounts, and returns both the total and the per-kind
// breakdown (spec.md §4.6 step 2).
func sumClaimable(rows []domain.LedgerRow) (decimal.Decimal, map[domain.AccrualKind]decimal.Decimal) {
	claimable := make(map[domain.AccrualKind]bool, len(domain.ClaimableKinds))
	for _, k := range domain.ClaimableKinds {
		claimable[k] = true
	}

	total := domain.Zero()
	perKind := make(map[domain.AccrualKind]decimal.Decimal)

	for _, row := range rows {
		if !claimable[row.Kind] {
			continue
		}
		unclaimed := row.Unclaimed()
		if !unclaimed.IsPositive() {
			continue
		}
		total = total.Add(unclaimed)
		perKind[row.Kind] = unclaimed
	}

	return total, perKind
}
