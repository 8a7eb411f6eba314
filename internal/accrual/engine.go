// Package accrual implements the trade accrual engine (C4): the single
// entry point that turns a trade event into journal entries and ledger
// updates, atomically and idempotently.
package accrual

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/withobsrvr/referral-accrual-engine/internal/domain"
	"github.com/withobsrvr/referral-accrual-engine/internal/store"
)

// Status is the tagged-union result of Ingest, per the corpus's preference
// for explicit result states over exceptions-for-control-flow.
type Status string

const (
	StatusApplied   Status = "applied"
	StatusDuplicate Status = "duplicate"
)

// Event is one inbound trade, per spec.md §3.
type Event struct {
	TradeID    string
	TraderID   int64
	Chain      string
	FeeToken   string
	FeeAmount  decimal.Decimal
	ExecutedAt time.Time
}

// Result is what Ingest returns on success.
type Result struct {
	Status  Status
	TradeID string
	Lineage domain.Lineage
	Splits  domain.Splits
}

// Engine wires a *sql.DB to the accrual operation. One Engine is shared
// across requests; every call opens and closes its own transaction.
type Engine struct {
	db             *sql.DB
	maxLevels      int
	treasuryUserID int64
}

// New builds an Engine. maxLevels is the lineage depth used for every
// ingest (spec.md §4.3 default is 3). treasuryUserID, when positive,
// overrides the is_treasury-flagged lookup with a fixed user id (the
// TREASURY_USER_ID config knob); zero means "resolve it from the store".
func New(db *sql.DB, maxLevels int, treasuryUserID int64) *Engine {
	if maxLevels <= 0 {
		maxLevels = domain.DefaultMaxLevels
	}
	return &Engine{db: db, maxLevels: maxLevels, treasuryUserID: treasuryUserID}
}

// Ingest implements spec.md §4.4. The entire operation — trade insert,
// lineage walk, split computation, journal writes, ledger upserts — runs
// inside one transaction, committed only on full success.
func (e *Engine) Ingest(ctx context.Context, ev Event) (Result, error) {
	if ev.FeeAmount.IsNegative() {
		return Result{}, domain.New(domain.KindInvalidEvent, "fee_amount must be non-negative")
	}
	feeAmount := domain.TruncateDown(ev.FeeAmount)

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, domain.Wrap(domain.KindStoreError, fmt.Errorf("begin ingest tx: %w", err))
	}
	defer tx.Rollback()

	repo := store.New(tx)

	trade := domain.Trade{
		TradeID:    ev.TradeID,
		Chain:      ev.Chain,
		TraderID:   ev.TraderID,
		FeeToken:   ev.FeeToken,
		FeeAmount:  feeAmount,
		ExecutedAt: ev.ExecutedAt,
	}
	tradeRowID, created, err := repo.InsertTradeIfAbsent(ctx, trade)
	if err != nil {
		return Result{}, domain.Wrap(domain.KindStoreError, err)
	}
	if !created {
		// Duplicate delivery: the transaction commits having written
		// nothing new, which is cheaper than an explicit no-op branch and
		// keeps the idempotency gate as the single source of truth.
		if err := tx.Commit(); err != nil {
			return Result{}, domain.Wrap(domain.KindStoreError, err)
		}
		return Result{Status: StatusDuplicate, TradeID: ev.TradeID}, nil
	}

	lineage, err := domain.ResolveLineage(ctx, repo, ev.TraderID, e.maxLevels)
	if err != nil {
		var derr *domain.Error
		if errors.As(err, &derr) && derr.Kind == domain.KindUnknownUser {
			return Result{}, domain.New(domain.KindInvalidEvent, "unknown trader")
		}
		return Result{}, err
	}

	splits := domain.Split(feeAmount, lineage)

	treasuryID := e.treasuryUserID
	if treasuryID <= 0 {
		treasuryID, err = repo.GetTreasuryUserID(ctx)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return Result{}, domain.New(domain.KindMisconfigured, "no treasury user configured")
			}
			return Result{}, domain.Wrap(domain.KindStoreError, err)
		}
	}

	for _, payout := range buildPayouts(ev.TraderID, lineage, treasuryID, splits) {
		entry := domain.AccrualEntry{
			TradeID:           tradeRowID,
			Chain:             ev.Chain,
			BeneficiaryUserID: payout.userID,
			Kind:              payout.kind,
			Token:             ev.FeeToken,
			Amount:            payout.amount,
			ExecutedAt:        ev.ExecutedAt,
		}
		if err := repo.InsertAccrualEntry(ctx, entry); err != nil {
			return Result{}, domain.Wrap(domain.KindStoreError, err)
		}
		if err := repo.UpsertLedgerDelta(ctx, payout.userID, payout.kind, ev.FeeToken, payout.amount); err != nil {
			return Result{}, domain.Wrap(domain.KindStoreError, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Result{}, domain.Wrap(domain.KindStoreError, err)
	}

	return Result{
		Status:  StatusApplied,
		TradeID: ev.TradeID,
		Lineage: lineage,
		Splits:  splits,
	}, nil
}

type payout struct {
	userID int64
	kind   domain.AccrualKind
	amount decimal.Decimal
}

// buildPayouts composes the payout list per spec.md §4.4 step 5: trader
// gets cashback, each present ancestor gets its level commission,
// treasury gets the residual — each entry only if strictly positive.
func buildPayouts(trader int64, lineage domain.Lineage, treasuryID int64, splits domain.Splits) []payout {
	var out []payout

	if splits.Cashback.IsPositive() {
		out = append(out, payout{userID: trader, kind: domain.AccrualCashback, amount: splits.Cashback})
	}

	levelKinds := [3]domain.AccrualKind{
		domain.AccrualCommissionL1,
		domain.AccrualCommissionL2,
		domain.AccrualCommissionL3,
	}
	levelAmounts := [3]decimal.Decimal{splits.L1, splits.L2, splits.L3}

	for i := 0; i < 3; i++ {
		if !lineage.Present(i) {
			continue
		}
		if levelAmounts[i].IsPositive() {
			out = append(out, payout{userID: *lineage[i], kind: levelKinds[i], amount: levelAmounts[i]})
		}
	}

	if splits.Treasury.IsPositive() {
		out = append(out, payout{userID: treasuryID, kind: domain.AccrualTreasury, amount: splits.Treasury})
	}

	return out
}
