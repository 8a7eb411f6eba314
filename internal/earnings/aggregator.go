// Package earnings implements the earnings aggregator (C5): the
// all-time/windowed view over a user's accrued, claimed, and unclaimed
// balances.
package earnings

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/withobsrvr/referral-accrual-engine/internal/domain"
	"github.com/withobsrvr/referral-accrual-engine/internal/store"
)

// KindTotals is the zero-filled per-kind view rendered by both modes.
type KindTotals struct {
	Accrued   decimal.Decimal
	Claimed   decimal.Decimal
	Unclaimed decimal.Decimal
}

// Query selects the mode and scope of a View call.
type Query struct {
	UserID           int64
	From             *time.Time
	To               *time.Time
	IncludeBreakdown bool
	BreakdownLimit   int
}

// View is the aggregated result, keyed by domain.AccrualKind over
// domain.KnownKinds.
type View struct {
	Totals    map[domain.AccrualKind]KindTotals
	Windowed  bool
	Breakdown []domain.AccrualEntry
}

// Aggregator wires a *sql.DB to the earnings view.
type Aggregator struct {
	db           *sql.DB
	defaultLimit int
}

// New builds an Aggregator. defaultBreakdownLimit bounds K when the
// caller omits BreakdownLimit.
func New(db *sql.DB, defaultBreakdownLimit int) *Aggregator {
	if defaultBreakdownLimit <= 0 {
		defaultBreakdownLimit = 50
	}
	return &Aggregator{db: db, defaultLimit: defaultBreakdownLimit}
}

// View implements spec.md §4.5. Windowed mode is selected whenever either
// bound of q is non-nil; otherwise all-time mode reads the ledger.
func (a *Aggregator) View(ctx context.Context, q Query) (View, error) {
	repo := store.New(a.db)
	windowed := q.From != nil || q.To != nil

	totals := zeroFilled()

	if windowed {
		sums, _, err := repo.JournalWindowTotals(ctx, q.UserID, q.From, q.To)
		if err != nil {
			return View{}, domain.Wrap(domain.KindStoreError, err)
		}
		for kind, sum := range sums {
			totals[kind] = KindTotals{
				Accrued:   sum,
				Claimed:   domain.Zero(),
				Unclaimed: sum,
			}
		}
	} else {
		rows, err := repo.LedgerRowsAllTime(ctx, q.UserID)
		if err != nil {
			return View{}, domain.Wrap(domain.KindStoreError, err)
		}
		for _, row := range rows {
			totals[row.Kind] = KindTotals{
				Accrued:   row.AccruedAmount,
				Claimed:   row.ClaimedAmount,
				Unclaimed: row.Unclaimed(),
			}
		}
	}

	view := View{Totals: totals, Windowed: windowed}

	if q.IncludeBreakdown {
		limit := q.BreakdownLimit
		if limit <= 0 {
			limit = a.defaultLimit
		}
		entries, err := repo.Breakdown(ctx, q.UserID, q.From, q.To, limit)
		if err != nil {
			return View{}, domain.Wrap(domain.KindStoreError, err)
		}
		view.Breakdown = entries
	}

	return view, nil
}

func zeroFilled() map[domain.AccrualKind]KindTotals {
	totals := make(map[domain.AccrualKind]KindTotals, len(domain.KnownKinds))
	for _, kind := range domain.KnownKinds {
		totals[kind] = KindTotals{
			Accrued:   domain.Zero(),
			Claimed:   domain.Zero(),
			Unclaimed: domain.Zero(),
		}
	}
	return totals
}
