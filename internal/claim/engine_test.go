package claim

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func newMockEngine(t *testing.T) (*Engine, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	return New(db), mock, func() { db.Close() }
}

// TestExecuteClaim reproduces S6: after S1, claiming C's commission_l1
// balance of 60.000000 should lock the row, mark it claimed, and insert a
// pending payout batch for that amount.
func TestExecuteClaim(t *testing.T) {
	engine, mock, closeFn := newMockEngine(t)
	defer closeFn()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM accrual_ledger WHERE user_id = $1 AND token = $2")).
		WithArgs(int64(3), "USDC").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "kind", "token", "accrued_amount", "claimed_amount", "updated_at"}).
			AddRow(int64(3), "commission_l1", "USDC", "60.000000", "0.000000", now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accrual_ledger")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO payout_batches")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), now))
	mock.ExpectCommit()

	batch, err := engine.ExecuteClaim(context.Background(), 3, "USDC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch.Amount.String() != "60" {
		t.Errorf("amount = %s, want 60", batch.Amount.String())
	}
	if batch.Status != "pending" {
		t.Errorf("status = %s, want pending", batch.Status)
	}
	if batch.BatchID != 7 {
		t.Errorf("batch id = %d, want 7", batch.BatchID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestExecuteClaimNoBalance(t *testing.T) {
	engine, mock, closeFn := newMockEngine(t)
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM accrual_ledger WHERE user_id = $1 AND token = $2")).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "kind", "token", "accrued_amount", "claimed_amount", "updated_at"}))
	mock.ExpectRollback()

	_, err := engine.ExecuteClaim(context.Background(), 3, "USDC")
	if err == nil {
		t.Fatal("expected no_balance error")
	}
}

func TestExecuteClaimExhaustion(t *testing.T) {
	// Claim-exhaustion property: after a successful claim, a second claim attempt on the
	// same fully-claimed row sees nothing positive left and fails
	// nothing_to_claim, never double-paying.
	engine, mock, closeFn := newMockEngine(t)
	defer closeFn()

	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM accrual_ledger WHERE user_id = $1 AND token = $2")).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "kind", "token", "accrued_amount", "claimed_amount", "updated_at"}).
			AddRow(int64(3), "commission_l1", "USDC", "60.000000", "60.000000", now))
	mock.ExpectRollback()

	_, err := engine.ExecuteClaim(context.Background(), 3, "USDC")
	if err == nil {
		t.Fatal("expected nothing_to_claim error")
	}
}
