package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/withobsrvr/referral-accrual-engine/internal/domain"
)

// Repository is a typed accessor bound to a Queryer — either the pool
// directly, for read-only operations, or a transaction, for anything
// that must be atomic. Engine packages construct one per call by passing
// either db or a tx they opened themselves.
type Repository struct {
	q Queryer
}

// New binds a Repository to any Queryer (a *sql.DB or an in-flight *sql.Tx).
func New(q Queryer) *Repository {
	return &Repository{q: q}
}

const referralCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GetUserByID fetches a user by surrogate id.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, username, referral_code, referrer_id, is_treasury, created_at
		FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetUserByUsername fetches a user by username (operator/debug lookup,
// grounded in original_source's get_user_id_by_username).
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, username, referral_code, referrer_id, is_treasury, created_at
		FROM users WHERE username = $1`, username)
	return scanUser(row)
}

// GetUserByReferralCode resolves a referral code to its owning user.
func (r *Repository) GetUserByReferralCode(ctx context.Context, code string) (*domain.User, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, username, referral_code, referrer_id, is_treasury, created_at
		FROM users WHERE referral_code = $1`, code)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	var code sql.NullString
	var referrer sql.NullInt64
	if err := row.Scan(&u.ID, &u.Username, &code, &referrer, &u.IsTreasury, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if code.Valid {
		u.ReferralCode = code.String
	}
	if referrer.Valid {
		id := referrer.Int64
		u.ReferrerID = &id
	}
	return &u, nil
}

// GetReferrerID returns a user's referrer_id, or nil if they have none.
// Returns domain.ErrNotFound if the user does not exist.
func (r *Repository) GetReferrerID(ctx context.Context, userID int64) (*int64, error) {
	var referrer sql.NullInt64
	err := r.q.QueryRowContext(ctx, `SELECT referrer_id FROM users WHERE id = $1`, userID).Scan(&referrer)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get referrer id: %w", err)
	}
	if !referrer.Valid {
		return nil, nil
	}
	id := referrer.Int64
	return &id, nil
}

// GetReferrerIDForUpdate is GetReferrerID with a row lock, used while
// walking the ancestor chain inside assign_referrer's transaction so a
// concurrent assign_referrer on the same path cannot race a cycle in
// (spec.md §4.2, §5).
func (r *Repository) GetReferrerIDForUpdate(ctx context.Context, userID int64) (*int64, error) {
	var referrer sql.NullInt64
	err := r.q.QueryRowContext(ctx, `SELECT referrer_id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&referrer)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get referrer id for update: %w", err)
	}
	if !referrer.Valid {
		return nil, nil
	}
	id := referrer.Int64
	return &id, nil
}

// SetReferrerID sets referrer_id on a user, assuming all rule checks have
// already been performed by the caller (domain.AssignReferrer). Returns
// domain.ErrNotFound if the update touched zero rows.
func (r *Repository) SetReferrerID(ctx context.Context, childID, parentID int64) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET referrer_id = $1, updated_at = NOW() WHERE id = $2`,
		parentID, childID)
	if err != nil {
		return fmt.Errorf("set referrer id: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set referrer id rows affected: %w", err)
	}
	if n != 1 {
		return domain.ErrNotFound
	}
	return nil
}

// GetOrAssignReferralCode returns a user's existing referral_code, or
// generates, persists, and returns a fresh one if absent (spec.md §4.2).
func (r *Repository) GetOrAssignReferralCode(ctx context.Context, userID int64) (string, error) {
	var existing sql.NullString
	err := r.q.QueryRowContext(ctx, `SELECT referral_code FROM users WHERE id = $1`, userID).Scan(&existing)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("lookup referral code: %w", err)
	}
	if existing.Valid && existing.String != "" {
		return existing.String, nil
	}

	for {
		candidate, err := generateReferralCode()
		if err != nil {
			return "", fmt.Errorf("generate referral code: %w", err)
		}

		var taken bool
		if err := r.q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE referral_code = $1)`, candidate).Scan(&taken); err != nil {
			return "", fmt.Errorf("check referral code uniqueness: %w", err)
		}
		if taken {
			continue
		}

		res, err := r.q.ExecContext(ctx, `UPDATE users SET referral_code = $1, updated_at = NOW() WHERE id = $2`, candidate, userID)
		if err != nil {
			return "", fmt.Errorf("assign referral code: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil || n != 1 {
			return "", domain.ErrNotFound
		}
		return candidate, nil
	}
}

// generateReferralCode draws "REF_" + 8 characters from [A-Z0-9] using a
// cryptographically strong RNG (spec.md §4.2).
func generateReferralCode() (string, error) {
	buf := make([]byte, 8)
	idx := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		idx[i] = referralCodeAlphabet[int(b)%len(referralCodeAlphabet)]
	}
	return "REF_" + string(idx), nil
}

// GetTreasuryUserID returns the id of the designated treasury sink.
func (r *Repository) GetTreasuryUserID(ctx context.Context) (int64, error) {
	var id int64
	err := r.q.QueryRowContext(ctx, `SELECT id FROM users WHERE is_treasury = TRUE LIMIT 1`).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("get treasury user: %w", err)
	}
	return id, nil
}

// InsertTradeIfAbsent inserts a trade row keyed by (trade_id, chain).
// Returns (surrogate id, created=true) on first insert, or
// (existing surrogate id, created=false) on a duplicate delivery —
// the sole idempotency mechanism (spec.md §4.4 step 1).
func (r *Repository) InsertTradeIfAbsent(ctx context.Context, t domain.Trade) (int64, bool, error) {
	var id int64
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO trades (trade_id, chain, trader_id, fee_token, fee_amount, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (trade_id, chain) DO NOTHING
		RETURNING id`,
		t.TradeID, t.Chain, t.TraderID, t.FeeToken, t.FeeAmount, t.ExecutedAt,
	).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, fmt.Errorf("insert trade: %w", err)
	}

	err = r.q.QueryRowContext(ctx, `SELECT id FROM trades WHERE trade_id = $1 AND chain = $2`, t.TradeID, t.Chain).Scan(&id)
	if err != nil {
		return 0, false, fmt.Errorf("lookup existing trade: %w", err)
	}
	return id, false, nil
}

// InsertAccrualEntry appends one journal row.
func (r *Repository) InsertAccrualEntry(ctx context.Context, e domain.AccrualEntry) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO accrual_entries (trade_id, chain, beneficiary_user_id, kind, token, amount, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.TradeID, e.Chain, e.BeneficiaryUserID, string(e.Kind), e.Token, e.Amount, e.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("insert accrual entry: %w", err)
	}
	return nil
}

// UpsertLedgerDelta increments accrued_amount for (user, kind, token),
// creating the row on first accrual (spec.md §3 Accrual Ledger Lifecycle).
func (r *Repository) UpsertLedgerDelta(ctx context.Context, userID int64, kind domain.AccrualKind, token string, delta decimal.Decimal) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO accrual_ledger (user_id, kind, token, accrued_amount, claimed_amount)
		VALUES ($1, $2, $3, $4, 0)
		ON CONFLICT (user_id, kind, token)
		DO UPDATE SET
			accrued_amount = accrual_ledger.accrued_amount + EXCLUDED.accrued_amount,
			updated_at = NOW()`,
		userID, string(kind), token, delta,
	)
	if err != nil {
		return fmt.Errorf("upsert ledger delta: %w", err)
	}
	return nil
}

// LedgerRowsAllTime returns every ledger row for a user, across kind and
// token (used by the all-time earnings view).
func (r *Repository) LedgerRowsAllTime(ctx context.Context, userID int64) ([]domain.LedgerRow, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT user_id, kind, token, accrued_amount, claimed_amount, updated_at
		FROM accrual_ledger WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("query ledger rows: %w", err)
	}
	defer rows.Close()
	return scanLedgerRows(rows)
}

// LedgerRowsForUpdate locks and returns every ledger row for
// (user, token), used by the claim engine (spec.md §4.6 step 1).
func (r *Repository) LedgerRowsForUpdate(ctx context.Context, userID int64, token string) ([]domain.LedgerRow, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT user_id, kind, token, accrued_amount, claimed_amount, updated_at
		FROM accrual_ledger WHERE user_id = $1 AND token = $2
		FOR UPDATE`, userID, token)
	if err != nil {
		return nil, fmt.Errorf("lock ledger rows: %w", err)
	}
	defer rows.Close()
	return scanLedgerRows(rows)
}

func scanLedgerRows(rows *sql.Rows) ([]domain.LedgerRow, error) {
	var out []domain.LedgerRow
	for rows.Next() {
		var row domain.LedgerRow
		var kind string
		if err := rows.Scan(&row.UserID, &kind, &row.Token, &row.AccruedAmount, &row.ClaimedAmount, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		row.Kind = domain.AccrualKind(kind)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger rows: %w", err)
	}
	return out, nil
}

// MarkClaimableClaimed sets claimed_amount = accrued_amount on every
// claimable-kind row for (user, token) — idempotent with respect to
// already-fully-claimed rows (spec.md §4.6 step 4).
func (r *Repository) MarkClaimableClaimed(ctx context.Context, userID int64, token string, kinds []domain.AccrualKind) error {
	kindStrings := make([]string, len(kinds))
	for i, k := range kinds {
		kindStrings[i] = string(k)
	}
	_, err := r.q.ExecContext(ctx, `
		UPDATE accrual_ledger
		SET claimed_amount = accrued_amount, updated_at = NOW()
		WHERE user_id = $1 AND token = $2 AND kind = ANY($3)`,
		userID, token, pqStringArray(kindStrings))
	if err != nil {
		return fmt.Errorf("mark claimable claimed: %w", err)
	}
	return nil
}

// InsertPayoutBatch creates a pending payout batch and returns its id and
// created_at (spec.md §4.6 step 5).
func (r *Repository) InsertPayoutBatch(ctx context.Context, userID int64, token string, amount decimal.Decimal) (id int64, createdAt time.Time, err error) {
	err = r.q.QueryRowContext(ctx, `
		INSERT INTO payout_batches (user_id, token, amount, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING id, created_at`,
		userID, token, amount,
	).Scan(&id, &createdAt)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("insert payout batch: %w", err)
	}
	return id, createdAt, nil
}

// JournalWindowTotals sums journal amounts by kind for a user within
// [from, to), used by the windowed earnings view (spec.md §4.5).
func (r *Repository) JournalWindowTotals(ctx context.Context, userID int64, from, to *time.Time) (map[domain.AccrualKind]decimal.Decimal, string, error) {
	query := `SELECT kind, token, SUM(amount) FROM accrual_entries WHERE beneficiary_user_id = $1`
	args := []any{userID}
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND executed_at >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND executed_at < $%d", len(args))
	}
	query += " GROUP BY kind, token"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("query journal window totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[domain.AccrualKind]decimal.Decimal)
	token := ""
	for rows.Next() {
		var kind, rowToken string
		var sum decimal.Decimal
		if err := rows.Scan(&kind, &rowToken, &sum); err != nil {
			return nil, "", fmt.Errorf("scan journal window total: %w", err)
		}
		totals[domain.AccrualKind(kind)] = sum
		token = rowToken
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("iterate journal window totals: %w", err)
	}
	return totals, token, nil
}

// Breakdown returns up to limit journal entries for a user, most recent
// first, joined to the owning trade for its business id (spec.md §4.5).
func (r *Repository) Breakdown(ctx context.Context, userID int64, from, to *time.Time, limit int) ([]domain.AccrualEntry, error) {
	query := `
		SELECT ae.amount, ae.kind, ae.token, ae.executed_at, ae.chain, t.trade_id
		FROM accrual_entries ae
		JOIN trades t ON ae.trade_id = t.id
		WHERE ae.beneficiary_user_id = $1`
	args := []any{userID}
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND ae.executed_at >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND ae.executed_at < $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY ae.executed_at DESC LIMIT $%d", len(args))

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query breakdown: %w", err)
	}
	defer rows.Close()

	var out []domain.AccrualEntry
	for rows.Next() {
		var e domain.AccrualEntry
		var kind string
		if err := rows.Scan(&e.Amount, &kind, &e.Token, &e.ExecutedAt, &e.Chain, &e.TradeBusinessID); err != nil {
			return nil, fmt.Errorf("scan breakdown entry: %w", err)
		}
		e.Kind = domain.AccrualKind(kind)
		e.BeneficiaryUserID = userID
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate breakdown: %w", err)
	}
	return out, nil
}

// NetworkLevelUsers returns the children of the given parent ids, capped
// at limit and ordered newest-first (spec.md §4.7).
func (r *Repository) NetworkLevelUsers(ctx context.Context, parentIDs []int64, limit int) ([]domain.NetworkUser, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, username, created_at, referrer_id
		FROM users
		WHERE referrer_id = ANY($1)
		ORDER BY created_at DESC
		LIMIT $2`, pqInt64Array(parentIDs), limit)
	if err != nil {
		return nil, fmt.Errorf("query network level: %w", err)
	}
	defer rows.Close()

	var out []domain.NetworkUser
	for rows.Next() {
		var u domain.NetworkUser
		var referrer sql.NullInt64
		if err := rows.Scan(&u.UserID, &u.Username, &u.JoinedAt, &referrer); err != nil {
			return nil, fmt.Errorf("scan network user: %w", err)
		}
		if referrer.Valid {
			id := referrer.Int64
			u.ReferrerID = &id
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate network level: %w", err)
	}
	return out, nil
}
