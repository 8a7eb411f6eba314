package httpapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/withobsrvr/referral-accrual-engine/internal/accrual"
	"github.com/withobsrvr/referral-accrual-engine/internal/claim"
	"github.com/withobsrvr/referral-accrual-engine/internal/domain"
	"github.com/withobsrvr/referral-accrual-engine/internal/earnings"
)

type registerRequest struct {
	ChildUserID  int64  `json:"child_user_id"`
	ReferralCode string `json:"referral_code"`
}

type registerResponse struct {
	Status   string `json:"status"`
	ChildID  int64  `json:"child_id"`
	ParentID int64  `json:"parent_id"`
}

type generateRequest struct {
	UserID int64 `json:"user_id"`
}

type generateResponse struct {
	UserID       int64  `json:"user_id"`
	ReferralCode string `json:"referral_code"`
}

type tradeWebhookRequest struct {
	TradeID    string          `json:"trade_id"`
	TraderID   int64           `json:"trader_id"`
	Chain      string          `json:"chain"`
	FeeToken   string          `json:"fee_token"`
	FeeAmount  decimal.Decimal `json:"fee_amount"`
	ExecutedAt time.Time       `json:"executed_at"`
}

type splitsBody struct {
	Cashback string `json:"cashback"`
	L1       string `json:"l1"`
	L2       string `json:"l2"`
	L3       string `json:"l3"`
	Treasury string `json:"treasury"`
}

type tradeWebhookResponse struct {
	Status  string      `json:"status"`
	TradeID string      `json:"trade_id"`
	Lineage []*int64    `json:"lineage,omitempty"`
	Splits  *splitsBody `json:"splits,omitempty"`
}

func newTradeWebhookResponse(res accrual.Result) tradeWebhookResponse {
	out := tradeWebhookResponse{Status: string(res.Status), TradeID: res.TradeID}
	if res.Status != accrual.StatusApplied {
		return out
	}
	out.Lineage = []*int64{res.Lineage[0], res.Lineage[1], res.Lineage[2]}
	out.Splits = &splitsBody{
		Cashback: domain.FormatAmount(res.Splits.Cashback),
		L1:       domain.FormatAmount(res.Splits.L1),
		L2:       domain.FormatAmount(res.Splits.L2),
		L3:       domain.FormatAmount(res.Splits.L3),
		Treasury: domain.FormatAmount(res.Splits.Treasury),
	}
	return out
}

type networkUserBody struct {
	UserID     int64     `json:"user_id"`
	Username   string    `json:"username"`
	JoinedAt   time.Time `json:"joined_at"`
	ReferrerID *int64    `json:"referrer_id,omitempty"`
}

type networkLevelBody struct {
	Level int               `json:"level"`
	Users []networkUserBody `json:"users"`
}

type networkResponse struct {
	UserID        int64              `json:"user_id"`
	MaxLevels     int                `json:"max_levels"`
	LimitPerLevel int                `json:"limit_per_level"`
	Levels        []networkLevelBody `json:"levels"`
}

func newNetworkResponse(userID int64, maxLevels, limitPerLevel int, levels []domain.NetworkLevel) networkResponse {
	out := networkResponse{
		UserID:        userID,
		MaxLevels:     maxLevels,
		LimitPerLevel: limitPerLevel,
		Levels:        make([]networkLevelBody, 0, len(levels)),
	}
	for _, level := range levels {
		users := make([]networkUserBody, 0, len(level.Users))
		for _, u := range level.Users {
			users = append(users, networkUserBody{
				UserID:     u.UserID,
				Username:   u.Username,
				JoinedAt:   u.JoinedAt,
				ReferrerID: u.ReferrerID,
			})
		}
		out.Levels = append(out.Levels, networkLevelBody{Level: level.Level, Users: users})
	}
	return out
}

type rangeBody struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

type breakdownEntryBody struct {
	TradeID    string    `json:"trade_id"`
	Chain      string    `json:"chain"`
	Kind       string    `json:"kind"`
	Token      string    `json:"token"`
	Amount     string    `json:"amount"`
	ExecutedAt time.Time `json:"executed_at"`
}

type earningsResponse struct {
	UserID    int64                `json:"user_id"`
	Totals    map[string]string    `json:"totals"`
	Claimed   map[string]string    `json:"claimed"`
	Unclaimed map[string]string    `json:"unclaimed"`
	Range     *rangeBody           `json:"range,omitempty"`
	Breakdown []breakdownEntryBody `json:"breakdown,omitempty"`
}

func newEarningsResponse(userID int64, view earnings.View, q earnings.Query) earningsResponse {
	out := earningsResponse{
		UserID:    userID,
		Totals:    make(map[string]string, len(domain.KnownKinds)),
		Claimed:   make(map[string]string, len(domain.KnownKinds)),
		Unclaimed: make(map[string]string, len(domain.KnownKinds)),
	}
	for _, kind := range domain.KnownKinds {
		t := view.Totals[kind]
		out.Totals[string(kind)] = domain.FormatAmount(t.Accrued)
		out.Claimed[string(kind)] = domain.FormatAmount(t.Claimed)
		out.Unclaimed[string(kind)] = domain.FormatAmount(t.Unclaimed)
	}
	if q.From != nil || q.To != nil {
		out.Range = &rangeBody{From: q.From, To: q.To}
	}
	if view.Breakdown != nil {
		out.Breakdown = make([]breakdownEntryBody, 0, len(view.Breakdown))
		for _, e := range view.Breakdown {
			out.Breakdown = append(out.Breakdown, breakdownEntryBody{
				TradeID:    e.TradeBusinessID,
				Chain:      e.Chain,
				Kind:       string(e.Kind),
				Token:      e.Token,
				Amount:     domain.FormatAmount(e.Amount),
				ExecutedAt: e.ExecutedAt,
			})
		}
	}
	return out
}

type claimRequest struct {
	UserID int64  `json:"user_id"`
	Token  string `json:"token"`
}

type claimPreviewResponse struct {
	UserID    int64             `json:"user_id"`
	Token     string            `json:"token"`
	Claimable string            `json:"claimable"`
	Kinds     map[string]string `json:"kinds"`
}

func newClaimPreviewResponse(p claim.Preview) claimPreviewResponse {
	kinds := make(map[string]string, len(p.PerKind))
	for kind, amount := range p.PerKind {
		kinds[string(kind)] = domain.FormatAmount(amount)
	}
	return claimPreviewResponse{
		UserID:    p.UserID,
		Token:     p.Token,
		Claimable: domain.FormatAmount(p.Total),
		Kinds:     kinds,
	}
}

type claimExecuteResponse struct {
	BatchID   int64             `json:"batch_id"`
	UserID    int64             `json:"user_id"`
	Token     string            `json:"token"`
	Amount    string            `json:"amount"`
	Status    string            `json:"status"`
	PerKind   map[string]string `json:"per_kind"`
	CreatedAt time.Time         `json:"created_at"`
}

func newClaimExecuteResponse(b claim.Batch) claimExecuteResponse {
	perKind := make(map[string]string, len(b.PerKind))
	for kind, amount := range b.PerKind {
		perKind[string(kind)] = domain.FormatAmount(amount)
	}
	return claimExecuteResponse{
		BatchID:   b.BatchID,
		UserID:    b.UserID,
		Token:     b.Token,
		Amount:    domain.FormatAmount(b.Amount),
		Status:    b.Status,
		PerKind:   perKind,
		CreatedAt: b.CreatedAt,
	}
}

type userLookupResponse struct {
	UserID       int64  `json:"user_id"`
	Username     string `json:"username"`
	ReferralCode string `json:"referral_code"`
	ReferrerID   *int64 `json:"referrer_id,omitempty"`
}
