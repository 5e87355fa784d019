package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenSessionRequest struct {
	Till int `json:"till" validate:"required,min=1"`
	// BusinessDate defaults to today when omitted. Format YYYY-MM-DD.
	BusinessDate string `json:"business_date" validate:"omitempty,datetime=2006-01-02"`
}

type SetOpeningBalanceRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"min=0"`
}

type EditOpeningBalanceRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"min=0"`
	Reason string          `json:"reason" validate:"required,min=5"`
}

type RecordEntryRequest struct {
	Kind        string          `json:"kind"        validate:"required,oneof=manual_deposit manual_withdrawal cash_expense"`
	Amount      decimal.Decimal `json:"amount"      validate:"gt=0"`
	Description string          `json:"description" validate:"required,min=3"`
}

type CloseSessionRequest struct {
	CountedCash decimal.Decimal `json:"counted_cash" validate:"min=0"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SessionResponse struct {
	ID                string           `json:"id"`
	Till              int              `json:"till"`
	BusinessDate      string           `json:"business_date"`
	Status            string           `json:"status"`
	OpeningBalance    *decimal.Decimal `json:"opening_balance"` // nil until set
	OpeningBalanceSet bool             `json:"opening_balance_set"`
	CountedCash       *decimal.Decimal `json:"counted_cash,omitempty"`
	Variance          *decimal.Decimal `json:"variance,omitempty"`
	ClosedAt          *string          `json:"closed_at,omitempty"`
}

type LedgerEntryResponse struct {
	ID          string          `json:"id"`
	Seq         int64           `json:"seq"`
	Kind        string          `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	SaleID      *string         `json:"sale_id,omitempty"`
	CreatedAt   string          `json:"created_at"`
}

type BalanceResponse struct {
	SessionID   string          `json:"session_id"`
	CashBalance decimal.Decimal `json:"cash_balance"`
}

type OpeningEditResponse struct {
	OldAmount decimal.Decimal `json:"old_amount"`
	NewAmount decimal.Decimal `json:"new_amount"`
	Reason    string          `json:"reason"`
	ActorID   string          `json:"actor_id"`
	CreatedAt string          `json:"created_at"`
}

type SessionReportResponse struct {
	Session     SessionResponse            `json:"session"`
	SumsByKind  map[string]decimal.Decimal `json:"sums_by_kind"`
	CashBalance decimal.Decimal            `json:"cash_balance"`
	Edits       []OpeningEditResponse      `json:"opening_balance_edits"`
}

type CloseSessionResponse struct {
	SessionID    string          `json:"session_id"`
	ExpectedCash decimal.Decimal `json:"expected_cash"`
	CountedCash  decimal.Decimal `json:"counted_cash"`
	Variance     decimal.Decimal `json:"variance"`
	ClosedAt     string          `json:"closed_at"`
}

type SessionHistoryResponse struct {
	Sessions []SessionResponse `json:"sessions"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}
