package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// FinalizeSaleRequest is the SaleCompleted event from checkout. SaleID is
// generated by the caller and is the idempotency key: resubmitting the same
// event returns the original result.
type FinalizeSaleRequest struct {
	SaleID        string          `json:"sale_id"        validate:"required,uuid"`
	SessionID     string          `json:"session_id"     validate:"required,uuid"`
	Subtotal      decimal.Decimal `json:"subtotal"       validate:"gt=0"`
	TipAmount     decimal.Decimal `json:"tip_amount"     validate:"min=0"`
	PaymentMethod string          `json:"payment_method" validate:"required,min=1"`
	// Required when the tip is below the suggestion and the venue enforces
	// justifications.
	ReasonType    string  `json:"reason_type"    validate:"omitempty,oneof=no_tip service_issue pricing_error negotiated_discount customer_choice other"`
	ReasonComment *string `json:"reason_comment"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleResponse struct {
	ID            string          `json:"id"`
	SessionID     string          `json:"session_id"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TipAmount     decimal.Decimal `json:"tip_amount"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	EntryKind     string          `json:"entry_kind"`
	CreatedAt     string          `json:"created_at"`
}
