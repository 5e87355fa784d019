package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type EvaluateTipRequest struct {
	Subtotal decimal.Decimal `json:"subtotal"  validate:"min=0"`
	TipFinal decimal.Decimal `json:"tip_final" validate:"min=0"`
}

type RecordAdjustmentRequest struct {
	SaleID          string          `json:"sale_id"          validate:"required,uuid"`
	SuggestedAmount decimal.Decimal `json:"suggested_amount" validate:"min=0"`
	FinalAmount     decimal.Decimal `json:"final_amount"     validate:"min=0"`
	ReasonType      string          `json:"reason_type"      validate:"required,oneof=no_tip service_issue pricing_error negotiated_discount customer_choice other"`
	ReasonComment   *string         `json:"reason_comment"`
}

type DistributionParticipant struct {
	EmployeeID string `json:"employee_id" validate:"required,uuid"`
	// Weight is the manual percentage; ignored for equal and by_hours.
	Weight int64 `json:"weight" validate:"min=0"`
}

type ComputeDistributionRequest struct {
	TotalTip decimal.Decimal `json:"total_tip" validate:"gt=0"`
	Policy   string          `json:"policy"    validate:"required,oneof=equal by_hours manual"`
	// BusinessDate selects the eligible roster for by_hours; defaults to today.
	BusinessDate string                    `json:"business_date" validate:"omitempty,datetime=2006-01-02"`
	Participants []DistributionParticipant `json:"participants"  validate:"omitempty,dive"`
}

type PersistDistributionRequest struct {
	SaleID string `json:"sale_id" validate:"required,uuid"`
	ComputeDistributionRequest
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type TipEvaluationResponse struct {
	SuggestedAmount decimal.Decimal `json:"suggested_amount"`
	FinalAmount     decimal.Decimal `json:"final_amount"`
	Reduced         bool            `json:"reduced"`
	RequiresReason  bool            `json:"requires_reason"`
}

type AdjustmentResponse struct {
	ID              string          `json:"id"`
	SaleID          string          `json:"sale_id"`
	SuggestedAmount decimal.Decimal `json:"suggested_amount"`
	FinalAmount     decimal.Decimal `json:"final_amount"`
	ReasonType      string          `json:"reason_type"`
	ReasonComment   *string         `json:"reason_comment,omitempty"`
	CreatedAt       string          `json:"created_at"`
}

type EligibleStaffResponse struct {
	EmployeeID    string `json:"employee_id"`
	Name          string `json:"name"`
	WorkedMinutes int64  `json:"worked_minutes"`
}

type PayoutResponse struct {
	ID         string          `json:"id"`
	EmployeeID string          `json:"employee_id"`
	Amount     decimal.Decimal `json:"amount"`
	WeightUsed int64           `json:"weight_used"`
	Status     string          `json:"status"`
	PaidAt     *string         `json:"paid_at,omitempty"`
}

type DistributionResponse struct {
	ID           string           `json:"id"`
	SaleID       string           `json:"sale_id"`
	TotalTip     decimal.Decimal  `json:"total_tip"`
	Policy       string           `json:"policy"`
	SupersededBy *string          `json:"superseded_by,omitempty"`
	Payouts      []PayoutResponse `json:"payouts"`
	CreatedAt    string           `json:"created_at"`
}
