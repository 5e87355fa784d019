package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/conektaolatam-netizen/conektao-sub000/internal/money"
)

// Tip reduction reason types.
const (
	ReasonNoTip              = "no_tip"
	ReasonServiceIssue       = "service_issue"
	ReasonPricingError       = "pricing_error"
	ReasonNegotiatedDiscount = "negotiated_discount"
	ReasonCustomerChoice     = "customer_choice"
	ReasonOther              = "other"
)

// Distribution policies.
const (
	PolicyEqual   = "equal"
	PolicyByHours = "by_hours"
	PolicyManual  = "manual"
)

// Payout status values.
const (
	PayoutPending = "pending"
	PayoutPaid    = "paid"
)

// TipAdjustmentRecord justifies a gratuity that was reduced below the
// suggested amount before the sale finalized. Written at most once per sale,
// immutable afterwards.
type TipAdjustmentRecord struct {
	ID              uuid.UUID   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID          uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex"`
	SuggestedAmount money.Money `gorm:"type:bigint;not null"`
	FinalAmount     money.Money `gorm:"type:bigint;not null"`
	ReasonType      string      `gorm:"type:varchar(30);not null"`
	ReasonComment   *string
	ActorID         uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt       time.Time
}

// TipDistribution allocates one sale's collected tip across staff. The
// unique index on SaleID is the idempotency guarantee: at most one live
// distribution per sale, ever. Allocations are immutable once created —
// a correction supersedes the prior distribution, it never mutates it.
type TipDistribution struct {
	ID             uuid.UUID   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID         uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_distributions_sale,where:superseded_by IS NULL"`
	TotalTipAmount money.Money `gorm:"type:bigint;not null"`
	Policy         string      `gorm:"type:varchar(10);not null"`
	// SupersededBy points at the replacing distribution when a correction was
	// issued; nil means this is the live allocation for the sale.
	SupersededBy *uuid.UUID `gorm:"type:uuid"`
	CreatedBy    uuid.UUID  `gorm:"type:uuid;not null"`
	CreatedAt    time.Time

	Payouts []TipPayout `gorm:"foreignKey:DistributionID"`
}

// TipPayout is one employee's share. Amount never changes after creation;
// only Status transitions, pending → paid, exactly once.
type TipPayout struct {
	ID             uuid.UUID   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DistributionID uuid.UUID   `gorm:"type:uuid;not null;index"`
	EmployeeID     uuid.UUID   `gorm:"type:uuid;not null"`
	Amount         money.Money `gorm:"type:bigint;not null"`
	// WeightUsed records the input that produced the share: percent for
	// manual, minutes worked for by-hours, 0 for equal splits.
	WeightUsed int64  `gorm:"not null;default:0"`
	Status     string `gorm:"type:varchar(10);not null;default:'pending'"`
	PaidAt     *time.Time
	CreatedAt  time.Time
}

// ValidReasonType reports whether s is a recognized reduction reason.
func ValidReasonType(s string) bool {
	switch s {
	case ReasonNoTip, ReasonServiceIssue, ReasonPricingError,
		ReasonNegotiatedDiscount, ReasonCustomerChoice, ReasonOther:
		return true
	}
	return false
}
