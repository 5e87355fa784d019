package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/conektaolatam-netizen/conektao-sub000/internal/money"
)

// Session status values.
const (
	SessionOpen   = "open"
	SessionClosed = "closed"
)

// Ledger entry kinds. The sign of an entry is implied by its kind — amounts
// are always stored positive.
const (
	EntryCashSale         = "cash_sale"
	EntryCardSale         = "card_sale"
	EntryManualDeposit    = "manual_deposit"
	EntryManualWithdrawal = "manual_withdrawal"
	EntryCashExpense      = "cash_expense"
)

// CashSession tracks one till for one business day. Its accumulators are
// never stored: every balance is a fold over the session's LedgerEntry rows,
// so the cash position can always be recomputed from the event log.
type CashSession struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Till         int       `gorm:"not null;index:idx_sessions_till_date,unique,where:status = 'open'"`
	BusinessDate string    `gorm:"type:date;not null;index:idx_sessions_till_date,unique,where:status = 'open'"`

	// OpeningBalance is only meaningful once OpeningBalanceSet is true. A
	// session cannot be reconciled before the float has been configured.
	OpeningBalance    money.Money `gorm:"type:bigint;not null;default:0"`
	OpeningBalanceSet bool        `gorm:"not null;default:false"`

	Status string `gorm:"type:varchar(10);not null;default:'open'"`

	// Close reconciliation. Variance = counted - expected cash; positive is a
	// surplus ("sobrante"), negative a shortage ("faltante").
	CountedCash *money.Money `gorm:"type:bigint"`
	Variance    *money.Money `gorm:"type:bigint"`
	ClosedBy    *uuid.UUID   `gorm:"type:uuid"`
	ClosedAt    *time.Time

	OpenedBy  uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Entries []LedgerEntry `gorm:"foreignKey:SessionID"`
}

// LedgerEntry is one immutable money-moving event. Entries are NEVER updated
// or deleted — corrections are new offsetting entries. Seq gives the
// deterministic per-session replay order.
type LedgerEntry struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Seq         int64       `gorm:"autoIncrement;uniqueIndex"`
	SessionID   uuid.UUID   `gorm:"type:uuid;not null;index"`
	Kind        string      `gorm:"type:varchar(20);not null"`
	Amount      money.Money `gorm:"type:bigint;not null"`
	Description string      `gorm:"not null"`
	// SaleID links sale entries back to the originating sale.
	SaleID    *uuid.UUID `gorm:"type:uuid;index"`
	CreatedBy uuid.UUID  `gorm:"type:uuid;not null"`
	CreatedAt time.Time
}

// EntrySign returns +1 for kinds that add cash or revenue, -1 for kinds that
// remove cash from the drawer.
func EntrySign(kind string) int64 {
	switch kind {
	case EntryManualWithdrawal, EntryCashExpense:
		return -1
	default:
		return 1
	}
}

// CashKinds are the entry kinds that move physical cash and therefore count
// toward the drawer balance. Card sales reconcile outside the drawer.
func CashKinds() []string {
	return []string{EntryCashSale, EntryManualDeposit, EntryManualWithdrawal, EntryCashExpense}
}

// CashBalance folds per-kind entry sums into the drawer balance:
// opening + cash sales + deposits - withdrawals - expenses. Card sales are
// excluded — they settle outside the drawer.
func CashBalance(opening money.Money, sums map[string]money.Money) money.Money {
	balance := opening
	for _, kind := range CashKinds() {
		if EntrySign(kind) > 0 {
			balance = balance.Add(sums[kind])
		} else {
			balance = balance.Sub(sums[kind])
		}
	}
	return balance
}

// OpeningBalanceEdit is the append-only audit trail for opening-balance
// changes. The old value is never overwritten silently: every edit records
// both sides, the reason, and the actor.
type OpeningBalanceEdit struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID uuid.UUID   `gorm:"type:uuid;not null;index"`
	OldAmount money.Money `gorm:"type:bigint;not null"`
	NewAmount money.Money `gorm:"type:bigint;not null"`
	Reason    string      `gorm:"not null"`
	ActorID   uuid.UUID   `gorm:"type:uuid;not null"`
	CreatedAt time.Time
}
