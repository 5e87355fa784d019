package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/conektaolatam-netizen/conektao-sub000/internal/money"
)

// Sale is the record of a SaleCompleted event consumed from checkout. The ID
// is the caller's sale identifier and doubles as the idempotency key: a
// client retrying finalize after a timeout hits the existing row and gets
// the original result back instead of double-counting the till.
type Sale struct {
	ID            uuid.UUID   `gorm:"type:uuid;primaryKey"`
	SessionID     uuid.UUID   `gorm:"type:uuid;not null;index"`
	Total         money.Money `gorm:"type:bigint;not null"`
	Subtotal      money.Money `gorm:"type:bigint;not null"`
	PaymentMethod string      `gorm:"type:varchar(30);not null"`
	TipAmount     money.Money `gorm:"type:bigint;not null;default:0"`
	CreatedBy     uuid.UUID   `gorm:"type:uuid;not null"`
	CreatedAt     time.Time
}
