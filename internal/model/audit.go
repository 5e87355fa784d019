package model

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions emitted by the core. Every mutation of a previously-set
// value and every close/distribution goes through this trail.
const (
	AuditOpeningBalanceEdited = "opening_balance_edited"
	AuditTipAdjusted          = "tip_adjusted"
	AuditSessionClosed        = "session_closed"
	AuditDistributionCreated  = "distribution_created"
)

// AuditEvent is the persisted form of the structured audit record
// {actor, action, before?, after?, reason?, timestamp}. Before/After are
// amounts rendered as fixed-point strings so the trail is self-describing
// without joining other tables.
type AuditEvent struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ActorID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Action    string    `gorm:"type:varchar(40);not null;index"`
	SubjectID uuid.UUID `gorm:"type:uuid;not null"`
	Before    *string
	After     *string
	Reason    *string
	CreatedAt time.Time `gorm:"index"`
}
