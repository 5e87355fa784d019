package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/conektaolatam-netizen/conektao-sub000/internal/model"
)

// AuditRepository is the persistent half of the audit sink. Events are
// append-only; there is no update or delete.
type AuditRepository interface {
	Create(ctx context.Context, e *model.AuditEvent) error
	ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]model.AuditEvent, error)
}

type auditRepo struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) AuditRepository { return &auditRepo{db: db} }

func (r *auditRepo) Create(ctx context.Context, e *model.AuditEvent) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *auditRepo) ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]model.AuditEvent, error) {
	var events []model.AuditEvent
	err := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("created_at ASC").
		Find(&events).Error
	return events, err
}
