package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/conektaolatam-netizen/conektao-sub000/internal/model"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/money"
)

// SessionRepository persists cash sessions and their append-only entry log.
// There is deliberately no UpdateEntry/DeleteEntry: entries are immutable and
// corrections are new offsetting entries. Balance-affecting mutations of the
// session row itself (opening balance, close) are conditional updates so a
// losing writer gets zero rows affected instead of an overwrite.
type SessionRepository interface {
	Create(ctx context.Context, s *model.CashSession) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error)
	FindOpen(ctx context.Context, till int, date string) (*model.CashSession, error)

	// SetOpeningBalance seeds the float. Guarded on opening_balance_set=false
	// AND status='open'; returns rows affected.
	SetOpeningBalance(ctx context.Context, id uuid.UUID, amount money.Money) (int64, error)
	// UpdateOpeningBalance swaps an already-set float. Guarded on
	// opening_balance_set=true AND status='open'. Only the audited edit path
	// in the service calls this, inside the same transaction that appends the
	// OpeningBalanceEdit row.
	UpdateOpeningBalance(ctx context.Context, tx *gorm.DB, id uuid.UUID, amount money.Money) (int64, error)
	CreateOpeningEdit(ctx context.Context, tx *gorm.DB, e *model.OpeningBalanceEdit) error
	ListOpeningEdits(ctx context.Context, sessionID uuid.UUID) ([]model.OpeningBalanceEdit, error)

	// FindForUpdate locks the session row for the duration of tx, serializing
	// entry appends and close against each other per session.
	FindForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.CashSession, error)
	CreateEntry(ctx context.Context, tx *gorm.DB, e *model.LedgerEntry) error
	ListEntries(ctx context.Context, sessionID uuid.UUID) ([]model.LedgerEntry, error)
	// SumEntriesByKind folds the entry log: kind → sum of (positive) amounts.
	SumEntriesByKind(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (map[string]money.Money, error)

	// Close is guarded on status='open'; returns rows affected.
	Close(ctx context.Context, tx *gorm.DB, id uuid.UUID, counted, variance money.Money, closedBy uuid.UUID, at time.Time) (int64, error)
	ListClosed(ctx context.Context, page, limit int) ([]model.CashSession, int64, error)

	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type sessionRepo struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &sessionRepo{db: db} }

func (r *sessionRepo) DB() *gorm.DB { return r.db }

func (r *sessionRepo) Create(ctx context.Context, s *model.CashSession) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *sessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	return &s, err
}

func (r *sessionRepo) FindOpen(ctx context.Context, till int, date string) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).
		Where("till = ? AND business_date = ? AND status = ?", till, date, model.SessionOpen).
		First(&s).Error
	return &s, err
}

func (r *sessionRepo) SetOpeningBalance(ctx context.Context, id uuid.UUID, amount money.Money) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.CashSession{}).
		Where("id = ? AND opening_balance_set = false AND status = ?", id, model.SessionOpen).
		Updates(map[string]interface{}{
			"opening_balance":     amount,
			"opening_balance_set": true,
		})
	return res.RowsAffected, res.Error
}

func (r *sessionRepo) UpdateOpeningBalance(ctx context.Context, tx *gorm.DB, id uuid.UUID, amount money.Money) (int64, error) {
	res := tx.WithContext(ctx).Model(&model.CashSession{}).
		Where("id = ? AND opening_balance_set = true AND status = ?", id, model.SessionOpen).
		Update("opening_balance", amount)
	return res.RowsAffected, res.Error
}

func (r *sessionRepo) CreateOpeningEdit(ctx context.Context, tx *gorm.DB, e *model.OpeningBalanceEdit) error {
	return tx.WithContext(ctx).Create(e).Error
}

func (r *sessionRepo) ListOpeningEdits(ctx context.Context, sessionID uuid.UUID) ([]model.OpeningBalanceEdit, error) {
	var edits []model.OpeningBalanceEdit
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&edits).Error
	return edits, err
}

func (r *sessionRepo) FindForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&s, "id = ?", id).Error
	return &s, err
}

func (r *sessionRepo) CreateEntry(ctx context.Context, tx *gorm.DB, e *model.LedgerEntry) error {
	return tx.WithContext(ctx).Create(e).Error
}

func (r *sessionRepo) ListEntries(ctx context.Context, sessionID uuid.UUID) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("seq ASC").
		Find(&entries).Error
	return entries, err
}

func (r *sessionRepo) SumEntriesByKind(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (map[string]money.Money, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	var rows []struct {
		Kind  string
		Total int64
	}
	err := db.WithContext(ctx).Model(&model.LedgerEntry{}).
		Select("kind, COALESCE(SUM(amount), 0) AS total").
		Where("session_id = ?", sessionID).
		Group("kind").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	sums := make(map[string]money.Money, len(rows))
	for _, row := range rows {
		sums[row.Kind] = money.Money(row.Total)
	}
	return sums, nil
}

func (r *sessionRepo) Close(ctx context.Context, tx *gorm.DB, id uuid.UUID, counted, variance money.Money, closedBy uuid.UUID, at time.Time) (int64, error) {
	res := tx.WithContext(ctx).Model(&model.CashSession{}).
		Where("id = ? AND status = ? AND opening_balance_set = true", id, model.SessionOpen).
		Updates(map[string]interface{}{
			"status":       model.SessionClosed,
			"counted_cash": counted,
			"variance":     variance,
			"closed_by":    closedBy,
			"closed_at":    at,
		})
	return res.RowsAffected, res.Error
}

func (r *sessionRepo) ListClosed(ctx context.Context, page, limit int) ([]model.CashSession, int64, error) {
	var sessions []model.CashSession
	var total int64
	q := r.db.Model(&model.CashSession{}).Where("status = ?", model.SessionClosed)
	if err := q.WithContext(ctx).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.WithContext(ctx).
		Order("closed_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&sessions).Error
	return sessions, total, err
}
