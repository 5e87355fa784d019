package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/conektaolatam-netizen/conektao-sub000/internal/model"
)

// SaleRepository stores consumed SaleCompleted events. The sale ID is the
// idempotency key: FindByID before create is how retries are detected.
type SaleRepository interface {
	Create(ctx context.Context, tx *gorm.DB, s *model.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	DB() *gorm.DB
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) Create(ctx context.Context, tx *gorm.DB, s *model.Sale) error {
	return tx.WithContext(ctx).Create(s).Error
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	return &s, err
}
