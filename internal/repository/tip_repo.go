package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/conektaolatam-netizen/conektao-sub000/internal/model"
)

// TipRepository persists adjustment records, distributions, and payouts.
// Adjustments and distributions are immutable: the only updates are the
// payout pending→paid transition and the supersede pointer, both conditional.
type TipRepository interface {
	// CreateAdjustment returns gorm.ErrDuplicatedKey when a record already
	// exists for the sale (unique index on sale_id). Runs on tx when given so
	// the write can share the finalize transaction.
	CreateAdjustment(ctx context.Context, tx *gorm.DB, a *model.TipAdjustmentRecord) error
	FindAdjustmentBySale(ctx context.Context, saleID uuid.UUID) (*model.TipAdjustmentRecord, error)

	// CreateDistribution inserts the distribution and its payouts in one
	// statement chain; returns gorm.ErrDuplicatedKey when a live distribution
	// already exists for the sale.
	CreateDistribution(ctx context.Context, tx *gorm.DB, d *model.TipDistribution) error
	FindLiveDistributionBySale(ctx context.Context, saleID uuid.UUID) (*model.TipDistribution, error)
	FindDistributionByID(ctx context.Context, id uuid.UUID) (*model.TipDistribution, error)
	// Supersede marks old as replaced by new. Guarded on superseded_by IS NULL.
	Supersede(ctx context.Context, tx *gorm.DB, oldID, newID uuid.UUID) (int64, error)

	FindPayout(ctx context.Context, id uuid.UUID) (*model.TipPayout, error)
	// MarkPaid is the pending→paid CAS; returns rows affected.
	MarkPaid(ctx context.Context, id uuid.UUID) (int64, error)
	ListPendingPayouts(ctx context.Context) ([]model.TipPayout, error)

	DB() *gorm.DB
}

type tipRepo struct{ db *gorm.DB }

func NewTipRepository(db *gorm.DB) TipRepository { return &tipRepo{db: db} }

func (r *tipRepo) DB() *gorm.DB { return r.db }

func (r *tipRepo) CreateAdjustment(ctx context.Context, tx *gorm.DB, a *model.TipAdjustmentRecord) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	return db.WithContext(ctx).Create(a).Error
}

func (r *tipRepo) FindAdjustmentBySale(ctx context.Context, saleID uuid.UUID) (*model.TipAdjustmentRecord, error) {
	var a model.TipAdjustmentRecord
	err := r.db.WithContext(ctx).Where("sale_id = ?", saleID).First(&a).Error
	return &a, err
}

func (r *tipRepo) CreateDistribution(ctx context.Context, tx *gorm.DB, d *model.TipDistribution) error {
	return tx.WithContext(ctx).Create(d).Error
}

func (r *tipRepo) FindLiveDistributionBySale(ctx context.Context, saleID uuid.UUID) (*model.TipDistribution, error) {
	var d model.TipDistribution
	err := r.db.WithContext(ctx).
		Preload("Payouts").
		Where("sale_id = ? AND superseded_by IS NULL", saleID).
		First(&d).Error
	return &d, err
}

func (r *tipRepo) FindDistributionByID(ctx context.Context, id uuid.UUID) (*model.TipDistribution, error) {
	var d model.TipDistribution
	err := r.db.WithContext(ctx).Preload("Payouts").First(&d, "id = ?", id).Error
	return &d, err
}

func (r *tipRepo) Supersede(ctx context.Context, tx *gorm.DB, oldID, newID uuid.UUID) (int64, error) {
	res := tx.WithContext(ctx).Model(&model.TipDistribution{}).
		Where("id = ? AND superseded_by IS NULL", oldID).
		Update("superseded_by", newID)
	return res.RowsAffected, res.Error
}

func (r *tipRepo) FindPayout(ctx context.Context, id uuid.UUID) (*model.TipPayout, error) {
	var p model.TipPayout
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *tipRepo) MarkPaid(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.TipPayout{}).
		Where("id = ? AND status = ?", id, model.PayoutPending).
		Updates(map[string]interface{}{
			"status":  model.PayoutPaid,
			"paid_at": gorm.Expr("NOW()"),
		})
	return res.RowsAffected, res.Error
}

func (r *tipRepo) ListPendingPayouts(ctx context.Context) ([]model.TipPayout, error) {
	var payouts []model.TipPayout
	err := r.db.WithContext(ctx).
		Where("status = ?", model.PayoutPending).
		Order("created_at ASC").
		Find(&payouts).Error
	return payouts, err
}
