package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/conektaolatam-netizen/conektao-sub000/internal/model"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/money"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/repository"
)

// FinalizeSaleInput carries one completed checkout. SaleID comes from the
// caller and is the idempotency key for the whole finalize.
type FinalizeSaleInput struct {
	SaleID        uuid.UUID
	SessionID     uuid.UUID
	Subtotal      money.Money
	TipAmount     money.Money
	PaymentMethod string
	// Reason fields justify a tip below the suggestion; ignored otherwise.
	ReasonType    string
	ReasonComment *string
}

// SaleService consumes completed checkouts: it persists the sale, appends
// its ledger entry to the session, and records the tip justification when
// the gratuity was reduced. All of that commits atomically per sale;
// retrying a finalize returns the first result.
type SaleService interface {
	Finalize(ctx context.Context, actorID uuid.UUID, in FinalizeSaleInput) (*model.Sale, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
}

type saleService struct {
	repo        repository.SaleRepository
	sessionRepo repository.SessionRepository
	ledger      LedgerService
	tips        TipService
}

func NewSaleService(repo repository.SaleRepository, sessionRepo repository.SessionRepository, ledger LedgerService, tips TipService) SaleService {
	return &saleService{repo: repo, sessionRepo: sessionRepo, ledger: ledger, tips: tips}
}

// ── Finalize ──────────────────────────────────────────────────────────────────

func (s *saleService) Finalize(ctx context.Context, actorID uuid.UUID, in FinalizeSaleInput) (*model.Sale, error) {
	if in.Subtotal.Cmp(money.Zero) <= 0 {
		return nil, ErrNonPositiveAmount
	}
	if in.TipAmount.IsNegative() {
		return nil, ErrNegativeAmount
	}

	// Reduced tips must arrive with their justification; the sale is not
	// accepted first and questioned later.
	ev, err := s.tips.Evaluate(in.Subtotal, in.TipAmount)
	if err != nil {
		return nil, err
	}
	if ev.RequiresReason {
		if in.ReasonType == "" {
			return nil, ErrReasonRequired
		}
		if !model.ValidReasonType(in.ReasonType) {
			return nil, ErrInvalidReasonType
		}
	}

	sale := &model.Sale{
		ID:            in.SaleID,
		SessionID:     in.SessionID,
		Subtotal:      in.Subtotal,
		TipAmount:     in.TipAmount,
		Total:         in.Subtotal.Add(in.TipAmount),
		PaymentMethod: in.PaymentMethod,
		CreatedBy:     actorID,
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		session, err := s.sessionRepo.FindForUpdate(ctx, tx, in.SessionID)
		if err != nil {
			return ErrSessionNotFound
		}
		if session.Status == model.SessionClosed {
			return ErrSessionClosed
		}

		if err := s.repo.Create(ctx, tx, sale); err != nil {
			return err
		}
		if err := s.ledger.ApplySale(ctx, tx, actorID, sale); err != nil {
			return err
		}

		// The justification commits with the sale: a failed write here rolls
		// the whole finalize back, so a reduced-tip sale can never land
		// without its adjustment record.
		if ev.Reduced && in.ReasonType != "" {
			if _, err := s.tips.Record(ctx, tx, actorID, sale.ID, ev.Suggested, in.TipAmount, in.ReasonType, in.ReasonComment); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(txErr, gorm.ErrDuplicatedKey) {
		// Retry of an already-finalized sale: hand back the original,
		// backfilling the justification if an earlier write path left the
		// sale without one.
		existing, err := s.repo.FindByID(ctx, in.SaleID)
		if err != nil {
			return nil, err
		}
		if ev.Reduced && in.ReasonType != "" {
			_, err := s.tips.Record(ctx, nil, actorID, existing.ID, ev.Suggested, in.TipAmount, in.ReasonType, in.ReasonComment)
			if err != nil && !errors.Is(err, ErrDuplicateAdjustment) {
				return nil, err
			}
		}
		return existing, nil
	}
	if txErr != nil {
		return nil, txErr
	}
	return sale, nil
}

func (s *saleService) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrSaleNotFound
	}
	return sale, nil
}
